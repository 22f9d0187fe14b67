package bgzf

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/grailbio/base/syncqueue"
	"github.com/grailbio/bgzip/encoding/bgzf/deflate"
	"github.com/pkg/errors"
)

// DefaultWriteBlockUnitNum is the number of .bgzf blocks each worker
// compresses per dispatched batch, amortizing goroutine scheduling
// cost at the price of coarser-grained latency.
const DefaultWriteBlockUnitNum = 50

type writeBlockSize struct {
	uncompressed int
	compressed   int
}

// writeBatch is a recyclable unit of work: up to writeBlockNum
// .bgzf blocks' worth of raw bytes, and the compressed output they
// produce.
type writeBatch struct {
	index      int
	raw        bytes.Buffer
	compressed bytes.Buffer
	sizes      []writeBlockSize
}

func (b *writeBatch) reset() {
	b.raw.Reset()
	b.compressed.Reset()
	b.sizes = b.sizes[:0]
}

// MultiWriter compresses data into .bgzf format, same as Writer, but
// spreads block compression across a pool of worker goroutines while
// a single goroutine retains ownership of the sink and writes
// completed batches out in the order they were accepted from the
// caller.
//
// Unlike Writer, MultiWriter does not expose a per-call VOffset: since
// compression happens asynchronously in batches, the virtual offset
// of a given Write call is not known until its batch has been
// compressed and written.
type MultiWriter struct {
	ctx              context.Context
	w                io.Writer
	factory          deflate.Factory
	compressUnitSize int
	writeBlockNum    int
	xfl              byte

	pool  *syncqueue.LIFO
	queue *syncqueue.OrderedQueue

	cur             *writeBatch
	nextDispatchIdx int
	dispatchWG      sync.WaitGroup

	writerWG  sync.WaitGroup
	workerErr atomic.Value // error

	coffset uint64
	uoffset uint64
	index   *Index
	closed  bool
}

// NewMultiWriter returns a new multi-threaded .bgzf writer with the
// given compression level and worker count, using the pure-Go
// klauspost/compress engine.
func NewMultiWriter(w io.Writer, level, workers int) (*MultiWriter, error) {
	return NewMultiWriterParams(context.Background(), w, deflate.NewKlauspostFactory(level),
		DefaultUncompressedBlockSize, DefaultWriteBlockUnitNum, workers, 0)
}

// NewMultiWriterParams returns a new multi-threaded .bgzf writer with
// explicit configuration. compressUnitSize is the uncompressed size
// of each individual .bgzf block; writeBlockNum is the number of such
// blocks batched per worker dispatch; workers bounds the number of
// batches allowed in flight at once (to 2*workers).
func NewMultiWriterParams(ctx context.Context, w io.Writer, factory deflate.Factory, compressUnitSize, writeBlockNum, workers int, xfl byte) (*MultiWriter, error) {
	if compressUnitSize >= MaxUncompressedBlockSize {
		return nil, errors.Wrapf(ErrCompressUnitTooLarge, "%d >= %d", compressUnitSize, MaxUncompressedBlockSize)
	}
	if workers < 1 {
		workers = 1
	}
	mw := &MultiWriter{
		ctx:              ctx,
		w:                w,
		factory:          factory,
		compressUnitSize: compressUnitSize,
		writeBlockNum:    writeBlockNum,
		xfl:              xfl,
		pool:             syncqueue.NewLIFO(),
		queue:            syncqueue.NewOrderedQueue(workers * 2),
	}
	for i := 0; i < workers*2; i++ {
		mw.pool.Put(&writeBatch{})
	}
	mw.takeNext()
	mw.writerWG.Add(1)
	go mw.writeLoop()
	return mw, nil
}

// EnableIndex turns on .gzi index accumulation; Close then returns a
// non-nil *Index reflecting every block boundary written.
func (mw *MultiWriter) EnableIndex() {
	if mw.index == nil {
		mw.index = &Index{}
	}
}

func (mw *MultiWriter) takeNext() {
	item, ok := mw.pool.Get()
	if !ok {
		panic("bgzf: multi-writer buffer pool closed unexpectedly")
	}
	b := item.(*writeBatch)
	b.reset()
	mw.cur = b
}

// Write buffers buf for asynchronous compression. It returns an error
// from a previous batch's compression or write failure, if one
// occurred since the last call.
func (mw *MultiWriter) Write(buf []byte) (int, error) {
	if mw.closed {
		return 0, ErrClosed
	}
	if err := mw.checkErr(); err != nil {
		return 0, err
	}
	if err := mw.ctx.Err(); err != nil {
		return 0, err
	}
	written := 0
	for written < len(buf) {
		capacity := mw.compressUnitSize*mw.writeBlockNum - mw.cur.raw.Len()
		n := len(buf) - written
		if n > capacity {
			n = capacity
		}
		mw.cur.raw.Write(buf[written : written+n])
		written += n
		if mw.cur.raw.Len() >= mw.compressUnitSize*mw.writeBlockNum {
			mw.dispatch()
		}
	}
	return written, nil
}

// dispatch hands the current batch to a fresh worker goroutine and
// takes a new batch from the pool to replace it.
func (mw *MultiWriter) dispatch() {
	b := mw.cur
	b.index = mw.nextDispatchIdx
	mw.nextDispatchIdx++
	mw.dispatchWG.Add(1)
	go mw.compressAndInsert(b)
	mw.takeNext()
}

func (mw *MultiWriter) compressAndInsert(b *writeBatch) {
	defer mw.dispatchWG.Done()
	raw := b.raw.Bytes()
	wrote := 0
	for wrote < len(raw) {
		n := len(raw) - wrote
		if n > mw.compressUnitSize {
			n = mw.compressUnitSize
		}
		blockSize, err := WriteBlock(&b.compressed, raw[wrote:wrote+n], mw.xfl, mw.factory)
		if err != nil {
			mw.workerErr.Store(err)
			mw.queue.Close(err) // nolint: errcheck
			return
		}
		b.sizes = append(b.sizes, writeBlockSize{uncompressed: n, compressed: blockSize})
		wrote += n
	}
	if err := mw.queue.Insert(b.index, b); err != nil {
		mw.workerErr.Store(err)
	}
}

func (mw *MultiWriter) checkErr() error {
	if v := mw.workerErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// writeLoop is the sole goroutine that touches mw.w. It drains
// completed batches from mw.queue in the order they were dispatched.
func (mw *MultiWriter) writeLoop() {
	defer mw.writerWG.Done()
	for {
		item, ok, err := mw.queue.Next()
		if err != nil {
			mw.workerErr.Store(err)
			return
		}
		if !ok {
			return
		}
		b := item.(*writeBatch)
		if _, err := b.compressed.WriteTo(mw.w); err != nil {
			mw.workerErr.Store(err)
			mw.queue.Close(err) // nolint: errcheck
			return
		}
		for _, sz := range b.sizes {
			mw.coffset += uint64(sz.compressed)
			mw.uoffset += uint64(sz.uncompressed)
			if mw.index != nil {
				mw.index.entries = append(mw.index.entries, IndexEntry{
					CompressedOffset:   mw.coffset,
					UncompressedOffset: mw.uoffset,
				})
			}
		}
		mw.pool.Put(b)
	}
}

// Close flushes any buffered bytes, waits for every dispatched worker
// to finish, appends the .bgzf terminator, and returns the
// accumulated .gzi index if EnableIndex was called. Close is
// idempotent.
func (mw *MultiWriter) Close() (*Index, error) {
	if mw.closed {
		return mw.index, mw.checkErr()
	}
	if mw.cur.raw.Len() > 0 {
		mw.dispatch()
	} else {
		mw.pool.Put(mw.cur)
	}
	mw.cur = nil

	mw.dispatchWG.Wait()
	mw.queue.Close(nil) // nolint: errcheck
	mw.writerWG.Wait()
	mw.closed = true

	if err := mw.checkErr(); err != nil {
		return nil, err
	}
	if _, err := mw.w.Write(EOFMarker); err != nil {
		return nil, err
	}
	if mw.index != nil && len(mw.index.entries) > 0 {
		mw.index.entries = mw.index.entries[:len(mw.index.entries)-1]
	}
	return mw.index, nil
}
