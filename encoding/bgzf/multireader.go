package bgzf

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/grailbio/base/syncqueue"
	"github.com/grailbio/bgzip/encoding/bgzf/deflate"
	"v.io/x/lib/vlog"
)

// DefaultReadBlockUnitNum mirrors DefaultWriteBlockUnitNum: the
// number of .bgzf blocks read and decompressed together as one
// dispatched unit of work.
const DefaultReadBlockUnitNum = 50

// readBatch is a recyclable unit of work: the compressed bodies of up
// to readBlockNum consecutive .bgzf blocks, and the concatenated
// decompressed bytes a worker produces from them.
type readBatch struct {
	index     int
	rawBlocks [][]byte
	data      []byte
	isEOF     bool
}

func (b *readBatch) reset() {
	b.rawBlocks = b.rawBlocks[:0]
	b.data = b.data[:0]
	b.isEOF = false
}

// MultiReader decompresses a .bgzf stream across a pool of worker
// goroutines, while a single goroutine retains ownership of the
// source and dispatches work in order. Completed batches are
// delivered to Read in the order they were read from the source.
//
// MultiReader is purely sequential: unlike Reader, it does not
// support Seek, since batches are decompressed out of order and
// random access would defeat the pipelining this type exists for.
type MultiReader struct {
	r       io.Reader
	factory deflate.Factory

	readBlockNum int
	pool         *syncqueue.LIFO
	queue        *syncqueue.OrderedQueue

	cancel  context.CancelFunc
	pumpWG  sync.WaitGroup
	pumpErr atomic.Value // error

	cur      *readBatch
	posInCur int
	sawEOF   bool
}

// NewMultiReader returns a multi-threaded Reader over r using the
// pure-Go klauspost engine.
func NewMultiReader(r io.Reader, workers int) (*MultiReader, error) {
	return NewMultiReaderParams(context.Background(), r, deflate.NewKlauspostFactory(0), DefaultReadBlockUnitNum, workers)
}

// NewMultiReaderParams returns a multi-threaded Reader over r with
// explicit configuration. workers bounds the number of batches
// allowed in flight at once (to 2*workers).
func NewMultiReaderParams(ctx context.Context, r io.Reader, factory deflate.Factory, readBlockNum, workers int) (*MultiReader, error) {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	mr := &MultiReader{
		r:            r,
		factory:      factory,
		readBlockNum: readBlockNum,
		pool:         syncqueue.NewLIFO(),
		queue:        syncqueue.NewOrderedQueue(workers * 2),
		cancel:       cancel,
	}
	for i := 0; i < workers*2; i++ {
		mr.pool.Put(&readBatch{})
	}
	mr.pumpWG.Add(1)
	go mr.pump(ctx)
	return mr, nil
}

// SawEOFMarker reports whether the canonical BGZF EOF block has been
// observed. See Reader.SawEOFMarker for the same caveat about
// streams that omit it.
func (mr *MultiReader) SawEOFMarker() bool { return mr.sawEOF }

// Err returns the first error observed by the background pipeline, if
// any, independent of whether Read has surfaced it yet.
func (mr *MultiReader) Err() error {
	if v := mr.pumpErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// pump is the sole goroutine that touches mr.r. It reads batches of
// compressed blocks sequentially, dispatching each to a worker
// goroutine for decompression, and stops at the first error or at the
// EOF marker block.
func (mr *MultiReader) pump(ctx context.Context) {
	defer mr.pumpWG.Done()
	var dispatchWG sync.WaitGroup
	nextIdx := 0

	var finalErr error
loop:
	for {
		select {
		case <-ctx.Done():
			finalErr = ctx.Err()
			break loop
		default:
		}

		item, ok := mr.pool.Get()
		if !ok {
			break loop
		}
		b := item.(*readBatch)
		b.reset()

		stop := false
		for i := 0; i < mr.readBlockNum; i++ {
			var raw []byte
			_, err := LoadBlock(mr.r, &raw)
			if err != nil {
				if err != io.EOF {
					finalErr = err
				}
				stop = true
				break
			}
			b.rawBlocks = append(b.rawBlocks, raw)
			if bytes.Equal(raw, EOFMarker[blockHeaderSize:]) {
				stop = true
				break
			}
		}

		if len(b.rawBlocks) > 0 {
			b.index = nextIdx
			nextIdx++
			dispatchWG.Add(1)
			go mr.decompressAndInsert(b, &dispatchWG)
		} else {
			mr.pool.Put(b)
		}
		if stop {
			break loop
		}
	}

	dispatchWG.Wait()
	closeErr := mr.queue.Close(finalErr)
	if finalErr != nil {
		mr.pumpErr.Store(finalErr)
	} else if closeErr != nil {
		mr.pumpErr.Store(closeErr)
	}
}

func (mr *MultiReader) decompressAndInsert(b *readBatch, wg *sync.WaitGroup) {
	defer wg.Done()
	for _, raw := range b.rawBlocks {
		if bytes.Equal(raw, EOFMarker[blockHeaderSize:]) {
			b.isEOF = true
			continue
		}
		var out []byte
		if err := DecompressBlock(&out, raw, mr.factory); err != nil {
			mr.pumpErr.Store(err)
			mr.queue.Close(err) // nolint: errcheck
			return
		}
		b.data = append(b.data, out...)
	}
	if err := mr.queue.Insert(b.index, b); err != nil {
		mr.pumpErr.Store(err)
	}
}

// Read implements io.Reader. It returns io.EOF once the EOF marker
// block has been consumed, or once the source is exhausted without
// one (logged via vlog.Error; see SawEOFMarker).
func (mr *MultiReader) Read(buf []byte) (int, error) {
	for {
		if mr.cur != nil && mr.posInCur < len(mr.cur.data) {
			n := copy(buf, mr.cur.data[mr.posInCur:])
			mr.posInCur += n
			return n, nil
		}
		if mr.cur != nil {
			if mr.cur.isEOF {
				mr.sawEOF = true
				return 0, io.EOF
			}
			mr.pool.Put(mr.cur)
			mr.cur = nil
		}

		item, ok, err := mr.queue.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			vlog.Error("bgzf: multi-thread stream ended without EOF marker")
			return 0, io.EOF
		}
		mr.cur = item.(*readBatch)
		mr.posInCur = 0
	}
}

// Close releases the reader's background pipeline. It does not close
// the underlying source.
func (mr *MultiReader) Close() error {
	mr.cancel()
	mr.pumpWG.Wait()
	return nil
}
