// Package bgzf includes a Writer and Reader for the .bgzf (block
// gzipped) file format. A .bgzf file consists of one or more complete
// gzip blocks concatenated together. Each of the gzip blocks
// represents at most 64KB of uncompressed data, and the compressed
// size of the block is at most 64KB. The payload of the .bgzf file is
// equal to the uncompressed content of each block, concatenated
// together in order. A valid .bgzf file ends with the 28 byte .bgzf
// terminator (EOFMarker); the terminator is a valid gzip block
// containing an empty payload.
//
// The .bgzf format is used by .bam files, by VCF and other tabular
// genomics formats paired with a .tbi index, and by Illumina
// .bcl.bgzf files from Nextseq instruments.
//
// For more information about the .bgzf file format, see the SAM/BAM
// spec here: https://samtools.github.io/hts-specs/SAMv1.pdf
//
// Example use with basic level parameter:
//   var bgzfFile bytes.Buffer
//   w, err := NewWriter(&bgzfFile, flate.DefaultCompression)
//   n, err := w.Write([]byte("Foo bar"))
//   _, err = w.Close()
//
// Example use with multiple compression shards:
//   // In goroutine 1
//   var shard1 bytes.Buffer
//   w, err := NewWriter(&shard1, flate.DefaultCompression)
//   n, err := w.Write([]byte("Foo bar"))
//   err = w.CloseWithoutTerminator()
//
//   // In goroutine 2
//   var shard2 bytes.Buffer
//   w, err := NewWriter(&shard2, flate.DefaultCompression)
//   n, err := w.Write([]byte(" baz!"))
//   _, err = w.Close()  // Terminator goes at the end of the last shard.
//
//   // Merge shards into final .bgzf file.
//   var bgzfFile bytes.Buffer
//   _, err := io.Copy(&bgzfFile, &shard1)
//   _, err = io.Copy(&bgzfFile, &shard2)
package bgzf

import (
	"bytes"
	"io"

	"github.com/grailbio/bgzip/encoding/bgzf/deflate"
	"github.com/pkg/errors"
)

// Writer compresses data into .bgzf format. The .bgzf format consists
// of gzip blocks concatenated together. Each gzip block has an
// uncompressed size of at most 64KB. The .bgzf format adds an Extra
// header field to each of the gzip headers; the Extra field contains
// the total (compressed, on-the-wire) size of the block in bytes - 1.
// The payload data
// of the .bgzf file is equal to the in-order concatenation of all the
// uncompressed payloads of the gzip blocks. A .bgzf file also
// contains an EOF terminator at the end of the file.
type Writer struct {
	factory          deflate.Factory
	uncompressedSize int
	xfl              byte
	w                io.Writer
	original         bytes.Buffer
	coffset          uint64 // bytes written to w so far
	uoffset          uint64 // uncompressed bytes accepted so far, excluding w.original
	index            *Index
	closed           bool
}

// NewWriter returns a new .bgzf writer with the given compression
// level, using the pure-Go klauspost/compress engine.
func NewWriter(w io.Writer, level int) (*Writer, error) {
	return NewWriterFactory(w, deflate.NewKlauspostFactory(level), DefaultUncompressedBlockSize, 0)
}

// NewWriterFactory returns a new .bgzf writer using the given
// deflate.Factory and configuration. uncompressedBlockSize is the
// largest number of bytes to put into each .bgzf block; it must be
// less than MaxUncompressedBlockSize. xfl is written to the XFL gzip
// header field for each of the gzip blocks in the output.
func NewWriterFactory(w io.Writer, factory deflate.Factory, uncompressedBlockSize int, xfl byte) (*Writer, error) {
	if uncompressedBlockSize >= MaxUncompressedBlockSize {
		return nil, errors.Wrapf(ErrCompressUnitTooLarge, "%d >= %d", uncompressedBlockSize, MaxUncompressedBlockSize)
	}
	return &Writer{
		factory:          factory,
		uncompressedSize: uncompressedBlockSize,
		xfl:              xfl,
		w:                w,
	}, nil
}

// EnableIndex turns on .gzi index accumulation; Close then returns a
// non-nil *Index reflecting every block boundary written.
func (w *Writer) EnableIndex() {
	if w.index == nil {
		w.index = &Index{}
	}
}

// Write buf to the .bgzf payload. Returns the number of bytes
// consumed from buf and any error encountered.
func (w *Writer) Write(buf []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	for i := 0; i < len(buf); {
		// Write one block at a time to avoid creating an entire copy
		// of the input buf.
		end := len(buf)
		limit := i + w.uncompressedSize - w.original.Len()
		if limit < end {
			end = limit
		}
		n, _ := w.original.Write(buf[i:end])
		i += n
		if err := w.tryCompress(false); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// CloseWithoutTerminator closes the current .bgzf block, but does not
// append the .bgzf terminator. The output is not a complete .bgzf
// file until the caller appends EOFMarker (for instance via Close on
// the last shard).
func (w *Writer) CloseWithoutTerminator() error {
	return w.tryCompress(true)
}

// Close flushes the current .bgzf block, appends the .bgzf
// terminator, and returns the accumulated .gzi index if EnableIndex
// was called. Close is idempotent; calling it more than once returns
// the same index and a nil error.
func (w *Writer) Close() (*Index, error) {
	if w.closed {
		return w.index, nil
	}
	if err := w.CloseWithoutTerminator(); err != nil {
		return nil, err
	}
	if _, err := w.w.Write(EOFMarker); err != nil {
		return nil, err
	}
	w.closed = true
	if w.index != nil && len(w.index.entries) > 0 {
		// The last entry points at the EOF block, which carries no
		// uncompressed bytes; drop it so entries always mark a real
		// boundary.
		w.index.entries = w.index.entries[:len(w.index.entries)-1]
	}
	return w.index, nil
}

// tryCompress removes blocks from w.original, compresses them, and
// writes them to w.w, recording gzi entries and updating offsets.
func (w *Writer) tryCompress(flushRemainder bool) error {
	for w.original.Len() >= w.uncompressedSize || (flushRemainder && w.original.Len() > 0) {
		n := w.original.Len()
		if n > w.uncompressedSize {
			n = w.uncompressedSize
		}
		chunk := w.original.Next(n)

		var block bytes.Buffer
		blockSize, err := WriteBlock(&block, chunk, w.xfl, w.factory)
		if err != nil {
			return err
		}
		if _, err := block.WriteTo(w.w); err != nil {
			return err
		}
		w.coffset += uint64(blockSize)
		w.uoffset += uint64(len(chunk))
		if w.index != nil {
			w.index.entries = append(w.index.entries, IndexEntry{
				CompressedOffset:   w.coffset,
				UncompressedOffset: w.uoffset,
			})
		}
	}
	return nil
}

// VOffset returns the virtual offset of the next byte to be written.
func (w *Writer) VOffset() uint64 {
	return w.coffset<<16 | uint64(w.original.Len())
}

// Pos returns the total number of uncompressed bytes accepted by
// Write so far.
func (w *Writer) Pos() uint64 {
	return w.uoffset + uint64(w.original.Len())
}
