package bgzf

import (
	"io"

	"github.com/grailbio/bgzip/encoding/bgzf/deflate"
	"github.com/pkg/errors"
)

// IndexedReader composes a Reader over a BGZF data source with a .gzi
// Index, presenting seeks in terms of absolute uncompressed offsets
// rather than virtual offsets.
//
// The data source and the index source are supplied independently;
// unlike some BGZF tools, IndexedReader never infers an index path by
// convention from the data path (see Open Questions in SPEC_FULL.md).
type IndexedReader struct {
	rd  *Reader
	idx *Index

	length    uint64
	lengthSet bool
}

// NewIndexedReader builds an IndexedReader over data, using idx for
// offset translation. data must implement io.Seeker for
// SeekUncompressed to work.
func NewIndexedReader(data io.Reader, idx *Index) (*IndexedReader, error) {
	return NewIndexedReaderFactory(data, idx, deflate.NewKlauspostFactory(0))
}

// NewIndexedReaderFactory is NewIndexedReader with an explicit
// deflate.Factory.
func NewIndexedReaderFactory(data io.Reader, idx *Index, factory deflate.Factory) (*IndexedReader, error) {
	rd, err := NewReaderFactory(data, factory)
	if err != nil {
		return nil, err
	}
	return &IndexedReader{rd: rd, idx: idx}, nil
}

// SeekUncompressed positions the reader so the next Read returns the
// byte at absolute uncompressed offset pos.
func (ir *IndexedReader) SeekUncompressed(pos uint64) error {
	vof := ir.idx.UncompressedPosToVOffset(pos)
	return ir.rd.Seek(vof)
}

// Read implements io.Reader, delegating to the underlying Reader.
func (ir *IndexedReader) Read(buf []byte) (int, error) {
	return ir.rd.Read(buf)
}

// VOffset returns the virtual offset of the next byte Read will
// return.
func (ir *IndexedReader) VOffset() uint64 {
	return ir.rd.VOffset()
}

// Len reports the total uncompressed length of the stream, seeking to
// the final indexed block and reading it to completion on first call.
// The result is cached for subsequent calls.
func (ir *IndexedReader) Len() (uint64, error) {
	if ir.lengthSet {
		return ir.length, nil
	}

	entries := ir.idx.Entries()
	var tailVOffset uint64
	var base uint64
	if len(entries) > 0 {
		last := entries[len(entries)-1]
		tailVOffset = last.CompressedOffset << 16
		base = last.UncompressedOffset
	}
	if err := ir.rd.Seek(tailVOffset); err != nil {
		return 0, errors.Wrap(err, "bgzf: seeking to tail block for Len")
	}
	var tail int
	var buf [4096]byte
	for {
		n, err := ir.rd.Read(buf[:])
		tail += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, errors.Wrap(err, "bgzf: reading tail block for Len")
		}
	}
	ir.length = base + uint64(tail)
	ir.lengthSet = true
	return ir.length, nil
}
