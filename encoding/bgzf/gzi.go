package bgzf

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// IndexEntry marks a block boundary: coffset is the file offset at
// which the following block begins, uoffset is the cumulative
// uncompressed size of every byte written before that block.
type IndexEntry struct {
	CompressedOffset   uint64
	UncompressedOffset uint64
}

// Index is a .gzi sidecar index: a sorted list of block boundaries
// used to translate between uncompressed offsets and virtual
// offsets. The implicit (0,0) boundary is never stored.
type Index struct {
	entries []IndexEntry
}

// NewIndex wraps a pre-built, coffset-sorted entry list (for example
// one reconstructed from per-block sizes) as an Index.
func NewIndex(entries []IndexEntry) *Index {
	return &Index{entries: entries}
}

// Len returns the number of entries in the index.
func (idx *Index) Len() int { return len(idx.entries) }

// Entries returns the index's entries in compressed-offset order. The
// returned slice must not be modified.
func (idx *Index) Entries() []IndexEntry { return idx.entries }

// ReadGzi parses a .gzi file from r.
func ReadGzi(r io.Reader) (*Index, error) {
	var countBuf [8]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, errors.Wrap(err, "bgzf: reading gzi count")
	}
	count := binary.LittleEndian.Uint64(countBuf[:])
	entries := make([]IndexEntry, count)
	buf := make([]byte, 16)
	for i := range entries {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrapf(err, "bgzf: reading gzi entry %d", i)
		}
		entries[i] = IndexEntry{
			CompressedOffset:   binary.LittleEndian.Uint64(buf[0:8]),
			UncompressedOffset: binary.LittleEndian.Uint64(buf[8:16]),
		}
	}
	return &Index{entries: entries}, nil
}

// WriteGzi serializes idx in .gzi format to w.
func (idx *Index) WriteGzi(w io.Writer) error {
	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(idx.entries)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return err
	}
	buf := make([]byte, 16)
	for _, e := range idx.entries {
		binary.LittleEndian.PutUint64(buf[0:8], e.CompressedOffset)
		binary.LittleEndian.PutUint64(buf[8:16], e.UncompressedOffset)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// UncompressedPosToVOffset translates an absolute uncompressed byte
// offset into a virtual offset, using the largest indexed boundary at
// or before p.
func (idx *Index) UncompressedPosToVOffset(p uint64) uint64 {
	// Find the last entry with UncompressedOffset <= p.
	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].UncompressedOffset > p
	})
	if i == 0 {
		// No entry qualifies; the implicit (0,0) boundary applies.
		return p & 0xffff
	}
	e := idx.entries[i-1]
	return (e.CompressedOffset << 16) | ((p - e.UncompressedOffset) & 0xffff)
}

// BuildIndex reconstructs a .gzi index for an already-compressed
// stream by walking its block headers and footers, without
// decompressing any payload. It stops at (and does not include) the
// canonical EOF marker block.
func BuildIndex(r io.Reader) (*Index, error) {
	idx := &Index{}
	var coffset, uoffset uint64
	var scratch []byte
	for {
		h, err := LoadBlock(r, &scratch)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		blockSize, _ := h.BlockSize()
		coffset += uint64(blockSize)
		if len(scratch) < footerSize {
			return nil, ErrCorruptBlock
		}
		if bytes.Equal(scratch, EOFMarker[blockHeaderSize:]) {
			break
		}
		footer := scratch[len(scratch)-footerSize:]
		uoffset += uint64(binary.LittleEndian.Uint32(footer[4:8]))
		idx.entries = append(idx.entries, IndexEntry{CompressedOffset: coffset, UncompressedOffset: uoffset})
	}
	if len(idx.entries) > 0 {
		// The last entry marks where the EOF block (or end of stream)
		// begins, not a data block; drop it, as Writer.Close does.
		idx.entries = idx.entries[:len(idx.entries)-1]
	}
	return idx, nil
}

// VOffsetToUncompressedPos translates a virtual offset back into an
// absolute uncompressed byte offset. It fails with ErrInvalidVOffset
// if the virtual offset's compressed-offset component does not match
// any recorded block boundary (or the implicit start-of-stream).
func (idx *Index) VOffsetToUncompressedPos(v uint64) (uint64, error) {
	coffset := v >> 16
	uoffset := v & 0xffff
	if coffset == 0 {
		return v, nil
	}
	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].CompressedOffset >= coffset
	})
	if i == len(idx.entries) || idx.entries[i].CompressedOffset != coffset {
		return 0, ErrInvalidVOffset
	}
	return idx.entries[i].UncompressedOffset + uoffset, nil
}
