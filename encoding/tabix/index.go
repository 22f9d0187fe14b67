// Package tabix reads tabix (.tbi) indexes and answers interval
// queries against the BGZF-compressed, position-sorted tabular files
// they accompany (VCF, BED, GFF, generic TSV).
package tabix

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var magic = [4]byte{'T', 'B', 'I', 1}

// Chunk is a contiguous span of the underlying BGZF stream, expressed
// as virtual offsets, believed to contain every record of a bin.
type Chunk struct {
	Begin uint64
	End   uint64
}

// Bin groups every chunk recorded against one binning-scheme bin
// number.
type Bin struct {
	Number uint32
	Chunks []Chunk
}

// Reference holds the per-sequence binning index: a bin map keyed by
// bin number, and the linear index used to prune candidate bins.
type Reference struct {
	Bins   map[uint32]Bin
	Linear []uint64
}

// Index is the parsed content of a .tbi file.
type Index struct {
	Format         Format
	ColumnSequence int32
	ColumnBegin    int32
	ColumnEnd      int32
	Meta           byte
	Skip           int32
	Names          []string
	References     []Reference
}

// RefID returns the index of name in idx.Names, or -1 if not present.
func (idx *Index) RefID(name string) int {
	for i, n := range idx.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// ReadTabix parses a decompressed .tbi stream from r. Callers
// typically wrap a bgzf.Reader around the raw file first, since the
// on-disk .tbi file is itself BGZF-compressed.
func ReadTabix(r io.Reader) (*Index, error) {
	br := &byteReader{r: r}

	var gotMagic [4]byte
	if err := br.readFull(gotMagic[:]); err != nil {
		return nil, errors.Wrap(err, "tabix: reading magic")
	}
	if gotMagic != magic {
		return nil, ErrNotTabix
	}

	nRef := br.readI32()
	format := br.readI32()
	colSeq := br.readI32()
	colBeg := br.readI32()
	colEnd := br.readI32()
	var metaBuf [4]byte
	br.readFull(metaBuf[:])
	skip := br.readI32()
	lNm := br.readI32()
	if err := br.err; err != nil {
		return nil, errors.Wrap(err, "tabix: reading header")
	}

	nameBytes := make([]byte, lNm)
	if err := br.readFull(nameBytes); err != nil {
		return nil, errors.Wrap(err, "tabix: reading reference names")
	}
	names := splitNames(nameBytes)
	if int32(len(names)) != nRef {
		return nil, errors.Errorf("tabix: name count %d does not match reference count %d", len(names), nRef)
	}

	refs := make([]Reference, nRef)
	for i := range refs {
		ref, err := readReference(br)
		if err != nil {
			return nil, errors.Wrapf(err, "tabix: reading reference %d", i)
		}
		refs[i] = ref
	}
	if br.err != nil && br.err != io.EOF {
		return nil, br.err
	}

	return &Index{
		Format:         Format(format),
		ColumnSequence: colSeq,
		ColumnBegin:    colBeg,
		ColumnEnd:      colEnd,
		Meta:           metaBuf[0],
		Skip:           skip,
		Names:          names,
		References:     refs,
	}, nil
}

func readReference(br *byteReader) (Reference, error) {
	nBin := br.readI32()
	bins := make(map[uint32]Bin, nBin)
	for i := int32(0); i < nBin; i++ {
		binNum := br.readU32()
		nChunk := br.readI32()
		chunks := make([]Chunk, nChunk)
		for j := range chunks {
			chunks[j] = Chunk{Begin: br.readU64(), End: br.readU64()}
		}
		bins[binNum] = Bin{Number: binNum, Chunks: chunks}
	}
	nIntv := br.readI32()
	linear := make([]uint64, nIntv)
	for i := range linear {
		linear[i] = br.readU64()
	}
	return Reference{Bins: bins, Linear: linear}, br.err
}

func splitNames(data []byte) []string {
	var names []string
	for _, part := range bytes.Split(data, []byte{0}) {
		if len(part) == 0 {
			continue
		}
		names = append(names, string(part))
	}
	return names
}

// byteReader is a small little-endian primitive reader that latches
// the first error it observes, so a chain of reads can be checked
// once at the end rather than after every field.
type byteReader struct {
	r   io.Reader
	err error
}

func (b *byteReader) readFull(buf []byte) error {
	if b.err != nil {
		return b.err
	}
	_, b.err = io.ReadFull(b.r, buf)
	return b.err
}

func (b *byteReader) readI32() int32 {
	var buf [4]byte
	if b.readFull(buf[:]) != nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(buf[:]))
}

func (b *byteReader) readU32() uint32 {
	var buf [4]byte
	if b.readFull(buf[:]) != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[:])
}

func (b *byteReader) readU64() uint64 {
	var buf [8]byte
	if b.readFull(buf[:]) != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(buf[:])
}
