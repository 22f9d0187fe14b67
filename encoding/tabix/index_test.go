package tabix

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putI32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// encodeTabix hand-assembles a minimal, decompressed .tbi byte stream
// for one reference with one bin holding one chunk, and one linear
// index cell.
func encodeTabix() []byte {
	var buf bytes.Buffer
	buf.WriteString("TBI")
	buf.WriteByte(1)
	putI32(&buf, 1) // n_ref
	putI32(&buf, int32(FormatVCF))
	putI32(&buf, 1) // col_seq
	putI32(&buf, 2) // col_beg
	putI32(&buf, 0) // col_end
	buf.WriteString("#\x00\x00\x00")
	putI32(&buf, 0) // skip
	names := "chr1\x00"
	putI32(&buf, int32(len(names)))
	buf.WriteString(names)

	// one reference
	putI32(&buf, 1) // n_bin
	putU32(&buf, 4681)
	putI32(&buf, 1) // n_chunk
	putU64(&buf, 100)
	putU64(&buf, 200)
	putI32(&buf, 1) // n_intv
	putU64(&buf, 50)

	return buf.Bytes()
}

func TestReadTabix(t *testing.T) {
	idx, err := ReadTabix(bytes.NewReader(encodeTabix()))
	require.NoError(t, err)

	assert.Equal(t, FormatVCF, idx.Format)
	assert.Equal(t, []string{"chr1"}, idx.Names)
	assert.Equal(t, byte('#'), idx.Meta)
	require.Len(t, idx.References, 1)

	ref := idx.References[0]
	require.Contains(t, ref.Bins, uint32(4681))
	assert.Equal(t, []Chunk{{Begin: 100, End: 200}}, ref.Bins[4681].Chunks)
	assert.Equal(t, []uint64{50}, ref.Linear)
}

func TestReadTabixBadMagic(t *testing.T) {
	_, err := ReadTabix(bytes.NewReader([]byte("NOTX")))
	assert.Equal(t, ErrNotTabix, err)
}

func TestFormatZeroBased(t *testing.T) {
	assert.False(t, FormatVCF.ZeroBased())
	assert.True(t, (FormatGeneric | Format(0x10000)).ZeroBased())
}
