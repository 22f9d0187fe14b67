package bgzf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGziRoundTrip(t *testing.T) {
	idx := NewIndex([]IndexEntry{
		{CompressedOffset: 100, UncompressedOffset: 65280},
		{CompressedOffset: 205, UncompressedOffset: 130560},
	})
	var buf bytes.Buffer
	require.NoError(t, idx.WriteGzi(&buf))

	got, err := ReadGzi(&buf)
	require.NoError(t, err)
	assert.Equal(t, idx.entries, got.entries)
}

func TestGziTranslation(t *testing.T) {
	idx := NewIndex([]IndexEntry{
		{CompressedOffset: 100, UncompressedOffset: 65280},
		{CompressedOffset: 205, UncompressedOffset: 130560},
	})

	// Inside the implicit first block.
	assert.Equal(t, uint64(42), idx.UncompressedPosToVOffset(42))

	// Exactly at the first recorded boundary.
	v := idx.UncompressedPosToVOffset(65280)
	assert.Equal(t, uint64(100), v>>16)
	assert.Equal(t, uint64(0), v&0xffff)

	// Inside the second block.
	v = idx.UncompressedPosToVOffset(65290)
	assert.Equal(t, uint64(100), v>>16)
	assert.Equal(t, uint64(10), v&0xffff)

	pos, err := idx.VOffsetToUncompressedPos(v)
	require.NoError(t, err)
	assert.Equal(t, uint64(65290), pos)

	pos, err = idx.VOffsetToUncompressedPos(42)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), pos)

	_, err = idx.VOffsetToUncompressedPos(999 << 16)
	assert.Equal(t, ErrInvalidVOffset, err)
}

func TestBuildIndexMatchesWriterIndex(t *testing.T) {
	input := make([]byte, 300000)
	for i := range input {
		input[i] = byte(i)
	}

	var buf bytes.Buffer
	w, err := NewWriterParams(&buf, 1, 65280, 0, 0)
	require.NoError(t, err)
	w.EnableIndex()
	_, err = w.Write(input)
	require.NoError(t, err)
	wantIdx, err := w.Close()
	require.NoError(t, err)

	gotIdx, err := BuildIndex(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, wantIdx.Entries(), gotIdx.Entries())
}

func TestBuildIndexEmptyStream(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 1)
	require.NoError(t, err)
	_, err = w.Close()
	require.NoError(t, err)

	idx, err := BuildIndex(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}
