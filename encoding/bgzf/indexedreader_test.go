package bgzf

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexedReaderSeekUncompressed(t *testing.T) {
	input := make([]byte, 300000)
	_, err := rand.Read(input)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := NewWriterParams(&buf, 1, 65280, 0, 0)
	require.NoError(t, err)
	w.EnableIndex()
	_, err = w.Write(input)
	require.NoError(t, err)
	idx, err := w.Close()
	require.NoError(t, err)
	require.True(t, idx.Len() > 0)

	ir, err := NewIndexedReader(bytes.NewReader(buf.Bytes()), idx)
	require.NoError(t, err)

	for _, pos := range []uint64{0, 1, 65279, 65280, 65281, 130560, 299999} {
		require.NoError(t, ir.SeekUncompressed(pos))
		got := make([]byte, 1)
		n, err := ir.Read(got)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		assert.Equal(t, input[pos], got[0], "mismatch at pos %d", pos)
	}
}

func TestIndexedReaderLen(t *testing.T) {
	input := make([]byte, 150000)
	_, err := rand.Read(input)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := NewWriterParams(&buf, 1, 65280, 0, 0)
	require.NoError(t, err)
	w.EnableIndex()
	_, err = w.Write(input)
	require.NoError(t, err)
	idx, err := w.Close()
	require.NoError(t, err)

	ir, err := NewIndexedReader(bytes.NewReader(buf.Bytes()), idx)
	require.NoError(t, err)
	length, err := ir.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(input)), length)
}
