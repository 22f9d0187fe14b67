package header

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eofMarker is the canonical 28-byte empty BGZF block.
var eofMarker = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x06, 0x00, 0x42, 0x43,
	0x02, 0x00, 0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

func TestReadEOFMarker(t *testing.T) {
	h, n, err := ReadHeader(bytes.NewReader(eofMarker))
	require.NoError(t, err)
	assert.Equal(t, 18, n)
	bsize, ok := h.BlockSize()
	require.True(t, ok)
	assert.Equal(t, 28, bsize)
}

func TestWriteReadRoundTrip(t *testing.T) {
	h := NewBGZF(2, 1234)
	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, h))
	assert.Equal(t, 18, buf.Len())

	got, n, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)
	bsize, ok := got.BlockSize()
	require.True(t, ok)
	assert.Equal(t, 1234, bsize)

	var reEmitted bytes.Buffer
	require.NoError(t, WriteHeader(&reEmitted, got))
	assert.Equal(t, buf.Bytes(), reEmitted.Bytes())
}

func TestUpdateBlockSize(t *testing.T) {
	h := NewBGZF(2, 1)
	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, h))

	b := buf.Bytes()
	require.NoError(t, UpdateBlockSize(b, 5000))
	got, _, err := ReadHeader(bytes.NewReader(b))
	require.NoError(t, err)
	bsize, ok := got.BlockSize()
	require.True(t, ok)
	assert.Equal(t, 5000, bsize)
}

func TestNotGzip(t *testing.T) {
	_, _, err := ReadHeader(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}))
	assert.Equal(t, ErrNotGzip, err)
}

func TestNotBGZF(t *testing.T) {
	h := &Header{OS: 0xff}
	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, h))
	_, _, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	assert.Equal(t, ErrNotBGZF, err)
}
