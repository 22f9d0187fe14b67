package bgzf

import (
	"bytes"
	"io"
	"io/ioutil"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiReaderRoundTrip(t *testing.T) {
	input := make([]byte, 3_000_000)
	_, err := rand.Read(input)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := NewMultiWriter(&buf, 1, 4)
	require.NoError(t, err)
	_, err = w.Write(input)
	require.NoError(t, err)
	_, err = w.Close()
	require.NoError(t, err)

	r, err := NewMultiReader(bytes.NewReader(buf.Bytes()), 4)
	require.NoError(t, err)
	got, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, got)
	assert.True(t, r.SawEOFMarker())
	assert.NoError(t, r.Err())
	require.NoError(t, r.Close())
}

func TestMultiReaderMissingEOFMarker(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 1)
	require.NoError(t, err)
	_, err = w.Write([]byte("partial stream"))
	require.NoError(t, err)
	require.NoError(t, w.CloseWithoutTerminator())

	r, err := NewMultiReader(bytes.NewReader(buf.Bytes()), 2)
	require.NoError(t, err)
	got, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "partial stream", string(got))
	assert.False(t, r.SawEOFMarker())
}

func TestMultiReaderAcrossSingleThreadWriter(t *testing.T) {
	input := make([]byte, 500000)
	_, err := rand.Read(input)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := NewWriterParams(&buf, 1, 5000, 0, 0)
	require.NoError(t, err)
	_, err = w.Write(input)
	require.NoError(t, err)
	_, err = w.Close()
	require.NoError(t, err)

	r, err := NewMultiReader(bytes.NewReader(buf.Bytes()), 3)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, got)
}
