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

func TestReaderRoundTrip(t *testing.T) {
	for _, length := range []int{0, 1, 100, 65280, 500000} {
		input := make([]byte, length)
		_, err := rand.Read(input)
		require.NoError(t, err)

		var buf bytes.Buffer
		w, err := NewWriter(&buf, 1)
		require.NoError(t, err)
		_, err = w.Write(input)
		require.NoError(t, err)
		_, err = w.Close()
		require.NoError(t, err)

		r, err := NewReader(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		got, err := ioutil.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, input, got)
		assert.True(t, r.SawEOFMarker())
	}
}

func TestReaderSeek(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriterParams(&buf, 1, 5, 0, 0)
	require.NoError(t, err)

	lines := []string{"ABCDE", "FGHIJ", "KLMNO"}
	var vofs []uint64
	for _, l := range lines {
		vofs = append(vofs, w.VOffset())
		_, err := w.Write([]byte(l))
		require.NoError(t, err)
	}
	_, err = w.Close()
	require.NoError(t, err)

	src := bytes.NewReader(buf.Bytes())
	r, err := NewReader(src)
	require.NoError(t, err)
	for i, vof := range vofs {
		require.NoError(t, r.Seek(vof))
		got := make([]byte, 5)
		n, err := io.ReadFull(r, got)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, lines[i], string(got))
	}
}

func TestReaderMissingEOFMarker(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 1)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.CloseWithoutTerminator())

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	got, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
	assert.False(t, r.SawEOFMarker())
}
