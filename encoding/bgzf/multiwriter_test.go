package bgzf

import (
	"bytes"
	"io/ioutil"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiWriterRoundTrip(t *testing.T) {
	for _, workers := range []int{1, 4} {
		input := make([]byte, 2_000_000)
		_, err := rand.Read(input)
		require.NoError(t, err)

		var buf bytes.Buffer
		w, err := NewMultiWriter(&buf, 1, workers)
		require.NoError(t, err)
		w.EnableIndex()

		const chunk = 997
		for i := 0; i < len(input); i += chunk {
			end := i + chunk
			if end > len(input) {
				end = len(input)
			}
			_, err := w.Write(input[i:end])
			require.NoError(t, err)
		}
		idx, err := w.Close()
		require.NoError(t, err)
		require.True(t, idx.Len() > 0)

		r, err := NewReader(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		got, err := ioutil.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, input, got)
		assert.True(t, r.SawEOFMarker())
	}
}

func TestMultiWriterSmallInput(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewMultiWriter(&buf, 1, 2)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello, world"))
	require.NoError(t, err)
	_, err = w.Close()
	require.NoError(t, err)

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	got, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(got))
}
