package deflate

import (
	"bytes"
	"io/ioutil"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKlauspostRoundTrip(t *testing.T) {
	for _, length := range []int{0, 1, 100, 65280, 500000} {
		input := make([]byte, length)
		_, err := rand.Read(input)
		require.NoError(t, err)

		f := NewKlauspostFactory(BestSpeed)
		var compressed bytes.Buffer
		c, err := f.NewCompressor(&compressed)
		require.NoError(t, err)
		_, err = c.Write(input)
		require.NoError(t, err)
		require.NoError(t, c.Close())

		d, err := f.NewDecompressor(&compressed)
		require.NoError(t, err)
		actual, err := ioutil.ReadAll(d)
		require.NoError(t, err)
		assert.Equal(t, input, actual)
	}
}

func TestKlauspostInvalidLevel(t *testing.T) {
	f := NewKlauspostFactory(100)
	_, err := f.NewCompressor(&bytes.Buffer{})
	assert.Equal(t, ErrInvalidLevel, err)
}
