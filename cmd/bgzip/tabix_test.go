package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegion(t *testing.T) {
	seq, beg, end, err := parseRegion("chr1:101-200")
	require.NoError(t, err)
	assert.Equal(t, "chr1", seq)
	assert.Equal(t, int64(100), beg)
	assert.Equal(t, int64(200), end)

	seq, beg, end, err = parseRegion("chr2:50")
	require.NoError(t, err)
	assert.Equal(t, "chr2", seq)
	assert.Equal(t, int64(49), beg)
	assert.Equal(t, int64(50), end)

	seq, beg, end, err = parseRegion("chrM")
	require.NoError(t, err)
	assert.Equal(t, "chrM", seq)
	assert.Equal(t, int64(0), beg)
	assert.True(t, end > 1<<40)

	_, _, _, err = parseRegion("chr1:abc-200")
	assert.Error(t, err)
}

func TestCompressOutputPath(t *testing.T) {
	*stdoutFlag = false
	assert.Equal(t, "foo.txt.gz", compressOutputPath("foo.txt"))

	*stdoutFlag = true
	assert.Equal(t, "-", compressOutputPath("foo.txt"))
	*stdoutFlag = false
}

func TestDecompressOutputPath(t *testing.T) {
	got, err := decompressOutputPath("foo.txt.gz")
	require.NoError(t, err)
	assert.Equal(t, "foo.txt", got)

	_, err = decompressOutputPath("foo.txt")
	assert.Equal(t, errNoGzSuffix, err)
}
