// +build cgo

package bgzf

import (
	"fmt"
	"io"

	"github.com/grailbio/bgzip/encoding/bgzf/deflate"
)

// NewWriterParams returns a new .bgzf writer backed by
// github.com/yasushi-saito/zlibng, with the given configuration
// parameters. uncompressedBlockSize is the largest number of bytes to
// put into each .bgzf block. gzipStrategy is a strategy value from
// zlibng; possible values are zlibng.DefaultStrategy,
// zlibng.FilteredStrategy, zlibng.HuffmanOnlyStrategy,
// zlibng.RLEStrategy, and zlibng.FixedStrategy. gzipXFL will be
// written to the XFL gzip header field for each of the gzip blocks in
// the output.
func NewWriterParams(w io.Writer, level, uncompressedBlockSize, gzipStrategy, gzipXFL int) (*Writer, error) {
	if gzipXFL < 0 || gzipXFL > 255 {
		return nil, fmt.Errorf("gzipXFL must be in [0:255], not %d", gzipXFL)
	}
	return NewWriterFactory(w, deflate.NewZlibngFactory(level, gzipStrategy), uncompressedBlockSize, byte(gzipXFL))
}
