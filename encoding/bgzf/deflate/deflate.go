// Package deflate provides a pluggable facade over a raw DEFLATE
// compression engine, decoupled from any gzip or zlib framing. The
// bgzf block codec owns framing (header, CRC32 and length footer);
// this package only moves bytes through a compressor or
// decompressor.
package deflate

import (
	"io"

	"github.com/pkg/errors"
)

// Compression levels understood by every Factory. Values beyond
// BestCompression are engine-specific; a Factory returns
// ErrInvalidLevel when it cannot honor one.
const (
	DefaultCompression = -1
	NoCompression      = 0
	BestSpeed          = 1
	BestCompression    = 9
)

// ErrInvalidLevel is returned by a Factory when a caller requests a
// compression level the underlying engine does not support.
var ErrInvalidLevel = errors.New("deflate: invalid compression level")

// ErrInsufficientSpace names the condition of a destination buffer
// too small for a compress or decompress operation's output. The
// Factories in this package stream into an io.Writer or from an
// io.Reader and never return it.
var ErrInsufficientSpace = errors.New("deflate: insufficient space")

// ErrBadData is returned by a Decompressor when the input is not
// valid DEFLATE data.
var ErrBadData = errors.New("deflate: bad data")

// Compressor is a raw DEFLATE sink. Close flushes any buffered
// output.
type Compressor interface {
	io.WriteCloser
}

// Decompressor is a raw DEFLATE source.
type Decompressor interface {
	io.ReadCloser
}

// Factory creates Compressors and Decompressors at a fixed
// configuration. KlauspostFactory and ZlibngFactory build a fresh
// engine on every call; LibdeflateFactory reuses one
// libdeflate.Writer across calls (via Reset) and is not safe for
// concurrent use. The multi-threaded reader and writer share their
// single Factory across all of their worker goroutines.
type Factory interface {
	NewCompressor(w io.Writer) (Compressor, error)
	NewDecompressor(r io.Reader) (Decompressor, error)
}
