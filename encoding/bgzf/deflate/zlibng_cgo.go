// +build cgo

package deflate

import (
	"io"

	"github.com/yasushi-saito/zlibng"
)

// ZlibngFactory is a cgo Factory backed by
// github.com/yasushi-saito/zlibng. Unlike LibdeflateFactory, it
// exposes the gzip strategy knob (RLEStrategy, FilteredStrategy,
// etc.), which some callers need for pathological or
// already-compressed input. Decompression is delegated to
// KlauspostFactory for the same reason as LibdeflateFactory.
type ZlibngFactory struct {
	Level    int
	Strategy int
	kf       KlauspostFactory
}

// NewZlibngFactory returns a Factory that compresses at level using
// the given zlibng strategy constant.
func NewZlibngFactory(level, strategy int) *ZlibngFactory {
	return &ZlibngFactory{Level: level, Strategy: strategy}
}

func (f *ZlibngFactory) NewCompressor(w io.Writer) (Compressor, error) {
	zw, err := zlibng.NewWriter(w, zlibng.Opts{Level: f.Level, Strategy: f.Strategy})
	if err != nil {
		return nil, ErrInvalidLevel
	}
	return zw, nil
}

func (f *ZlibngFactory) NewDecompressor(r io.Reader) (Decompressor, error) {
	return f.kf.NewDecompressor(r)
}
