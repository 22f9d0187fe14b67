// +build cgo

package deflate

import (
	"io"

	"github.com/grailbio/base/compress/libdeflate"
)

// LibdeflateFactory is a cgo Factory backed by
// github.com/grailbio/base/compress/libdeflate, which is
// substantially faster than the pure-Go engine at high compression
// levels. libdeflate only exposes a compressor; decompression is
// delegated to KlauspostFactory, which every build configuration
// carries anyway.
type LibdeflateFactory struct {
	Level int
	kf    KlauspostFactory
	w     *libdeflate.Writer
}

// NewLibdeflateFactory returns a Factory that compresses with
// libdeflate at level, which may range up to 12 (libdeflate's
// "BestestCompression"), beyond the conventional DEFLATE maximum of
// 9.
func NewLibdeflateFactory(level int) *LibdeflateFactory {
	return &LibdeflateFactory{Level: level}
}

func (f *LibdeflateFactory) NewCompressor(w io.Writer) (Compressor, error) {
	if f.w == nil {
		var err error
		f.w, err = libdeflate.NewWriterLevel(w, f.Level)
		if err != nil {
			return nil, ErrInvalidLevel
		}
	} else {
		f.w.Reset(w)
	}
	return f.w, nil
}

func (f *LibdeflateFactory) NewDecompressor(r io.Reader) (Decompressor, error) {
	return f.kf.NewDecompressor(r)
}
