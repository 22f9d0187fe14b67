// +build !cgo

package deflate

import "io"

// LibdeflateFactory requires cgo; this build has none.
type LibdeflateFactory struct{ Level int }

// NewLibdeflateFactory panics when compiled without cgo.
func NewLibdeflateFactory(level int) *LibdeflateFactory {
	panic("deflate: LibdeflateFactory requires cgo")
}

func (f *LibdeflateFactory) NewCompressor(w io.Writer) (Compressor, error) {
	panic("deflate: LibdeflateFactory requires cgo")
}

func (f *LibdeflateFactory) NewDecompressor(r io.Reader) (Decompressor, error) {
	panic("deflate: LibdeflateFactory requires cgo")
}

// ZlibngFactory requires cgo; this build has none.
type ZlibngFactory struct {
	Level    int
	Strategy int
}

// NewZlibngFactory panics when compiled without cgo.
func NewZlibngFactory(level, strategy int) *ZlibngFactory {
	panic("deflate: ZlibngFactory requires cgo")
}

func (f *ZlibngFactory) NewCompressor(w io.Writer) (Compressor, error) {
	panic("deflate: ZlibngFactory requires cgo")
}

func (f *ZlibngFactory) NewDecompressor(r io.Reader) (Decompressor, error) {
	panic("deflate: ZlibngFactory requires cgo")
}
