package deflate

import (
	"io"

	kflate "github.com/klauspost/compress/flate"
)

// KlauspostFactory is a pure-Go Factory backed by
// github.com/klauspost/compress/flate. It requires no cgo and is the
// default engine for NewWriter and NewReader.
type KlauspostFactory struct {
	Level int
}

// NewKlauspostFactory returns a Factory that compresses at level,
// which must be one of the constants above or a value in [-2, 9]
// accepted by klauspost/compress/flate.
func NewKlauspostFactory(level int) *KlauspostFactory {
	return &KlauspostFactory{Level: level}
}

func (f *KlauspostFactory) NewCompressor(w io.Writer) (Compressor, error) {
	cw, err := kflate.NewWriter(w, f.Level)
	if err != nil {
		return nil, ErrInvalidLevel
	}
	return cw, nil
}

func (f *KlauspostFactory) NewDecompressor(r io.Reader) (Decompressor, error) {
	return kflate.NewReader(r), nil
}
