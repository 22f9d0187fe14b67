package tabix

import "github.com/pkg/errors"

// ErrNotTabix is returned when a stream lacks the tabix magic.
var ErrNotTabix = errors.New("tabix: not a tabix index (bad magic)")

// Format identifies the preset column layout a tabix index was built
// with.
type Format int32

const (
	FormatGeneric Format = 0
	FormatSAM     Format = 1
	FormatVCF     Format = 2

	formatBEDFlag = 0x10000
)

// ZeroBased reports whether this format's begin column is zero-based
// (BED convention) rather than one-based (GFF convention).
func (f Format) ZeroBased() bool { return int32(f)&formatBEDFlag != 0 }

// Base returns the format code with the BED-rule flag bit stripped.
func (f Format) Base() Format { return f &^ formatBEDFlag }
