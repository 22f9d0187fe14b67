package bgzf

import "github.com/pkg/errors"

// ErrCorruptBlock is returned by DecompressBlock when a block's CRC32
// or declared uncompressed length does not match its actual content.
var ErrCorruptBlock = errors.New("bgzf: corrupt block (crc or length mismatch)")

// ErrBlockTooLarge is returned when a block's uncompressed payload
// would not fit within a single BGZF block.
var ErrBlockTooLarge = errors.New("bgzf: uncompressed payload too large for one block")

// ErrCompressUnitTooLarge is returned when a writer is configured
// with an uncompressed block size that cannot fit in a BGZF block's
// 16-bit size field.
var ErrCompressUnitTooLarge = errors.New("bgzf: uncompressedBlockSize too large")

// ErrInvalidVOffset is returned by Index.VOffsetToUncompressedPos when
// a virtual offset's compressed-offset component does not match any
// recorded block boundary.
var ErrInvalidVOffset = errors.New("bgzf: invalid virtual offset")

// ErrClosed is returned by Writer.Write and MultiWriter.Write calls
// made after Close. No Read method returns it.
var ErrClosed = errors.New("bgzf: use of closed Writer or Reader")
