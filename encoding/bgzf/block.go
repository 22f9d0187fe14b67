package bgzf

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/grailbio/bgzip/encoding/bgzf/deflate"
	"github.com/grailbio/bgzip/encoding/bgzf/header"
	"github.com/pkg/errors"
)

const (
	// DefaultUncompressedBlockSize is the default bgzf
	// uncompressedBlockSize chosen by both sambamba and biogo. See
	// the SAM/BAM specification for details.
	DefaultUncompressedBlockSize = 0x0ff00

	// MaxUncompressedBlockSize is the exclusive upper bound on
	// uncompressedBlockSize: WriteBlock and the writers reject any
	// value at or above it.
	MaxUncompressedBlockSize = 0x10000

	// maxBlockSize is the maximum wire size of a single BGZF block,
	// header through footer.
	maxBlockSize = 0x10000

	// footerSize is the length of the CRC32+length footer following
	// every block's deflate payload.
	footerSize = 8

	// extraCompressBufferSize is an expansion allowance for
	// incompressible input. WriteBlock does not use it: it streams the
	// DEFLATE output straight into dst and checks the finished block
	// against maxBlockSize.
	extraCompressBufferSize = 200
)

// EOFMarker is the canonical 28-byte empty BGZF block. A well-formed
// stream ends with this marker; readers must stop at it and treat
// subsequent bytes as end-of-stream.
var EOFMarker = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x06, 0x00, 0x42, 0x43,
	0x02, 0x00, 0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// WriteBlock compresses src into exactly one self-contained BGZF
// block, appended to dst, using c to produce the DEFLATE payload.
// xfl is written into the block's XFL header byte. It returns the
// number of bytes appended to dst. len(src) must be smaller than
// MaxUncompressedBlockSize.
func WriteBlock(dst *bytes.Buffer, src []byte, xfl byte, c deflate.Factory) (int, error) {
	if len(src) >= MaxUncompressedBlockSize {
		return 0, ErrBlockTooLarge
	}
	start := dst.Len()

	h := header.NewBGZF(xfl, 0)
	if err := header.WriteHeader(dst, h); err != nil {
		return 0, errors.Wrap(err, "bgzf: writing block header")
	}

	comp, err := c.NewCompressor(dst)
	if err != nil {
		return 0, errors.Wrap(err, "bgzf: creating compressor")
	}
	if len(src) > 0 {
		if _, err := comp.Write(src); err != nil {
			return 0, errors.Wrap(err, "bgzf: compressing block")
		}
	}
	if err := comp.Close(); err != nil {
		return 0, errors.Wrap(err, "bgzf: closing compressor")
	}

	var footer [footerSize]byte
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(src))
	binary.LittleEndian.PutUint32(footer[4:8], uint32(len(src)))
	if _, err := dst.Write(footer[:]); err != nil {
		return 0, err
	}

	blockSize := dst.Len() - start
	if blockSize > maxBlockSize {
		return 0, errors.Errorf("bgzf: compressed block is too big: %d > %d", blockSize, maxBlockSize)
	}
	if err := header.UpdateBlockSize(dst.Bytes()[start:], blockSize); err != nil {
		return 0, errors.Wrap(err, "bgzf: patching block size")
	}
	return blockSize, nil
}

// LoadBlock reads one BGZF block's header and raw bytes (deflate
// payload plus the 8-byte footer) from r into *buf, resizing *buf as
// needed, and returns the parsed header.
func LoadBlock(r io.Reader, buf *[]byte) (*header.Header, error) {
	h, n, err := header.ReadHeader(r)
	if err != nil {
		return nil, err
	}
	blockSize, ok := h.BlockSize()
	if !ok {
		return nil, ErrNotBGZF
	}
	rest := blockSize - n
	if cap(*buf) < rest {
		*buf = make([]byte, rest)
	} else {
		*buf = (*buf)[:rest]
	}
	if _, err := io.ReadFull(r, *buf); err != nil {
		return nil, errors.Wrap(err, "bgzf: reading block body")
	}
	return h, nil
}

// DecompressBlock decompresses buf (as produced by LoadBlock) into
// *out, resizing *out as needed, using f to create a decompressor. It
// verifies the trailing CRC32 and length footer, returning
// ErrCorruptBlock on mismatch.
func DecompressBlock(out *[]byte, buf []byte, f deflate.Factory) error {
	if len(buf) < footerSize {
		return ErrCorruptBlock
	}
	payload := buf[:len(buf)-footerSize]
	footer := buf[len(buf)-footerSize:]
	wantCRC := binary.LittleEndian.Uint32(footer[0:4])
	wantLen := binary.LittleEndian.Uint32(footer[4:8])

	if cap(*out) < int(wantLen) {
		*out = make([]byte, wantLen)
	} else {
		*out = (*out)[:wantLen]
	}

	d, err := f.NewDecompressor(bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "bgzf: creating decompressor")
	}
	if wantLen > 0 {
		if _, err := io.ReadFull(d, *out); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				// Payload inflated to fewer bytes than the footer declares.
				return ErrCorruptBlock
			}
			return deflate.ErrBadData
		}
	}
	d.Close() // nolint: errcheck

	if crc32.ChecksumIEEE(*out) != wantCRC {
		return ErrCorruptBlock
	}
	return nil
}

// ErrNotBGZF is returned when a loaded header lacks the BGZF BC
// extra subfield.
var ErrNotBGZF = header.ErrNotBGZF
