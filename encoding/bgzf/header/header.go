// Package header implements the gzip header framing used by BGZF:
// manual, byte-level construction and parsing of the 10-byte gzip
// prefix plus the BGZF "BC" extra subfield, independent of any
// particular DEFLATE engine. The compressed payload itself is
// produced and consumed by package deflate; this package only
// handles the bytes that wrap it.
package header

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	gzipID1 = 0x1f
	gzipID2 = 0x8b

	// CompressionMethodDeflate is the only compression method value
	// this package accepts, per RFC 1952.
	CompressionMethodDeflate = 8

	flagFTEXT    = 0x01
	flagFHCRC    = 0x02
	flagFEXTRA   = 0x04
	flagFNAME    = 0x08
	flagFCOMMENT = 0x10

	// bcID1, bcID2 identify the BGZF block-size extra subfield. See
	// the SAM/BAM specification.
	bcID1 = 66
	bcID2 = 67
)

// ErrNotGzip is returned when the input does not begin with the
// gzip magic bytes.
var ErrNotGzip = errors.New("header: not a gzip stream")

// ErrNotBGZF is returned when the input is a valid gzip header but
// does not carry the BGZF "BC" extra subfield.
var ErrNotBGZF = errors.New("header: not a BGZF block")

// ParseError reports a header parse failure at a specific byte
// position within the stream, for diagnostics.
type ParseError struct {
	Pos int64
	Msg string
}

func (e *ParseError) Error() string {
	return errors.Errorf("header: parse error at byte %d: %s", e.Pos, e.Msg).Error()
}

// ExtraSubfield is one TLV entry of a gzip FEXTRA field.
type ExtraSubfield struct {
	ID1, ID2 byte
	Data     []byte
}

func (s ExtraSubfield) fieldLen() int {
	return len(s.Data) + 4
}

// Header is a parsed gzip header. BGZF headers always set FEXTRA and
// carry exactly one ExtraSubfield with ID1=66, ID2=67 (the "BC"
// subfield).
type Header struct {
	Flags      byte
	ModTime    uint32
	ExtraFlags byte
	OS         byte
	Extra      []ExtraSubfield
	Name       string
	Comment    string
	HasCRC16   bool
	CRC16      uint16
}

// NewBGZF returns the canonical BGZF header for a block whose total
// wire size (header + payload + footer) will be blockSize. xfl is
// written to the XFL field unmodified (2 for default/best, 4 for
// fastest, matching gzip convention); callers that don't care may
// pass 0.
func NewBGZF(xfl byte, blockSize int) *Header {
	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, uint16(blockSize-1))
	return &Header{
		Flags:      flagFEXTRA,
		ExtraFlags: xfl,
		OS:         0xff,
		Extra:      []ExtraSubfield{{ID1: bcID1, ID2: bcID2, Data: data}},
	}
}

// BlockSize returns BSIZE+1, the total wire size of the block this
// header belongs to, and whether a BC subfield was present at all.
func (h *Header) BlockSize() (int, bool) {
	for _, s := range h.Extra {
		if s.ID1 == bcID1 && s.ID2 == bcID2 && len(s.Data) == 2 {
			return int(binary.LittleEndian.Uint16(s.Data)) + 1, true
		}
	}
	return 0, false
}

// Size returns the number of bytes WriteHeader would emit for h.
func (h *Header) Size() int {
	n := 10
	if h.Flags&flagFEXTRA != 0 {
		n += 2
		for _, s := range h.Extra {
			n += s.fieldLen()
		}
	}
	if h.Flags&flagFNAME != 0 {
		n += len(h.Name) + 1
	}
	if h.Flags&flagFCOMMENT != 0 {
		n += len(h.Comment) + 1
	}
	if h.Flags&flagFHCRC != 0 {
		n += 2
	}
	return n
}

// WriteHeader emits h's canonical byte representation. Flags are
// recomputed from which optional fields are populated; if the
// caller's Flags disagree with that computation, WriteHeader returns
// an error rather than emit an inconsistent header.
func WriteHeader(w io.Writer, h *Header) error {
	// FTEXT is a hint bit with no corresponding populated field, so it
	// is carried through verbatim; every other flag bit is recomputed
	// from which optional fields are populated.
	wantFlags := h.Flags & flagFTEXT
	if len(h.Extra) > 0 {
		wantFlags |= flagFEXTRA
	}
	if h.Name != "" {
		wantFlags |= flagFNAME
	}
	if h.Comment != "" {
		wantFlags |= flagFCOMMENT
	}
	if h.HasCRC16 {
		wantFlags |= flagFHCRC
	}
	if wantFlags != h.Flags {
		return errors.Errorf("header: declared flags 0x%02x do not match populated fields (want 0x%02x)", h.Flags, wantFlags)
	}

	buf := make([]byte, 10)
	buf[0], buf[1] = gzipID1, gzipID2
	buf[2] = CompressionMethodDeflate
	buf[3] = h.Flags
	binary.LittleEndian.PutUint32(buf[4:8], h.ModTime)
	buf[8] = h.ExtraFlags
	buf[9] = h.OS
	if _, err := w.Write(buf); err != nil {
		return err
	}

	if h.Flags&flagFEXTRA != 0 {
		xlen := 0
		for _, s := range h.Extra {
			xlen += s.fieldLen()
		}
		var xlenBuf [2]byte
		binary.LittleEndian.PutUint16(xlenBuf[:], uint16(xlen))
		if _, err := w.Write(xlenBuf[:]); err != nil {
			return err
		}
		for _, s := range h.Extra {
			var sub [4]byte
			sub[0], sub[1] = s.ID1, s.ID2
			binary.LittleEndian.PutUint16(sub[2:4], uint16(len(s.Data)))
			if _, err := w.Write(sub[:]); err != nil {
				return err
			}
			if _, err := w.Write(s.Data); err != nil {
				return err
			}
		}
	}
	if h.Flags&flagFNAME != 0 {
		if err := writeCString(w, h.Name); err != nil {
			return err
		}
	}
	if h.Flags&flagFCOMMENT != 0 {
		if err := writeCString(w, h.Comment); err != nil {
			return err
		}
	}
	if h.Flags&flagFHCRC != 0 {
		var crcBuf [2]byte
		binary.LittleEndian.PutUint16(crcBuf[:], h.CRC16)
		if _, err := w.Write(crcBuf[:]); err != nil {
			return err
		}
	}
	return nil
}

func writeCString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

// ReadHeader parses a gzip header from r, validating it strictly:
// compression method must be DEFLATE and no reserved flag bits may be
// set. It returns the parsed header and the number of bytes consumed.
func ReadHeader(r io.Reader) (*Header, int, error) {
	var prefix [10]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			return nil, 0, err
		}
		return nil, 0, errors.Wrap(err, "header: reading prefix")
	}
	n := 10
	if prefix[0] != gzipID1 || prefix[1] != gzipID2 {
		return nil, n, ErrNotGzip
	}
	if prefix[2] != CompressionMethodDeflate {
		return nil, n, &ParseError{Pos: 2, Msg: "unsupported compression method"}
	}
	flags := prefix[3]
	if flags&^byte(flagFTEXT|flagFHCRC|flagFEXTRA|flagFNAME|flagFCOMMENT) != 0 {
		return nil, n, &ParseError{Pos: 3, Msg: "reserved flag bits set"}
	}
	h := &Header{
		Flags:      flags,
		ModTime:    binary.LittleEndian.Uint32(prefix[4:8]),
		ExtraFlags: prefix[8],
		OS:         prefix[9],
	}

	if flags&flagFEXTRA != 0 {
		var xlenBuf [2]byte
		if _, err := io.ReadFull(r, xlenBuf[:]); err != nil {
			return nil, n, errors.Wrap(err, "header: reading XLEN")
		}
		n += 2
		xlen := int(binary.LittleEndian.Uint16(xlenBuf[:]))
		consumed := 0
		for consumed < xlen {
			var sub [4]byte
			if _, err := io.ReadFull(r, sub[:]); err != nil {
				return nil, n, errors.Wrap(err, "header: reading extra subfield")
			}
			n += 4
			consumed += 4
			slen := int(binary.LittleEndian.Uint16(sub[2:4]))
			data := make([]byte, slen)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, n, errors.Wrap(err, "header: reading extra subfield data")
			}
			n += slen
			consumed += slen
			h.Extra = append(h.Extra, ExtraSubfield{ID1: sub[0], ID2: sub[1], Data: data})
		}
		if consumed != xlen {
			return nil, n, &ParseError{Pos: int64(n), Msg: "extra field walk did not consume exactly XLEN bytes"}
		}
	}
	if flags&flagFNAME != 0 {
		s, c, err := readCString(r)
		n += c
		if err != nil {
			return nil, n, errors.Wrap(err, "header: reading FNAME")
		}
		h.Name = s
	}
	if flags&flagFCOMMENT != 0 {
		s, c, err := readCString(r)
		n += c
		if err != nil {
			return nil, n, errors.Wrap(err, "header: reading FCOMMENT")
		}
		h.Comment = s
	}
	if flags&flagFHCRC != 0 {
		var crcBuf [2]byte
		if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
			return nil, n, errors.Wrap(err, "header: reading FHCRC")
		}
		n += 2
		h.HasCRC16 = true
		h.CRC16 = binary.LittleEndian.Uint16(crcBuf[:])
	}

	if _, ok := h.BlockSize(); !ok {
		return h, n, ErrNotBGZF
	}
	return h, n, nil
}

func readCString(r io.Reader) (string, int, error) {
	var buf []byte
	var b [1]byte
	n := 0
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", n, err
		}
		n++
		if b[0] == 0 {
			break
		}
		buf = append(buf, b[0])
	}
	return string(buf), n, nil
}

// UpdateBlockSize rewrites the BC subfield's BSIZE-1 payload in a
// fully-serialized canonical BGZF header (the first 18 bytes of b) to
// reflect an actual total block size of blockSize. It is used after
// compression, once the true compressed length is known, to patch a
// header that was emitted with a placeholder size.
func UpdateBlockSize(b []byte, blockSize int) error {
	// Canonical BGZF header: 10-byte prefix, 2-byte XLEN, then the BC
	// subfield at a fixed offset since it is the only extra subfield
	// NewBGZF ever emits.
	const bcOffset = 12
	if len(b) < bcOffset+6 {
		return errors.New("header: buffer too short to contain a BC subfield")
	}
	if b[bcOffset] != bcID1 || b[bcOffset+1] != bcID2 {
		return errors.New("header: BC subfield not found at expected offset")
	}
	binary.LittleEndian.PutUint16(b[bcOffset+4:bcOffset+6], uint16(blockSize-1))
	return nil
}
