package bgzf

import (
	"bytes"
	"io"

	"github.com/grailbio/bgzip/encoding/bgzf/deflate"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

const defaultCacheBlocks = 32

// Reader decompresses a .bgzf stream, presenting it as an io.Reader
// with virtual-offset based seeking. It is not safe for concurrent
// use.
type Reader struct {
	factory deflate.Factory
	r       io.Reader

	cur        *cachedBlock
	posInBlock int

	nextBlock  uint64
	sawEOF     bool
	eofPos     uint64
	compScratch []byte

	cache *blockCache
}

// NewReader returns a Reader over r using the pure-Go klauspost engine.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderFactory(r, deflate.NewKlauspostFactory(0))
}

// NewReaderFactory returns a Reader over r using the given
// deflate.Factory to decompress blocks.
func NewReaderFactory(r io.Reader, factory deflate.Factory) (*Reader, error) {
	rd := &Reader{
		factory: factory,
		r:       r,
		cache:   newBlockCache(defaultCacheBlocks),
	}
	if err := rd.loadAt(0); err != nil && err != io.EOF {
		return nil, err
	}
	return rd, nil
}

// SawEOFMarker reports whether the reader has, at any point, observed
// the canonical BGZF EOF block. A stream lacking it is not
// well-formed, but is tolerated (see Open Questions); callers that
// need to enforce its presence should check this after reading to
// completion.
func (rd *Reader) SawEOFMarker() bool { return rd.sawEOF }

// loadAt fetches the block beginning at coffset, either from the
// cache or by reading and decompressing it from rd.r, and makes it
// the current block.
func (rd *Reader) loadAt(coffset uint64) error {
	if b, ok := rd.cache.get(coffset); ok {
		// Position the source past the cached block so the next
		// uncached load reads the block that follows it.
		if s, ok := rd.r.(io.Seeker); ok {
			if _, err := s.Seek(int64(b.nextBlock), io.SeekStart); err != nil {
				return err
			}
		}
		rd.cur = b
		rd.posInBlock = 0
		rd.nextBlock = b.nextBlock
		if b.isEOF {
			rd.sawEOF = true
			rd.eofPos = coffset
		}
		return nil
	}

	h, err := LoadBlock(rd.r, &rd.compScratch)
	if err != nil {
		return err
	}
	blockSize, _ := h.BlockSize()
	next := coffset + uint64(blockSize)

	isEOF := bytes.Equal(rd.compScratch, EOFMarker[blockHeaderSize:])
	var data []byte
	if isEOF {
		data = nil
	} else {
		if err := DecompressBlock(&data, rd.compScratch, rd.factory); err != nil {
			return errors.Wrapf(err, "bgzf: decompressing block at offset %d", coffset)
		}
	}

	b := &cachedBlock{coffset: coffset, nextBlock: next, data: data, isEOF: isEOF}
	rd.cache.put(b)
	rd.cur = b
	rd.posInBlock = 0
	rd.nextBlock = next
	if isEOF {
		rd.sawEOF = true
		rd.eofPos = coffset
	}
	return nil
}

// blockHeaderSize is the canonical BGZF header size (magic through
// the BC extra subfield), used to strip the header before comparing
// a loaded block's body against the EOF marker's body.
const blockHeaderSize = 18

// Read implements io.Reader. It returns io.EOF once the EOF marker
// block has been consumed; reading past it is not an error.
func (rd *Reader) Read(buf []byte) (int, error) {
	for rd.cur != nil && rd.posInBlock >= len(rd.cur.data) {
		if rd.cur.isEOF {
			return 0, io.EOF
		}
		if err := rd.loadAt(rd.nextBlock); err != nil {
			if err == io.EOF {
				// Missing EOF marker: tolerated, logged, observable
				// via SawEOFMarker.
				vlog.Error("bgzf: stream ended without EOF marker")
				return 0, io.EOF
			}
			return 0, err
		}
	}
	if rd.cur == nil {
		return 0, io.EOF
	}
	n := copy(buf, rd.cur.data[rd.posInBlock:])
	rd.posInBlock += n
	return n, nil
}

// Seek moves the reader to the block containing virtual offset vof
// and positions it at the in-block offset encoded in vof. The
// underlying reader must implement io.Seeker.
func (rd *Reader) Seek(vof uint64) error {
	s, ok := rd.r.(io.Seeker)
	if !ok {
		return errors.New("bgzf: Seek requires an io.Seeker source")
	}
	coffset := vof >> 16
	uoffset := vof & 0xffff
	if _, err := s.Seek(int64(coffset), io.SeekStart); err != nil {
		return err
	}
	if err := rd.loadAt(coffset); err != nil {
		return err
	}
	if int(uoffset) > len(rd.cur.data) {
		return errors.Errorf("bgzf: virtual offset %d points past end of block", vof)
	}
	rd.posInBlock = int(uoffset)
	return nil
}

// VOffset returns the virtual offset of the next byte Read will
// return.
func (rd *Reader) VOffset() uint64 {
	if rd.cur == nil {
		return 0
	}
	return rd.cur.coffset<<16 | uint64(rd.posInBlock)
}
