package tabix

import (
	"bufio"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/grailbio/bgzip/csi"
	"github.com/grailbio/bgzip/encoding/bgzf"
	"github.com/pkg/errors"
)

// Record is one parsed data line matched by a Query.
type Record struct {
	Seq    string
	Begin  int64
	End    int64
	Fields []string
	Line   string
}

// vRange is a merged, half-open span of virtual offsets believed to
// hold every candidate record for a query.
type vRange struct {
	begin, end uint64
}

// Iterator walks the records matched by a Query in file order.
type Iterator struct {
	src    *bgzf.Reader
	idx    *Index
	refName string
	beg, end int64

	ranges   []vRange
	rangeIdx int
	br       *bufio.Reader
	started  bool
}

// Query locates every chunk of src that may contain a record of
// reference rid overlapping the zero-based, half-open interval
// [beg, end), and returns an Iterator over the matching records in
// file order. src must support Seek (see bgzf.Reader.Seek).
func Query(src *bgzf.Reader, idx *Index, rid int, beg, end int64) (*Iterator, error) {
	if rid < 0 || rid >= len(idx.References) {
		return nil, errors.Errorf("tabix: reference id %d out of range [0,%d)", rid, len(idx.References))
	}
	ref := idx.References[rid]

	bins := csi.Reg2bins(beg, end, csi.TabixMinShift, csi.TabixDepth)
	var chunks []Chunk
	for _, bn := range bins {
		if b, ok := ref.Bins[bn]; ok {
			chunks = append(chunks, b.Chunks...)
		}
	}

	minVOffset := linearMinVOffset(ref.Linear, beg)
	filtered := chunks[:0]
	for _, c := range chunks {
		if c.End < minVOffset {
			continue
		}
		filtered = append(filtered, c)
	}

	ranges := mergeChunks(filtered)

	return &Iterator{
		src:      src,
		idx:      idx,
		refName:  idx.Names[rid],
		beg:      beg,
		end:      end,
		ranges:   ranges,
	}, nil
}

// linearMinVOffset returns the smallest virtual offset below which no
// record can overlap beg, per the linear index. An empty linear index
// degenerates to zero (full-bin search).
func linearMinVOffset(linear []uint64, beg int64) uint64 {
	if len(linear) == 0 {
		return 0
	}
	cell := beg >> csi.TabixMinShift
	if cell >= int64(len(linear)) {
		cell = int64(len(linear)) - 1
	}
	return linear[cell]
}

// mergeChunks sorts chunks by begin offset and merges every pair
// whose virtual-offset spans overlap or abut.
func mergeChunks(chunks []Chunk) []vRange {
	if len(chunks) == 0 {
		return nil
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Begin < chunks[j].Begin })

	ranges := []vRange{{begin: chunks[0].Begin, end: chunks[0].End}}
	for _, c := range chunks[1:] {
		last := &ranges[len(ranges)-1]
		if c.Begin <= last.end {
			if c.End > last.end {
				last.end = c.End
			}
			continue
		}
		ranges = append(ranges, vRange{begin: c.Begin, end: c.End})
	}
	return ranges
}

// Next advances the iterator and returns the next matching record, or
// nil, nil at end of the candidate ranges.
func (it *Iterator) Next() (*Record, error) {
	for {
		if it.br == nil {
			if it.rangeIdx >= len(it.ranges) {
				return nil, nil
			}
			r := it.ranges[it.rangeIdx]
			if err := it.src.Seek(r.begin); err != nil {
				return nil, errors.Wrap(err, "tabix: seeking to chunk")
			}
			it.br = bufio.NewReader(it.src)
		}

		line, err := it.br.ReadString('\n')
		if len(line) == 0 && err != nil {
			it.br = nil
			it.rangeIdx++
			continue
		}
		line = strings.TrimRight(line, "\n\r")

		// it.src.VOffset() reflects decompression read-ahead inside
		// bufio's buffer, not how much of the line stream has actually
		// been consumed; subtract what's still buffered to get the true
		// position just past the line we read.
		consumedVOffset := it.src.VOffset() - uint64(it.br.Buffered())
		if consumedVOffset >= it.ranges[it.rangeIdx].end && err == nil {
			it.br = nil
			it.rangeIdx++
		}

		if it.isMetaOrSkipped(line) {
			continue
		}

		rec, ok, perr := it.parseRecord(line)
		if perr != nil {
			return nil, perr
		}
		if !ok {
			continue
		}
		if rec.Seq != it.refName {
			continue
		}
		if rec.Begin >= it.end || rec.End <= it.beg {
			continue
		}
		return rec, nil
	}
}

// isMetaOrSkipped reports whether line is empty or a meta line (its
// first byte equals the index's Meta byte). The index's Skip count is
// not consulted.
func (it *Iterator) isMetaOrSkipped(line string) bool {
	if len(line) == 0 {
		return true
	}
	if it.idx.Meta != 0 && line[0] == it.idx.Meta {
		return true
	}
	return false
}

// parseRecord splits line on TAB and extracts the sequence/begin/end
// columns named in the index header, applying the BED/GFF zero-based
// rule to the begin column. It returns ok=false for lines that don't
// have enough columns (treated as not a data record).
func (it *Iterator) parseRecord(line string) (*Record, bool, error) {
	fields := strings.Split(line, "\t")
	format := it.idx.Format.Base()

	seqCol := int(it.idx.ColumnSequence) - 1
	begCol := int(it.idx.ColumnBegin) - 1
	if seqCol < 0 || seqCol >= len(fields) || begCol < 0 || begCol >= len(fields) {
		return nil, false, nil
	}
	if !utf8.ValidString(fields[seqCol]) {
		return nil, false, errors.Errorf("tabix: sequence column %q is not valid UTF-8", fields[seqCol])
	}

	begin, err := strconv.ParseInt(fields[begCol], 10, 64)
	if err != nil {
		return nil, false, errors.Wrapf(err, "tabix: parsing begin column %q", fields[begCol])
	}
	if !it.idx.Format.ZeroBased() {
		begin--
	}

	var end int64
	switch format {
	case FormatVCF:
		const refCol = 3
		if refCol >= len(fields) {
			return nil, false, nil
		}
		end = begin + int64(len(fields[refCol]))
	default:
		endCol := int(it.idx.ColumnEnd) - 1
		if endCol < 0 || endCol >= len(fields) {
			end = begin + 1
		} else {
			end, err = strconv.ParseInt(fields[endCol], 10, 64)
			if err != nil {
				return nil, false, errors.Wrapf(err, "tabix: parsing end column %q", fields[endCol])
			}
		}
	}

	return &Record{
		Seq:    fields[seqCol],
		Begin:  begin,
		End:    end,
		Fields: fields,
		Line:   line,
	}, true, nil
}
