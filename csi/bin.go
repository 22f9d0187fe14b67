// Package csi implements the hierarchical binning scheme used by CSI
// and tabix indexes: a region is assigned to the smallest bin that
// fully contains it, and a query for a region enumerates every bin at
// every level that could possibly overlap it.
package csi

// TabixMinShift and TabixDepth are the binning parameters used by
// every tabix index; the bin arithmetic below accepts them as
// parameters so CSI indexes with non-default shift/depth can reuse
// the same code.
const (
	TabixMinShift = 14
	TabixDepth    = 5
)

// Reg2bin returns the smallest bin that fully contains the zero-based,
// half-open region [beg, end), under the given minShift/depth binning
// parameters.
func Reg2bin(beg, end int64, minShift, depth uint) uint32 {
	end--
	s := minShift
	t := uint64((1<<(depth*3) - 1) / 7)
	for l := depth; l > 0; l-- {
		if beg>>s == end>>s {
			return uint32(t + uint64(beg>>s))
		}
		s += 3
		t -= 1 << ((l - 1) * 3)
	}
	return 0
}

// Reg2bins returns every bin, at every level, that could contain a
// record overlapping the zero-based, half-open region [beg, end).
func Reg2bins(beg, end int64, minShift, depth uint) []uint32 {
	var bins []uint32
	end--
	s := minShift + depth*3
	var t uint64
	for l := uint(0); l <= depth; l++ {
		b := t + uint64(beg>>s)
		e := t + uint64(end>>s)
		for i := b; i <= e; i++ {
			bins = append(bins, uint32(i))
		}
		s -= 3
		t += 1 << (l * 3)
	}
	return bins
}
