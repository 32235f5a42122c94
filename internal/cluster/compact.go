package cluster

// LightIndexRange locates one cluster's lights in the published index list.
type LightIndexRange struct {
	Start uint32
	Count uint32
}

// Offsets is the sequential pass of compaction: a running sum of counts into
// ranges. It returns the total, which is the compacted list length.
func Offsets(counts []uint32, ranges []LightIndexRange) int {
	var start uint32
	for idx, c := range counts {
		ranges[idx] = LightIndexRange{Start: start, Count: c}
		start += c
	}
	return int(start)
}

// Scatter copies each cluster's fixed-stride region to its compacted range.
// Offsets must have completed first.
func Scatter(exec Executor, a *Assignment, ranges []LightIndexRange, flat []uint32) {
	exec.ParallelFor(len(ranges), func(lo, hi int) {
		for idx := lo; idx < hi; idx++ {
			r := ranges[idx]
			copy(flat[r.Start:r.Start+r.Count], a.Cluster(idx))
		}
	})
}

// Compact turns the fixed-stride assignment into a dense list, reusing flat
// when it has room.
func Compact(exec Executor, a *Assignment, ranges []LightIndexRange, flat []uint32) []uint32 {
	total := Offsets(a.Counts, ranges)
	if cap(flat) < total {
		flat = make([]uint32, total, total+total/2)
	}
	flat = flat[:total]

	Scatter(exec, a, ranges, flat)
	return flat
}

// FixedStride fills ranges pointing straight into the assignment regions and
// returns the assignment's index storage as the published list.
func FixedStride(a *Assignment, ranges []LightIndexRange) []uint32 {
	for idx, c := range a.Counts {
		ranges[idx] = LightIndexRange{Start: uint32(idx * a.Stride), Count: c}
	}
	return a.Indices
}
