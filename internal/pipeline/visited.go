package pipeline

import "github.com/bits-and-blooms/bloom/v3"

// visitedFalsePositiveRate sizes the filter; a false positive only costs a map
// lookup.
const visitedFalsePositiveRate = 1e-3

// visitedSet tracks the links processed in one run. The bloom filter answers
// "definitely new" without touching the map; its "maybe seen" is confirmed
// against the exact set.
type visitedSet struct {
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

func newVisitedSet(n int) *visitedSet {
	return &visitedSet{
		filter: bloom.NewWithEstimates(uint(max(n, 1)), visitedFalsePositiveRate),
		exact:  make(map[string]struct{}, n),
	}
}

// visit marks link and reports whether this is its first visit.
func (v *visitedSet) visit(link string) bool {
	if v.filter.TestString(link) {
		if _, ok := v.exact[link]; ok {
			return false
		}
	}
	v.filter.AddString(link)
	v.exact[link] = struct{}{}
	return true
}
