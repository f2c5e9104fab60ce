package query

import (
	"cmp"
	"slices"

	"github.com/beliefgraph/core/bid"
)

// bidSet is a deduplicated, deterministically-ordered (by BID string) set
// of node identifiers. Evaluation keeps everything in this representation
// until the final projection, so And/Or/Not/Limit/Offset compose as plain
// set algebra over sorted slices.
type bidSet struct {
	ids []bid.BID
}

func newBidSet(ids ...bid.BID) *bidSet {
	seen := make(map[bid.BID]struct{}, len(ids))
	out := make([]bid.BID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b bid.BID) int {
		return cmp.Compare(a.String(), b.String())
	})
	return &bidSet{ids: out}
}

func (s *bidSet) contains(id bid.BID) bool {
	_, found := slices.BinarySearchFunc(s.ids, id, func(a, b bid.BID) int {
		return cmp.Compare(a.String(), b.String())
	})
	return found
}

func (s *bidSet) intersect(other *bidSet) *bidSet {
	out := make([]bid.BID, 0, min(len(s.ids), len(other.ids)))
	for _, id := range s.ids {
		if other.contains(id) {
			out = append(out, id)
		}
	}
	return &bidSet{ids: out}
}

func (s *bidSet) union(other *bidSet) *bidSet {
	return newBidSet(append(append([]bid.BID{}, s.ids...), other.ids...)...)
}

func (s *bidSet) minus(other *bidSet) *bidSet {
	out := make([]bid.BID, 0, len(s.ids))
	for _, id := range s.ids {
		if !other.contains(id) {
			out = append(out, id)
		}
	}
	return &bidSet{ids: out}
}

func (s *bidSet) limit(n int) *bidSet {
	if n < 0 || n >= len(s.ids) {
		return &bidSet{ids: append([]bid.BID{}, s.ids...)}
	}
	return &bidSet{ids: append([]bid.BID{}, s.ids[:n]...)}
}

func (s *bidSet) offset(n int) *bidSet {
	if n <= 0 {
		return &bidSet{ids: append([]bid.BID{}, s.ids...)}
	}
	if n >= len(s.ids) {
		return &bidSet{ids: nil}
	}
	return &bidSet{ids: append([]bid.BID{}, s.ids[n:]...)}
}
