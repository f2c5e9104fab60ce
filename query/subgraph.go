package query

import (
	"cmp"
	"slices"

	"github.com/beliefgraph/core/graph"
)

// SubGraph is the result of evaluating an [Expression]: the selected nodes
// and every edge of the store that runs between two of them. Edges are
// included so a caller can render the selection as a graph rather than a
// bare node list, without a second store round-trip.
type SubGraph struct {
	Nodes []*graph.Node
	Edges []*graph.Edge
}

// project resolves ids against snap, in ids' own order, and collects every
// snapshot edge whose source and sink are both present in the selection.
func project(snap *graph.Snapshot, ids *bidSet) *SubGraph {
	byID := make(map[string]*graph.Node, len(snap.Nodes()))
	for _, n := range snap.Nodes() {
		byID[n.BID().String()] = n
	}

	in := make(map[string]struct{}, len(ids.ids))
	nodes := make([]*graph.Node, 0, len(ids.ids))
	for _, id := range ids.ids {
		key := id.String()
		in[key] = struct{}{}
		if n, ok := byID[key]; ok {
			nodes = append(nodes, n)
		}
	}

	var edges []*graph.Edge
	for _, e := range snap.Edges() {
		_, srcIn := in[e.Source().String()]
		_, sinkIn := in[e.Sink().String()]
		if srcIn && sinkIn {
			edges = append(edges, e)
		}
	}
	slices.SortFunc(edges, func(a, b *graph.Edge) int {
		if c := cmp.Compare(a.Source().String(), b.Source().String()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Sink().String(), b.Sink().String()); c != 0 {
			return c
		}
		return cmp.Compare(a.Weight().String(), b.Weight().String())
	})

	return &SubGraph{Nodes: nodes, Edges: edges}
}
