package graph

import (
	"cmp"
	"slices"
)

// Snapshot is a point-in-time, independent view of a [Store]. Because
// [Node] and [Edge] are immutable once constructed — InsertOrUpdateNode
// and UpsertEdge always replace rather than mutate — a Snapshot needs
// only to fix the set of pointers it holds; it never needs to deep-clone
// the values those pointers refer to the way the teacher's instance-based
// Snapshot did.
type Snapshot struct {
	nodes []*Node
	edges []*Edge
}

// Nodes returns the snapshot's nodes, sorted by BID for deterministic
// iteration.
func (sn *Snapshot) Nodes() []*Node {
	if sn == nil {
		return nil
	}
	return sn.nodes
}

// Edges returns the snapshot's edges, sorted by (source, sink, weight).
func (sn *Snapshot) Edges() []*Edge {
	if sn == nil {
		return nil
	}
	return sn.edges
}

// Snapshot acquires a read lock and returns an immutable, independent view
// of the store's current nodes and edges. Concurrent InsertOrUpdateNode
// and UpsertEdge calls block until Snapshot completes, then proceed
// against the live store; the returned Snapshot is unaffected by them.
func (s *Store) Snapshot() *Snapshot {
	if s == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *Node) int {
		return cmp.Compare(a.BID().String(), b.BID().String())
	})

	edges := make([]*Edge, 0, len(s.edges))
	for _, e := range s.edges {
		edges = append(edges, e)
	}
	slices.SortFunc(edges, func(a, b *Edge) int {
		if c := cmp.Compare(a.Source().String(), b.Source().String()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Sink().String(), b.Sink().String()); c != 0 {
			return c
		}
		return cmp.Compare(int(a.Weight()), int(b.Weight()))
	})

	return &Snapshot{nodes: nodes, edges: edges}
}
