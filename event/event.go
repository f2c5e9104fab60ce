// Package event defines the belief graph's mutation event stream: the
// typed union every [graph.Store] write is translated into by the
// builder/compiler layer, and the broadcast [Bus] subscribers read it from.
package event

import (
	"fmt"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/graph"
)

// Kind discriminates an Event's payload.
type Kind uint8

const (
	// NodeAdd reports a newly inserted node.
	NodeAdd Kind = iota
	// NodeUpdate reports a node whose fields changed on reinsertion.
	NodeUpdate
	// NodeRemove reports a node's removal.
	NodeRemove
	// RelationAdd reports a newly materialized edge.
	RelationAdd
	// RelationUpdate reports an edge whose payload changed on reinsertion.
	RelationUpdate
	// RelationRemove reports an edge's removal.
	RelationRemove
	// PathsChanged reports one or more path-map entries changing within a
	// network.
	PathsChanged
	// Diagnostic reports a non-fatal issue surfaced during parsing.
	Diagnostic
)

// String returns the event kind's name.
func (k Kind) String() string {
	switch k {
	case NodeAdd:
		return "NodeAdd"
	case NodeUpdate:
		return "NodeUpdate"
	case NodeRemove:
		return "NodeRemove"
	case RelationAdd:
		return "RelationAdd"
	case RelationUpdate:
		return "RelationUpdate"
	case RelationRemove:
		return "RelationRemove"
	case PathsChanged:
		return "PathsChanged"
	case Diagnostic:
		return "Diagnostic"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// PathChangeKind discriminates one entry of a PathsChanged event.
type PathChangeKind uint8

const (
	// PathAdded means path now resolves to BID where it resolved to nothing before.
	PathAdded PathChangeKind = iota
	// PathMoved means path's target BID changed (a Move).
	PathMoved
	// PathRemoved means path no longer resolves to any BID.
	PathRemoved
)

// String returns the path change kind's name.
func (k PathChangeKind) String() string {
	switch k {
	case PathAdded:
		return "added"
	case PathMoved:
		return "moved"
	case PathRemoved:
		return "removed"
	default:
		return fmt.Sprintf("PathChangeKind(%d)", k)
	}
}

// PathChange is one entry of a PathsChanged event. OldPath is populated
// only for Kind == PathMoved, naming the path this BID previously lived
// at so a subscriber can correlate a Move's old and new path.
type PathChange struct {
	Kind    PathChangeKind
	Path    string
	OldPath string
	BID     bid.BID
}

// Event is the tagged union every graph mutation is translated into. Only
// the fields relevant to Kind are populated; the rest are zero.
//
// A monotone Seq (attached by [Bus.Publish]) lets subscribers reorder
// partial batches delivered out of emission order, per spec.md §4.2's
// Lamport-style counter requirement; Seq is assigned once per Event, in
// the single producer's emission order, so within one Bus subscribers
// always see Seq values increasing.
type Event struct {
	Kind Kind
	Seq  uint64

	// NodeAdd
	Node *graph.Node

	// NodeUpdate
	Before *graph.Node
	After  *graph.Node

	// NodeRemove
	BID bid.BID

	// RelationAdd
	Edge *graph.Edge

	// RelationUpdate
	BeforeEdge *graph.Edge
	AfterEdge  *graph.Edge

	// RelationRemove
	Source bid.BID
	Sink   bid.BID
	Weight graph.WeightKind

	// PathsChanged
	Network bid.BID
	Changes []PathChange

	// Diagnostic
	Issue diag.Issue
}

// NewNodeAdd builds a NodeAdd event.
func NewNodeAdd(node *graph.Node) Event { return Event{Kind: NodeAdd, Node: node} }

// NewNodeUpdate builds a NodeUpdate event.
func NewNodeUpdate(before, after *graph.Node) Event {
	return Event{Kind: NodeUpdate, Before: before, After: after}
}

// NewNodeRemove builds a NodeRemove event.
func NewNodeRemove(id bid.BID) Event { return Event{Kind: NodeRemove, BID: id} }

// NewRelationAdd builds a RelationAdd event.
func NewRelationAdd(edge *graph.Edge) Event { return Event{Kind: RelationAdd, Edge: edge} }

// NewRelationUpdate builds a RelationUpdate event.
func NewRelationUpdate(before, after *graph.Edge) Event {
	return Event{Kind: RelationUpdate, BeforeEdge: before, AfterEdge: after}
}

// NewRelationRemove builds a RelationRemove event.
func NewRelationRemove(source, sink bid.BID, weight graph.WeightKind) Event {
	return Event{Kind: RelationRemove, Source: source, Sink: sink, Weight: weight}
}

// NewPathsChanged builds a PathsChanged event.
func NewPathsChanged(network bid.BID, changes []PathChange) Event {
	return Event{Kind: PathsChanged, Network: network, Changes: changes}
}

// NewDiagnostic builds a Diagnostic event.
func NewDiagnostic(issue diag.Issue) Event { return Event{Kind: Diagnostic, Issue: issue} }

// FromMutation translates a [graph.MutationKind] result from a node or
// edge mutation into the matching event, or reports ok=false for
// graph.Unchanged (no event is emitted for a no-op write).
//
// node/prior and edge/priorEdge are mutually exclusive: pass node/prior
// for a node mutation, edge/priorEdge for an edge mutation, leaving the
// other pair nil.
func FromMutation(kind graph.MutationKind, node, prior *graph.Node, edge, priorEdge *graph.Edge) (Event, bool) {
	if kind == graph.Unchanged {
		return Event{}, false
	}
	if node != nil {
		if kind == graph.Added {
			return NewNodeAdd(node), true
		}
		return NewNodeUpdate(prior, node), true
	}
	if edge != nil {
		if kind == graph.Added {
			return NewRelationAdd(edge), true
		}
		return NewRelationUpdate(priorEdge, edge), true
	}
	return Event{}, false
}
