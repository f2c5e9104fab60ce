package graph

import (
	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/immutable"
)

// WeightKind discriminates the kind of relation an [Edge] represents. The
// store is a multigraph: distinct WeightKinds between the same (source,
// sink) pair coexist as independent edges.
type WeightKind uint8

const (
	// WeightSection is hierarchical containment between headings, or
	// between a document and its top-level headings. The edge source is
	// always the parent.
	WeightSection WeightKind = iota
	// WeightReference is an explicit inline link from a source body to
	// another node.
	WeightReference
	// WeightEpistemic is a schema-declared semantic relation (e.g.
	// "depends-on", "cites").
	WeightEpistemic
	// WeightPragmatic is a schema-declared operational relation (e.g.
	// "asset of", "produced by").
	WeightPragmatic
	// WeightKeyword is an unresolved or soft reference by title or tag.
	WeightKeyword
)

// String returns the lowercase weight name.
func (w WeightKind) String() string {
	switch w {
	case WeightSection:
		return "section"
	case WeightReference:
		return "reference"
	case WeightEpistemic:
		return "epistemic"
	case WeightPragmatic:
		return "pragmatic"
	case WeightKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// ParseWeightKind parses the lowercase name a codec attaches to a
// [codec.RelationCandidate] (the codec-side mirror of String) back into a
// WeightKind, or (0, false) if s names none of the known kinds.
func ParseWeightKind(s string) (WeightKind, bool) {
	switch s {
	case "section":
		return WeightSection, true
	case "reference":
		return WeightReference, true
	case "epistemic":
		return WeightEpistemic, true
	case "pragmatic":
		return WeightPragmatic, true
	case "keyword":
		return WeightKeyword, true
	default:
		return 0, false
	}
}

// Edge is a directed relation between two BIDs carrying a WeightKind
// discriminator and an optional structured payload.
//
// Edge is identified, for multigraph purposes, by the triple
// (Source, Sink, Weight); at most one Edge with a given triple exists in
// a [Store] at a time. Payloads participate in graph equality.
type Edge struct {
	source  bid.BID
	sink    bid.BID
	weight  WeightKind
	payload immutable.Properties
}

// edgeKey is the multigraph identity of an edge: same (source, sink)
// with a different weight is a distinct edge.
type edgeKey struct {
	source bid.BID
	sink   bid.BID
	weight WeightKind
}

func (e *Edge) key() edgeKey {
	return edgeKey{source: e.source, sink: e.sink, weight: e.weight}
}

// NewEdge constructs an Edge. Source and sink must both be non-zero BIDs;
// [Store.UpsertEdge] enforces that both endpoints currently exist in the
// store and that source != sink (no self-loops).
func NewEdge(source, sink bid.BID, weight WeightKind, payload immutable.Properties) *Edge {
	return &Edge{source: source, sink: sink, weight: weight, payload: payload}
}

// Source returns the BID that declares this relation.
func (e *Edge) Source() bid.BID {
	if e == nil {
		return bid.Zero
	}
	return e.source
}

// Sink returns the BID being referenced.
func (e *Edge) Sink() bid.BID {
	if e == nil {
		return bid.Zero
	}
	return e.sink
}

// Weight returns the edge's WeightKind.
func (e *Edge) Weight() WeightKind {
	if e == nil {
		return 0
	}
	return e.weight
}

// Payload returns the edge's structured payload, e.g. a Section edge's
// sibling order index or a Pragmatic edge's asset path.
func (e *Edge) Payload() immutable.Properties {
	if e == nil {
		return immutable.Properties{}
	}
	return e.payload
}

// sameStructure reports whether e and other carry the same payload. The
// caller has already matched (source, sink, weight).
func (e *Edge) sameStructure(other *Edge) bool {
	if e == nil || other == nil {
		return e == other
	}
	return propertiesEqual(e.payload, other.payload)
}
