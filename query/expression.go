// Package query implements §4.8's Expression evaluator: a small, closed set
// of Go-constructed combinators over the belief graph that compose into a
// selection, which Eval projects into a sub-graph of matching nodes and the
// edges between them. There is no textual grammar or parser here. The set
// is closed: Expression's marker method is unexported, so only the types of
// this package implement it, and Eval returns an error for any other type;
// code outside this package cannot add leaf or combinator types.
package query

import (
	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/graph"
)

// Expression is implemented by every node of a query expression tree.
type Expression interface {
	isExpression()
}

// StateIn selects nodes by kind and/or schema name. A nil/empty Kinds or
// Schemas slice means "no restriction on that axis"; an empty StateIn{}
// therefore selects every node in the store.
type StateIn struct {
	Kinds   []graph.Kind
	Schemas []string
}

func (StateIn) isExpression() {}

// BidIn selects exactly the nodes named by BIDs, dropping any that don't
// exist in the store.
type BidIn struct {
	BIDs []bid.BID
}

func (BidIn) isExpression() {}

// PathMatch selects every node whose home path within Network matches Glob
// (shell-style, per [path.Match]).
type PathMatch struct {
	Network bid.BID
	Glob    string
}

func (PathMatch) isExpression() {}

// Direction restricts a Neighbors expansion to edges in a single direction.
// A nil *Direction on Neighbors means both directions.
type Direction graph.Direction

const (
	DirectionOut = Direction(graph.DirectionOut)
	DirectionIn  = Direction(graph.DirectionIn)
)

// Neighbors expands Source by one hop: every node connected to a node in
// Source's selection by an edge whose WeightKind appears in Weights (or any
// weight, if Weights is empty) and whose orientation matches Direction (or
// either orientation, if Direction is nil). The result does not include the
// Source nodes themselves unless an expanded neighbor happens to also be a
// source.
type Neighbors struct {
	Source    Expression
	Weights   []graph.WeightKind
	Direction *Direction
}

func (Neighbors) isExpression() {}

// And selects nodes present in both A's and B's selections.
type And struct{ A, B Expression }

func (And) isExpression() {}

// Or selects nodes present in either A's or B's selection.
type Or struct{ A, B Expression }

func (Or) isExpression() {}

// Not selects every node in the store NOT present in Inner's selection.
type Not struct{ Inner Expression }

func (Not) isExpression() {}

// Limit restricts Inner's selection to its first N nodes, in the store's
// deterministic BID order.
type Limit struct {
	Inner Expression
	N     int
}

func (Limit) isExpression() {}

// Offset skips the first N nodes of Inner's selection, in the store's
// deterministic BID order.
type Offset struct {
	Inner Expression
	N     int
}

func (Offset) isExpression() {}
