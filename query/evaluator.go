package query

import (
	"fmt"
	"path"
	"slices"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/graph"
)

// Evaluator evaluates [Expression] trees against a fixed store. It is
// stateless between calls: like the teacher's instance/eval Evaluator, all
// the state an evaluation needs lives in the arguments passed to Eval, not
// on the Evaluator itself.
type Evaluator struct {
	store *graph.Store
}

// NewEvaluator returns an Evaluator reading from store.
func NewEvaluator(store *graph.Store) *Evaluator {
	return &Evaluator{store: store}
}

// Eval selects nodes matching expr and projects them, together with every
// edge running between two selected nodes, into a [SubGraph]. Eval takes a
// single [graph.Store.Snapshot] up front; node selection and the final
// projection read that one point-in-time view. Neighbors is the exception:
// it reads adjacency from the live store through [graph.Store.GetContext],
// so an edge added or removed while Eval runs can be seen there and not in
// the snapshot.
func (e *Evaluator) Eval(expr Expression) (*SubGraph, error) {
	snap := e.store.Snapshot()
	ids, err := e.evalSelect(snap, expr)
	if err != nil {
		return nil, err
	}
	return project(snap, ids), nil
}

func (e *Evaluator) evalSelect(snap *graph.Snapshot, expr Expression) (*bidSet, error) {
	switch ex := expr.(type) {
	case StateIn:
		return e.evalStateIn(snap, ex), nil
	case BidIn:
		return e.evalBidIn(snap, ex), nil
	case PathMatch:
		return e.evalPathMatch(snap, ex)
	case Neighbors:
		return e.evalNeighbors(snap, ex)
	case And:
		a, err := e.evalSelect(snap, ex.A)
		if err != nil {
			return nil, err
		}
		b, err := e.evalSelect(snap, ex.B)
		if err != nil {
			return nil, err
		}
		return a.intersect(b), nil
	case Or:
		a, err := e.evalSelect(snap, ex.A)
		if err != nil {
			return nil, err
		}
		b, err := e.evalSelect(snap, ex.B)
		if err != nil {
			return nil, err
		}
		return a.union(b), nil
	case Not:
		inner, err := e.evalSelect(snap, ex.Inner)
		if err != nil {
			return nil, err
		}
		return e.universe(snap).minus(inner), nil
	case Limit:
		inner, err := e.evalSelect(snap, ex.Inner)
		if err != nil {
			return nil, err
		}
		return inner.limit(ex.N), nil
	case Offset:
		inner, err := e.evalSelect(snap, ex.Inner)
		if err != nil {
			return nil, err
		}
		return inner.offset(ex.N), nil
	default:
		return nil, fmt.Errorf("query: unrecognized expression type %T", expr)
	}
}

func (e *Evaluator) universe(snap *graph.Snapshot) *bidSet {
	ids := make([]bid.BID, 0, len(snap.Nodes()))
	for _, n := range snap.Nodes() {
		ids = append(ids, n.BID())
	}
	return newBidSet(ids...)
}

func (e *Evaluator) evalStateIn(snap *graph.Snapshot, s StateIn) *bidSet {
	var ids []bid.BID
	for _, n := range snap.Nodes() {
		if len(s.Kinds) > 0 && !slices.Contains(s.Kinds, n.Kind()) {
			continue
		}
		if len(s.Schemas) > 0 && !slices.Contains(s.Schemas, n.Schema()) {
			continue
		}
		ids = append(ids, n.BID())
	}
	return newBidSet(ids...)
}

func (e *Evaluator) evalBidIn(snap *graph.Snapshot, b BidIn) *bidSet {
	existing := make(map[string]struct{}, len(snap.Nodes()))
	for _, n := range snap.Nodes() {
		existing[n.BID().String()] = struct{}{}
	}
	var ids []bid.BID
	for _, id := range b.BIDs {
		if _, ok := existing[id.String()]; ok {
			ids = append(ids, id)
		}
	}
	return newBidSet(ids...)
}

func (e *Evaluator) evalPathMatch(snap *graph.Snapshot, p PathMatch) (*bidSet, error) {
	var ids []bid.BID
	for _, n := range snap.Nodes() {
		if n.HomeNet() != p.Network {
			continue
		}
		ok, err := path.Match(p.Glob, n.HomePath())
		if err != nil {
			return nil, fmt.Errorf("query: invalid PathMatch glob %q: %w", p.Glob, err)
		}
		if ok {
			ids = append(ids, n.BID())
		}
	}
	return newBidSet(ids...), nil
}

func (e *Evaluator) evalNeighbors(snap *graph.Snapshot, nb Neighbors) (*bidSet, error) {
	source, err := e.evalSelect(snap, nb.Source)
	if err != nil {
		return nil, err
	}

	var ids []bid.BID
	for _, id := range source.ids {
		nctx, ok := e.store.GetContext(id)
		if !ok {
			continue
		}
		for weight, neighbors := range nctx.Neighbors {
			if len(nb.Weights) > 0 && !slices.Contains(nb.Weights, weight) {
				continue
			}
			for _, neighbor := range neighbors {
				if nb.Direction != nil && graph.Direction(*nb.Direction) != neighbor.Direction {
					continue
				}
				if neighbor.Node == nil {
					continue
				}
				ids = append(ids, neighbor.Node.BID())
			}
		}
	}
	return newBidSet(ids...), nil
}
