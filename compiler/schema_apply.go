package compiler

import (
	"context"
	"log/slog"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/event"
	"github.com/beliefgraph/core/graph"
	"github.com/beliefgraph/core/schema"
)

// edgeTriple is an edge's full multigraph identity: (source, sink, weight).
// Unlike builder's incoming-only edgeIdentity (keyed by source+weight
// against one fixed sink), a CreateEdges rule can orient its edge either
// way, so diffing schema.ApplyForward's effect needs the full triple.
type edgeTriple struct {
	source bid.BID
	sink   bid.BID
	weight graph.WeightKind
}

// fullEdgeSet snapshots every edge touching id, in either direction, keyed
// by its full identity.
func fullEdgeSet(store *graph.Store, id bid.BID) map[edgeTriple]*graph.Edge {
	out := make(map[edgeTriple]*graph.Edge)
	ctxNode, ok := store.GetContext(id)
	if !ok {
		return out
	}
	for _, neighbors := range ctxNode.Neighbors {
		for _, neighbor := range neighbors {
			e := neighbor.Edge
			out[edgeTriple{source: e.Source(), sink: e.Sink(), weight: e.Weight()}] = e
		}
	}
	return out
}

// applyForwardAndPublish runs schema.ApplyForward and publishes the
// RelationAdd/RelationRemove events it would have emitted itself, had it
// gone through GraphBuilder. ApplyForward mutates store directly via
// UpsertEdge/RemoveEdge (the same way graph.Store's own internal
// resolvePending does, see builder.UpsertNode's incoming-edge diff for the
// analogous fix there) with no event of its own, so the compiler — the
// only caller that has both a store and a bus — closes that gap here by
// diffing node's full edge set across the call.
func applyForwardAndPublish(ctx context.Context, store *graph.Store, logger *slog.Logger, def *schema.SchemaDefinition, node, previous *graph.Node, bus *event.Bus) diag.Result {
	before := fullEdgeSet(store, node.BID())
	result := schema.ApplyForward(ctx, store, logger, def, node, previous)
	after := fullEdgeSet(store, node.BID())

	for key, e := range after {
		if _, existed := before[key]; !existed {
			bus.Publish(ctx, event.NewRelationAdd(e))
		}
	}
	for key := range before {
		if _, stillExists := after[key]; !stillExists {
			bus.Publish(ctx, event.NewRelationRemove(key.source, key.sink, key.weight))
		}
	}
	return result
}
