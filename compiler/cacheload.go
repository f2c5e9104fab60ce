package compiler

import (
	"context"

	"github.com/beliefgraph/core/cache"
	"github.com/beliefgraph/core/graph"
)

// loadCacheSnapshot replays snap's nodes, edges, and paths directly into
// session, bypassing GraphBuilder/event.FromMutation entirely. A run that
// changes nothing must emit no events beyond the single synthetic
// cache-load marker Run publishes once this returns — not one NodeAdd per
// cached node — so this loader talks to the store directly rather than
// through a builder.
func loadCacheSnapshot(ctx context.Context, session *graph.Store, snap cache.Snapshot) {
	for _, n := range snap.Nodes {
		_, _ = session.InsertOrUpdateNode(ctx, n)
	}
	for _, e := range snap.Edges {
		_, _ = session.UpsertEdge(ctx, e.Source(), e.Sink(), e.Weight(), e.Payload())
	}
	for _, p := range snap.Paths {
		_ = session.SetPath(ctx, p.Network, p.Path, p.BID)
	}
}
