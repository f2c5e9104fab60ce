// Package builder implements GraphBuilder: the owner of a single in-flight
// file parse. It turns a codec's ordered ProtoBeliefNodes into graph
// mutations — maintaining the heading stack that gives structure-driven
// codecs their Section tree, resolving each relation candidate against the
// session graph first and the cached graph second, holding anything still
// unresolved as a PendingDependency — and broadcasts every mutation as an
// event.
package builder

import (
	"context"
	"log/slog"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/codec"
	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/event"
	"github.com/beliefgraph/core/graph"
	"github.com/beliefgraph/core/immutable"
	"github.com/beliefgraph/core/internal/trace"
)

// stackEntry is one frame of the heading stack: a node's BID and the
// heading level it occupies (0 for the document root).
type stackEntry struct {
	id    bid.BID
	level int
}

// Builder owns one file's worth of graph-under-construction state. It is
// not safe for concurrent use by multiple goroutines parsing the same
// file; the compiler runs one Builder per in-flight file.
type Builder struct {
	session *graph.Store
	cached  *graph.Store // read-only view of the last successful parse; may be nil
	bus     *event.Bus
	logger  *slog.Logger

	stack      []stackEntry
	childCount map[bid.BID]int
}

// Option configures a Builder at construction.
type Option func(*Builder)

// WithLogger attaches a structured logger for operation tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// New constructs a Builder over session (the graph-under-construction) and
// cached (a read-only view of the last successful parse; pass nil if there
// is none), broadcasting mutations on bus.
func New(session, cached *graph.Store, bus *event.Bus, opts ...Option) *Builder {
	b := &Builder{
		session:    session,
		cached:     cached,
		bus:        bus,
		childCount: make(map[bid.BID]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BeginFile resets the heading stack to a fresh root at docBID, discarding
// any stack state left over from a previous file. Call this before
// processing the first proto-node of a new file.
func (b *Builder) BeginFile(docBID bid.BID) {
	b.stack = []stackEntry{{id: docBID, level: 0}}
	b.childCount = make(map[bid.BID]int)
}

// UpsertNode materializes proto as a graph node of the given kind and
// schema, publishes the resulting event, and — if proto carries a
// HeadingLevel greater than zero — pops the heading stack to find this
// node's structural parent and upserts a Section edge from parent to node
// with an order index equal to how many children that parent has already
// been given. The node is then pushed onto the stack.
func (b *Builder) UpsertNode(ctx context.Context, proto *codec.ProtoBeliefNode, kind graph.Kind, schemaName, homePath string) (*graph.Node, diag.Result, error) {
	if ctx == nil {
		panic("builder.Builder.UpsertNode: nil context")
	}
	op := trace.Begin(ctx, b.logger, "beliefgraph.builder.upsert_node", slog.String("bid", proto.BID.String()))
	var opErr error
	defer func() { op.End(opErr) }()

	collector := diag.NewCollectorUnlimited()

	prior, _ := b.session.GetNode(proto.BID)
	priorIncoming := incomingEdgeSet(b.session, proto.BID)
	node := graph.NewNode(proto.BID, kind, proto.Network, schemaName, proto.Title, proto.Anchor, homePath, proto.Payload)

	mutation, err := b.session.InsertOrUpdateNode(ctx, node)
	if err != nil {
		opErr = err
		return nil, diag.OK(), err
	}

	if evt, ok := event.FromMutation(mutation, node, prior, nil, nil); ok {
		b.bus.Publish(ctx, evt)
	}

	// InsertOrUpdateNode resolves any PendingDependency keyed to this node's
	// BID/Bref/Anchor/Title internally, materializing edges with no event of
	// its own. Diff the incoming-edge set across the insert to find and
	// broadcast exactly those auto-resolved edges.
	for _, resolved := range newIncomingEdges(priorIncoming, incomingEdgeSet(b.session, proto.BID)) {
		b.bus.Publish(ctx, event.NewRelationAdd(resolved))
	}

	if homePath != "" {
		pathKey := homePath
		if proto.Anchor != "" {
			pathKey = homePath + "#" + proto.Anchor
		}
		oldPath, hadOldPath := b.session.GetPathByBID(proto.Network, proto.BID)
		if err := b.session.SetPath(ctx, proto.Network, pathKey, proto.BID); err != nil {
			opErr = err
			return nil, diag.OK(), err
		}
		var changes []event.PathChange
		switch {
		case !hadOldPath:
			changes = append(changes, event.PathChange{Kind: event.PathAdded, Path: pathKey, BID: proto.BID})
		case oldPath != pathKey:
			changes = append(changes,
				event.PathChange{Kind: event.PathRemoved, Path: oldPath, BID: proto.BID},
				event.PathChange{Kind: event.PathMoved, Path: pathKey, OldPath: oldPath, BID: proto.BID},
			)
		}
		if len(changes) > 0 {
			b.bus.Publish(ctx, event.NewPathsChanged(proto.Network, changes))
		}
	}

	if proto.HeadingLevel > 0 {
		for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= proto.HeadingLevel {
			b.stack = b.stack[:len(b.stack)-1]
		}
		parent := b.stack[len(b.stack)-1].id
		order := b.childCount[parent]
		b.childCount[parent] = order + 1

		payload := immutable.WrapPropertiesClone(map[string]any{"order": order})
		edgeMutation, err := b.session.UpsertEdge(ctx, parent, proto.BID, graph.WeightSection, payload)
		if err != nil {
			collector.Collect(diag.NewIssue(diag.Error, diag.E_UNRESOLVED_REFERENCE, "section edge could not be materialized").
				WithPath(homePath, "bid:"+proto.BID.String()).
				WithDetail("parent", parent.String()).
				Build())
		} else if edge, found := lookupEdge(b.session, parent, proto.BID, graph.WeightSection); found {
			if evt, ok := event.FromMutation(edgeMutation, nil, nil, edge, nil); ok {
				b.bus.Publish(ctx, evt)
			}
		}
	}
	b.stack = append(b.stack, stackEntry{id: proto.BID, level: proto.HeadingLevel})

	return node, collector.Result(), nil
}

// ResolveReference attempts to resolve target against the session graph,
// then the cached graph, per the two-step fallback. If both fail, it
// records a PendingDependency on the session graph so a later InsertOrUpdateNode
// matching target can complete the edge automatically. On success it
// upserts the edge and publishes the resulting event.
func (b *Builder) ResolveReference(ctx context.Context, owner bid.BID, target bid.NodeKey, weight graph.WeightKind) (resolved bool, sink bid.BID) {
	if ctx == nil {
		panic("builder.Builder.ResolveReference: nil context")
	}
	sink, ok := b.session.Resolve([]bid.NodeKey{target})
	if !ok && b.cached != nil {
		sink, ok = b.cached.Resolve([]bid.NodeKey{target})
	}
	if !ok {
		b.session.AddPending(&graph.PendingDependency{
			Owner:   owner,
			Target:  target,
			Weight:  weight,
			Payload: immutable.Properties{},
		})
		return false, bid.Zero
	}

	mutation, err := b.session.UpsertEdge(ctx, owner, sink, weight, immutable.Properties{})
	if err != nil {
		return false, bid.Zero
	}
	if edge, found := lookupEdge(b.session, owner, sink, weight); found {
		if evt, ok := event.FromMutation(mutation, nil, nil, edge, nil); ok {
			b.bus.Publish(ctx, evt)
		}
	}
	return true, sink
}

// edgeIdentity is the part of an Edge's key that lookupEdge/incomingEdgeSet
// need to diff across an insert: same source+weight into the same focal
// node is the same edge, regardless of payload.
type edgeIdentity struct {
	source bid.BID
	weight graph.WeightKind
}

// incomingEdgeSet snapshots the edges currently pointing at id, keyed by
// source+weight. id need not exist in store yet; a not-yet-inserted node
// trivially has no incoming edges.
func incomingEdgeSet(store *graph.Store, id bid.BID) map[edgeIdentity]*graph.Edge {
	out := make(map[edgeIdentity]*graph.Edge)
	ctxNode, ok := store.GetContext(id)
	if !ok {
		return out
	}
	for _, neighbors := range ctxNode.Neighbors {
		for _, neighbor := range neighbors {
			if neighbor.Direction != graph.DirectionIn {
				continue
			}
			out[edgeIdentity{source: neighbor.Edge.Source(), weight: neighbor.Edge.Weight()}] = neighbor.Edge
		}
	}
	return out
}

// newIncomingEdges returns the edges present in after but not in before, in
// no particular order.
func newIncomingEdges(before, after map[edgeIdentity]*graph.Edge) []*graph.Edge {
	var out []*graph.Edge
	for key, edge := range after {
		if _, existed := before[key]; !existed {
			out = append(out, edge)
		}
	}
	return out
}

func lookupEdge(store *graph.Store, source, sink bid.BID, weight graph.WeightKind) (*graph.Edge, bool) {
	ctxNode, ok := store.GetContext(source)
	if !ok {
		return nil, false
	}
	for _, neighbor := range ctxNode.Neighbors[weight] {
		if neighbor.Direction != graph.DirectionOut {
			continue
		}
		if neighbor.Edge.Sink() == sink {
			return neighbor.Edge, true
		}
	}
	return nil, false
}
