package builder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/builder"
	"github.com/beliefgraph/core/codec"
	"github.com/beliefgraph/core/event"
	"github.com/beliefgraph/core/graph"
	"github.com/beliefgraph/core/immutable"
)

func testNetwork() bid.BID { return bid.NewNetworkBID("/docs") }

func TestUpsertNode_BuildsSectionTreeFromHeadingLevels(t *testing.T) {
	net := testNetwork()
	session := graph.New()
	bus := event.NewBus()
	ch, unsub := bus.Subscribe()
	defer unsub()

	b := builder.New(session, nil, bus)
	ctx := context.Background()

	docBID := bid.NewDocumentBID(net, "a.md")
	b.BeginFile(docBID)

	docProto := &codec.ProtoBeliefNode{BID: docBID, Network: net, Title: "A"}
	_, _, err := b.UpsertNode(ctx, docProto, graph.KindDocument, "Document", "a.md")
	require.NoError(t, err)

	topBID := bid.NewSectionBID(docBID, "top", 0)
	topProto := &codec.ProtoBeliefNode{BID: topBID, Network: net, Title: "Top", HeadingLevel: 1}
	_, _, err = b.UpsertNode(ctx, topProto, graph.KindSection, "Section", "a.md")
	require.NoError(t, err)

	childBID := bid.NewSectionBID(docBID, "child", 0)
	childProto := &codec.ProtoBeliefNode{BID: childBID, Network: net, Title: "Child", HeadingLevel: 2}
	_, _, err = b.UpsertNode(ctx, childProto, graph.KindSection, "Section", "a.md")
	require.NoError(t, err)

	ctxNode, ok := session.GetContext(topBID)
	require.True(t, ok)
	neighbors := ctxNode.Neighbors[graph.WeightSection]
	require.Len(t, neighbors, 1)
	assert.Equal(t, childBID, neighbors[0].Edge.Sink())
	assert.Equal(t, graph.DirectionOut, neighbors[0].Direction)

	// Drain the first five events: NodeAdd and PathsChanged for the document,
	// NodeAdd and PathsChanged for top, then RelationAdd doc->top.
	var kinds []event.Kind
	for i := 0; i < 5; i++ {
		kinds = append(kinds, (<-ch).Kind)
	}
	assert.Contains(t, kinds, event.RelationAdd)
}

func TestUpsertNode_SiblingHeadingsPopToCorrectParent(t *testing.T) {
	net := testNetwork()
	session := graph.New()
	bus := event.NewBus()
	b := builder.New(session, nil, bus)
	ctx := context.Background()

	docBID := bid.NewDocumentBID(net, "a.md")
	b.BeginFile(docBID)
	_, _, _ = b.UpsertNode(ctx, &codec.ProtoBeliefNode{BID: docBID, Network: net}, graph.KindDocument, "Document", "a.md")

	oneBID := bid.NewSectionBID(docBID, "one", 0)
	_, _, _ = b.UpsertNode(ctx, &codec.ProtoBeliefNode{BID: oneBID, Network: net, Title: "One", HeadingLevel: 2}, graph.KindSection, "Section", "a.md")

	twoBID := bid.NewSectionBID(docBID, "two", 0)
	_, _, _ = b.UpsertNode(ctx, &codec.ProtoBeliefNode{BID: twoBID, Network: net, Title: "Two", HeadingLevel: 2}, graph.KindSection, "Section", "a.md")

	ctxNode, ok := session.GetContext(docBID)
	require.True(t, ok)
	neighbors := ctxNode.Neighbors[graph.WeightSection]
	require.Len(t, neighbors, 2)
	assert.Equal(t, oneBID, neighbors[0].Edge.Sink())
	assert.Equal(t, twoBID, neighbors[1].Edge.Sink())
}

func TestResolveReference_SessionGraphHit(t *testing.T) {
	net := testNetwork()
	session := graph.New()
	bus := event.NewBus()
	b := builder.New(session, nil, bus)
	ctx := context.Background()

	target := bid.NewDocumentBID(net, "target.md")
	_, err := session.InsertOrUpdateNode(ctx, graph.NewNode(target, graph.KindDocument, net, "", "Target", "", "target.md", immutable.Properties{}))
	require.NoError(t, err)

	owner := bid.NewDocumentBID(net, "owner.md")
	_, err = session.InsertOrUpdateNode(ctx, graph.NewNode(owner, graph.KindDocument, net, "", "Owner", "", "owner.md", immutable.Properties{}))
	require.NoError(t, err)

	resolved, sink := b.ResolveReference(ctx, owner, bid.BIDKey(target), graph.WeightReference)
	assert.True(t, resolved)
	assert.Equal(t, target, sink)
}

func TestResolveReference_FallsBackToCachedGraph(t *testing.T) {
	net := testNetwork()
	cached := graph.New()
	ctx := context.Background()

	target := bid.NewDocumentBID(net, "target.md")
	_, err := cached.InsertOrUpdateNode(ctx, graph.NewNode(target, graph.KindDocument, net, "", "Target", "", "target.md", immutable.Properties{}))
	require.NoError(t, err)

	session := graph.New()
	owner := bid.NewDocumentBID(net, "owner.md")
	_, err = session.InsertOrUpdateNode(ctx, graph.NewNode(owner, graph.KindDocument, net, "", "Owner", "", "owner.md", immutable.Properties{}))
	require.NoError(t, err)

	bus := event.NewBus()
	b := builder.New(session, cached, bus)

	resolved, sink := b.ResolveReference(ctx, owner, bid.BIDKey(target), graph.WeightReference)
	assert.True(t, resolved)
	assert.Equal(t, target, sink)
}

func TestResolveReference_UnresolvedBecomesPending(t *testing.T) {
	net := testNetwork()
	session := graph.New()
	bus := event.NewBus()
	b := builder.New(session, nil, bus)
	ctx := context.Background()

	owner := bid.NewDocumentBID(net, "owner.md")
	_, err := session.InsertOrUpdateNode(ctx, graph.NewNode(owner, graph.KindDocument, net, "", "Owner", "", "owner.md", immutable.Properties{}))
	require.NoError(t, err)

	missing := bid.NewDocumentBID(net, "missing.md")
	resolved, _ := b.ResolveReference(ctx, owner, bid.BIDKey(missing), graph.WeightReference)
	assert.False(t, resolved)
	assert.Equal(t, 1, session.PendingCount())

	// Inserting the missing node now auto-resolves the pending edge via
	// graph.Store's own resolvePending machinery.
	_, err = session.InsertOrUpdateNode(ctx, graph.NewNode(missing, graph.KindDocument, net, "", "Missing", "", "missing.md", immutable.Properties{}))
	require.NoError(t, err)
	assert.Equal(t, 0, session.PendingCount())

	ctxNode, ok := session.GetContext(owner)
	require.True(t, ok)
	assert.Len(t, ctxNode.Neighbors[graph.WeightReference], 1)
}

func TestUpsertNode_PublishesEventForAutoResolvedPending(t *testing.T) {
	net := testNetwork()
	session := graph.New()
	bus := event.NewBus()
	b := builder.New(session, nil, bus)
	ctx := context.Background()

	owner := bid.NewDocumentBID(net, "owner.md")
	_, err := session.InsertOrUpdateNode(ctx, graph.NewNode(owner, graph.KindDocument, net, "", "Owner", "", "owner.md", immutable.Properties{}))
	require.NoError(t, err)

	missing := bid.NewDocumentBID(net, "missing.md")
	resolved, _ := b.ResolveReference(ctx, owner, bid.BIDKey(missing), graph.WeightReference)
	assert.False(t, resolved)
	require.Equal(t, 1, session.PendingCount())

	ch, unsub := bus.Subscribe()
	defer unsub()

	b.BeginFile(missing)
	missingProto := &codec.ProtoBeliefNode{BID: missing, Network: net, Title: "Missing"}
	_, _, err = b.UpsertNode(ctx, missingProto, graph.KindDocument, "Document", "missing.md")
	require.NoError(t, err)
	assert.Equal(t, 0, session.PendingCount())

	var relationAdd *event.Event
	for i := 0; i < 2; i++ {
		evt := <-ch
		if evt.Kind == event.RelationAdd {
			e := evt
			relationAdd = &e
		}
	}
	require.NotNil(t, relationAdd, "expected a RelationAdd event for the auto-resolved pending dependency")
	assert.Equal(t, owner, relationAdd.Edge.Source())
	assert.Equal(t, missing, relationAdd.Edge.Sink())
	assert.Equal(t, graph.WeightReference, relationAdd.Edge.Weight())
}
