package graph_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/graph"
	"github.com/beliefgraph/core/immutable"
)

func testNetwork() bid.BID {
	return bid.NewNetworkBID("/docs")
}

func TestInsertOrUpdateNode_AddedThenUnchanged(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	docBID := bid.NewDocumentBID(net, "hello.md")

	doc := graph.NewNode(docBID, graph.KindDocument, net, "", "Hello", "", "hello.md", immutable.Properties{})
	kind, err := s.InsertOrUpdateNode(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, graph.Added, kind)

	kind, err = s.InsertOrUpdateNode(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, graph.Unchanged, kind)
}

func TestInsertOrUpdateNode_Updated(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	docBID := bid.NewDocumentBID(net, "hello.md")

	doc := graph.NewNode(docBID, graph.KindDocument, net, "", "Hello", "", "hello.md", immutable.Properties{})
	_, err := s.InsertOrUpdateNode(ctx, doc)
	require.NoError(t, err)

	retitled := graph.NewNode(docBID, graph.KindDocument, net, "", "Hello, Again", "", "hello.md", immutable.Properties{})
	kind, err := s.InsertOrUpdateNode(ctx, retitled)
	require.NoError(t, err)
	assert.Equal(t, graph.Updated, kind)

	got, ok := s.GetNode(docBID)
	require.True(t, ok)
	assert.Equal(t, "Hello, Again", got.Title())
}

func TestInsertOrUpdateNode_RejectsBIDCollisionAcrossKinds(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	docBID := bid.NewDocumentBID(net, "hello.md")

	doc := graph.NewNode(docBID, graph.KindDocument, net, "", "Hello", "", "hello.md", immutable.Properties{})
	_, err := s.InsertOrUpdateNode(ctx, doc)
	require.NoError(t, err)

	// Same BID, claimed as a different Kind: an invariant violation.
	impostor := graph.NewNode(docBID, graph.KindExternal, net, "", "Hello", "", "hello.md", immutable.Properties{})
	kind, err := s.InsertOrUpdateNode(ctx, impostor)
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrDuplicateNode)
	assert.Equal(t, graph.Unchanged, kind)

	// Store is left unchanged: the original Document is still there.
	got, ok := s.GetNode(docBID)
	require.True(t, ok)
	assert.Equal(t, graph.KindDocument, got.Kind())

	// The rejection is reported via Diagnostics.
	diags := s.Diagnostics()
	assert.True(t, diags.HasErrors())
}

func TestUpsertEdge_RejectsMissingEndpoints(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	docBID := bid.NewDocumentBID(net, "hello.md")
	doc := graph.NewNode(docBID, graph.KindDocument, net, "", "Hello", "", "hello.md", immutable.Properties{})
	_, err := s.InsertOrUpdateNode(ctx, doc)
	require.NoError(t, err)

	ghost := bid.NewDocumentBID(net, "ghost.md")
	kind, err := s.UpsertEdge(ctx, docBID, ghost, graph.WeightReference, immutable.Properties{})
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrMissingEndpoint)
	assert.Equal(t, graph.Unchanged, kind)
}

func TestUpsertEdge_RejectsSelfLoop(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	docBID := bid.NewDocumentBID(net, "hello.md")
	doc := graph.NewNode(docBID, graph.KindDocument, net, "", "Hello", "", "hello.md", immutable.Properties{})
	_, err := s.InsertOrUpdateNode(ctx, doc)
	require.NoError(t, err)

	kind, err := s.UpsertEdge(ctx, docBID, docBID, graph.WeightReference, immutable.Properties{})
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrSelfLoop)
	assert.Equal(t, graph.Unchanged, kind)
}

func TestUpsertEdge_MultigraphDistinctByWeight(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	a := bid.NewDocumentBID(net, "a.md")
	b := bid.NewDocumentBID(net, "b.md")
	docA := graph.NewNode(a, graph.KindDocument, net, "", "A", "", "a.md", immutable.Properties{})
	docB := graph.NewNode(b, graph.KindDocument, net, "", "B", "", "b.md", immutable.Properties{})
	_, err := s.InsertOrUpdateNode(ctx, docA)
	require.NoError(t, err)
	_, err = s.InsertOrUpdateNode(ctx, docB)
	require.NoError(t, err)

	kind, err := s.UpsertEdge(ctx, a, b, graph.WeightReference, immutable.Properties{})
	require.NoError(t, err)
	assert.Equal(t, graph.Added, kind)

	kind, err = s.UpsertEdge(ctx, a, b, graph.WeightKeyword, immutable.Properties{})
	require.NoError(t, err)
	assert.Equal(t, graph.Added, kind, "distinct weight between the same pair is a distinct edge")

	removed := s.RemoveEdge(ctx, a, b, graph.WeightReference)
	assert.True(t, removed)

	ctxNode, ok := s.GetContext(b)
	require.True(t, ok)
	assert.Len(t, ctxNode.Neighbors[graph.WeightKeyword], 1, "the keyword edge survives removal of the reference edge")
	assert.Len(t, ctxNode.Neighbors[graph.WeightReference], 0)
}

func TestUpsertEdge_UnchangedOnIdenticalPayload(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	a := bid.NewDocumentBID(net, "a.md")
	b := bid.NewDocumentBID(net, "b.md")
	_, err := s.InsertOrUpdateNode(ctx, graph.NewNode(a, graph.KindDocument, net, "", "A", "", "a.md", immutable.Properties{}))
	require.NoError(t, err)
	_, err = s.InsertOrUpdateNode(ctx, graph.NewNode(b, graph.KindDocument, net, "", "B", "", "b.md", immutable.Properties{}))
	require.NoError(t, err)

	kind, err := s.UpsertEdge(ctx, a, b, graph.WeightSection, immutable.Properties{})
	require.NoError(t, err)
	assert.Equal(t, graph.Added, kind)

	kind, err = s.UpsertEdge(ctx, a, b, graph.WeightSection, immutable.Properties{})
	require.NoError(t, err)
	assert.Equal(t, graph.Unchanged, kind)
}

func TestRemoveNode_IncomingEdgesBecomePending(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	a := bid.NewDocumentBID(net, "a.md")
	b := bid.NewDocumentBID(net, "b.md")
	_, err := s.InsertOrUpdateNode(ctx, graph.NewNode(a, graph.KindDocument, net, "", "A", "", "a.md", immutable.Properties{}))
	require.NoError(t, err)
	_, err = s.InsertOrUpdateNode(ctx, graph.NewNode(b, graph.KindDocument, net, "", "B", "", "b.md", immutable.Properties{}))
	require.NoError(t, err)
	_, err = s.UpsertEdge(ctx, a, b, graph.WeightReference, immutable.Properties{})
	require.NoError(t, err)

	removed, err := s.RemoveNode(ctx, b)
	require.NoError(t, err)
	assert.Len(t, removed, 1)
	assert.Equal(t, 1, s.PendingCount(), "the edge into b becomes a pending dependency")

	// Re-inserting a node at the same BID resolves the pending edge.
	kind, err := s.InsertOrUpdateNode(ctx, graph.NewNode(b, graph.KindDocument, net, "", "B", "", "b.md", immutable.Properties{}))
	require.NoError(t, err)
	assert.Equal(t, graph.Added, kind)
	assert.Equal(t, 0, s.PendingCount())

	ctxNode, ok := s.GetContext(b)
	require.True(t, ok)
	assert.Len(t, ctxNode.Neighbors[graph.WeightReference], 1)
}

func TestPendingDependency_ResolvesByAnchorKey(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	owner := bid.NewDocumentBID(net, "a.md")
	_, err := s.InsertOrUpdateNode(ctx, graph.NewNode(owner, graph.KindDocument, net, "", "A", "", "a.md", immutable.Properties{}))
	require.NoError(t, err)

	s.AddPending(&graph.PendingDependency{
		Owner:   owner,
		Target:  bid.AnchorKey("setup"),
		Weight:  graph.WeightReference,
		Payload: immutable.Properties{},
	})
	assert.Equal(t, 1, s.PendingCount())

	target := bid.NewSectionBID(owner, "setup", 0)
	kind, err := s.InsertOrUpdateNode(ctx, graph.NewNode(target, graph.KindSection, net, "", "Setup", "setup", "a.md#setup", immutable.Properties{}))
	require.NoError(t, err)
	assert.Equal(t, graph.Added, kind)
	assert.Equal(t, 0, s.PendingCount())

	ctxNode, ok := s.GetContext(target)
	require.True(t, ok)
	assert.Len(t, ctxNode.Neighbors[graph.WeightReference], 1)
}

func TestPathMap_SetGetBijective(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	a := bid.NewDocumentBID(net, "a.md")
	b := bid.NewDocumentBID(net, "b.md")

	require.NoError(t, s.SetPath(ctx, net, "a.md", a))
	got, ok := s.GetBIDByPath(net, "a.md")
	require.True(t, ok)
	assert.Equal(t, a, got)

	path, ok := s.GetPathByBID(net, a)
	require.True(t, ok)
	assert.Equal(t, "a.md", path)

	// Rebinding "a.md" to b evicts a's reverse entry (Move semantics).
	require.NoError(t, s.SetPath(ctx, net, "a.md", b))
	_, ok = s.GetPathByBID(net, a)
	assert.False(t, ok, "a no longer owns a.md")
	got, ok = s.GetBIDByPath(net, "a.md")
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestGetContext_GroupsByWeightAndDirection(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	a := bid.NewDocumentBID(net, "a.md")
	b := bid.NewDocumentBID(net, "b.md")
	_, err := s.InsertOrUpdateNode(ctx, graph.NewNode(a, graph.KindDocument, net, "", "A", "", "a.md", immutable.Properties{}))
	require.NoError(t, err)
	_, err = s.InsertOrUpdateNode(ctx, graph.NewNode(b, graph.KindDocument, net, "", "B", "", "b.md", immutable.Properties{}))
	require.NoError(t, err)
	require.NoError(t, s.SetPath(ctx, net, "a.md", a))
	require.NoError(t, s.SetPath(ctx, net, "b.md", b))
	_, err = s.UpsertEdge(ctx, a, b, graph.WeightReference, immutable.Properties{})
	require.NoError(t, err)

	fromA, ok := s.GetContext(a)
	require.True(t, ok)
	assert.Equal(t, "a.md", fromA.FocalPath)
	require.Len(t, fromA.Neighbors[graph.WeightReference], 1)
	assert.Equal(t, graph.DirectionOut, fromA.Neighbors[graph.WeightReference][0].Direction)
	assert.Equal(t, "b.md", fromA.Neighbors[graph.WeightReference][0].Path)

	fromB, ok := s.GetContext(b)
	require.True(t, ok)
	require.Len(t, fromB.Neighbors[graph.WeightReference], 1)
	assert.Equal(t, graph.DirectionIn, fromB.Neighbors[graph.WeightReference][0].Direction)
}

func TestResolve_TriesKeysInPriorityOrder(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	docBID := bid.NewDocumentBID(net, "hello.md")
	_, err := s.InsertOrUpdateNode(ctx, graph.NewNode(docBID, graph.KindDocument, net, "", "Hello", "", "hello.md", immutable.Properties{}))
	require.NoError(t, err)

	// Title key resolves even when passed out of priority order, alongside
	// a BID key for a node that doesn't exist: BID is tried first and
	// simply misses, falling through to the title match.
	missing := bid.NewDocumentBID(net, "missing.md")
	keys := []bid.NodeKey{bid.TitleKey("hello"), bid.BIDKey(missing)}
	got, ok := s.Resolve(keys)
	require.True(t, ok)
	assert.Equal(t, docBID, got)
}

func TestResolve_NoMatchReturnsFalse(t *testing.T) {
	s := graph.New()
	got, ok := s.Resolve([]bid.NodeKey{bid.TitleKey("nope")})
	assert.False(t, ok)
	assert.Equal(t, bid.Zero, got)
}

func TestSnapshot_IndependentOfLaterMutation(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()
	a := bid.NewDocumentBID(net, "a.md")
	_, err := s.InsertOrUpdateNode(ctx, graph.NewNode(a, graph.KindDocument, net, "", "A", "", "a.md", immutable.Properties{}))
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Nodes(), 1)

	b := bid.NewDocumentBID(net, "b.md")
	_, err = s.InsertOrUpdateNode(ctx, graph.NewNode(b, graph.KindDocument, net, "", "B", "", "b.md", immutable.Properties{}))
	require.NoError(t, err)

	assert.Len(t, snap.Nodes(), 1, "snapshot taken before the second insert is unaffected by it")
	assert.Len(t, s.Snapshot().Nodes(), 2)
}

func TestStore_ConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	s := graph.New()
	net := testNetwork()

	const n = 64
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			id := bid.NewDocumentBID(net, "doc.md")
			node := graph.NewNode(id, graph.KindDocument, net, "", "Doc", "", "doc.md", immutable.Properties{})
			_, err := s.InsertOrUpdateNode(ctx, node)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, ok := s.GetNode(bid.NewDocumentBID(net, "doc.md"))
	require.True(t, ok)
	assert.Equal(t, "Doc", got.Title())
}
