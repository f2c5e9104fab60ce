package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/graph"
	"github.com/beliefgraph/core/immutable"
	"github.com/beliefgraph/core/query"
)

func mustInsert(t *testing.T, store *graph.Store, id bid.BID, kind graph.Kind, homeNet bid.BID, schemaName, title, homePath string) *graph.Node {
	t.Helper()
	node := graph.NewNode(id, kind, homeNet, schemaName, title, "", homePath, immutable.WrapProperties(nil))
	_, err := store.InsertOrUpdateNode(context.Background(), node)
	require.NoError(t, err)
	return node
}

func newPopulatedStore(t *testing.T) (*graph.Store, bid.BID, map[string]bid.BID) {
	t.Helper()
	store := graph.New()
	network := bid.NewNetworkBID("/docs")

	ids := make(map[string]bid.BID)
	a := bid.NewDocumentBID(network, "a.md")
	b := bid.NewDocumentBID(network, "b.md")
	c := bid.NewDocumentBID(network, "c.toml")
	ids["a"], ids["b"], ids["c"] = a, b, c

	mustInsert(t, store, a, graph.KindDocument, network, "note", "A", "a.md")
	mustInsert(t, store, b, graph.KindDocument, network, "note", "B", "b.md")
	mustInsert(t, store, c, graph.KindDocument, network, "config", "C", "c.toml")

	require.NoError(t, store.SetPath(context.Background(), network, "a.md", a))
	require.NoError(t, store.SetPath(context.Background(), network, "b.md", b))
	require.NoError(t, store.SetPath(context.Background(), network, "c.toml", c))

	_, err := store.UpsertEdge(context.Background(), a, b, graph.WeightReference, immutable.WrapProperties(nil))
	require.NoError(t, err)

	return store, network, ids
}

func TestEval_StateIn_FiltersBySchema(t *testing.T) {
	store, _, ids := newPopulatedStore(t)
	eval := query.NewEvaluator(store)

	result, err := eval.Eval(query.StateIn{Schemas: []string{"note"}})
	require.NoError(t, err)

	var got []bid.BID
	for _, n := range result.Nodes {
		got = append(got, n.BID())
	}
	assert.ElementsMatch(t, []bid.BID{ids["a"], ids["b"]}, got)
}

func TestEval_BidIn_DropsUnknownIDs(t *testing.T) {
	store, network, ids := newPopulatedStore(t)
	eval := query.NewEvaluator(store)

	ghost := bid.NewDocumentBID(network, "ghost.md")
	result, err := eval.Eval(query.BidIn{BIDs: []bid.BID{ids["a"], ghost}})
	require.NoError(t, err)

	require.Len(t, result.Nodes, 1)
	assert.Equal(t, ids["a"], result.Nodes[0].BID())
}

func TestEval_PathMatch_MatchesGlob(t *testing.T) {
	store, network, ids := newPopulatedStore(t)
	eval := query.NewEvaluator(store)

	result, err := eval.Eval(query.PathMatch{Network: network, Glob: "*.md"})
	require.NoError(t, err)

	var got []bid.BID
	for _, n := range result.Nodes {
		got = append(got, n.BID())
	}
	assert.ElementsMatch(t, []bid.BID{ids["a"], ids["b"]}, got)
}

func TestEval_Neighbors_FollowsReferenceEdge(t *testing.T) {
	store, _, ids := newPopulatedStore(t)
	eval := query.NewEvaluator(store)

	result, err := eval.Eval(query.Neighbors{
		Source:  query.BidIn{BIDs: []bid.BID{ids["a"]}},
		Weights: []graph.WeightKind{graph.WeightReference},
	})
	require.NoError(t, err)

	require.Len(t, result.Nodes, 1)
	assert.Equal(t, ids["b"], result.Nodes[0].BID())
	require.Len(t, result.Edges, 1)
}

func TestEval_Neighbors_RespectsDirection(t *testing.T) {
	store, _, ids := newPopulatedStore(t)
	eval := query.NewEvaluator(store)

	out := query.DirectionOut
	result, err := eval.Eval(query.Neighbors{
		Source:    query.BidIn{BIDs: []bid.BID{ids["b"]}},
		Direction: &out,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Nodes, "b has no outgoing edges, so an out-only expansion from b should be empty")

	in := query.DirectionIn
	result, err = eval.Eval(query.Neighbors{
		Source:    query.BidIn{BIDs: []bid.BID{ids["b"]}},
		Direction: &in,
	})
	require.NoError(t, err)
	require.Len(t, result.Nodes, 1)
	assert.Equal(t, ids["a"], result.Nodes[0].BID())
}

func TestEval_AndOrNot(t *testing.T) {
	store, _, ids := newPopulatedStore(t)
	eval := query.NewEvaluator(store)

	notes := query.StateIn{Schemas: []string{"note"}}
	onlyA := query.BidIn{BIDs: []bid.BID{ids["a"]}}

	andResult, err := eval.Eval(query.And{A: notes, B: onlyA})
	require.NoError(t, err)
	require.Len(t, andResult.Nodes, 1)
	assert.Equal(t, ids["a"], andResult.Nodes[0].BID())

	orResult, err := eval.Eval(query.Or{A: onlyA, B: query.BidIn{BIDs: []bid.BID{ids["c"]}}})
	require.NoError(t, err)
	var gotOr []bid.BID
	for _, n := range orResult.Nodes {
		gotOr = append(gotOr, n.BID())
	}
	assert.ElementsMatch(t, []bid.BID{ids["a"], ids["c"]}, gotOr)

	notResult, err := eval.Eval(query.Not{Inner: notes})
	require.NoError(t, err)
	require.Len(t, notResult.Nodes, 1)
	assert.Equal(t, ids["c"], notResult.Nodes[0].BID())
}

func TestEval_LimitAndOffset(t *testing.T) {
	store, _, _ := newPopulatedStore(t)
	eval := query.NewEvaluator(store)

	all, err := eval.Eval(query.StateIn{})
	require.NoError(t, err)
	require.Len(t, all.Nodes, 3)

	limited, err := eval.Eval(query.Limit{Inner: query.StateIn{}, N: 2})
	require.NoError(t, err)
	assert.Len(t, limited.Nodes, 2)

	offset, err := eval.Eval(query.Offset{Inner: query.StateIn{}, N: 2})
	require.NoError(t, err)
	assert.Len(t, offset.Nodes, 1)
}
