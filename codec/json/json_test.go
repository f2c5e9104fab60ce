package json_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/codec"
	codecjson "github.com/beliefgraph/core/codec/json"
)

func TestParse_TopLevelObjectBecomesPayload(t *testing.T) {
	source := []byte(`{"title": "Acme Corp", "founded": 1999}`)
	c := codecjson.New()
	net := bid.NewNetworkBID("/docs")
	docBID := bid.NewDocumentBID(net, "acme.json")

	nodes, result, err := c.Parse(context.Background(), source, &codec.ProtoBeliefNode{BID: docBID, Network: net})
	require.NoError(t, err)
	assert.False(t, result.HasErrors())
	require.Len(t, nodes, 1)
	assert.Equal(t, "Acme Corp", nodes[0].Title)

	founded, ok := nodes[0].Payload.Get("founded")
	require.True(t, ok)
	n, ok := founded.Int()
	require.True(t, ok)
	assert.EqualValues(t, 1999, n)
}

func TestParse_JSONCCommentsAndTrailingCommasAccepted(t *testing.T) {
	source := []byte("{\n  // a comment\n  \"title\": \"Acme\",\n}\n")
	c := codecjson.New()
	net := bid.NewNetworkBID("/docs")
	docBID := bid.NewDocumentBID(net, "acme.json")

	nodes, result, err := c.Parse(context.Background(), source, &codec.ProtoBeliefNode{BID: docBID, Network: net})
	require.NoError(t, err)
	assert.False(t, result.HasErrors())
	require.Len(t, nodes, 1)
	assert.Equal(t, "Acme", nodes[0].Title)
}

func TestParse_StrictJSONRejectsComments(t *testing.T) {
	source := []byte("{\n  // a comment\n  \"title\": \"Acme\"\n}\n")
	c := &codecjson.Codec{StrictJSON: true}
	net := bid.NewNetworkBID("/docs")
	docBID := bid.NewDocumentBID(net, "acme.json")

	nodes, result, err := c.Parse(context.Background(), source, &codec.ProtoBeliefNode{BID: docBID, Network: net})
	require.NoError(t, err)
	assert.True(t, result.HasErrors())
	assert.Nil(t, nodes)
}

func TestParse_MalformedJSONReportsDiagnostic(t *testing.T) {
	source := []byte(`{"title": }`)
	c := codecjson.New()
	net := bid.NewNetworkBID("/docs")
	docBID := bid.NewDocumentBID(net, "bad.json")

	nodes, result, err := c.Parse(context.Background(), source, &codec.ProtoBeliefNode{BID: docBID, Network: net})
	require.NoError(t, err)
	assert.True(t, result.HasErrors())
	assert.Nil(t, nodes)
}
