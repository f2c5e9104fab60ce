// Package toml implements the belief graph's TOML codec: a single TOML
// document is one node, its top-level table becomes the node's payload
// verbatim, and relation candidates are left to the schema package's
// CreateEdges rules (TOML has no structural hierarchy the way Markdown
// headings do, so there is nothing codec-intrinsic to triangulate).
package toml

import (
	"context"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/codec"
	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/immutable"
)

// Codec implements codec.Codec for ".toml" sources.
type Codec struct {
	codec.NopFinalizer

	// fields is the last-decoded top-level table, retained so
	// GenerateSource can re-marshal it. Nil until Parse succeeds.
	fields map[string]any
}

// New constructs a TOML codec instance.
func New() *Codec { return &Codec{} }

// Extension returns "toml".
func (c *Codec) Extension() string { return "toml" }

// Parse implements codec.Codec. The whole document decodes into a single
// ProtoBeliefNode whose Payload is the top-level table.
func (c *Codec) Parse(ctx context.Context, sourceText []byte, initialProto *codec.ProtoBeliefNode) ([]*codec.ProtoBeliefNode, diag.Result, error) {
	if ctx == nil {
		panic("toml.Codec.Parse: nil context")
	}
	if initialProto == nil {
		return nil, diag.OK(), fmt.Errorf("toml: Parse requires a non-nil initial proto-node")
	}

	collector := diag.NewCollectorUnlimited()

	var fields map[string]any
	if err := toml.Unmarshal(sourceText, &fields); err != nil {
		collector.Collect(diag.NewIssue(diag.Error, diag.E_FORMAT_ERROR, "document is not valid TOML").
			WithDetail("error", err.Error()).
			Build())
		return nil, collector.Result(), nil
	}
	if fields == nil {
		fields = map[string]any{}
	}
	c.fields = fields

	title := initialProto.Title
	if t, ok := fields["title"].(string); ok && t != "" {
		title = t
	}

	proto := &codec.ProtoBeliefNode{
		BID:     initialProto.BID,
		Network: initialProto.Network,
		Title:   title,
		Payload: immutable.WrapPropertiesClone(fields),
	}
	return []*codec.ProtoBeliefNode{proto}, collector.Result(), nil
}

// InjectContext implements codec.Codec. TOML proto-nodes carry no
// codec-intrinsic relation candidates, so this is a structural no-op.
func (c *Codec) InjectContext(ctx context.Context, proto *codec.ProtoBeliefNode, rctx codec.ResolveContext) (*codec.ResolvedNode, diag.Result, error) {
	if ctx == nil {
		panic("toml.Codec.InjectContext: nil context")
	}
	return &codec.ResolvedNode{Proto: proto, Resolved: map[bid.NodeKey]bid.BID{}}, diag.OK(), nil
}

// GenerateSource implements codec.Codec by re-marshaling the table Parse
// last decoded. Since TOML carries no structural or link syntax this
// codec itself interprets, re-encoding the same table is trivially
// round-trip stable.
func (c *Codec) GenerateSource(ctx context.Context) (string, error) {
	out, err := toml.Marshal(c.fields)
	if err != nil {
		return "", fmt.Errorf("toml: generate source: %w", err)
	}
	return string(out), nil
}

// GenerateHTML implements codec.Codec. TOML documents have no rendering
// of their own.
func (c *Codec) GenerateHTML(ctx context.Context, opts codec.HTMLOptions) (string, bool, error) {
	return "", false, nil
}
