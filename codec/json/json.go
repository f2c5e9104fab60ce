// Package json implements the belief graph's JSON codec, grounded in the
// teacher adapter's streaming json.Decoder + jsonc-preprocessing pattern: a
// single JSON object is one node, its top-level fields become the node's
// payload, and — as with the TOML codec — relation candidates are left to
// the schema package's CreateEdges rules rather than triangulated here.
package json

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/codec"
	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/immutable"
)

// Codec implements codec.Codec for ".json" sources.
type Codec struct {
	codec.NopFinalizer

	// StrictJSON disables jsonc preprocessing (comments, trailing commas),
	// mirroring the teacher adapter's WithStrictJSON option.
	StrictJSON bool

	// fields is the last-decoded top-level object, retained so
	// GenerateSource can re-marshal it. Nil until Parse succeeds.
	fields map[string]any
}

// New constructs a JSON codec instance with jsonc preprocessing enabled.
func New() *Codec { return &Codec{} }

// Extension returns "json".
func (c *Codec) Extension() string { return "json" }

// Parse implements codec.Codec.
func (c *Codec) Parse(ctx context.Context, sourceText []byte, initialProto *codec.ProtoBeliefNode) ([]*codec.ProtoBeliefNode, diag.Result, error) {
	if ctx == nil {
		panic("json.Codec.Parse: nil context")
	}
	if initialProto == nil {
		return nil, diag.OK(), fmt.Errorf("json: Parse requires a non-nil initial proto-node")
	}

	collector := diag.NewCollectorUnlimited()

	processed := sourceText
	if !c.StrictJSON {
		processed = jsonc.ToJSON(sourceText)
	}

	dec := json.NewDecoder(bytes.NewReader(processed))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		collector.Collect(diag.NewIssue(diag.Error, diag.E_FORMAT_ERROR, "document is not valid JSON").
			WithDetail("error", err.Error()).
			WithDetail("offset", fmt.Sprintf("%d", dec.InputOffset())).
			Build())
		return nil, collector.Result(), nil
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields = normalizeNumbers(fields)
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

// InjectContext implements codec.Codec. JSON proto-nodes carry no
// codec-intrinsic relation candidates.
func (c *Codec) InjectContext(ctx context.Context, proto *codec.ProtoBeliefNode, rctx codec.ResolveContext) (*codec.ResolvedNode, diag.Result, error) {
	if ctx == nil {
		panic("json.Codec.InjectContext: nil context")
	}
	return &codec.ResolvedNode{Proto: proto, Resolved: map[bid.NodeKey]bid.BID{}}, diag.OK(), nil
}

// GenerateSource implements codec.Codec by re-marshaling the object Parse
// last decoded. Since JSON carries no structural or link syntax this
// codec itself interprets, re-encoding the same object is trivially
// round-trip stable.
func (c *Codec) GenerateSource(ctx context.Context) (string, error) {
	out, err := json.MarshalIndent(c.fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json: generate source: %w", err)
	}
	return string(out), nil
}

// GenerateHTML implements codec.Codec. JSON documents have no rendering
// of their own.
func (c *Codec) GenerateHTML(ctx context.Context, opts codec.HTMLOptions) (string, bool, error) {
	return "", false, nil
}

// normalizeNumbers walks a decoded document replacing json.Number leaves
// with int64 (when the literal has no fractional/exponent part) or float64,
// since immutable.Value.Int()/Float() expect Go's native numeric kinds, not
// json.Number.
func normalizeNumbers(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	for k, val := range m {
		m[k] = normalizeValue(val)
	}
	return m
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		for k, inner := range val {
			val[k] = normalizeValue(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = normalizeValue(inner)
		}
		return val
	default:
		return v
	}
}
