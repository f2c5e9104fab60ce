// Package codec defines the file-format contract every belief graph
// source format (Markdown, TOML, JSON, …) implements, and the registry
// that maps a file extension to a codec instance.
package codec

import (
	"context"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/immutable"
	"github.com/beliefgraph/core/location"
)

// ProtoBeliefNode is a tentative node a codec's Parse step produces: a
// document, section, anchor, or link candidate whose BID and relations
// may not yet be resolvable, because resolution requires the session
// graph to have accumulated every proto-node from this file first.
type ProtoBeliefNode struct {
	// BID is minted from the codec's own content-addressing rule, or
	// recovered from frontmatter/metadata if the source declared one
	// explicitly.
	BID bid.BID

	// Network is the BID of the network this proto-node's home file lives
	// in, carried through from the initialProto a codec is seeded with so
	// path-relative relation candidates can be expressed as bid.PathKey
	// without the codec needing to mint network identity itself.
	Network bid.BID

	// Payload is the tentative field set; StructuredField values may
	// still contain unresolved NodeKeys the codec hasn't triangulated
	// yet.
	Payload immutable.Properties

	// HeadingLevel is the node's position in a structure-driven codec's
	// heading stack (0 for a document or non-structural node).
	HeadingLevel int

	// Title is the node's human-readable label, used for Multi-Key
	// Identity triangulation and to_anchor derivation.
	Title string

	// Anchor is an explicit anchor override the source declared (e.g.
	// Markdown `{#anchor}` syntax), or "" if none.
	Anchor string

	// Span is the proto-node's source location, used for diagnostics.
	Span location.Span

	// Candidates is the sparse set of upstream/downstream relation
	// candidates this proto-node declares, keyed by the NodeKey the
	// source referenced — not yet resolved to a BID.
	Candidates []RelationCandidate
}

// RelationCandidate is one relation a proto-node declares, not yet
// resolved to a concrete sink BID.
type RelationCandidate struct {
	Target bid.NodeKey
	Weight string // schema-declared weight name, or a codec-intrinsic one (e.g. "section")
	Span   location.Span
}

// ResolveContext is what a codec's InjectContext step consults to
// triangulate a proto-node's relation candidates against nodes already
// known — either from earlier in this same parse (the session graph) or
// from the last successful parse (the cached graph).
type ResolveContext interface {
	// Resolve triangulates key against the session graph first, then the
	// cached graph, per spec.md §4.5's two-step reference resolution.
	Resolve(key bid.NodeKey) (bid.BID, bool)

	// Siblings returns every other proto-node parsed from the same file
	// in this round, in parse order.
	Siblings() []*ProtoBeliefNode
}

// ResolvedNode is a proto-node that has progressed through InjectContext:
// every relation candidate that could be resolved now names a concrete
// BID, and the node is ready for GraphBuilder to upsert.
type ResolvedNode struct {
	Proto *ProtoBeliefNode

	// Resolved maps each RelationCandidate's source-declared NodeKey to
	// the BID it triangulated to. A candidate absent from this map could
	// not yet be resolved and becomes a PendingDependency.
	Resolved map[bid.NodeKey]bid.BID
}

// HTMLOptions configures GenerateHTML's output.
type HTMLOptions struct {
	// LinkExtension is the extension (without a leading dot) a codec
	// should rewrite its own format's local link targets to, e.g. "html"
	// so a link to "other.md" becomes "other.html" in the rendered
	// document. Empty leaves links untouched.
	LinkExtension string
}

// Codec is the capability set every source format implements: parse,
// inject_context and generate_source, plus finalize and generate_html,
// which a codec need not implement meaningfully — [NopFinalizer] is
// provided so a minimal codec can embed a no-op Finalize, and a codec with
// no HTML rendering of its own returns ("", false, nil) from GenerateHTML.
type Codec interface {
	// Extension returns the file extension this codec handles, without a
	// leading dot (e.g. "md").
	Extension() string

	// Parse tokenizes sourceText and produces an ordered list of
	// ProtoBeliefNodes. initialProtoNode carries any already-known
	// identity for the top-level node (e.g. a document BID recovered
	// from the file's path), letting the codec avoid re-minting it.
	Parse(ctx context.Context, sourceText []byte, initialProto *ProtoBeliefNode) ([]*ProtoBeliefNode, diag.Result, error)

	// InjectContext is called once per proto-node after the session
	// graph has accumulated every node from this file. It may consult
	// rctx to resolve relation candidates, and returns a ResolvedNode or
	// nil to skip the proto-node (e.g. a malformed block the codec
	// chooses to drop). Must be idempotent: calling twice with the same
	// proto-node and an unchanged rctx produces the same ResolvedNode and
	// the same candidate set.
	InjectContext(ctx context.Context, proto *ProtoBeliefNode, rctx ResolveContext) (*ResolvedNode, diag.Result, error)

	// Finalize is called once per file on that file's own codec instance,
	// after every proto-node of that file has been injected. It may emit additional (proto, resolved)
	// pairs, e.g. to regenerate a network index or garbage-collect stale
	// metadata. A codec with nothing to do here returns (nil, nil).
	Finalize(ctx context.Context) ([]ResolvedNode, error)

	// GenerateSource emits the canonical source text that would re-parse
	// to the same proto-nodes this instance last produced from Parse. It
	// must be text-round-trip stable: parsing its output and parsing the
	// original source must yield equal graphs. Valid only after a
	// successful Parse on this instance.
	GenerateSource(ctx context.Context) (string, error)

	// GenerateHTML renders a standalone HTML document for the source this
	// instance last parsed, rewriting its own format's local link targets
	// per opts.LinkExtension. The second return reports whether this
	// codec supports HTML generation at all; a codec that doesn't returns
	// ("", false, nil) rather than an error.
	GenerateHTML(ctx context.Context, opts HTMLOptions) (string, bool, error)
}

// LinkRewriter is an optional capability a codec may implement: rewriting
// every occurrence of a set of old->new literal link destinations in the
// source this instance last parsed, keyed by the exact destination text a
// link in that source names (the same literal text GraphBuilder binds
// into the path map, e.g. "sub/b.md#intro"). The compiler's move-triggered
// link rewriting type-asserts for this rather than requiring it of every
// Codec; a codec that doesn't implement it leaves referring documents
// unrewritten after a move, surfaced as an E_LINK_REWRITE_FAIL
// diagnostic. The second return reports whether any rewrite was actually
// applied. Valid only after a successful Parse on this instance.
type LinkRewriter interface {
	RewriteLinks(ctx context.Context, rewrites map[string]string) (string, bool, error)
}

// NopFinalizer embeds into a Codec that has nothing to emit from
// Finalize.
type NopFinalizer struct{}

// Finalize implements codec.Codec, emitting nothing.
func (NopFinalizer) Finalize(ctx context.Context) ([]ResolvedNode, error) { return nil, nil }

// Registry maps a file extension to a Codec constructor. It is not a
// process-wide singleton: each [NewRegistry] call returns an independent
// registry. Its map is not guarded by a lock, so Register is not safe to
// call concurrently with Register or New. Codecs are cloned per parse (via [Registry.New]) so
// per-file mutable state stays thread-local; the registry itself holds
// only the stateless constructor.
type Registry struct {
	factories map[string]func() Codec
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() Codec)}
}

// Register adds a codec factory under extension, replacing any existing
// one for that extension.
func (r *Registry) Register(extension string, factory func() Codec) {
	if r == nil || factory == nil {
		return
	}
	r.factories[extension] = factory
}

// New constructs a fresh Codec instance for extension, or (nil, false) if
// no codec is registered for it.
func (r *Registry) New(extension string) (Codec, bool) {
	if r == nil {
		return nil, false
	}
	factory, ok := r.factories[extension]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Extensions returns every registered extension, in no particular order.
func (r *Registry) Extensions() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.factories))
	for ext := range r.factories {
		out = append(out, ext)
	}
	return out
}
