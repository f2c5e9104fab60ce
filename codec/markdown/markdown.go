// Package markdown implements the belief graph's reference Markdown codec:
// YAML frontmatter becomes the document node's payload, each heading
// becomes a Section proto-node ordered by a heading stack, and each link
// becomes a relation candidate triangulated against sibling anchors, local
// paths, or explicit BIDs.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/codec"
	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/graph"
	"github.com/beliefgraph/core/immutable"
	"github.com/beliefgraph/core/location"
)

// brefTitleAttr matches the §6 link-attribute extension — a bref:// strong
// NodeKey riding in a trailing {title="..."} attribute list, e.g.
// [text](path#anchor){title="bref://XXX"} — which goldmark's own parser
// never sees, since a CommonMark link has no inline attribute syntax of its
// own. Matched against the raw source ahead of AST construction and keyed
// by literal destination text, so a document can carry the same override
// on more than one link to the same destination.
var brefTitleAttr = regexp.MustCompile(`\]\(([^)\s]*)\)\{title="bref://([^"]+)"\}`)

// collectBrefOverrides scans body for the link-attribute extension and
// returns the strong NodeKey each matched destination should resolve
// against instead of its own classifyLink verdict. Malformed brefs are
// skipped rather than treated as a parse error, since the destination
// still classifies fine on its own.
func collectBrefOverrides(body []byte) map[string]bid.Bref {
	matches := brefTitleAttr.FindAllSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make(map[string]bid.Bref, len(matches))
	for _, m := range matches {
		dest := string(m[1])
		bref := string(m[2])
		if !bid.IsValidBref(bref) {
			continue
		}
		out[dest] = bid.Bref(bref)
	}
	return out
}

// Codec implements codec.Codec for ".md" sources.
type Codec struct {
	md goldmark.Markdown

	// pending carries proto-nodes from Parse through to InjectContext;
	// keyed by BID since a codec instance is used for exactly one file per
	// parse round (the registry clones a fresh instance per file).
	pending map[bid.BID]*nodeState

	// source and body are the last-parsed full source and
	// frontmatter-stripped body, retained for GenerateSource/GenerateHTML.
	source []byte
	body   []byte
	title  string
}

type nodeState struct {
	proto      *codec.ProtoBeliefNode
	candidates []pendingCandidate
}

type pendingCandidate struct {
	key    bid.NodeKey
	weight graph.WeightKind
	span   location.Span
}

// New constructs a fresh Markdown codec instance.
func New() *Codec {
	return &Codec{
		md:      goldmark.New(),
		pending: make(map[bid.BID]*nodeState),
	}
}

// Extension returns "md".
func (c *Codec) Extension() string { return "md" }

// Parse implements codec.Codec.
func (c *Codec) Parse(ctx context.Context, sourceText []byte, initialProto *codec.ProtoBeliefNode) ([]*codec.ProtoBeliefNode, diag.Result, error) {
	if ctx == nil {
		panic("markdown.Codec.Parse: nil context")
	}
	if initialProto == nil {
		return nil, diag.OK(), fmt.Errorf("markdown: Parse requires a non-nil initial proto-node")
	}

	collector := diag.NewCollectorUnlimited()
	sourceID := sourceIDFor(initialProto)

	rawFrontmatter, body, hasFrontmatter := splitFrontmatter(sourceText)
	frontmatter := map[string]any{}
	if hasFrontmatter {
		frontmatter = parseFrontmatter(sourceID, rawFrontmatter, collector)
	}

	docProto := &codec.ProtoBeliefNode{
		BID:     initialProto.BID,
		Network: initialProto.Network,
		Title:   stringField(frontmatter, "title", initialProto.Title),
		Payload: immutable.WrapPropertiesClone(frontmatter),
	}
	nodes := []*codec.ProtoBeliefNode{docProto}
	c.pending = map[bid.BID]*nodeState{docProto.BID: {proto: docProto}}
	c.source = sourceText
	c.body = body
	c.title = docProto.Title

	brefOverrides := collectBrefOverrides(body)
	root := c.md.Parser().Parse(text.NewReader(body))

	// last tracks the most recently emitted proto-node (document or
	// section), used only to attribute link candidates to the text block
	// that contains them — the Section-structuring heading stack itself is
	// GraphBuilder's responsibility (it owns ordering across codecs), not
	// this codec's.
	last := docProto
	orderBySlug := map[string]int{}
	claimedAnchors := map[string]bool{}
	var injections []anchorInjection

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			rawTitle := strings.TrimSpace(extractText(node, body))
			title, explicitAnchor := splitExplicitAnchor(rawTitle)

			slug := bid.ToAnchor(title)
			order := orderBySlug[slug]
			orderBySlug[slug] = order + 1

			sectionBID := bid.NewSectionBID(docProto.BID, slug, order)

			// Anchor strategy: the requested anchor (an explicit {#anchor}
			// if present, otherwise the title slug) wins unless another
			// section in this document already claimed it, in which case
			// the section's own Bref is injected as a collision-proof
			// fallback anchor and the collision is recorded as a warning.
			requested := explicitAnchor
			if requested == "" {
				requested = slug
			}
			anchor := requested
			if claimedAnchors[requested] {
				anchor = bid.DeriveBref(sectionBID).String()
				collector.Collect(diag.NewIssue(diag.Warning, diag.E_ANCHOR_COLLISION,
					"section anchor already claimed by an earlier heading in this document").
					WithPath(sourceID.String(), "anchor:"+requested).
					WithSpan(spanForHeading(sourceID, node, body)).
					WithDetail("requested", requested).
					WithDetail("resolved", anchor).
					Build())
			}
			claimedAnchors[anchor] = true

			if anchor != requested {
				if start, end, ok := headingLineRange(node); ok {
					injections = append(injections, anchorInjection{start: start, end: end, anchor: anchor})
				}
			}

			section := &codec.ProtoBeliefNode{
				BID:          sectionBID,
				Network:      initialProto.Network,
				HeadingLevel: node.Level,
				Title:        title,
				Anchor:       anchor,
				Span:         spanForHeading(sourceID, node, body),
			}
			nodes = append(nodes, section)
			c.pending[sectionBID] = &nodeState{proto: section}
			last = section
			return ast.WalkSkipChildren, nil

		case *ast.Link:
			dest := string(node.Destination)
			key, ok := classifyLinkWithOverride(initialProto.Network, dest, brefOverrides, c.classifyLink)
			if !ok {
				return ast.WalkContinue, nil
			}
			c.addCandidate(last.BID, pendingCandidate{key: key, weight: graph.WeightReference})
			return ast.WalkContinue, nil

		case *ast.AutoLink:
			dest := string(node.URL(body))
			key, ok := c.classifyLink(initialProto.Network, dest)
			if !ok {
				return ast.WalkContinue, nil
			}
			c.addCandidate(last.BID, pendingCandidate{key: key, weight: graph.WeightReference})
			return ast.WalkContinue, nil
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, collector.Result(), fmt.Errorf("markdown: walk failed: %w", err)
	}

	if len(injections) > 0 {
		bodyOffset := len(sourceText) - len(body)
		newBody := body
		for i := len(injections) - 1; i >= 0; i-- {
			newBody = spliceAnchor(newBody, injections[i])
		}
		c.body = newBody
		c.source = append(append([]byte{}, sourceText[:bodyOffset]...), newBody...)
	}

	return nodes, collector.Result(), nil
}

// anchorInjection records a collision-resolved anchor that must be spliced
// back into the stored source/body so GenerateSource persists it, keyed by
// the byte range (within body) of the heading line it belongs to.
type anchorInjection struct {
	start, end int
	anchor     string
}

// headingLineRange returns n's own raw line span within the body bytes it
// was parsed from. Only block nodes track Lines(); a heading always does.
func headingLineRange(n *ast.Heading) (start, end int, ok bool) {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0, 0, false
	}
	first := lines.At(0)
	last := lines.At(lines.Len() - 1)
	return first.Start, last.Stop, true
}

// explicitAnchorAttr matches a trailing "{#anchor}" attribute (with any
// leading whitespace) at the end of a heading line, so spliceAnchor can
// replace an existing explicit anchor rather than appending a second one.
var explicitAnchorAttr = regexp.MustCompile(`\s*\{#[^}]*\}\s*$`)

// spliceAnchor rewrites the heading line named by inj within body, either
// replacing its existing "{#anchor}" attribute or appending a fresh one, so
// the collision-resolved anchor computed during Parse survives into
// GenerateSource's output.
func spliceAnchor(body []byte, inj anchorInjection) []byte {
	segment := body[inj.start:inj.end]
	trimmed := bytes.TrimRight(segment, "\r\n")
	trailer := segment[len(trimmed):]

	var newLine []byte
	if loc := explicitAnchorAttr.FindIndex(trimmed); loc != nil {
		newLine = append(append([]byte{}, trimmed[:loc[0]]...), []byte(" {#"+inj.anchor+"}")...)
	} else {
		newLine = append(append([]byte{}, bytes.TrimRight(trimmed, " \t")...), []byte(" {#"+inj.anchor+"}")...)
	}
	newLine = append(newLine, trailer...)

	out := make([]byte, 0, len(body)-len(segment)+len(newLine))
	out = append(out, body[:inj.start]...)
	out = append(out, newLine...)
	out = append(out, body[inj.end:]...)
	return out
}

// InjectContext implements codec.Codec.
func (c *Codec) InjectContext(ctx context.Context, proto *codec.ProtoBeliefNode, rctx codec.ResolveContext) (*codec.ResolvedNode, diag.Result, error) {
	if ctx == nil {
		panic("markdown.Codec.InjectContext: nil context")
	}
	collector := diag.NewCollectorUnlimited()
	state, ok := c.pending[proto.BID]
	if !ok {
		return &codec.ResolvedNode{Proto: proto, Resolved: map[bid.NodeKey]bid.BID{}}, collector.Result(), nil
	}

	resolved := make(map[bid.NodeKey]bid.BID, len(state.candidates))
	for _, cand := range state.candidates {
		target, ok := rctx.Resolve(cand.key)
		if !ok {
			continue
		}
		resolved[cand.key] = target
	}

	proto.Candidates = make([]codec.RelationCandidate, len(state.candidates))
	for i, cand := range state.candidates {
		proto.Candidates[i] = codec.RelationCandidate{Target: cand.key, Weight: cand.weight.String(), Span: cand.span}
	}

	return &codec.ResolvedNode{Proto: proto, Resolved: resolved}, collector.Result(), nil
}

// Finalize implements codec.Codec; the Markdown codec has nothing to emit
// beyond what Parse/InjectContext already produced.
func (c *Codec) Finalize(ctx context.Context) ([]codec.ResolvedNode, error) {
	return nil, nil
}

// GenerateSource implements codec.Codec by returning the source Parse last
// received, with any collision-resolved anchors Parse injected already
// spliced in. Everything else about the source is round-trip stable as
// written: title and link targets are recomputed fresh from this same text
// on the next Parse.
func (c *Codec) GenerateSource(ctx context.Context) (string, error) {
	return string(c.source), nil
}

// RewriteLinks implements codec.LinkRewriter: replaces every exact literal
// occurrence of a link destination named by a rewrites key with its mapped
// value, wherever it appears inside a Markdown link's "(...)" destination
// — e.g. rewriting "[see](b.md#intro)" to "[see](sub/b.md#intro)" after
// b.md moves to sub/b.md. Valid only after a successful Parse on this
// instance.
func (c *Codec) RewriteLinks(ctx context.Context, rewrites map[string]string) (string, bool, error) {
	if ctx == nil {
		panic("markdown.Codec.RewriteLinks: nil context")
	}
	if len(rewrites) == 0 {
		return string(c.source), false, nil
	}

	out := c.source
	changed := false
	for oldDest, newDest := range rewrites {
		if oldDest == "" || oldDest == newDest {
			continue
		}
		pattern := regexp.MustCompile(`\]\(` + regexp.QuoteMeta(oldDest) + `\)`)
		replaced := pattern.ReplaceAll(out, []byte("]("+newDest+")"))
		if !bytes.Equal(replaced, out) {
			changed = true
			out = replaced
		}
	}
	if !changed {
		return string(c.source), false, nil
	}

	c.source = out
	_, body, _ := splitFrontmatter(out)
	c.body = body
	return string(c.source), true, nil
}

// localHref matches a rendered anchor's href pointing at a local ".md"
// source, optionally with a trailing "#anchor", used by GenerateHTML to
// rewrite it to the requested extension.
var localHref = regexp.MustCompile(`href="([^":]*?)\.md(#[^"]*)?"`)

// GenerateHTML implements codec.Codec: renders the body through goldmark's
// default HTML renderer and rewrites local ".md" link targets to
// opts.LinkExtension, per §6's "codec is responsible for rewriting
// internal links to use the HTML extension."
func (c *Codec) GenerateHTML(ctx context.Context, opts codec.HTMLOptions) (string, bool, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(c.body, &buf); err != nil {
		return "", true, fmt.Errorf("markdown: generate html: %w", err)
	}

	rendered := buf.String()
	if opts.LinkExtension != "" {
		rendered = localHref.ReplaceAllString(rendered, `href="$1.`+opts.LinkExtension+`$2"`)
	}

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	doc.WriteString(html.EscapeString(c.title))
	doc.WriteString("</title></head><body>\n")
	doc.WriteString(rendered)
	doc.WriteString("</body></html>\n")
	return doc.String(), true, nil
}

func (c *Codec) addCandidate(owner bid.BID, cand pendingCandidate) {
	state, ok := c.pending[owner]
	if !ok {
		return
	}
	state.candidates = append(state.candidates, cand)
}

// classifyLink turns a raw link destination into a NodeKey candidate,
// per the resolution-order kinds a Markdown link can plausibly name:
// an explicit "bid:<uuid>" scheme, a bare "#anchor" fragment (local to this
// document), or a relative "path/to/file.md[#anchor]" path within network.
func (c *Codec) classifyLink(network bid.BID, dest string) (bid.NodeKey, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return bid.NodeKey{}, false
	}
	if strings.HasPrefix(dest, "bid:") {
		id, err := bid.ParseBID(strings.TrimPrefix(dest, "bid:"))
		if err != nil {
			return bid.NodeKey{}, false
		}
		return bid.BIDKey(id), true
	}
	if strings.HasPrefix(dest, "#") {
		return bid.AnchorKey(bid.ToAnchor(strings.TrimPrefix(dest, "#"))), true
	}
	if strings.Contains(dest, "://") {
		return bid.NodeKey{}, false
	}
	return bid.PathKey(network, dest), true
}

// classifyLinkWithOverride prefers a §6 link-attribute bref override for
// dest, if one was collected from the raw source, falling back to
// classify (ordinarily Codec.classifyLink) otherwise.
func classifyLinkWithOverride(network bid.BID, dest string, overrides map[string]bid.Bref, classify func(bid.BID, string) (bid.NodeKey, bool)) (bid.NodeKey, bool) {
	if bref, ok := overrides[dest]; ok {
		return bid.BrefKey(bref), true
	}
	return classify(network, dest)
}

func sourceIDFor(proto *codec.ProtoBeliefNode) location.SourceID {
	if proto.BID.IsZero() {
		return location.MustNewSourceID("inline:markdown")
	}
	return location.MustNewSourceID("bid:" + proto.BID.String())
}

// spanForHeading derives a heading's source span from its line segments.
// Only block nodes (ast.BaseBlock) track Lines(); inline nodes such as
// links are positioned only as a byte offset within their containing
// block's text.Segment, so link candidates carry a zero Span instead.
func spanForHeading(source location.SourceID, n *ast.Heading, fullSource []byte) location.Span {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return location.Span{}
	}
	first := lines.At(0)
	last := lines.At(lines.Len() - 1)
	return location.RangeWithBytes(source,
		lineNumber(fullSource, first.Start), 0, first.Start,
		lineNumber(fullSource, last.Stop), 0, last.Stop,
	)
}

func lineNumber(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}

// extractText concatenates the literal text content of every *ast.Text
// descendant of n, using the goldmark text.Segment/value mechanism rather
// than any deprecated whole-node text accessor.
func extractText(n ast.Node, source []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			if t, ok := child.(*ast.Text); ok {
				b.Write(t.Segment.Value(source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte(' ')
				}
				continue
			}
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

// splitExplicitAnchor strips a trailing "{#custom-anchor}" attribute list
// from a heading's literal title text, returning the cleaned title and the
// explicit anchor if present.
func splitExplicitAnchor(title string) (cleanTitle, anchor string) {
	idx := strings.LastIndex(title, "{#")
	if idx < 0 || !strings.HasSuffix(title, "}") {
		return title, ""
	}
	anchor = strings.TrimSuffix(title[idx+2:], "}")
	return strings.TrimSpace(title[:idx]), anchor
}

func stringField(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
