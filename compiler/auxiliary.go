package compiler

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/codec"
	"github.com/beliefgraph/core/graph"
)

// AuxiliaryOutputs are the opt-in §6 side outputs DocumentCompiler can
// render from a network's committed graph once a Run has finished: a
// per-network index, an asset manifest of every External node, and
// per-document HTML for every path whose codec supports GenerateHTML.
// Generation never mutates the cache or any session graph; callers decide
// whether and where to persist the result.
type AuxiliaryOutputs struct {
	NetworkIndex  string
	AssetManifest string
	HTML          map[string]string // network-relative path -> standalone HTML document
}

// AuxiliaryOptions configures GenerateAuxiliary.
type AuxiliaryOptions struct {
	// HTML enables per-document HTML rendering (step 9's "HTML per
	// file"). Off by default since it re-reads and re-parses every file
	// in the network.
	HTML bool

	// LinkExtension is the extension HTML output rewrites its own local
	// links to. Defaults to "html" when HTML is enabled and this is "".
	LinkExtension string
}

// GenerateAuxiliary renders network's auxiliary outputs from the graph
// the cache most recently committed, per §6 step 9: "Emit auxiliary
// outputs if configured: HTML per file, per-network index page, asset
// manifest listing all External nodes with their content hashes and
// source-relative paths."
func (c *Compiler) GenerateAuxiliary(ctx context.Context, network bid.BID, opts AuxiliaryOptions) (AuxiliaryOutputs, error) {
	if ctx == nil {
		panic("compiler.Compiler.GenerateAuxiliary: nil context")
	}

	snap, err := c.cache.LoadAll(ctx)
	if err != nil {
		return AuxiliaryOutputs{}, err
	}

	out := AuxiliaryOutputs{
		NetworkIndex:  renderNetworkIndex(network, snap.Nodes),
		AssetManifest: renderAssetManifest(network, snap.Nodes),
	}
	if !opts.HTML {
		return out, nil
	}

	ext := opts.LinkExtension
	if ext == "" {
		ext = "html"
	}
	out.HTML = make(map[string]string)
	for _, entry := range snap.Paths {
		if entry.Network != network {
			continue
		}
		html, ok, err := c.renderHTML(ctx, network, entry.Path, ext)
		if err != nil || !ok {
			continue
		}
		out.HTML[entry.Path] = html
	}
	return out, nil
}

// renderHTML re-reads and re-parses path through a fresh codec instance
// (codec state after Run's own parseFile is already discarded) so
// GenerateHTML has the render-ready state it needs.
func (c *Compiler) renderHTML(ctx context.Context, network bid.BID, path, linkExtension string) (string, bool, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	cdc, ok := c.codecs.New(ext)
	if !ok {
		return "", false, nil
	}
	data, err := c.fs.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	docBID := bid.NewDocumentBID(network, path)
	if _, _, err := cdc.Parse(ctx, data, &codec.ProtoBeliefNode{BID: docBID, Network: network}); err != nil {
		return "", false, err
	}
	return cdc.GenerateHTML(ctx, codec.HTMLOptions{LinkExtension: linkExtension})
}

// renderNetworkIndex lists every Document node in network, sorted by home
// path, as a plain-text table of path and title.
func renderNetworkIndex(network bid.BID, nodes []*graph.Node) string {
	type row struct{ path, title string }
	var rows []row
	for _, n := range nodes {
		if n.HomeNet() != network || n.Kind() != graph.KindDocument {
			continue
		}
		rows = append(rows, row{path: n.HomePath(), title: n.Title()})
	}
	slices.SortFunc(rows, func(a, b row) int { return cmp.Compare(a.path, b.path) })

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s\t%s\n", r.path, r.title)
	}
	return b.String()
}

// renderAssetManifest lists every External node in network, sorted by
// home path, as a plain-text table of path and BID. External nodes are
// produced by a codec electing to model an asset reference as a node
// (e.g. an image); a network with none simply yields an empty manifest.
func renderAssetManifest(network bid.BID, nodes []*graph.Node) string {
	type row struct{ path, id string }
	var rows []row
	for _, n := range nodes {
		if n.HomeNet() != network || n.Kind() != graph.KindExternal {
			continue
		}
		rows = append(rows, row{path: n.HomePath(), id: n.BID().String()})
	}
	slices.SortFunc(rows, func(a, b row) int { return cmp.Compare(a.path, b.path) })

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s\t%s\n", r.path, r.id)
	}
	return b.String()
}
