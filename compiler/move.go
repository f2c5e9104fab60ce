package compiler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/codec"
	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/event"
	"github.com/beliefgraph/core/graph"
)

// collectMoves extracts the last PathMoved entry recorded per BID across
// events. A BID can move more than once within a single run across
// several rounds; only the final path matters for rewriting, so a later
// entry for the same BID replaces an earlier one.
func collectMoves(events []event.Event) map[bid.BID]event.PathChange {
	out := make(map[bid.BID]event.PathChange)
	for _, evt := range events {
		if evt.Kind != event.PathsChanged {
			continue
		}
		for _, change := range evt.Changes {
			if change.Kind != event.PathMoved {
				continue
			}
			out[change.BID] = change
		}
	}
	return out
}

// rewriteMovedLinks finds every document referring to a node that moved
// within this run — per the PathsChanged events GraphBuilder emitted —
// and rewrites the literal link text of that reference in the referring
// file's own source. This is the compiler side of §3.5's Move lifecycle:
// a rename preserves the moved node's identity, but every other file's
// link text still names the old path until something rewrites it.
func (c *Compiler) rewriteMovedLinks(ctx context.Context, session *graph.Store, network bid.BID, events []event.Event) diag.Result {
	collector := diag.NewCollectorUnlimited()
	moves := collectMoves(events)
	if len(moves) == 0 {
		return collector.Result()
	}

	// Group rewrites by the referring file's own path, since one file can
	// reference more than one moved node and should only be read and
	// rewritten once.
	rewritesByFile := make(map[string]map[string]string)
	for movedBID, change := range moves {
		ctxNode, ok := session.GetContext(movedBID)
		if !ok {
			continue
		}
		for _, neighbor := range ctxNode.Neighbors[graph.WeightReference] {
			if neighbor.Direction != graph.DirectionIn {
				continue
			}
			referrer := neighbor.Node
			if referrer == nil || referrer.HomePath() == "" || referrer.HomePath() == change.Path {
				continue
			}
			rewrites := rewritesByFile[referrer.HomePath()]
			if rewrites == nil {
				rewrites = make(map[string]string)
				rewritesByFile[referrer.HomePath()] = rewrites
			}
			rewrites[change.OldPath] = change.Path
		}
	}

	for path, rewrites := range rewritesByFile {
		if err := c.rewriteReferringFile(ctx, network, path, rewrites); err != nil {
			collector.Collect(diag.NewIssue(diag.Warning, diag.E_LINK_REWRITE_FAIL, "referring link could not be rewritten after a move").
				WithPath(path, "").
				WithDetail("error", err.Error()).
				Build())
		}
	}

	return collector.Result()
}

// rewriteReferringFile reads path's current contents, asks its codec to
// rewrite every old->new destination in rewrites, and writes the result
// back if anything changed. A codec that doesn't implement
// codec.LinkRewriter, or a filesystem that doesn't implement FileWriter,
// is reported as an error here — the caller turns it into a diagnostic
// rather than failing the whole run.
func (c *Compiler) rewriteReferringFile(ctx context.Context, network bid.BID, path string, rewrites map[string]string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	cdc, ok := c.codecs.New(ext)
	if !ok {
		return fmt.Errorf("no codec registered for extension %q", ext)
	}
	rewriter, ok := cdc.(codec.LinkRewriter)
	if !ok {
		return fmt.Errorf("codec for extension %q does not support link rewriting", ext)
	}

	data, err := c.fs.ReadFile(path)
	if err != nil {
		return err
	}

	docBID := bid.NewDocumentBID(network, path)
	initialProto := &codec.ProtoBeliefNode{BID: docBID, Network: network, Title: titleFromPath(path)}
	if _, _, err := cdc.Parse(ctx, data, initialProto); err != nil {
		return err
	}

	rewritten, changed, err := rewriter.RewriteLinks(ctx, rewrites)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	writer, ok := c.fs.(FileWriter)
	if !ok {
		return fmt.Errorf("filesystem does not support writing rewritten source")
	}
	return writer.WriteFile(path, []byte(rewritten))
}
