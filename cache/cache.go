// Package cache defines the persistent-cache contract the compiler commits
// parsed graphs to, and provides an in-memory reference implementation for
// tests and for callers with no durability requirement. Any store
// satisfying [Cache] works; a production deployment is expected to supply
// its own (SQLite, etc.) — that concrete backend is deliberately outside
// this module's scope.
package cache

import (
	"context"
	"time"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/event"
	"github.com/beliefgraph/core/graph"
)

// MtimeEntry records the last-committed modification time the compiler
// observed for a path, and the network that path belongs to.
type MtimeEntry struct {
	Mtime   time.Time
	Network bid.BID
}

// PathEntry is one path-map row as returned by LoadAll, reconstructing the
// bijective path↔BID association a [graph.Store] keeps per network.
type PathEntry struct {
	Network bid.BID
	Path    string
	BID     bid.BID
}

// Snapshot is everything LoadAll returns: the full node/edge set plus the
// path-map rows needed to repopulate a fresh [graph.Store]'s path indexes
// (Node/Edge carry no separate path pointer of their own beyond
// [graph.Node.HomePath], so the cache must hand paths back explicitly for
// networks whose root predates any single node).
type Snapshot struct {
	Nodes []*graph.Node
	Edges []*graph.Edge
	Paths []PathEntry
}

// Tx is one atomic commit batch: every event applied before Commit lands
// together, or (on Abort, or on any error returned from Commit) none of
// them do.
type Tx interface {
	// Apply stages events for the eventual commit. Apply never partially
	// fails: an invalid event is an implementation bug, not a runtime
	// condition the caller is expected to recover from.
	Apply(events []event.Event)

	// SetMtime stages an mtime update for path, written with the same
	// durability as the staged events when Commit succeeds.
	SetMtime(path string, network bid.BID, mtime time.Time)

	// Commit durably persists every staged event and mtime, atomically.
	Commit(ctx context.Context) error

	// Abort discards every staged event and mtime.
	Abort(ctx context.Context) error
}

// Cache is the durability contract the compiler requires. Implementations
// must make LoadAll reflect the result of the most recently committed
// transaction, and must never observe a partially-committed Tx.
type Cache interface {
	// LoadAll returns every node, edge, and path-map entry known to the
	// cache, giving a freshly started compiler run cross-file reference
	// context before it parses anything.
	LoadAll(ctx context.Context) (Snapshot, error)

	// GetMtimes returns the last-committed mtime for every path the cache
	// knows about.
	GetMtimes(ctx context.Context) (map[string]MtimeEntry, error)

	// BeginTransaction opens a new transaction. Only one transaction may be
	// open at a time; callers serialize commits through the compiler's own
	// transaction-task discipline (§5).
	BeginTransaction(ctx context.Context) (Tx, error)

	// Invalidate forces path to be treated as stale on the next parse
	// round, regardless of its recorded mtime.
	Invalidate(ctx context.Context, path string) error

	// InvalidateNetwork forces every path belonging to network to be
	// treated as stale on the next parse round.
	InvalidateNetwork(ctx context.Context, network bid.BID) error
}
