package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/event"
	"github.com/beliefgraph/core/graph"
)

// Memory is an in-memory [Cache]. It replays every staged event onto an
// internal [graph.Store] on commit, modeled on that store's own
// clone-on-read [graph.Store.Snapshot] discipline — LoadAll never hands out
// a view that a later Apply could mutate out from under a caller still
// holding it.
type Memory struct {
	mu     sync.Mutex
	store  *graph.Store
	mtimes map[string]MtimeEntry
	open   bool
}

// NewMemory constructs an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		store:  graph.New(),
		mtimes: make(map[string]MtimeEntry),
	}
}

// LoadAll returns the cache's current graph, deriving path-map entries from
// each node's own HomeNet/HomePath rather than a separately tracked table.
func (m *Memory) LoadAll(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.store.Snapshot()
	paths := make([]PathEntry, 0, len(snap.Nodes()))
	for _, n := range snap.Nodes() {
		if n.HomePath() == "" {
			continue
		}
		paths = append(paths, PathEntry{Network: n.HomeNet(), Path: n.HomePath(), BID: n.BID()})
	}
	return Snapshot{Nodes: snap.Nodes(), Edges: snap.Edges(), Paths: paths}, nil
}

// GetMtimes returns a copy of every mtime this cache has committed.
func (m *Memory) GetMtimes(ctx context.Context) (map[string]MtimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]MtimeEntry, len(m.mtimes))
	for k, v := range m.mtimes {
		out[k] = v
	}
	return out, nil
}

// BeginTransaction opens a staging transaction. Only one may be open at a
// time; a BeginTransaction call made while another transaction is open
// returns an error at once instead of waiting for it to commit or abort,
// mirroring the single-writer discipline the transaction
// task (§5) already imposes on itself.
func (m *Memory) BeginTransaction(ctx context.Context) (Tx, error) {
	m.mu.Lock()
	if m.open {
		m.mu.Unlock()
		return nil, fmt.Errorf("cache: a transaction is already open")
	}
	m.open = true
	m.mu.Unlock()

	return &memoryTx{cache: m}, nil
}

// Invalidate clears path's recorded mtime so the next round treats it as
// stale, per the force-reparse contract.
func (m *Memory) Invalidate(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mtimes, path)
	return nil
}

// InvalidateNetwork clears every path belonging to network.
func (m *Memory) InvalidateNetwork(ctx context.Context, network bid.BID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for path, entry := range m.mtimes {
		if entry.Network == network {
			delete(m.mtimes, path)
		}
	}
	return nil
}

type mtimeWrite struct {
	path    string
	network bid.BID
	mtime   time.Time
}

type memoryTx struct {
	cache    *Memory
	events   []event.Event
	mtimes   []mtimeWrite
	finished bool
}

func (tx *memoryTx) Apply(events []event.Event) {
	tx.events = append(tx.events, events...)
}

func (tx *memoryTx) SetMtime(path string, network bid.BID, mtime time.Time) {
	tx.mtimes = append(tx.mtimes, mtimeWrite{path: path, network: network, mtime: mtime})
}

// Commit replays every staged event against the cache's store, then writes
// the staged mtimes. Either everything here succeeds or nothing is kept: a
// replay failure rolls back whatever this transaction had already applied
// by rebuilding the store from the pre-commit snapshot rather than leaving
// a half-applied graph.
func (tx *memoryTx) Commit(ctx context.Context) error {
	tx.cache.mu.Lock()
	defer tx.cache.mu.Unlock()
	if tx.finished {
		return fmt.Errorf("cache: transaction already finished")
	}
	tx.finished = true
	defer func() { tx.cache.open = false }()

	before := tx.cache.store.Snapshot()
	if err := replay(ctx, tx.cache.store, tx.events); err != nil {
		tx.cache.store = rebuild(before)
		return err
	}

	for _, w := range tx.mtimes {
		tx.cache.mtimes[w.path] = MtimeEntry{Mtime: w.mtime, Network: w.network}
	}
	return nil
}

// Abort discards every staged event and mtime without touching the store.
func (tx *memoryTx) Abort(ctx context.Context) error {
	tx.cache.mu.Lock()
	defer tx.cache.mu.Unlock()
	if tx.finished {
		return fmt.Errorf("cache: transaction already finished")
	}
	tx.finished = true
	tx.cache.open = false
	return nil
}

func replay(ctx context.Context, store *graph.Store, events []event.Event) error {
	for _, evt := range events {
		switch evt.Kind {
		case event.NodeAdd:
			if _, err := store.InsertOrUpdateNode(ctx, evt.Node); err != nil {
				return err
			}
		case event.NodeUpdate:
			if _, err := store.InsertOrUpdateNode(ctx, evt.After); err != nil {
				return err
			}
		case event.NodeRemove:
			if _, err := store.RemoveNode(ctx, evt.BID); err != nil {
				return err
			}
		case event.RelationAdd:
			if _, err := store.UpsertEdge(ctx, evt.Edge.Source(), evt.Edge.Sink(), evt.Edge.Weight(), evt.Edge.Payload()); err != nil {
				return err
			}
		case event.RelationUpdate:
			if _, err := store.UpsertEdge(ctx, evt.AfterEdge.Source(), evt.AfterEdge.Sink(), evt.AfterEdge.Weight(), evt.AfterEdge.Payload()); err != nil {
				return err
			}
		case event.RelationRemove:
			store.RemoveEdge(ctx, evt.Source, evt.Sink, evt.Weight)
		case event.PathsChanged:
			for _, change := range evt.Changes {
				if change.Kind == event.PathRemoved {
					continue
				}
				if err := store.SetPath(ctx, evt.Network, change.Path, change.BID); err != nil {
					return err
				}
			}
		case event.Diagnostic:
			// Diagnostics carry no graph mutation; nothing to replay.
		}
	}
	return nil
}

// rebuild reconstructs a fresh Store from a prior Snapshot's node and edge
// set, used to roll back a transaction whose replay failed partway through.
func rebuild(snap *graph.Snapshot) *graph.Store {
	store := graph.New()
	ctx := context.Background()
	for _, n := range snap.Nodes() {
		_, _ = store.InsertOrUpdateNode(ctx, n)
	}
	for _, e := range snap.Edges() {
		_, _ = store.UpsertEdge(ctx, e.Source(), e.Sink(), e.Weight(), e.Payload())
	}
	for _, n := range snap.Nodes() {
		if n.HomePath() != "" {
			_ = store.SetPath(ctx, n.HomeNet(), n.HomePath(), n.BID())
		}
	}
	return store
}
