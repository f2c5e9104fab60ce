package graph

import (
	"context"
	"log/slog"
	"sync"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/immutable"
	"github.com/beliefgraph/core/internal/trace"
)

// Store is the live, in-memory belief graph: a node table keyed by BID, a
// typed relation multigraph, per-network bijective path maps, and the
// secondary indexes used to triangulate a [bid.NodeKey] to the node it
// names.
//
// Store is safe for concurrent use from multiple goroutines; see the
// package doc comment for the locking discipline.
type Store struct {
	mu     sync.RWMutex
	config storeConfig

	nodes map[bid.BID]*Node
	edges map[edgeKey]*Edge

	kindIndex   map[Kind]map[bid.BID]struct{}
	brefIndex   map[bid.Bref]bid.BID
	anchorIndex map[string]bid.BID
	titleIndex  map[string]bid.BID

	// paths holds one PathMap per network, keyed by the network's own BID.
	paths map[bid.BID]*PathMap

	// pending holds unresolved edge targets, keyed by the NodeKey the
	// owner's reference named.
	pending map[bid.NodeKey][]*PendingDependency

	collector *diag.Collector
}

// New constructs an empty Store.
func New(opts ...StoreOption) *Store {
	cfg := storeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Store{
		config:      cfg,
		nodes:       make(map[bid.BID]*Node),
		edges:       make(map[edgeKey]*Edge),
		kindIndex:   make(map[Kind]map[bid.BID]struct{}),
		brefIndex:   make(map[bid.Bref]bid.BID),
		anchorIndex: make(map[string]bid.BID),
		titleIndex:  make(map[string]bid.BID),
		paths:       make(map[bid.BID]*PathMap),
		pending:     make(map[bid.NodeKey][]*PendingDependency),
		collector:   diag.NewCollectorUnlimited(),
	}
}

// Diagnostics returns a snapshot of every recoverable issue the store has
// logged since construction (duplicate-node rejections, and edges refused
// for a missing endpoint or a self-loop).
func (s *Store) Diagnostics() diag.Result {
	if s == nil {
		return diag.OK()
	}
	return s.collector.Result()
}

// InsertOrUpdateNode inserts node if its BID is new, replaces the existing
// node's fields if node's BID already exists with the same Kind, or is a
// no-op if node is structurally identical to what is already stored.
//
// A node whose BID already exists under a different Kind is an invariant
// violation (content-addressing guarantees distinct inputs hash distinctly;
// a same-BID-different-Kind collision means a caller minted a BID by hand
// or derivation was given non-distinct inputs). The operation is refused,
// logged, and reported via [Store.Diagnostics]; the store is left
// unchanged.
//
// On success, any [PendingDependency] whose Target resolves to node's BID,
// Bref, anchor, or title is retried and, if it now resolves, promoted to a
// real edge.
func (s *Store) InsertOrUpdateNode(ctx context.Context, node *Node) (MutationKind, error) {
	if s == nil {
		return Unchanged, ErrNilStore
	}
	if node == nil {
		return Unchanged, ErrNilNode
	}
	if ctx == nil {
		panic("graph.Store.InsertOrUpdateNode: nil context")
	}

	op := trace.Begin(ctx, s.config.logger, "beliefgraph.graph.insert_or_update_node",
		slog.String("bid", node.BID().String()),
		slog.String("kind", node.Kind().String()),
	)
	var retErr error
	defer func() { op.End(retErr) }()

	if err := ctx.Err(); err != nil {
		retErr = err
		return Unchanged, retErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := node.BID()
	existing, ok := s.nodes[id]
	if ok && existing.Kind() != node.Kind() {
		issue := diag.NewIssue(diag.Error, diag.E_DUPLICATE_NODE,
			"node BID already exists under a different kind").
			WithPath("", "bid:"+id.String()).
			WithDetail("existing_kind", existing.Kind().String()).
			WithDetail("new_kind", node.Kind().String()).
			Build()
		s.collector.Collect(issue)
		trace.Warn(ctx, s.config.logger, "duplicate node rejected",
			slog.String("bid", id.String()),
			slog.String("existing_kind", existing.Kind().String()),
			slog.String("new_kind", node.Kind().String()),
		)
		return Unchanged, ErrDuplicateNode
	}

	if ok && existing.sameStructure(node) {
		return Unchanged, nil
	}

	s.nodes[id] = node
	s.indexNode(node)

	kind := Added
	if ok {
		kind = Updated
	}

	s.resolvePending(ctx, node)

	trace.Debug(ctx, s.config.logger, "node "+kind.String(),
		slog.String("bid", id.String()),
		slog.String("kind", node.Kind().String()),
	)
	return kind, nil
}

// indexNode adds node's BID to every secondary index it participates in.
// Caller must hold s.mu for writing.
func (s *Store) indexNode(node *Node) {
	id := node.BID()

	if s.kindIndex[node.Kind()] == nil {
		s.kindIndex[node.Kind()] = make(map[bid.BID]struct{})
	}
	s.kindIndex[node.Kind()][id] = struct{}{}

	b := bid.DeriveBref(id)
	s.brefIndex[b] = id
	if node.Anchor() != "" {
		s.anchorIndex[node.Anchor()] = id
	}
	if node.Title() != "" {
		s.titleIndex[bid.ToAnchor(node.Title())] = id
	}
}

// resolvePending retries every PendingDependency whose Target now resolves
// to node, promoting each one to a real edge. Caller must hold s.mu.
func (s *Store) resolvePending(ctx context.Context, node *Node) {
	id := node.BID()
	keys := []bid.NodeKey{bid.BIDKey(id), bid.BrefKey(bid.DeriveBref(id))}
	if node.Anchor() != "" {
		keys = append(keys, bid.AnchorKey(node.Anchor()))
	}
	if node.Title() != "" {
		keys = append(keys, bid.TitleKey(bid.ToAnchor(node.Title())))
	}

	for _, key := range keys {
		deps := s.pending[key]
		if len(deps) == 0 {
			continue
		}
		delete(s.pending, key)
		for _, dep := range deps {
			if _, exists := s.nodes[dep.Owner]; !exists {
				// Owner vanished before this dependency resolved; drop it.
				continue
			}
			e := NewEdge(dep.Owner, id, dep.Weight, dep.Payload)
			s.edges[e.key()] = e
			trace.Debug(ctx, s.config.logger, "pending dependency resolved",
				slog.String("owner", dep.Owner.String()),
				slog.String("target", id.String()),
				slog.String("weight", dep.Weight.String()),
			)
		}
	}
}

// RemoveNode deletes id from the store. Every edge where id was source or
// sink is removed from the live multigraph; incoming edges (edges where id
// was the sink) are converted into [PendingDependency] entries keyed by
// id's BID, so a later node reusing that identity resumes the relation.
// Returns the edges removed.
func (s *Store) RemoveNode(ctx context.Context, id bid.BID) ([]*Edge, error) {
	if s == nil {
		return nil, ErrNilStore
	}
	if ctx == nil {
		panic("graph.Store.RemoveNode: nil context")
	}

	op := trace.Begin(ctx, s.config.logger, "beliefgraph.graph.remove_node",
		slog.String("bid", id.String()),
	)
	var retErr error
	defer func() { op.End(retErr) }()

	if err := ctx.Err(); err != nil {
		retErr = err
		return nil, retErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, nil
	}

	var removed []*Edge
	for key, e := range s.edges {
		if key.source != id && key.sink != id {
			continue
		}
		delete(s.edges, key)
		removed = append(removed, e)

		if key.sink == id {
			dep := &PendingDependency{
				Owner:   key.source,
				Target:  bid.BIDKey(id),
				Weight:  key.weight,
				Payload: e.Payload(),
			}
			s.pending[dep.Target] = append(s.pending[dep.Target], dep)
		}
	}

	s.unindexNode(node)
	delete(s.nodes, id)

	trace.Debug(ctx, s.config.logger, "node removed",
		slog.String("bid", id.String()),
		slog.Int("edges_removed", len(removed)),
	)
	return removed, nil
}

// unindexNode removes node's BID from every secondary index. Caller must
// hold s.mu for writing.
func (s *Store) unindexNode(node *Node) {
	id := node.BID()
	delete(s.kindIndex[node.Kind()], id)
	delete(s.brefIndex, bid.DeriveBref(id))
	if node.Anchor() != "" {
		delete(s.anchorIndex, node.Anchor())
	}
	if node.Title() != "" {
		delete(s.titleIndex, bid.ToAnchor(node.Title()))
	}
}

// UpsertEdge inserts or replaces the edge (source, sink, weight). Both
// endpoints must already exist in the store and source must differ from
// sink (the graph has no self-loops); either violation refuses the
// operation and is reported via [Store.Diagnostics].
func (s *Store) UpsertEdge(ctx context.Context, source, sink bid.BID, weight WeightKind, payload immutable.Properties) (MutationKind, error) {
	if s == nil {
		return Unchanged, ErrNilStore
	}
	if ctx == nil {
		panic("graph.Store.UpsertEdge: nil context")
	}

	op := trace.Begin(ctx, s.config.logger, "beliefgraph.graph.upsert_edge",
		slog.String("source", source.String()),
		slog.String("sink", sink.String()),
		slog.String("weight", weight.String()),
	)
	var retErr error
	defer func() { op.End(retErr) }()

	if err := ctx.Err(); err != nil {
		retErr = err
		return Unchanged, retErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if source == sink {
		issue := diag.NewIssue(diag.Error, diag.E_NODE_NOT_FOUND, "edge source and sink are identical").
			WithPath("", "bid:"+source.String()).
			Build()
		s.collector.Collect(issue)
		return Unchanged, ErrSelfLoop
	}

	if _, ok := s.nodes[source]; !ok {
		return s.rejectMissingEndpoint(source)
	}
	if _, ok := s.nodes[sink]; !ok {
		return s.rejectMissingEndpoint(sink)
	}

	e := NewEdge(source, sink, weight, payload)
	key := e.key()

	existing, ok := s.edges[key]
	if ok && existing.sameStructure(e) {
		return Unchanged, nil
	}

	s.edges[key] = e
	kind := Added
	if ok {
		kind = Updated
	}
	trace.Debug(ctx, s.config.logger, "edge "+kind.String(),
		slog.String("source", source.String()),
		slog.String("sink", sink.String()),
		slog.String("weight", weight.String()),
	)
	return kind, nil
}

// rejectMissingEndpoint records an E_NODE_NOT_FOUND diagnostic and returns
// the sentinel error for an edge endpoint that does not exist. Caller must
// hold s.mu.
func (s *Store) rejectMissingEndpoint(missing bid.BID) (MutationKind, error) {
	issue := diag.NewIssue(diag.Error, diag.E_NODE_NOT_FOUND, "edge endpoint does not exist in the graph").
		WithPath("", "bid:"+missing.String()).
		Build()
	s.collector.Collect(issue)
	return Unchanged, ErrMissingEndpoint
}

// RemoveEdge deletes the edge (source, sink, weight) if present. Reports
// whether an edge was removed.
func (s *Store) RemoveEdge(ctx context.Context, source, sink bid.BID, weight WeightKind) bool {
	if s == nil {
		return false
	}
	if ctx == nil {
		panic("graph.Store.RemoveEdge: nil context")
	}

	op := trace.Begin(ctx, s.config.logger, "beliefgraph.graph.remove_edge",
		slog.String("source", source.String()),
		slog.String("sink", sink.String()),
		slog.String("weight", weight.String()),
	)
	defer func() { op.End(nil) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey{source: source, sink: sink, weight: weight}
	if _, ok := s.edges[key]; !ok {
		return false
	}
	delete(s.edges, key)
	return true
}

// SetPath binds path to id within net's path map, evicting any prior
// binding of path or of id so the map stays bijective. A path reassigned
// from one BID to another (e.g. after a Move) is the common case and is
// not itself an error; rebinding is the documented way a caller performs a
// Move.
func (s *Store) SetPath(ctx context.Context, net bid.BID, path string, id bid.BID) error {
	if s == nil {
		return ErrNilStore
	}
	if ctx == nil {
		panic("graph.Store.SetPath: nil context")
	}

	op := trace.Begin(ctx, s.config.logger, "beliefgraph.graph.set_path",
		slog.String("net", net.String()),
		slog.String("path", path),
		slog.String("bid", id.String()),
	)
	var retErr error
	defer func() { op.End(retErr) }()

	if err := ctx.Err(); err != nil {
		retErr = err
		return retErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pm := s.paths[net]
	if pm == nil {
		pm = newPathMap()
		s.paths[net] = pm
	}
	pm.set(path, id)
	return nil
}

// GetBIDByPath resolves path within net's path map.
func (s *Store) GetBIDByPath(net bid.BID, path string) (bid.BID, bool) {
	if s == nil {
		return bid.Zero, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	pm := s.paths[net]
	if pm == nil {
		return bid.Zero, false
	}
	return pm.bidByPath(path)
}

// GetPathByBID reports the path a node currently lives at within net.
func (s *Store) GetPathByBID(net, id bid.BID) (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	pm := s.paths[net]
	if pm == nil {
		return "", false
	}
	return pm.pathByBID(id)
}

// GetNode returns the node stored under id.
func (s *Store) GetNode(id bid.BID) (*Node, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	return n, ok
}

// Resolve triangulates keys against the store's secondary indexes in
// [bid.ResolutionOrder] (BID, Bref, Anchor, Title, Path), returning the
// first match. keys need not be pre-sorted; Resolve sorts a private copy.
// A [bid.PathKey] carries its own network scope; Anchor and Title keys are
// global across the store, matching how [bid.AnchorKey] and [bid.TitleKey]
// are constructed (no network parameter of their own).
func (s *Store) Resolve(keys []bid.NodeKey) (bid.BID, bool) {
	if s == nil || len(keys) == 0 {
		return bid.Zero, false
	}

	sorted := make([]bid.NodeKey, len(keys))
	copy(sorted, keys)
	bid.SortByPriority(sorted)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range sorted {
		if id, ok := s.resolveOne(key); ok {
			return id, true
		}
	}
	return bid.Zero, false
}

// resolveOne resolves a single NodeKey against the appropriate index.
// Caller must hold s.mu for reading.
func (s *Store) resolveOne(key bid.NodeKey) (bid.BID, bool) {
	switch key.Kind() {
	case bid.KeyBID:
		id, _ := key.BID()
		if _, ok := s.nodes[id]; ok {
			return id, true
		}
	case bid.KeyBref:
		b, _ := key.Bref()
		if id, ok := s.brefIndex[b]; ok {
			return id, true
		}
	case bid.KeyAnchor:
		anchor, _ := key.Anchor()
		if id, ok := s.anchorIndex[anchor]; ok {
			return id, true
		}
	case bid.KeyTitle:
		title, _ := key.Title()
		if id, ok := s.titleIndex[bid.ToAnchor(title)]; ok {
			return id, true
		}
	case bid.KeyPath:
		network, relPath, _ := key.Path()
		if pm := s.paths[network]; pm != nil {
			if id, ok := pm.bidByPath(relPath); ok {
				return id, true
			}
		}
	}
	return bid.Zero, false
}

// AddPending records dep so that it is retried the next time a node
// matching dep.Target is inserted. Callers hold PendingDependency values
// themselves (see the package doc comment); this method exists so the
// store can also expose them via [Store.Diagnostics] accounting at the end
// of a parse round.
func (s *Store) AddPending(dep *PendingDependency) {
	if s == nil || dep == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[dep.Target] = append(s.pending[dep.Target], dep)
}

// PendingCount returns the number of unresolved pending dependencies.
func (s *Store) PendingCount() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	for _, deps := range s.pending {
		n += len(deps)
	}
	return n
}

// PendingDependencies returns a snapshot of every unresolved pending
// dependency, in no particular order. Used at parse-round end to report
// dangling references as warnings rather than failing the round outright.
func (s *Store) PendingDependencies() []*PendingDependency {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*PendingDependency
	for _, deps := range s.pending {
		out = append(out, deps...)
	}
	return out
}
