package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/builder"
	"github.com/beliefgraph/core/cache"
	"github.com/beliefgraph/core/codec"
	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/event"
	"github.com/beliefgraph/core/graph"
	"github.com/beliefgraph/core/internal/trace"
	"github.com/beliefgraph/core/schema"
)

// maxConcurrentFiles bounds how many files a single round parses at once.
// graph.Store and diag.Collector are both internally synchronized, so
// concurrent parseFile calls are safe; bounding concurrency still matters
// once a network has hundreds of files and a slow filesystem.
const maxConcurrentFiles = 8

// defaultMaxRounds bounds the primary/secondary queue swap count (§4.6
// step 6) to prevent pathological reference cycles from looping forever.
const defaultMaxRounds = 4

// Compiler is DocumentCompiler: the multi-file orchestrator that parses a
// network's source files into graph mutations, iterating primary/secondary
// parse queues to convergence, then committing the result to cache.
type Compiler struct {
	cache     cache.Cache
	codecs    *codec.Registry
	schemas   *schema.Registry
	bus       *event.Bus
	fs        FileSystem
	logger    *slog.Logger
	maxRounds int
}

// Option configures a Compiler at construction.
type Option func(*Compiler)

// WithLogger attaches a structured logger for operation tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// WithMaxRounds overrides the default round bound (4).
func WithMaxRounds(n int) Option {
	return func(c *Compiler) {
		if n > 0 {
			c.maxRounds = n
		}
	}
}

// New constructs a Compiler over the given cache, codec registry, schema
// registry, event bus, and filesystem.
func New(cch cache.Cache, codecs *codec.Registry, schemas *schema.Registry, bus *event.Bus, fs FileSystem, opts ...Option) *Compiler {
	c := &Compiler{
		cache:     cch,
		codecs:    codecs,
		schemas:   schemas,
		bus:       bus,
		fs:        fs,
		maxRounds: defaultMaxRounds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseOptions configures one Run.
type ParseOptions struct {
	// Paths are the explicit inputs the caller asked to parse (§4.6 step
	// 3), network-root-relative, in addition to whatever the cache's mtime
	// check (step 2) finds stale.
	Paths []string

	// ForceReparse skips the mtime check (step 2) entirely, treating every
	// path the cache already knows about as stale.
	ForceReparse bool
}

// Run executes one full parse round-set for network: loads the cache
// snapshot, finds stale and explicit files, parses each to
// inject_context convergence, resolves cross-file pending dependencies
// through up to maxRounds primary/secondary queue swaps, finalizes every
// codec used, and commits the result to cache atomically with observed
// mtimes. This is the §4.6 nine-step algorithm.
func (c *Compiler) Run(ctx context.Context, network bid.BID, opts ParseOptions) (diag.Result, error) {
	if ctx == nil {
		panic("compiler.Compiler.Run: nil context")
	}
	op := trace.Begin(ctx, c.logger, "beliefgraph.compiler.run", slog.String("network", network.String()))
	var opErr error
	defer func() { op.End(opErr) }()

	collector := diag.NewCollectorUnlimited()
	session := graph.New()

	rec, stopRecording := startRecording(c.bus)
	defer stopRecording()

	// Step 1.
	snap, err := c.cache.LoadAll(ctx)
	if err != nil {
		opErr = err
		return collector.Result(), err
	}
	loadCacheSnapshot(ctx, session, snap)
	c.bus.Publish(ctx, event.NewDiagnostic(
		diag.NewIssue(diag.Info, diag.E_CACHE_LOADED, "cache snapshot loaded into session graph").Build(),
	))

	// Steps 2 and 3.
	mtimes, err := c.cache.GetMtimes(ctx)
	if err != nil {
		opErr = err
		return collector.Result(), err
	}
	primary := newPathSet()
	if opts.ForceReparse {
		for path := range mtimes {
			primary.add(path)
		}
	} else {
		for path, entry := range mtimes {
			diskMtime, statErr := c.fs.Stat(path)
			if statErr != nil || diskMtime.After(entry.Mtime) {
				primary.add(path)
			}
		}
	}
	for _, path := range opts.Paths {
		primary.add(path)
	}

	observedMtimes := make(map[string]time.Time)
	var mtimesMu sync.Mutex
	roundExceeded := false

	// Steps 4, 5, 6, 7 (Finalize runs per file, immediately after that
	// file's own codec instance finishes InjectContext convergence — the
	// registry clones a fresh Codec per parse so finalize-time state never
	// crosses a file boundary; see codec.Registry.New's doc comment).
	//
	// Files within one round are drained concurrently, bounded by
	// maxConcurrentFiles: graph.Store and diag.Collector both hold their
	// own locks, so the only round-scoped shared state (observedMtimes) is
	// guarded here. The pending-dependency diff that decides what feeds
	// the secondary queue is taken once per round rather than per file,
	// since concurrent files touch the same global pending set.
	for round := 0; round < c.maxRounds && primary.len() > 0; round++ {
		before := pendingKeySet(session)

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(maxConcurrentFiles)
		for _, path := range primary.ordered() {
			path := path
			group.Go(func() error {
				result := c.parseFile(groupCtx, session, network, path, &mtimesMu, observedMtimes)
				collector.Merge(result)
				return nil
			})
		}
		_ = group.Wait()

		after := pendingKeySet(session)
		secondary := newPathSet()
		for key := range before {
			if after[key] {
				continue
			}
			if ownerPath, ok := session.GetPathByBID(network, key.owner); ok {
				secondary.add(ownerPath)
			}
		}
		primary = secondary
		if round == c.maxRounds-1 && primary.len() > 0 {
			roundExceeded = true
		}
	}
	if roundExceeded {
		collector.Collect(diag.NewIssue(diag.Warning, diag.E_PARSE_ROUND_EXCEEDED, "parse did not converge within the round bound").
			WithDetail("max_rounds", fmt.Sprintf("%d", c.maxRounds)).
			Build())
	}

	// Remaining pending dependencies are reported as warnings (step 6).
	for _, dep := range session.PendingDependencies() {
		collector.Collect(diag.NewIssue(diag.Warning, diag.E_DANGLING_PENDING, "reference did not resolve within the round bound").
			WithDetail("owner", dep.Owner.String()).
			Build())
	}

	// A file renamed within this run keeps its identity (its BID is
	// unchanged) but leaves every other file's link text still naming the
	// old path; rewrite those before committing, while rec is still
	// recording so the rewritten node/path events this can itself trigger
	// are captured on the next run rather than lost.
	collector.Merge(c.rewriteMovedLinks(ctx, session, network, rec.snapshot()))

	// Step 8.
	stopRecording()
	tx, err := c.cache.BeginTransaction(ctx)
	if err != nil {
		opErr = err
		return collector.Result(), err
	}
	tx.Apply(rec.snapshot())
	for path, mtime := range observedMtimes {
		tx.SetMtime(path, network, mtime)
	}
	if err := tx.Commit(ctx); err != nil {
		collector.Collect(diag.NewIssue(diag.Error, diag.E_TRANSACTION_FAILED, "cache commit failed").
			WithDetail("error", err.Error()).
			Build())
		opErr = err
		return collector.Result(), err
	}

	return collector.Result(), nil
}

// parseFile runs one file through parse, the heading-stack materialization,
// inject_context convergence, and schema CreateEdges application (§4.5).
func (c *Compiler) parseFile(ctx context.Context, session *graph.Store, network bid.BID, path string, mtimesMu *sync.Mutex, observedMtimes map[string]time.Time) diag.Result {
	collector := diag.NewCollectorUnlimited()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	cdc, ok := c.codecs.New(ext)
	if !ok {
		collector.Collect(diag.NewIssue(diag.Warning, diag.E_UNSUPPORTED_FORMAT, "no codec registered for extension").
			WithPath(path, "").
			WithDetail("extension", ext).
			Build())
		return collector.Result()
	}

	beforeStat, statErr1 := c.fs.Stat(path)
	data, err := c.fs.ReadFile(path)
	if err != nil {
		collector.Collect(diag.NewIssue(diag.Error, diag.E_STALE_READ, "file could not be read").
			WithPath(path, "").
			WithDetail("error", err.Error()).
			Build())
		return collector.Result()
	}
	afterStat, statErr2 := c.fs.Stat(path)
	if statErr1 == nil && statErr2 == nil && !afterStat.Equal(beforeStat) {
		collector.Collect(diag.NewIssue(diag.Warning, diag.E_STALE_READ, "file mtime changed while reading; skipped for this run").
			WithPath(path, "").
			Build())
		return collector.Result()
	}
	if statErr2 == nil {
		mtimesMu.Lock()
		observedMtimes[path] = afterStat
		mtimesMu.Unlock()
	}

	docBID := bid.NewDocumentBID(network, path)
	initialProto := &codec.ProtoBeliefNode{BID: docBID, Network: network, Title: titleFromPath(path)}

	protos, parseResult, err := cdc.Parse(ctx, data, initialProto)
	collector.CollectAll(parseResult.IssuesSlice())
	if err != nil {
		collector.Collect(diag.NewIssue(diag.Error, diag.E_FORMAT_ERROR, "parse failed").
			WithPath(path, "").
			WithDetail("error", err.Error()).
			Build())
		return collector.Result()
	}
	if len(protos) == 0 {
		return collector.Result()
	}
	applySections(protos, extractSections(protos[0].Payload))

	b := builder.New(session, nil, c.bus, builder.WithLogger(c.logger))
	b.BeginFile(protos[0].BID)

	schemaNames := make(map[bid.BID]string, len(protos))
	priors := make(map[bid.BID]*graph.Node, len(protos))

	for i, proto := range protos {
		schemaName, override, hasOverride, stripped := extractReserved(proto.Payload)
		proto.Payload = stripped
		if hasOverride {
			proto.BID = override
		}
		schemaNames[proto.BID] = schemaName
		prior, _ := session.GetNode(proto.BID)
		priors[proto.BID] = prior

		kind := graph.KindSection
		if i == 0 {
			kind = graph.KindDocument
		}
		_, upsertResult, err := b.UpsertNode(ctx, proto, kind, schemaName, path)
		if err != nil {
			collector.Collect(diag.NewIssue(diag.Error, diag.E_INTERNAL, "node could not be materialized").
				WithPath(path, "bid:"+proto.BID.String()).
				WithDetail("error", err.Error()).
				Build())
			continue
		}
		collector.CollectAll(upsertResult.IssuesSlice())
	}

	c.convergeInjectContext(ctx, session, cdc, protos, b, collector)

	for _, proto := range protos {
		schemaName := schemaNames[proto.BID]
		if schemaName == "" {
			continue
		}
		def, ok := c.schemas.Lookup(schemaName)
		if !ok {
			collector.Collect(diag.NewIssue(diag.Error, diag.E_UNKNOWN_SCHEMA, "node declares an unregistered schema").
				WithPath(path, "bid:"+proto.BID.String()).
				WithDetail("schema", schemaName).
				Build())
			continue
		}
		node, ok := session.GetNode(proto.BID)
		if !ok {
			continue
		}
		result := applyForwardAndPublish(ctx, session, c.logger, def, node, priors[proto.BID], c.bus)
		collector.Merge(result)
	}

	resolved, err := cdc.Finalize(ctx)
	if err != nil {
		collector.Collect(diag.NewIssue(diag.Error, diag.E_FORMAT_ERROR, "codec finalize failed").
			WithPath(path, "").
			WithDetail("error", err.Error()).
			Build())
		return collector.Result()
	}
	c.materializeFinalized(ctx, session, resolved)

	return collector.Result()
}

// convergeInjectContext iterates inject_context over every proto-node in
// protos until a full pass resolves no new candidate, per §4.5's
// convergence guarantee (the pending-dependency set only shrinks). A
// defensive pass cap, distinct from the compiler's own round bound, backs
// this in case a codec returns a non-monotonic candidate set.
func (c *Compiler) convergeInjectContext(ctx context.Context, session *graph.Store, cdc codec.Codec, protos []*codec.ProtoBeliefNode, b *builder.Builder, collector *diag.Collector) {
	type resolvedKey struct {
		owner  bid.BID
		target bid.NodeKey
		weight graph.WeightKind
	}
	resolvedAlready := make(map[resolvedKey]bool)
	maxPasses := len(protos) + 1

	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for _, proto := range protos {
			rctx := &fileResolveContext{session: session, siblings: protos}
			_, injResult, err := cdc.InjectContext(ctx, proto, rctx)
			collector.CollectAll(injResult.IssuesSlice())
			if err != nil {
				collector.Collect(diag.NewIssue(diag.Error, diag.E_FORMAT_ERROR, "inject_context failed").
					WithDetail("bid", proto.BID.String()).
					WithDetail("error", err.Error()).
					Build())
				continue
			}

			for _, cand := range proto.Candidates {
				weight, ok := graph.ParseWeightKind(cand.Weight)
				if !ok {
					continue
				}
				key := resolvedKey{owner: proto.BID, target: cand.Target, weight: weight}
				if resolvedAlready[key] {
					continue
				}
				if resolved, _ := b.ResolveReference(ctx, proto.BID, cand.Target, weight); resolved {
					resolvedAlready[key] = true
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
}

// materializeFinalized upserts the (proto, resolved) pairs a codec's
// Finalize step emits (e.g. a regenerated network index). These carry no
// source file, so they get no path-map entry.
func (c *Compiler) materializeFinalized(ctx context.Context, session *graph.Store, resolved []codec.ResolvedNode) {
	if len(resolved) == 0 {
		return
	}
	b := builder.New(session, nil, c.bus, builder.WithLogger(c.logger))
	for _, rn := range resolved {
		if rn.Proto == nil {
			continue
		}
		proto := rn.Proto
		schemaName, override, hasOverride, stripped := extractReserved(proto.Payload)
		proto.Payload = stripped
		if hasOverride {
			proto.BID = override
		}
		b.BeginFile(proto.BID)
		if _, _, err := b.UpsertNode(ctx, proto, graph.KindDocument, schemaName, ""); err != nil {
			continue
		}
		for _, cand := range proto.Candidates {
			weight, ok := graph.ParseWeightKind(cand.Weight)
			if !ok {
				continue
			}
			b.ResolveReference(ctx, proto.BID, cand.Target, weight)
		}
	}
}

type pendingKey struct {
	owner  bid.BID
	target bid.NodeKey
	weight graph.WeightKind
}

func pendingKeySet(session *graph.Store) map[pendingKey]bool {
	out := make(map[pendingKey]bool)
	for _, dep := range session.PendingDependencies() {
		out[pendingKey{owner: dep.Owner, target: dep.Target, weight: dep.Weight}] = true
	}
	return out
}

// titleFromPath derives a default title from path's filename when a codec
// finds no explicit title, e.g. in frontmatter.
func titleFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "-", " ")
	base = strings.ReplaceAll(base, "_", " ")
	return base
}

// pathSet is an insertion-ordered string set, used for the primary and
// secondary parse queues so processing order is deterministic within a
// round.
type pathSet struct {
	seen  map[string]bool
	order []string
}

func newPathSet() *pathSet { return &pathSet{seen: make(map[string]bool)} }

func (s *pathSet) add(path string) {
	if s.seen[path] {
		return
	}
	s.seen[path] = true
	s.order = append(s.order, path)
}

func (s *pathSet) ordered() []string { return s.order }
func (s *pathSet) len() int          { return len(s.order) }
