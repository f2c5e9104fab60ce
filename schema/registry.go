package schema

import (
	"context"
	"log/slog"
	"sync"

	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/internal/trace"
)

// Registry is a thread-safe map from schema name to [SchemaDefinition]. It
// is initialized with the built-in schemas (Document, Section, Network,
// External) and mutable at runtime via [Registry.Register]. Each
// [NewRegistry] call builds a separate Registry; there is no package-level
// instance.
//
// Unlike the teacher's append-only registry, which rejects a duplicate
// name outright, this Registry follows last-registration-wins: a later
// Register call for a name already present replaces the prior definition
// and logs the overwrite, rather than erroring. See DESIGN.md's Schema
// Registry overwrite policy note.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*SchemaDefinition
	logger *slog.Logger
}

// RegistryOption configures a Registry at construction.
type RegistryOption func(*Registry)

// WithLogger attaches a logger used for overwrite notices.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry builds a Registry seeded with the built-in schemas.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{byName: make(map[string]*SchemaDefinition)}
	for _, opt := range opts {
		opt(r)
	}
	for _, def := range builtinSchemas() {
		r.byName[def.Name()] = def
	}
	return r
}

// Register adds def under name, replacing any existing definition for that
// name. Returns true if a prior definition was overwritten, in which case
// the overwrite is both logged via internal/trace and reported as an
// Info-severity [diag.Issue] through the returned [diag.Result], so
// callers that surface diagnostics (e.g. a CLI) can show it to the user.
func (r *Registry) Register(ctx context.Context, name string, def *SchemaDefinition) (overwritten bool, result diag.Result) {
	if r == nil || def == nil {
		return false, diag.OK()
	}
	if ctx == nil {
		panic("schema.Registry.Register: nil context")
	}

	op := trace.Begin(ctx, r.logger, "beliefgraph.schema.register",
		slog.String("name", name),
	)
	defer func() { op.End(nil) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, overwritten = r.byName[name]
	r.byName[name] = def

	if !overwritten {
		return false, diag.OK()
	}

	trace.Info(ctx, r.logger, "schema registration overwritten",
		slog.String("name", name),
	)
	issue := diag.NewIssue(diag.Info, diag.E_SCHEMA_OVERWRITE, "schema registration overwritten").
		WithDetail("name", name).
		Build()
	collector := diag.NewCollectorUnlimited()
	collector.Collect(issue)
	return true, collector.Result()
}

// Lookup returns the SchemaDefinition registered under name.
func (r *Registry) Lookup(name string) (*SchemaDefinition, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[name]
	return def, ok
}

// All returns every registered SchemaDefinition, in no particular order.
func (r *Registry) All() []*SchemaDefinition {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*SchemaDefinition, 0, len(r.byName))
	for _, def := range r.byName {
		out = append(out, def)
	}
	return out
}
