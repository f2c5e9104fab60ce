package schema

import (
	"context"
	"log/slog"
	"sort"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/diag"
	"github.com/beliefgraph/core/graph"
	"github.com/beliefgraph/core/immutable"
	"github.com/beliefgraph/core/internal/ident"
	"github.com/beliefgraph/core/internal/trace"
)

// ApplyForward applies every CreateEdges rule in def to node, materializing
// or removing edges in store so the graph matches node's payload. previous
// is node's prior revision (nil on first insert); fields present in
// previous but absent or changed in node cause the corresponding edges to
// be removed, so re-parsing a file after a reference is deleted from its
// frontmatter removes the edge rather than leaving it stale.
//
// A BID enumerated by a CreateEdges field that does not yet name a node in
// store becomes a [graph.PendingDependency], resolved automatically the
// next time a node with that BID is inserted.
func ApplyForward(ctx context.Context, store *graph.Store, logger *slog.Logger, def *SchemaDefinition, node, previous *graph.Node) diag.Result {
	if store == nil || def == nil || node == nil {
		return diag.OK()
	}
	if ctx == nil {
		panic("schema.ApplyForward: nil context")
	}

	op := trace.Begin(ctx, logger, "beliefgraph.schema.apply_forward",
		slog.String("bid", node.BID().String()),
		slog.String("schema", def.Name()),
	)
	defer func() { op.End(nil) }()

	collector := diag.NewCollectorUnlimited()
	owner := node.BID()

	for _, rule := range def.CreateEdgeRules() {
		newIDs, issues := extractBIDs(node.Payload(), rule.Field(), rule.Validation())
		for _, issue := range issues {
			collector.Collect(issue)
		}

		var oldIDs []bid.BID
		if previous != nil {
			oldIDs, _ = extractBIDs(previous.Payload(), rule.Field(), rule.Validation())
		}

		newSet := make(map[bid.BID]struct{}, len(newIDs))
		for _, id := range newIDs {
			newSet[id] = struct{}{}
		}

		for _, id := range oldIDs {
			if _, stillPresent := newSet[id]; stillPresent {
				continue
			}
			source, sink := edgeEndpoints(owner, id, rule.Direction())
			store.RemoveEdge(ctx, source, sink, rule.Weight())
		}

		for _, id := range newIDs {
			source, sink := edgeEndpoints(owner, id, rule.Direction())
			target := sink
			if rule.Direction() == graph.DirectionIn {
				target = source
			}
			if _, ok := store.GetNode(target); !ok {
				store.AddPending(&graph.PendingDependency{
					Owner:   owner,
					Target:  bid.BIDKey(id),
					Weight:  rule.Weight(),
					Payload: immutable.Properties{},
				})
				continue
			}
			if _, err := store.UpsertEdge(ctx, source, sink, rule.Weight(), immutable.Properties{}); err != nil {
				issue := diag.NewIssue(diag.Warning, diag.E_UNRESOLVED_REFERENCE,
					"schema-declared edge could not be materialized").
					WithPath("", "bid:"+owner.String()).
					WithDetail("field", rule.Field()).
					WithDetail("target", id.String()).
					Build()
				collector.Collect(issue)
			}
		}
	}

	return collector.Result()
}

// edgeEndpoints orients an edge between owner and target according to
// direction: DirectionOut means owner is the source, DirectionIn means
// owner is the sink.
func edgeEndpoints(owner, target bid.BID, direction graph.Direction) (source, sink bid.BID) {
	if direction == graph.DirectionIn {
		return target, owner
	}
	return owner, target
}

// lookupField finds field's value in payload, tolerating the casing and
// separator conventions of whichever codec produced payload: an exact or
// ASCII-case-folded match (payload.GetFold) is tried first, then every
// payload key is normalized through ident.ToLowerSnake and compared
// against field's own normalized form. This lets a schema declare a rule
// field as "related_to" once while Markdown frontmatter, JSON, or TOML
// authors write "RelatedTo" or "related-to" without the rule silently
// missing the field.
func lookupField(payload immutable.Properties, field string) (immutable.Value, bool) {
	if v, ok := payload.GetFold(field); ok {
		return v, true
	}
	want := ident.ToLowerSnake(field)
	for key := range payload.SortedKeys() {
		if ident.ToLowerSnake(key) == want {
			return payload.Get(key)
		}
	}
	return immutable.Value{}, false
}

// extractBIDs reads field out of payload per validation and parses every
// enumerated value as a BID. Unparseable entries are reported as
// E_FIELD_VALIDATION_FAIL diagnostics and skipped rather than aborting the
// whole field.
func extractBIDs(payload immutable.Properties, field string, validation ValidationKind) ([]bid.BID, []diag.Issue) {
	value, ok := lookupField(payload, field)
	if !ok {
		return nil, nil
	}

	var raw []string
	var issues []diag.Issue

	switch validation {
	case MapOfBIDs:
		m, ok := value.Map()
		if !ok {
			return nil, nil
		}
		keys := make([]string, 0, m.Len())
		for k := range m.Keys() {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, _ := m.Get(k)
			if s, ok := v.String(); ok {
				raw = append(raw, s)
			}
		}
	default: // ListOfBIDs
		s, ok := value.Slice()
		if !ok {
			return nil, nil
		}
		for el := range s.Iter() {
			if str, ok := el.String(); ok {
				raw = append(raw, str)
			}
		}
	}

	ids := make([]bid.BID, 0, len(raw))
	for _, s := range raw {
		id, err := bid.ParseBID(s)
		if err != nil {
			issues = append(issues, diag.NewIssue(diag.Error, diag.E_FIELD_VALIDATION_FAIL,
				"field value is not a valid BID").
				WithPath("", "field:"+field).
				WithDetail("value", s).
				Build())
			continue
		}
		ids = append(ids, id)
	}
	return ids, issues
}

// ApplyReverse reconstructs def's CreateEdges fields on node from store's
// current edges, so a node round-trips through serialization without
// losing a map/list reference. The returned Properties is node's payload
// with every CreateEdges field overwritten by its reconstructed value;
// fields with no rule, and StoreAsPayload/Identity fields, pass through
// unchanged.
func ApplyReverse(store *graph.Store, def *SchemaDefinition, node *graph.Node) immutable.Properties {
	if store == nil || def == nil || node == nil {
		if node != nil {
			return node.Payload()
		}
		return immutable.Properties{}
	}

	out := node.Payload().Clone()
	if out == nil {
		out = make(map[string]any)
	}

	ctxNode, ok := store.GetContext(node.BID())
	if !ok {
		return immutable.WrapPropertiesClone(out)
	}

	for _, rule := range def.CreateEdgeRules() {
		neighbors := ctxNode.Neighbors[rule.Weight()]
		var ids []string
		for _, n := range neighbors {
			if n.Direction != rule.Direction() {
				continue
			}
			if rule.Direction() == graph.DirectionOut {
				ids = append(ids, n.Edge.Sink().String())
			} else {
				ids = append(ids, n.Edge.Source().String())
			}
		}
		sort.Strings(ids)

		if rule.Validation() == MapOfBIDs {
			// The original map's keys are labels chosen by the source
			// document (e.g. a frontmatter key naming the relation); the
			// graph only stores the BID each key pointed at, so on
			// reconstruction the BID also serves as its own key. A label
			// that differs from its BID does not survive a round trip.
			m := make(map[string]any, len(ids))
			for _, id := range ids {
				m[id] = id
			}
			out[rule.Field()] = m
			continue
		}

		list := make([]any, len(ids))
		for i, id := range ids {
			list[i] = id
		}
		out[rule.Field()] = list
	}

	return immutable.WrapPropertiesClone(out)
}
