// Package graph holds the live, in-memory belief graph: nodes keyed by
// BID, the typed relation multigraph, and the secondary indexes (Bref,
// Anchor, Title, Path, Kind) used to triangulate a reference to the node
// it names.
//
// # Thread Safety
//
// [Store] is safe for concurrent use. Readers may overlap; a write
// excludes all readers and writers for its duration.
//
// # Basic Usage
//
//	s := graph.New()
//
//	net := graph.NewNode(networkBID, graph.KindNetwork, bid.Zero, "", "docs", "", "", immutable.Properties{})
//	s.InsertOrUpdateNode(ctx, net)
//
//	doc := graph.NewNode(docBID, graph.KindDocument, networkBID, "", "Hello", "", "hello.md", immutable.Properties{})
//	kind, err := s.InsertOrUpdateNode(ctx, doc)
//	// kind is graph.Added on first insert, graph.Updated or graph.Unchanged thereafter.
//
//	s.SetPath(ctx, networkBID, "hello.md", docBID)
//
// # Pending Dependencies
//
// [Store.UpsertEdge] rejects an edge whose sink does not yet exist rather
// than silently dropping it; callers that want forward-reference support
// hold the attempted edge as a [PendingDependency] keyed by the unresolved
// [bid.NodeKey] and retry it once a matching node is inserted. This mirrors
// how GraphBuilder and DocumentCompiler (outside this package) resolve
// cross-document links across parse rounds.
//
// # Error Handling
//
// Mutation methods return (MutationKind, error):
//
//   - error != nil: internal failure (nil receiver, nil node/edge) or an
//     invariant violation (BID reused across kinds, missing edge endpoint,
//     self-loop). SetPath keeps each path map bijective by evicting prior
//     bindings, so it never reports a breach. These are bugs, not data
//     problems, and are never expected from well-formed callers.
//   - error == nil: the mutation succeeded; MutationKind reports whether it
//     was a no-op (Unchanged) or changed the store (Added, Updated).
//
// Recoverable data problems (an unresolved reference, a schema-validation
// failure) are the caller's concern — the codec and schema layers collect
// those as diag.Issue values before ever calling into this package.
package graph
