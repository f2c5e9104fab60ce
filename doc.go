// Package core provides the belief graph engine: a content-addressed,
// incrementally-compiled graph over Markdown/TOML/JSON documents, with
// identity triangulation, schema-driven edges, and a live event stream.
//
// A belief graph is built from a set of source files under a network root.
// Each file becomes one or more nodes (a document node, plus one section
// node per heading). A document's BID is derived from its network and its
// path, and each section's BID from the document BID, its heading slug and
// its order; a rename therefore mints new BIDs, except that a document whose
// frontmatter pins an explicit `bid` keeps that BID (its sections do not
// keep theirs). Cross-references between nodes — explicit BIDs,
// bare anchors, relative paths — are triangulated against whatever the
// graph already knows, with unresolved references held as pending
// dependencies until their target shows up.
//
// # Architecture Overview
//
// The module is organized into layers with strict dependency ordering:
//
//	Foundation tier (no internal dependencies):
//	  - bid: content-addressed identity (BID, Bref, NodeKey triangulation)
//	  - location: source positions, spans, and canonical paths
//	  - diag: structured diagnostics with stable error codes
//	  - immutable: read-only wrappers for safe payload sharing
//
//	Core library tier:
//	  - graph: node/edge store, WeightKind multigraph, pending dependencies
//	  - schema: field rules, CreateEdges/StoreAsPayload, forward/reverse apply
//	  - event: typed event bus (NodeAdd/RelationAdd/.../Diagnostic)
//	  - codec: three-phase Parse/InjectContext/Finalize interface
//	  - builder: per-file heading-stack graph construction
//	  - cache: persistent snapshot/transaction contract, in-memory reference
//	  - compiler: multi-file orchestration, round-based convergence
//	  - query: Expression combinators evaluated into a projected sub-graph
//	  - watch: filesystem watcher keeping a compiled network in sync
//
//	Format tier:
//	  - codec/markdown: frontmatter + heading/link triangulation
//	  - codec/toml, codec/json: flat document nodes
//
// # Entry Points
//
// Compiling a network from source files:
//
//	import (
//	    "github.com/beliefgraph/core/cache"
//	    "github.com/beliefgraph/core/codec"
//	    "github.com/beliefgraph/core/codec/markdown"
//	    "github.com/beliefgraph/core/compiler"
//	    "github.com/beliefgraph/core/event"
//	    "github.com/beliefgraph/core/schema"
//	)
//
//	registry := codec.NewRegistry()
//	registry.Register("md", func() codec.Codec { return markdown.New() })
//
//	c := compiler.New(cache.NewMemory(), registry, schema.NewRegistry(), event.NewBus(), compiler.NewOSFileSystem())
//	result, err := c.Run(ctx, network, compiler.ParseOptions{Paths: paths})
//	if err != nil {
//	    // I/O or internal error
//	}
//	if result.HasErrors() {
//	    // parse/triangulation errors, still partially committed
//	}
//
// Reading a node's neighborhood directly from the graph:
//
//	import "github.com/beliefgraph/core/graph"
//
//	ctxNode, ok := store.GetContext(id)
//	if ok {
//	    for _, neighbor := range ctxNode.Neighbors[graph.WeightReference] {
//	        // neighbor.Node, neighbor.Edge, neighbor.Direction
//	    }
//	}
//
// # Subpackages
//
// See the individual package documentation for detailed usage:
//
//   - [github.com/beliefgraph/core/bid]: content-addressed identity
//   - [github.com/beliefgraph/core/diag]: structured diagnostics
//   - [github.com/beliefgraph/core/location]: source location tracking
//   - [github.com/beliefgraph/core/immutable]: read-only data wrappers
//   - [github.com/beliefgraph/core/graph]: node/edge store and pending dependencies
//   - [github.com/beliefgraph/core/schema]: field rules and schema application
//   - [github.com/beliefgraph/core/event]: event bus and mutation translation
//   - [github.com/beliefgraph/core/codec]: parse/inject/finalize codec contract
//   - [github.com/beliefgraph/core/builder]: per-file graph construction
//   - [github.com/beliefgraph/core/cache]: persistent snapshot/transaction contract
//   - [github.com/beliefgraph/core/compiler]: multi-file compile orchestration
//   - [github.com/beliefgraph/core/query]: Expression evaluator and sub-graph projection
//   - [github.com/beliefgraph/core/watch]: filesystem watcher and debounced recompilation
package core
