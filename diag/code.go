package diag

// CodeCategory represents the semantic domain of an error code.
//
// Categories represent the semantic domain of an error, not necessarily the
// package that emits it. Most codes are emitted exclusively by their
// category's layer, but some codes represent cross-cutting concerns.
type CodeCategory uint8

const (
	// CategorySentinel is for sentinel codes like E_LIMIT_REACHED and E_INTERNAL.
	CategorySentinel CodeCategory = iota

	// CategoryIdentity is for BID/Bref/anchor derivation and triangulation errors.
	CategoryIdentity

	// CategoryGraph is for graph-store errors: duplicate nodes, path
	// injectivity breaches, unresolved references.
	CategoryGraph

	// CategorySchema is for schema registration and field-validation errors.
	CategorySchema

	// CategoryCodec is for format parsing and generation errors.
	CategoryCodec

	// CategoryCompiler is for parse-round and transaction errors.
	CategoryCompiler

	// CategoryWatch is for filesystem watch and I/O errors.
	CategoryWatch
)

// String returns a human-readable label for the category.
func (c CodeCategory) String() string {
	switch c {
	case CategorySentinel:
		return "sentinel"
	case CategoryIdentity:
		return "identity"
	case CategoryGraph:
		return "graph"
	case CategorySchema:
		return "schema"
	case CategoryCodec:
		return "codec"
	case CategoryCompiler:
		return "compiler"
	case CategoryWatch:
		return "watch"
	default:
		return "unknown"
	}
}

// Code is a stable programmatic identifier for an Issue.
//
// Error codes are stable identifiers that tools can match on, even when
// message text changes. The Code type uses unexported fields to enforce
// a closed set of valid codes—only codes defined in this package are valid.
//
// Code.String() values are globally unique across all categories. The
// CodeCategory is informational metadata for filtering and grouping.
type Code struct {
	value string
	cat   CodeCategory
}

// String returns the code's string representation (e.g., "E_FORMAT_ERROR").
func (c Code) String() string {
	return c.value
}

// Category returns the programmatic category for this code.
func (c Code) Category() CodeCategory {
	return c.cat
}

// IsZero reports whether the code is unset.
func (c Code) IsZero() bool {
	return c.value == ""
}

// code is the unexported constructor—callers cannot create arbitrary codes.
func code(value string, cat CodeCategory) Code {
	return Code{value: value, cat: cat}
}

// Sentinel codes.
var (
	// E_LIMIT_REACHED is a sentinel code for explicit limit notification.
	// It does not automatically trigger Result.LimitReached(); use
	// Collector.LimitReached() to check limit status. Callers may inject
	// this code manually when desired.
	E_LIMIT_REACHED = code("E_LIMIT_REACHED", CategorySentinel)

	// E_INTERNAL indicates an invariant violation: a bug, not bad input.
	// Operations that detect this refuse to proceed but never panic on
	// input data; the process keeps running.
	E_INTERNAL = code("E_INTERNAL", CategorySentinel)
)

// Identity codes.
var (
	// E_INVALID_BID indicates a string did not parse as a well-formed BID.
	E_INVALID_BID = code("E_INVALID_BID", CategoryIdentity)

	// E_BID_COLLISION indicates two distinct nodes derived the same BID.
	// This is an invariant violation: BID derivation is namespaced and
	// deterministic, so a collision means the inputs to derivation were
	// not actually distinct, or a caller minted a BID by hand.
	E_BID_COLLISION = code("E_BID_COLLISION", CategoryIdentity)

	// E_BREF_COLLISION indicates two nodes in the same network derived
	// the same 12-character Bref. Triangulation falls back to the next
	// key in the resolution order; this code records the collision for
	// diagnostics even though it is recoverable.
	E_BREF_COLLISION = code("E_BREF_COLLISION", CategoryIdentity)

	// E_AMBIGUOUS_KEY indicates a NodeKey resolved to more than one node
	// at a priority tier that is supposed to be unique (e.g. two nodes
	// sharing a title slug within the same network).
	E_AMBIGUOUS_KEY = code("E_AMBIGUOUS_KEY", CategoryIdentity)
)

// Graph codes.
var (
	// E_DUPLICATE_NODE indicates insert_or_update_node was asked to create
	// a node whose BID already exists under a different Kind.
	E_DUPLICATE_NODE = code("E_DUPLICATE_NODE", CategoryGraph)

	// E_NODE_NOT_FOUND indicates an operation referenced a BID with no
	// corresponding node in the graph.
	E_NODE_NOT_FOUND = code("E_NODE_NOT_FOUND", CategoryGraph)

	// E_PATH_COLLISION names a breach of a network path map's bijectivity
	// invariant. graph.Store.SetPath does not emit it: binding a path that
	// is already bound to a different BID evicts the prior binding instead.
	E_PATH_COLLISION = code("E_PATH_COLLISION", CategoryGraph)

	// E_UNRESOLVED_REFERENCE indicates an edge could not be materialized
	// in the graph: the builder reports it at Error severity for a failed
	// section edge, and schema traversal at Warning severity for a failed
	// schema-declared edge. No fallback Keyword edge is recorded; a
	// reference still pending after the last round is reported as
	// E_DANGLING_PENDING.
	E_UNRESOLVED_REFERENCE = code("E_UNRESOLVED_REFERENCE", CategoryGraph)

	// E_DANGLING_PENDING indicates a PendingDependency was never resolved
	// by the time its owning network finished a parse round.
	E_DANGLING_PENDING = code("E_DANGLING_PENDING", CategoryGraph)
)

// Schema codes.
var (
	// E_UNKNOWN_SCHEMA indicates a node declared a schema name with no
	// matching registration.
	E_UNKNOWN_SCHEMA = code("E_UNKNOWN_SCHEMA", CategorySchema)

	// E_SCHEMA_OVERWRITE indicates RegisterSchema replaced an existing
	// registration under the same name. Info severity: last-registration-
	// wins is the documented policy, not a failure, but the overwrite is
	// still logged for operators.
	E_SCHEMA_OVERWRITE = code("E_SCHEMA_OVERWRITE", CategorySchema)

	// E_FIELD_VALIDATION_FAIL indicates a field value failed its schema
	// rule's validation. The field is dropped and the rest of the node is
	// inserted best-effort.
	E_FIELD_VALIDATION_FAIL = code("E_FIELD_VALIDATION_FAIL", CategorySchema)

	// E_INVALID_FIELD_RULE indicates a schema definition itself is
	// malformed (e.g. CreateEdges with no weight kind).
	E_INVALID_FIELD_RULE = code("E_INVALID_FIELD_RULE", CategorySchema)
)

// Codec codes.
var (
	// E_FORMAT_ERROR indicates a source file failed to parse under its
	// codec. Diagnostic-error severity. When a codec's Parse fails, none
	// of that file's nodes are inserted for the run; when InjectContext
	// fails for one proto-node, only that node's references are skipped.
	E_FORMAT_ERROR = code("E_FORMAT_ERROR", CategoryCodec)

	// E_UNSUPPORTED_FORMAT indicates a file extension has no registered
	// codec.
	E_UNSUPPORTED_FORMAT = code("E_UNSUPPORTED_FORMAT", CategoryCodec)

	// E_FRONTMATTER_INVALID indicates a frontmatter block failed to parse
	// as YAML (the only frontmatter format the Markdown codec decodes), or
	// used a reserved key incorrectly.
	E_FRONTMATTER_INVALID = code("E_FRONTMATTER_INVALID", CategoryCodec)

	// E_ANCHOR_COLLISION indicates two sections in the same document
	// normalized to the same anchor; the codec disambiguates by injecting
	// a Bref suffix and records this code for visibility.
	E_ANCHOR_COLLISION = code("E_ANCHOR_COLLISION", CategoryCodec)

	// E_LINK_REWRITE_FAIL indicates a referring document's link text could
	// not be updated after one of its targets moved — the referring
	// file's codec has no RewriteLinks support, the filesystem can't be
	// written to, or the referring file itself could not be read back.
	E_LINK_REWRITE_FAIL = code("E_LINK_REWRITE_FAIL", CategoryCodec)
)

// Compiler codes.
var (
	// E_PARSE_ROUND_EXCEEDED indicates convergence was not reached within
	// the bounded round count; the compiler stops and reports whatever
	// pending dependencies remain.
	E_PARSE_ROUND_EXCEEDED = code("E_PARSE_ROUND_EXCEEDED", CategoryCompiler)

	// E_STALE_READ indicates a file could not be read, or its mtime
	// changed again before the read completed. The compiler skips the
	// file for the rest of the run and does not record its mtime.
	E_STALE_READ = code("E_STALE_READ", CategoryCompiler)

	// E_TRANSACTION_FAILED indicates a cache transaction's apply or commit
	// step failed; the transaction is aborted and retried.
	E_TRANSACTION_FAILED = code("E_TRANSACTION_FAILED", CategoryCompiler)

	// E_CACHE_LOADED is an informational marker emitted once per compiler
	// run when the cache snapshot has been loaded into the session graph.
	// It is not a mutation event and carries no error weight; it exists so
	// an idempotent run (no files changed) still emits exactly one event,
	// distinguishing "nothing changed" from "nothing ran".
	E_CACHE_LOADED = code("E_CACHE_LOADED", CategoryCompiler)
)

// Watch codes.
var (
	// E_WATCH_IO indicates a filesystem watch or read operation failed.
	// The watch package does not emit it: a notifier error is logged and
	// the watch loop goes on.
	E_WATCH_IO = code("E_WATCH_IO", CategoryWatch)

	// E_WATCH_OVERFLOW indicates the underlying filesystem notifier
	// dropped events (e.g. fsnotify queue overflow). The watch package does
	// not emit it: an overflow is logged like any notifier error, and no
	// rescan of the network is made.
	E_WATCH_OVERFLOW = code("E_WATCH_OVERFLOW", CategoryWatch)
)

// allCodes contains all defined codes for AllCodes() and uniqueness verification.
var allCodes = []Code{
	// Sentinel
	E_LIMIT_REACHED,
	E_INTERNAL,
	// Identity
	E_INVALID_BID,
	E_BID_COLLISION,
	E_BREF_COLLISION,
	E_AMBIGUOUS_KEY,
	// Graph
	E_DUPLICATE_NODE,
	E_NODE_NOT_FOUND,
	E_PATH_COLLISION,
	E_UNRESOLVED_REFERENCE,
	E_DANGLING_PENDING,
	// Schema
	E_UNKNOWN_SCHEMA,
	E_SCHEMA_OVERWRITE,
	E_FIELD_VALIDATION_FAIL,
	E_INVALID_FIELD_RULE,
	// Codec
	E_FORMAT_ERROR,
	E_UNSUPPORTED_FORMAT,
	E_FRONTMATTER_INVALID,
	E_ANCHOR_COLLISION,
	E_LINK_REWRITE_FAIL,
	// Compiler
	E_PARSE_ROUND_EXCEEDED,
	E_STALE_READ,
	E_TRANSACTION_FAILED,
	E_CACHE_LOADED,
	// Watch
	E_WATCH_IO,
	E_WATCH_OVERFLOW,
}

// AllCodes returns all defined codes.
//
// This function is useful for tooling and testing. The returned slice is a
// copy; modifications do not affect the original.
func AllCodes() []Code {
	result := make([]Code, len(allCodes))
	copy(result, allCodes)
	return result
}

// CodesByCategory returns codes in the given category.
//
// The returned slice is a new allocation; modifications do not affect
// internal state.
func CodesByCategory(cat CodeCategory) []Code {
	var result []Code
	for _, c := range allCodes {
		if c.cat == cat {
			result = append(result, c)
		}
	}
	return result
}
