package graph

import (
	"errors"
	"fmt"
)

// Error sentinels for internal store failures. These indicate programmer
// errors or invariant violations, not data issues. A refused mutation (BID
// collision across kinds, invalid edge endpoint, self-loop) is reported
// both by one of these sentinels and as an issue in Store.Diagnostics — see §7's distinction between bugs and
// recoverable input problems.
var (
	// ErrInternal is the base error for internal store failures.
	ErrInternal = errors.New("internal graph store failure")

	// ErrNilStore indicates a method was called on a nil *Store receiver.
	ErrNilStore = fmt.Errorf("%w: nil *Store receiver", ErrInternal)

	// ErrNilNode indicates a nil *Node was passed to InsertOrUpdateNode.
	ErrNilNode = fmt.Errorf("%w: nil *Node passed to InsertOrUpdateNode", ErrInternal)

	// ErrNilEdge indicates a nil *Edge was passed to UpsertEdge.
	ErrNilEdge = fmt.Errorf("%w: nil *Edge passed to UpsertEdge", ErrInternal)

	// ErrDuplicateNode indicates InsertOrUpdateNode was asked to store a
	// node whose BID already exists under a different Kind. See
	// diag.E_DUPLICATE_NODE for the recoverable-diagnostic counterpart
	// collected alongside this error.
	ErrDuplicateNode = fmt.Errorf("%w: node BID collides across kinds", ErrInternal)

	// ErrSelfLoop indicates UpsertEdge was asked to create an edge whose
	// source and sink are the same BID; the graph permits no self-loops.
	ErrSelfLoop = fmt.Errorf("%w: edge source and sink are identical", ErrInternal)

	// ErrMissingEndpoint indicates UpsertEdge was asked to create an edge
	// referencing a BID with no corresponding node in the store.
	ErrMissingEndpoint = fmt.Errorf("%w: edge endpoint does not exist", ErrInternal)
)
