package graph

import (
	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/immutable"
)

// PendingDependency records an edge whose sink does not yet exist in the
// store. It is held in a side table keyed by the unresolved [bid.NodeKey]
// until a node matching that key is inserted (see [Store.InsertOrUpdateNode])
// or it is garbage-collected by a caller (typically the compiler, after
// exhausting its retry rounds).
//
// This is a relation-and-lookup record, never an ownership edge: holding a
// PendingDependency does not keep the referenced node alive, and resolving
// it never creates a reference cycle through the store itself.
type PendingDependency struct {
	// Owner is the BID that declared the edge.
	Owner bid.BID
	// Target is the unresolved key the owner's edge pointed at.
	Target bid.NodeKey
	// Weight is the WeightKind the edge will carry once resolved.
	Weight WeightKind
	// Payload is the edge payload to attach once resolved.
	Payload immutable.Properties
}
