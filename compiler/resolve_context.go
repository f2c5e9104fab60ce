package compiler

import (
	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/codec"
	"github.com/beliefgraph/core/graph"
)

// fileResolveContext is the codec.ResolveContext a file's inject_context
// pass consults. It only ever triangulates against the session graph: by
// the time a round starts, the session has already absorbed the cache
// snapshot (step 1) and every file parsed so far this run, so a separate
// cached-graph fallback would be redundant here. The authoritative,
// edge-creating resolution still happens in builder.ResolveReference —
// this type exists only so codecs can disambiguate candidates during
// InjectContext.
type fileResolveContext struct {
	session  *graph.Store
	siblings []*codec.ProtoBeliefNode
}

func (r *fileResolveContext) Resolve(key bid.NodeKey) (bid.BID, bool) {
	return r.session.Resolve([]bid.NodeKey{key})
}

func (r *fileResolveContext) Siblings() []*codec.ProtoBeliefNode {
	return r.siblings
}
