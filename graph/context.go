package graph

import "github.com/beliefgraph/core/bid"

// Direction distinguishes an edge's orientation relative to a focal node
// in a [NodeContext].
type Direction uint8

const (
	// DirectionOut means the focal node is the edge's source.
	DirectionOut Direction = iota
	// DirectionIn means the focal node is the edge's sink.
	DirectionIn
)

func (d Direction) String() string {
	if d == DirectionIn {
		return "in"
	}
	return "out"
}

// Neighbor is one edge reachable from a [NodeContext]'s focal node,
// together with the neighbor node itself and its current path-map entry.
type Neighbor struct {
	Edge      *Edge
	Node      *Node
	Direction Direction
	Path      string // "" if neighbor has no path-map entry (e.g. not yet resolved)
}

// NodeContext is the primitive for rendering metadata panels and computing
// "what changed" deltas: a focal node, its home path/net, and all one-hop
// neighbors grouped by WeightKind and direction.
type NodeContext struct {
	Focal      *Node
	FocalPath  string
	Neighbors  map[WeightKind][]Neighbor
}

// GetContext returns the [NodeContext] for id, or (nil, false) if id is not
// in the store.
func (s *Store) GetContext(id bid.BID) (*NodeContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, false
	}

	ctx := &NodeContext{
		Focal:     node,
		Neighbors: make(map[WeightKind][]Neighbor),
	}
	if pm := s.paths[node.HomeNet()]; pm != nil {
		if path, ok := pm.pathByBID(id); ok {
			ctx.FocalPath = path
		}
	}

	for key, e := range s.edges {
		var dir Direction
		var neighborBID bid.BID
		switch id {
		case key.source:
			dir, neighborBID = DirectionOut, key.sink
		case key.sink:
			dir, neighborBID = DirectionIn, key.source
		default:
			continue
		}
		neighborNode := s.nodes[neighborBID]
		var path string
		if neighborNode != nil {
			if pm := s.paths[neighborNode.HomeNet()]; pm != nil {
				path, _ = pm.pathByBID(neighborBID)
			}
		}
		ctx.Neighbors[key.weight] = append(ctx.Neighbors[key.weight], Neighbor{
			Edge:      e,
			Node:      neighborNode,
			Direction: dir,
			Path:      path,
		})
	}

	return ctx, true
}
