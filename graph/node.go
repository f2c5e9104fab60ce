package graph

import (
	"reflect"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/immutable"
)

// Kind discriminates the four node kinds the core recognizes.
//
// Kind determines a node's default lifecycle and which WeightKinds of edge
// are legal at each endpoint (e.g., only a Document or Section may own a
// Section edge as its source).
type Kind uint8

const (
	// KindNetwork is the root container node for one watched tree.
	KindNetwork Kind = iota
	// KindDocument is a whole parsed file.
	KindDocument
	// KindSection is a heading-delimited piece of a Document.
	KindSection
	// KindExternal is an asset or URL referenced from a Document or Section.
	KindExternal
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindDocument:
		return "document"
	case KindSection:
		return "section"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Node represents one addressable piece of meaning: a whole document, a
// heading-delimited section, a network container, or an externally
// referenced resource.
//
// Node is immutable once constructed. [Store.InsertOrUpdateNode] replaces a
// changed node with a newly constructed Node rather than mutating fields in
// place, so callers holding a *Node from an earlier snapshot never observe
// a torn read.
type Node struct {
	bid      bid.BID
	kind     Kind
	schema   string
	title    string
	anchor   string
	payload  immutable.Properties
	homePath string
	homeNet  bid.BID
}

// NewNode constructs a Node. homeNet is the BID of the owning Network node;
// it is the zero BID for the Network node itself. anchor is the node's
// normalized heading anchor (Document/Section kinds only): either an
// explicit `{#anchor}` attribute carried over from the source, or "" to let
// the store derive one from title via [bid.ToAnchor] on demand. Pass a
// non-empty anchor only when the source declared one explicitly or a prior
// collision forced one to be injected — see [bid.ToAnchor]'s doc comment
// for when a derived slug and an explicit anchor diverge.
func NewNode(id bid.BID, kind Kind, homeNet bid.BID, schemaName, title, anchor, homePath string, payload immutable.Properties) *Node {
	return &Node{
		bid:      id,
		kind:     kind,
		schema:   schemaName,
		title:    title,
		anchor:   anchor,
		payload:  payload,
		homePath: homePath,
		homeNet:  homeNet,
	}
}

// BID returns the node's content-addressed identifier.
func (n *Node) BID() bid.BID {
	if n == nil {
		return bid.Zero
	}
	return n.bid
}

// Kind returns the node's kind.
func (n *Node) Kind() Kind {
	if n == nil {
		return 0
	}
	return n.kind
}

// Schema returns the name of the registered schema validating this node's
// payload, or "" if the node has no declared schema.
func (n *Node) Schema() string {
	if n == nil {
		return ""
	}
	return n.schema
}

// Title returns the node's human-readable display string.
func (n *Node) Title() string {
	if n == nil {
		return ""
	}
	return n.title
}

// Anchor returns the node's explicit normalized anchor, or "" if none was
// declared (callers should fall back to [bid.ToAnchor](Title()) in that
// case).
func (n *Node) Anchor() string {
	if n == nil {
		return ""
	}
	return n.anchor
}

// Payload returns the node's schema-validated record.
func (n *Node) Payload() immutable.Properties {
	if n == nil {
		return immutable.Properties{}
	}
	return n.payload
}

// HomePath returns the resolved filesystem path (Document/Section) or
// stable locator (External) at which this node currently lives. Network
// nodes return "".
func (n *Node) HomePath() string {
	if n == nil {
		return ""
	}
	return n.homePath
}

// HomeNet returns the BID of the Network node this node belongs to. For
// the Network node itself, this is [bid.Zero].
func (n *Node) HomeNet() bid.BID {
	if n == nil {
		return bid.Zero
	}
	return n.homeNet
}

// sameStructure reports whether n and other have identical fields other
// than BID, which the caller has already matched. Used by
// [Store.InsertOrUpdateNode] to distinguish Updated from Unchanged.
func (n *Node) sameStructure(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.kind != other.kind || n.schema != other.schema ||
		n.title != other.title || n.anchor != other.anchor ||
		n.homePath != other.homePath || n.homeNet != other.homeNet {
		return false
	}
	return propertiesEqual(n.payload, other.payload)
}

// propertiesEqual compares two Properties values structurally via their
// cloned map representation. Properties exposes no Equal method of its
// own, so comparison goes through [immutable.Properties.Clone].
func propertiesEqual(a, b immutable.Properties) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Len() == 0 {
		return true
	}
	ac, bc := a.Clone(), b.Clone()
	if len(ac) != len(bc) {
		return false
	}
	for k, av := range ac {
		bv, ok := bc[k]
		if !ok || !reflect.DeepEqual(av, bv) {
			return false
		}
	}
	return true
}
