package bid

import "fmt"

// KeyKind discriminates the variant held by a NodeKey.
type KeyKind uint8

const (
	// KeyBID identifies a node by its BID. Strongest; globally unique.
	KeyBID KeyKind = iota
	// KeyBref identifies a node by its derived Bref.
	KeyBref
	// KeyAnchor identifies a node by its normalized anchor. The key carries no
	// document or network scope; the graph store matches it store-wide.
	KeyAnchor
	// KeyTitle identifies a node by its title slug.
	KeyTitle
	// KeyPath identifies a node by (network, relative path[#anchor]).
	KeyPath
)

func (k KeyKind) String() string {
	switch k {
	case KeyBID:
		return "bid"
	case KeyBref:
		return "bref"
	case KeyAnchor:
		return "anchor"
	case KeyTitle:
		return "title"
	case KeyPath:
		return "path"
	default:
		return "unknown"
	}
}

// ResolutionOrder is the fixed priority order in which NodeKey kinds are
// tried when triangulating a reference: BID, then Bref, then Anchor, then
// Title, then Path. First hit wins.
var ResolutionOrder = [...]KeyKind{KeyBID, KeyBref, KeyAnchor, KeyTitle, KeyPath}

// NodeKey is a tagged union over the five ways a node can be addressed.
// Equality is by tag plus payload; use [NodeKey.Equal].
type NodeKey struct {
	kind    KeyKind
	bid     BID
	bref    Bref
	anchor  string
	title   string
	network BID
	relPath string
}

// BIDKey builds a NodeKey that addresses a node by its BID.
func BIDKey(id BID) NodeKey {
	return NodeKey{kind: KeyBID, bid: id}
}

// BrefKey builds a NodeKey that addresses a node by its Bref.
func BrefKey(b Bref) NodeKey {
	return NodeKey{kind: KeyBref, bref: b}
}

// AnchorKey builds a NodeKey that addresses a node by its normalized anchor.
func AnchorKey(anchor string) NodeKey {
	return NodeKey{kind: KeyAnchor, anchor: anchor}
}

// TitleKey builds a NodeKey that addresses a node by its title slug.
// title is stored verbatim; callers that mean to compare slugs should pass
// ToAnchor(title) already applied, mirroring how Title Slug keys are
// constructed from raw titles at the call sites in builder/codec.
func TitleKey(title string) NodeKey {
	return NodeKey{kind: KeyTitle, title: title}
}

// PathKey builds a NodeKey that addresses a node by its network-relative
// path, optionally with a trailing "#anchor" section reference.
func PathKey(network BID, relPath string) NodeKey {
	return NodeKey{kind: KeyPath, network: network, relPath: relPath}
}

// Kind reports which variant k holds.
func (k NodeKey) Kind() KeyKind { return k.kind }

// BID returns the held BID and true if k is a KeyBID.
func (k NodeKey) BID() (BID, bool) {
	return k.bid, k.kind == KeyBID
}

// Bref returns the held Bref and true if k is a KeyBref.
func (k NodeKey) Bref() (Bref, bool) {
	return k.bref, k.kind == KeyBref
}

// Anchor returns the held anchor and true if k is a KeyAnchor.
func (k NodeKey) Anchor() (string, bool) {
	return k.anchor, k.kind == KeyAnchor
}

// Title returns the held title and true if k is a KeyTitle.
func (k NodeKey) Title() (string, bool) {
	return k.title, k.kind == KeyTitle
}

// Path returns the held (network, relPath) pair and true if k is a KeyPath.
func (k NodeKey) Path() (BID, string, bool) {
	return k.network, k.relPath, k.kind == KeyPath
}

// Equal reports whether k and other hold the same tag and payload.
func (k NodeKey) Equal(other NodeKey) bool {
	if k.kind != other.kind {
		return false
	}
	switch k.kind {
	case KeyBID:
		return k.bid == other.bid
	case KeyBref:
		return k.bref == other.bref
	case KeyAnchor:
		return k.anchor == other.anchor
	case KeyTitle:
		return k.title == other.title
	case KeyPath:
		return k.network == other.network && k.relPath == other.relPath
	default:
		return false
	}
}

// String returns a debug-friendly representation, not a stable wire format.
func (k NodeKey) String() string {
	switch k.kind {
	case KeyBID:
		return fmt.Sprintf("bid(%s)", k.bid)
	case KeyBref:
		return fmt.Sprintf("bref(%s)", k.bref)
	case KeyAnchor:
		return fmt.Sprintf("anchor(%s)", k.anchor)
	case KeyTitle:
		return fmt.Sprintf("title(%s)", k.title)
	case KeyPath:
		return fmt.Sprintf("path(%s,%s)", k.network, k.relPath)
	default:
		return "unknown-key"
	}
}

// SortByPriority reorders keys in-place to match [ResolutionOrder], stable
// within a priority tier. Use before attempting resolution of a multi-key
// candidate so the first hit is always the highest-priority one.
func SortByPriority(keys []NodeKey) {
	rank := func(k NodeKey) int {
		for i, kind := range ResolutionOrder {
			if kind == k.kind {
				return i
			}
		}
		return len(ResolutionOrder)
	}
	// Insertion sort: candidate lists are small (a handful of keys per
	// reference), and stability matters more than asymptotic complexity.
	for i := 1; i < len(keys); i++ {
		j := i
		for j > 0 && rank(keys[j-1]) > rank(keys[j]) {
			keys[j-1], keys[j] = keys[j], keys[j-1]
			j--
		}
	}
}
