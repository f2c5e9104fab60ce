package bid

import (
	"fmt"

	"github.com/google/uuid"
)

// BID is a 128-bit content-addressed node identifier, expressible in the
// canonical 8-4-4-4-12 hex-group form. A BID is immutable for the lifetime
// of the node it names and is computed deterministically from the node's
// provenance, never chosen arbitrarily.
type BID uuid.UUID

// Zero is the all-zero BID. No real node is ever assigned Zero; it is used
// as a sentinel for "no node" in call sites that need one.
var Zero BID

// Namespace UUIDs that seed the UUID-v5 derivations below. These are fixed
// constants of this system, not derived from any input; changing them would
// change every BID the system has ever minted.
var (
	documentNamespace = uuid.MustParse("6f1b2f2e-6e0a-4b1d-9c1a-9b6f9a7a2b10")
	externalNamespace = uuid.MustParse("b6f3f7b0-8f0f-4b34-9dc9-6f6c8e3ad1a4")
	brefNamespace     = uuid.MustParse("1c7a3b9e-2f0d-4a8d-8b9b-4d6f2f3e9a7c")
)

// NewDocumentBID derives the BID of a Document node from the BID of the
// network it lives in and its canonical path within that network.
//
// Deterministic: re-parsing the same document at the same path in the same
// network always yields the same BID.
func NewDocumentBID(networkBID BID, canonicalPath string) BID {
	data := append([]byte(networkBID.String()), 0)
	data = append(data, []byte(canonicalPath)...)
	return BID(uuid.NewSHA1(documentNamespace, data))
}

// NewSectionBID derives the BID of a Section node from the BID of the
// document that owns it, its heading slug, and its order index among
// siblings sharing that slug-derivation path.
//
// The owning document's BID is used as the UUID-v5 namespace: a section's
// identity is intrinsically scoped to its document.
func NewSectionBID(documentBID BID, headingSlug string, orderIndex int) BID {
	data := fmt.Appendf(nil, "%s\x00%d", headingSlug, orderIndex)
	return BID(uuid.NewSHA1(uuid.UUID(documentBID), data))
}

// NewNetworkBID derives the BID of a Network node from a stable identifier
// for the watched root (typically its canonicalized absolute path).
func NewNetworkBID(rootIdentifier string) BID {
	return BID(uuid.NewSHA1(documentNamespace, []byte("network\x00"+rootIdentifier)))
}

// NewExternalBID derives the BID of an External node from a content hash
// (e.g. a hex SHA-256 digest of the referenced asset).
func NewExternalBID(contentHash string) BID {
	return BID(uuid.NewSHA1(externalNamespace, []byte(contentHash)))
}

// String returns the canonical 8-4-4-4-12 hex-group representation.
func (b BID) String() string {
	return uuid.UUID(b).String()
}

// IsZero reports whether b is the Zero sentinel.
func (b BID) IsZero() bool {
	return b == Zero
}

// Bytes returns the 16 raw bytes of the identifier.
func (b BID) Bytes() []byte {
	u := uuid.UUID(b)
	return u[:]
}

// ParseBID parses the canonical string form of a BID.
func ParseBID(s string) (BID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Zero, fmt.Errorf("bid: invalid BID %q: %w", s, err)
	}
	return BID(u), nil
}

// MarshalText implements encoding.TextMarshaler.
func (b BID) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BID) UnmarshalText(text []byte) error {
	parsed, err := ParseBID(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
