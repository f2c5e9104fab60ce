package bid

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Bref is a 48-bit derived reference: the first 12 hex characters of a
// UUID-v5 hash of a BID's raw bytes under a fixed namespace. Brefs are a
// compact, human-typable alias for a BID and the fallback explicit anchor
// injected on title-slug collisions.
type Bref string

// DeriveBref computes Bref(bid) = lower12(uuidv5(bid.bytes(), BREF_NAMESPACE).hex).
func DeriveBref(id BID) Bref {
	h := uuid.NewSHA1(brefNamespace, id.Bytes())
	full := hex.EncodeToString(h[:])
	return Bref(strings.ToLower(full[:12]))
}

// String returns the Bref's string form.
func (b Bref) String() string {
	return string(b)
}

// IsZero reports whether b is the empty Bref.
func (b Bref) IsZero() bool {
	return b == ""
}

// IsValidBref reports whether s looks like a well-formed Bref: exactly 12
// lowercase hex characters.
func IsValidBref(s string) bool {
	if len(s) != 12 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
