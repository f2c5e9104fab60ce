package compiler

import (
	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/immutable"
)

// reservedFields lists the frontmatter/payload keys §6 reserves across
// every codec's document-level node: bid (identity override), schema
// (registration name), title (already folded into ProtoBeliefNode.Title by
// every codec, but left in the raw table too), and sections (per-heading
// metadata overrides, consumed by extractSections/applySections before
// extractReserved runs).
var reservedFields = []string{"bid", "schema", "title", "sections"}

// extractReserved reads the schema name and an optional BID override out
// of payload, returning payload with every reserved key stripped so the
// stored node payload carries only caller-declared fields.
func extractReserved(payload immutable.Properties) (schemaName string, override bid.BID, hasOverride bool, stripped immutable.Properties) {
	if v, ok := payload.Get("schema"); ok {
		schemaName, _ = v.String()
	}
	if v, ok := payload.Get("bid"); ok {
		if s, ok := v.String(); ok {
			if parsed, err := bid.ParseBID(s); err == nil {
				override, hasOverride = parsed, true
			}
		}
	}

	fields := payload.Clone()
	for _, key := range reservedFields {
		delete(fields, key)
	}
	stripped = immutable.WrapPropertiesClone(fields)
	return schemaName, override, hasOverride, stripped
}
