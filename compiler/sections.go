package compiler

import (
	"strings"

	"github.com/beliefgraph/core/bid"
	"github.com/beliefgraph/core/codec"
	"github.com/beliefgraph/core/immutable"
)

// sectionOverride is one entry of a document's "sections" reserved key: a
// metadata table to merge into whichever sibling proto-node the key
// addresses.
type sectionOverride struct {
	target string // explicit BID string, anchor, or title, exactly as written
	fields immutable.Map[string]
}

// extractSections pulls the "sections" reserved key off a document's
// top-level payload, if present. The key's own entry is left in payload;
// callers strip reserved fields separately via extractReserved.
func extractSections(payload immutable.Properties) []sectionOverride {
	v, ok := payload.Get("sections")
	if !ok {
		return nil
	}
	table, ok := v.Map()
	if !ok {
		return nil
	}
	out := make([]sectionOverride, 0, table.Len())
	for key, value := range table.Range() {
		fields, ok := value.Map()
		if !ok {
			continue
		}
		out = append(out, sectionOverride{target: key, fields: fields})
	}
	return out
}

// applySections merges each override's metadata table into the payload of
// whichever proto in protos it addresses, per the triangulation precedence
// documented on bid.NodeKey: an explicit "bid://<uuid>" wins outright, a
// literal anchor match is tried next, and a slugified-title match last. A
// target matching no proto is silently dropped — a later round may add the
// heading it refers to, but sections never creates a PendingDependency of
// its own.
func applySections(protos []*codec.ProtoBeliefNode, overrides []sectionOverride) {
	for _, ov := range overrides {
		proto := resolveSectionTarget(protos, ov.target)
		if proto == nil {
			continue
		}
		merged := proto.Payload.Clone()
		if merged == nil {
			merged = make(map[string]any, ov.fields.Len())
		}
		for key, value := range ov.fields.Range() {
			merged[key] = value.Unwrap()
		}
		proto.Payload = immutable.WrapPropertiesClone(merged)
	}
}

func resolveSectionTarget(protos []*codec.ProtoBeliefNode, target string) *codec.ProtoBeliefNode {
	if raw, ok := strings.CutPrefix(target, "bid://"); ok {
		if id, err := bid.ParseBID(raw); err == nil {
			for _, proto := range protos {
				if proto.BID == id {
					return proto
				}
			}
		}
		return nil
	}

	for _, proto := range protos {
		if proto.Anchor != "" && proto.Anchor == target {
			return proto
		}
	}

	slug := bid.ToAnchor(target)
	for _, proto := range protos {
		if proto.Anchor != "" && proto.Anchor == slug {
			return proto
		}
		if bid.ToAnchor(proto.Title) == slug {
			return proto
		}
	}
	return nil
}
