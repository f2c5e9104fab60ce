package schema

import (
	"fmt"

	"github.com/beliefgraph/core/graph"
)

// RuleKind discriminates how a [FieldRule] governs a node's payload field.
type RuleKind uint8

const (
	// Identity declares that the field's value equals the node's own BID.
	// No function of this package checks it.
	Identity RuleKind = iota
	// StoreAsPayload treats the field as opaque data whose declared shape is
	// the rule's ValidationKind (and Constraint, for Scalar fields). No
	// function of this package checks a value against that shape.
	StoreAsPayload
	// CreateEdges treats the field's value as an enumeration of BIDs; each
	// becomes an edge of the rule's WeightKind on node upsert, and is
	// reconstructed from the graph's edges when the node is serialized.
	CreateEdges
)

// String returns the rule kind's name.
func (k RuleKind) String() string {
	switch k {
	case Identity:
		return "Identity"
	case StoreAsPayload:
		return "StoreAsPayload"
	case CreateEdges:
		return "CreateEdges"
	default:
		return fmt.Sprintf("RuleKind(%d)", k)
	}
}

// ValidationKind classifies the shape a field's value is expected to take.
type ValidationKind uint8

const (
	// Scalar is a single primitive value (string, int, float, bool).
	Scalar ValidationKind = iota
	// Table is an opaque nested map with no further structural validation.
	Table
	// MapOfBIDs is a string-keyed map whose values are BID strings.
	MapOfBIDs
	// ListOfBIDs is a list of BID strings.
	ListOfBIDs
	// StructuredList is a list of nested maps, each validated independently.
	StructuredList
)

// String returns the validation kind's name.
func (k ValidationKind) String() string {
	switch k {
	case Scalar:
		return "Scalar"
	case Table:
		return "Table"
	case MapOfBIDs:
		return "MapOfBIDs"
	case ListOfBIDs:
		return "ListOfBIDs"
	case StructuredList:
		return "StructuredList"
	default:
		return fmt.Sprintf("ValidationKind(%d)", k)
	}
}

// FieldRule governs a single payload field of a [SchemaDefinition]. Exactly
// one subset of its fields is meaningful, selected by Kind: Constraint for
// a StoreAsPayload field with Scalar validation; Weight and Direction for a
// CreateEdges field.
type FieldRule struct {
	field      string
	kind       RuleKind
	validation ValidationKind
	constraint Constraint
	weight     graph.WeightKind
	direction  graph.Direction
}

// IdentityRule builds a rule requiring field to equal the node's BID.
func IdentityRule(field string) FieldRule {
	return FieldRule{field: field, kind: Identity}
}

// StoreAsPayloadRule builds a rule treating field as opaque data, validated
// per validation. constraint is consulted only when validation is Scalar;
// it may be nil, meaning any scalar value is accepted.
func StoreAsPayloadRule(field string, validation ValidationKind, constraint Constraint) FieldRule {
	return FieldRule{field: field, kind: StoreAsPayload, validation: validation, constraint: constraint}
}

// CreateEdgesRule builds a rule materializing an edge of the given weight
// and direction for every BID field's value enumerates. validation must be
// ListOfBIDs or MapOfBIDs; it governs how the field's value is read on
// forward traversal and rebuilt on reverse traversal.
func CreateEdgesRule(field string, weight graph.WeightKind, direction graph.Direction, validation ValidationKind) FieldRule {
	return FieldRule{field: field, kind: CreateEdges, validation: validation, weight: weight, direction: direction}
}

// Field returns the payload field name this rule governs.
func (r FieldRule) Field() string { return r.field }

// Kind returns the rule's discriminator.
func (r FieldRule) Kind() RuleKind { return r.kind }

// Validation returns the rule's expected value shape. Meaningful for
// StoreAsPayload and CreateEdges rules.
func (r FieldRule) Validation() ValidationKind { return r.validation }

// Constraint returns the rule's scalar constraint, or nil if none was set.
// Meaningful for StoreAsPayload rules with Scalar validation.
func (r FieldRule) Constraint() Constraint { return r.constraint }

// Weight returns the WeightKind a CreateEdges rule materializes.
func (r FieldRule) Weight() graph.WeightKind { return r.weight }

// Direction returns whether the node owning this field is the edge source
// (DirectionOut) or sink (DirectionIn). Meaningful for CreateEdges rules.
func (r FieldRule) Direction() graph.Direction { return r.direction }
