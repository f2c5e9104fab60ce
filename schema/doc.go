// Package schema provides the schema registry belief nodes validate and
// link against: named SchemaDefinitions built from field rules
// (IdentityRule, StoreAsPayloadRule, CreateEdgesRule). CreateEdges rules
// drive the automatic edge creation the compiler runs through ApplyForward.
// Identity and StoreAsPayload rules, and their Constraints, are declarations
// only: no function of this package checks a payload against them.
//
// # Overview
//
//   - Registry holds a thread-safe name -> SchemaDefinition map, seeded
//     with the four built-in schemas (Document, Section, Network,
//     External). Each NewRegistry call builds a separate Registry; there is
//     no package-level instance.
//   - SchemaDefinition bundles a name, its field rules, and its relation
//     rules (CreateEdges) behind an immutable value built once via
//     NewSchemaDefinition and never mutated afterward.
//   - Constraint is the closed set of payload field types (String,
//     Integer, Float, Boolean, Timestamp, Date, UUID, Enum, Pattern,
//     Vector, plus Alias for named indirection) a field rule checks a
//     node's payload value against.
//   - ApplyForward walks a SchemaDefinition's relation rules against a
//     node and its prior version, creating or removing graph edges to keep
//     derived relations in sync with payload changes; ApplyReverse rebuilds
//     those payload fields from the graph's edges.
//
// # Concurrency
//
// Registry is safe for concurrent Lookup/Register from multiple
// goroutines; SchemaDefinition and Constraint values are immutable once
// constructed and may be shared freely.
package schema
