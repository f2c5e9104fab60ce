package schema

// Built-in schema names, seeded into every [Registry] at construction and
// addressable from a node's Schema field to select them explicitly.
const (
	BuiltinDocument = "Document"
	BuiltinSection  = "Section"
	BuiltinNetwork  = "Network"
	BuiltinExternal = "External"
)

// builtinSchemas returns the built-in schema definitions every Registry is
// seeded with. Each covers only the fields common to every node of its
// kind; a caller can [Registry.Register] a richer schema under a name that
// a node's Schema field (set from its `schema` frontmatter key) selects,
// last-registration-wins.
func builtinSchemas() []*SchemaDefinition {
	return []*SchemaDefinition{
		NewSchemaDefinition(BuiltinDocument,
			IdentityRule("bid"),
			StoreAsPayloadRule("title", Scalar, nil),
			StoreAsPayloadRule("frontmatter", Table, nil),
		),
		NewSchemaDefinition(BuiltinSection,
			IdentityRule("bid"),
			StoreAsPayloadRule("title", Scalar, nil),
			StoreAsPayloadRule("level", Scalar, NewIntegerConstraintBounded(1, true, 6, true)),
		),
		NewSchemaDefinition(BuiltinNetwork,
			IdentityRule("bid"),
			StoreAsPayloadRule("root", Scalar, nil),
		),
		NewSchemaDefinition(BuiltinExternal,
			IdentityRule("bid"),
			StoreAsPayloadRule("url", Scalar, nil),
		),
	}
}
