package diag

// Detail provides key-value context for diagnostic issues.
//
// Details are used to add structured information to issues that can be
// programmatically inspected by tools. Use the standard detail key constants
// to ensure consistent key naming across the codebase.
type Detail struct {
	Key   string
	Value string
}

// Standard detail keys for consistent diagnostic metadata.
//
// Use these constants to avoid stringly-typed drift and enable programmatic
// inspection of diagnostic details. Custom detail keys are permitted for
// domain-specific diagnostics; use lower_snake_case for custom keys.
const (
	// DetailKeyExpected is the expected value or type.
	DetailKeyExpected = "expected"

	// DetailKeyGot is the actual value or type received.
	DetailKeyGot = "got"

	// DetailKeyBID is the BID involved in the diagnostic.
	DetailKeyBID = "bid"

	// DetailKeyBref is the Bref involved in the diagnostic.
	DetailKeyBref = "bref"

	// DetailKeyAnchor is the anchor slug involved in the diagnostic.
	DetailKeyAnchor = "anchor"

	// DetailKeyPath is the network-relative path involved in the diagnostic.
	DetailKeyPath = "path"

	// DetailKeySchema is the schema name involved in the diagnostic.
	DetailKeySchema = "schema"

	// DetailKeyField is the data-level field name (for unknown/dropped fields).
	DetailKeyField = "field"

	// DetailKeyReason is the failure reason discriminant.
	// Used with E_UNRESOLVED_REFERENCE ("absent", "ambiguous", "target_missing")
	// and E_DANGLING_PENDING.
	DetailKeyReason = "reason"

	// DetailKeyDetail is the specific error description (parse error,
	// validation reason).
	DetailKeyDetail = "detail"

	// DetailKeyFormat is the codec format identifier (e.g., "markdown", "toml", "json").
	DetailKeyFormat = "format"

	// DetailKeyKeyKind is the NodeKey kind tried during triangulation
	// (e.g., "bid", "bref", "anchor", "title", "path").
	DetailKeyKeyKind = "key_kind"

	// DetailKeyRound is the parse round number (for compiler diagnostics).
	DetailKeyRound = "round"

	// DetailKeyContext is contextual information (e.g., "GraphBuilder", "DocumentCompiler").
	DetailKeyContext = "context"

	// DetailKeyId is a generic identifier value (e.g., synthetic SourceID).
	DetailKeyId = "id"

	// DetailKeyNetwork is the network BID a diagnostic belongs to.
	DetailKeyNetwork = "network"
)

// ExpectedGot creates a pair of details for value mismatch diagnostics.
//
// This is the standard pattern for reporting "expected X, got Y" errors.
func ExpectedGot(expected, got string) []Detail {
	return []Detail{
		{Key: DetailKeyExpected, Value: expected},
		{Key: DetailKeyGot, Value: got},
	}
}

// SchemaField creates detail entries for schema+field diagnostics.
//
// Use for diagnostics involving a specific field under a schema, such as
// E_FIELD_VALIDATION_FAIL.
func SchemaField(schemaName, fieldName string) []Detail {
	return []Detail{
		{Key: DetailKeySchema, Value: schemaName},
		{Key: DetailKeyField, Value: fieldName},
	}
}

// KeyAttempt creates detail entries recording one triangulation attempt.
//
// Use when reporting E_UNRESOLVED_REFERENCE or E_AMBIGUOUS_KEY to show
// which key kind and value were tried.
func KeyAttempt(kind, value string) []Detail {
	return []Detail{
		{Key: DetailKeyKeyKind, Value: kind},
		{Key: DetailKeyGot, Value: value},
	}
}

// PathNetwork creates detail entries for path/network diagnostics.
//
// Use for diagnostics like E_PATH_COLLISION.
func PathNetwork(path, network string) []Detail {
	return []Detail{
		{Key: DetailKeyPath, Value: path},
		{Key: DetailKeyNetwork, Value: network},
	}
}
