package schema

// SchemaDefinition is an ordered list of field rules governing a node
// schema's payload shape and the edges that payload implies.
type SchemaDefinition struct {
	name  string
	rules []FieldRule
}

// NewSchemaDefinition builds a SchemaDefinition from its field rules. Rule
// order is preserved; forward traversal applies CreateEdges rules in this
// order.
func NewSchemaDefinition(name string, rules ...FieldRule) *SchemaDefinition {
	cloned := make([]FieldRule, len(rules))
	copy(cloned, rules)
	return &SchemaDefinition{name: name, rules: cloned}
}

// Name returns the schema's registered name.
func (d *SchemaDefinition) Name() string {
	if d == nil {
		return ""
	}
	return d.name
}

// Rules returns the schema's field rules, in declaration order.
func (d *SchemaDefinition) Rules() []FieldRule {
	if d == nil {
		return nil
	}
	return d.rules
}

// Rule returns the rule governing field, if one exists.
func (d *SchemaDefinition) Rule(field string) (FieldRule, bool) {
	if d == nil {
		return FieldRule{}, false
	}
	for _, r := range d.rules {
		if r.Field() == field {
			return r, true
		}
	}
	return FieldRule{}, false
}

// CreateEdgeRules returns the subset of rules with Kind CreateEdges, in
// declaration order.
func (d *SchemaDefinition) CreateEdgeRules() []FieldRule {
	if d == nil {
		return nil
	}
	var out []FieldRule
	for _, r := range d.rules {
		if r.Kind() == CreateEdges {
			out = append(out, r)
		}
	}
	return out
}
