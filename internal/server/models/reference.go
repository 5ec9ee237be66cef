package models

// Template is a jurisdiction-specific document template served to clients as
// offline reference data.
type Template struct {
	ID           string
	Jurisdiction string
	Kind         string
	Title        string
	Body         string
}

// ValidationRule is a field-level constraint for documents of a jurisdiction.
type ValidationRule struct {
	ID           string
	Jurisdiction string
	Field        string
	Rule         string
	Message      string
}
