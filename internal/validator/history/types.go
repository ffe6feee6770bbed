package history

// ValidationIssue represents a single validation issue
type ValidationIssue struct {
	Type    string `json:"type"` // "warn", "error"
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationResult represents the complete validation result
type ValidationResult struct {
	Version     int               `json:"version"`
	GeneratedAt string            `json:"generated_at"`
	File        string            `json:"file"`
	Kind        string            `json:"kind"`
	Issues      []ValidationIssue `json:"issues"`
	Summary     Summary           `json:"summary"`
}

// Summary contains validation statistics
type Summary struct {
	Entries int `json:"entries"`
	Warn    int `json:"warn"`
	Error   int `json:"error"`
}

// OK reports whether the file has no errors.
func (r *ValidationResult) OK() bool {
	return r.Summary.Error == 0
}
