package validate

// StructuralError is a malformed front matter or section problem.
// It is reported in a verdict's error list and never aborts a run.
type StructuralError struct {
	Field   string // Front matter key or section title, if any
	Message string
	Warning bool // Reported but does not invalidate the draft
}

func (e *StructuralError) Error() string {
	return e.Message
}

func structural(field, msg string) *StructuralError {
	return &StructuralError{Field: field, Message: msg}
}

func warning(field, msg string) *StructuralError {
	return &StructuralError{Field: field, Message: msg, Warning: true}
}

// IsWarning reports whether err is a warning-level structural error
func IsWarning(err error) bool {
	se, ok := err.(*StructuralError)
	return ok && se.Warning
}
