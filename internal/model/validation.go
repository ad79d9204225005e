package model

// ValidationError carries per-field validation messages. Handlers render it
// as a 422 response with an errors object keyed by field name.
type ValidationError struct {
	Errors map[string][]string
}

// NewValidationError creates an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Errors: make(map[string][]string)}
}

// Add appends a message for a field.
func (e *ValidationError) Add(field, message string) {
	e.Errors[field] = append(e.Errors[field], message)
}

// HasErrors reports whether any field failed validation.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) Error() string {
	return "the given data was invalid"
}
