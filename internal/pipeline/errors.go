package pipeline

// ValidationError reports rejected caller input before any pipeline work
// starts.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Detail
}

// Code returns the stable API error code.
func (e *ValidationError) Code() string { return "validation_error" }

// errEmptyQuery is the one validation failure the query path produces.
func errEmptyQuery() *ValidationError {
	return &ValidationError{Detail: "query must not be empty"}
}
