package analysis

import "fmt"

// StructuralError reports a reply field that is present but has the wrong
// shape. Missing optional fields never produce one.
type StructuralError struct {
	Field  string
	Reason string
	Err    error
}

func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s: %s", e.Field, e.Reason)
}

func (e *StructuralError) Unwrap() error { return e.Err }

func structural(field, reason string, err error) *StructuralError {
	return &StructuralError{Field: field, Reason: reason, Err: err}
}
