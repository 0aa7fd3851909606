package brief

import "fmt"

// BuildError reports input that cannot be turned into a payload. It is raised
// before any network call is attempted.
type BuildError struct {
	Kind   InputKind
	Reason string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot build %s brief: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot build %s brief: %s", e.Kind, e.Reason)
}

func (e *BuildError) Unwrap() error { return e.Err }

func buildErr(kind InputKind, reason string, err error) *BuildError {
	return &BuildError{Kind: kind, Reason: reason, Err: err}
}
