package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Reply is the outcome of one submission: either *Success or *Failure.
type Reply interface {
	reply()
}

// Success holds the structured parts of a 2xx reply. Absent or null
// top-level fields are left nil; everything else in the body is ignored.
type Success struct {
	BriefAnalysis   json.RawMessage
	ProjectStrategy json.RawMessage
	// Raw is the full response body, kept for diagnostics.
	Raw json.RawMessage
}

func (*Success) reply() {}

// Empty reports whether the reply carries neither structured field.
func (s *Success) Empty() bool {
	return len(s.BriefAnalysis) == 0 && len(s.ProjectStrategy) == 0
}

// FailureKind classifies a failed submission.
type FailureKind int

const (
	// FailureTimeout means the call exceeded the time ceiling.
	FailureTimeout FailureKind = iota + 1
	// FailureRemote means the service answered with a non-success status.
	FailureRemote
	// FailureTransport means the request never produced a response.
	FailureTransport
	// FailureDecode means a success status carried a body that is not a
	// JSON object.
	FailureDecode
)

func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureRemote:
		return "remote"
	case FailureTransport:
		return "transport"
	case FailureDecode:
		return "decode"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

var (
	ErrTimeout   = errors.New("workflow: request timed out")
	ErrRemote    = errors.New("workflow: remote service returned an error")
	ErrTransport = errors.New("workflow: transport failure")
	ErrDecode    = errors.New("workflow: undecodable reply")
)

// Failure is a failed submission. Status and Body are only set for
// FailureRemote, and Body is the response text verbatim.
type Failure struct {
	Kind   FailureKind
	Status int
	Body   string
	Err    error
}

func (*Failure) reply() {}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailureRemote:
		if f.Body == "" {
			return fmt.Sprintf("workflow: remote error (%d)", f.Status)
		}
		return fmt.Sprintf("workflow: remote error (%d): %s", f.Status, f.Body)
	case FailureTimeout:
		return "workflow: request timed out"
	default:
		if f.Err != nil {
			return fmt.Sprintf("workflow: %s failure: %v", f.Kind, f.Err)
		}
		return fmt.Sprintf("workflow: %s failure", f.Kind)
	}
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches the sentinel for the failure kind.
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return f.Kind == FailureTimeout
	case ErrRemote:
		return f.Kind == FailureRemote
	case ErrTransport:
		return f.Kind == FailureTransport
	case ErrDecode:
		return f.Kind == FailureDecode
	}
	return false
}

// IsTimeout reports whether err is a timed-out submission.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
