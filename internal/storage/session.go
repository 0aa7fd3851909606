package storage

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrSessionClosed is returned for writes to a session discarded by Reset.
	ErrSessionClosed = errors.New("session has been reset")
	// ErrSubmissionInFlight is returned when a second submission is started
	// before the first one finished.
	ErrSubmissionInFlight = errors.New("a submission is already in flight for this session")
	// ErrNoSubmission is returned by EndSubmission when nothing was in flight.
	ErrNoSubmission = errors.New("no submission in flight")
)

// FlightState tracks the one outstanding submission a session may have.
type FlightState int

const (
	FlightIdle FlightState = iota
	FlightInFlight
	FlightCompleted
)

func (f FlightState) String() string {
	switch f {
	case FlightIdle:
		return "idle"
	case FlightInFlight:
		return "in_flight"
	case FlightCompleted:
		return "completed"
	default:
		return fmt.Sprintf("FlightState(%d)", int(f))
	}
}

// MarshalText encodes the state by name.
func (f FlightState) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

var sessionSeq atomic.Uint64

// newSessionID derives an identity from the wall clock plus a process-wide
// sequence so two sessions minted in the same second still differ.
func newSessionID(now time.Time) string {
	return fmt.Sprintf("session-%s-%04d", now.Format("20060102-150405"), sessionSeq.Add(1))
}

// Session is one conversation. Its identity never changes; Reset replaces the
// whole Session instead.
type Session struct {
	mu        sync.RWMutex
	id        string
	createdAt time.Time
	updatedAt time.Time
	messages  []Message
	strategy  *ProjectStrategy
	flight    FlightState
	closed    bool
}

func newSession(now time.Time) *Session {
	return &Session{
		id:        newSessionID(now),
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the session identity.
func (s *Session) ID() string { return s.id }

// ShortID returns the display form of the identity.
func (s *Session) ShortID() string {
	if len(s.id) <= 16 {
		return s.id
	}
	return s.id[len("session-"):]
}

// CreatedAt returns when the session was minted.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Messages returns a copy of the transcript in insertion order.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Strategy returns a copy of the latest strategy, or nil.
func (s *Session) Strategy() *ProjectStrategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strategy.Clone()
}

// Flight returns the submission state.
func (s *Session) Flight() FlightState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flight
}

// Closed reports whether the session was discarded by Reset.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Summary returns a lightweight view of the session.
func (s *Session) Summary() SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionSummary{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
		MessageCount: len(s.messages),
		State:        s.flight,
		HasStrategy:  s.strategy != nil,
	}
}

// Metrics returns the display snapshot of the current strategy.
func (s *Session) Metrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return MetricsFor(s.strategy)
}
