// Package storage holds conversation state for the lifetime of the process.
package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Store defines operations on conversation state. Callers own the *Session
// they receive and pass it back explicitly to every operation.
type Store interface {
	// Sessions
	CreateSession() *Session
	GetSession(id string) (*Session, bool)
	ListSessions() []SessionSummary
	Reset(s *Session) *Session

	// Messages
	AppendMessage(s *Session, role Role, content Content) (Message, error)
	AppendMessages(s *Session, batch ...NewMessage) ([]Message, error)

	// Strategy
	SetStrategy(s *Session, strategy *ProjectStrategy) error

	// Submission lifecycle
	BeginSubmission(s *Session) error
	EndSubmission(s *Session) error
}

// MemoryStore implements Store on an in-process cache keyed by session ID.
type MemoryStore struct {
	cache *cache.Cache
	now   func() time.Time
}

// NewMemoryStore creates a store. Sessions untouched for idleTTL are evicted;
// zero keeps them for the life of the process.
func NewMemoryStore(idleTTL time.Duration) *MemoryStore {
	cleanup := time.Duration(0)
	if idleTTL > 0 {
		cleanup = idleTTL / 2
	}
	return &MemoryStore{
		cache: cache.New(idleTTL, cleanup),
		now:   time.Now,
	}
}

// CreateSession mints and registers a new, empty session.
func (m *MemoryStore) CreateSession() *Session {
	s := newSession(m.now())
	m.cache.Set(s.id, s, cache.DefaultExpiration)
	return s
}

// GetSession looks a session up by identity.
func (m *MemoryStore) GetSession(id string) (*Session, bool) {
	if x, found := m.cache.Get(id); found {
		return x.(*Session), true
	}
	return nil, false
}

// ListSessions returns summaries of live sessions, newest first.
func (m *MemoryStore) ListSessions() []SessionSummary {
	items := m.cache.Items()
	out := make([]SessionSummary, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*Session).Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of live sessions.
func (m *MemoryStore) Count() int {
	return m.cache.ItemCount()
}

// Reset discards s and returns a brand-new session. The old value is closed
// so late writes against it fail instead of leaking into the new one.
func (m *MemoryStore) Reset(s *Session) *Session {
	if s != nil {
		s.mu.Lock()
		s.closed = true
		s.messages = nil
		s.strategy = nil
		s.mu.Unlock()
		m.cache.Delete(s.id)
	}
	return m.CreateSession()
}

// AppendMessage appends a single message.
func (m *MemoryStore) AppendMessage(s *Session, role Role, content Content) (Message, error) {
	msgs, err := m.AppendMessages(s, NewMessage{Role: role, Content: content})
	if err != nil {
		return Message{}, err
	}
	return msgs[0], nil
}

// AppendMessages appends a batch atomically: either every message is added,
// in order, or none is.
func (m *MemoryStore) AppendMessages(s *Session, batch ...NewMessage) ([]Message, error) {
	if s == nil {
		return nil, fmt.Errorf("append message: nil session")
	}
	for i, nm := range batch {
		if !nm.Role.Valid() {
			return nil, fmt.Errorf("append message %d: invalid role %q", i, nm.Role)
		}
		if err := nm.Content.validate(); err != nil {
			return nil, fmt.Errorf("append message %d: %w", i, err)
		}
	}

	now := m.now()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	out := make([]Message, 0, len(batch))
	for _, nm := range batch {
		msg := Message{
			ID:        uuid.New().String(),
			SessionID: s.id,
			Role:      nm.Role,
			Content:   nm.Content,
			Position:  len(s.messages),
			CreatedAt: now,
		}
		s.messages = append(s.messages, msg)
		out = append(out, msg)
	}
	s.updatedAt = now
	s.mu.Unlock()

	m.touch(s)
	return out, nil
}

// SetStrategy replaces the session's strategy wholesale.
func (m *MemoryStore) SetStrategy(s *Session, strategy *ProjectStrategy) error {
	if s == nil {
		return fmt.Errorf("set strategy: nil session")
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.strategy = strategy.Clone()
	s.updatedAt = m.now()
	s.mu.Unlock()

	m.touch(s)
	return nil
}

// BeginSubmission moves the session to in-flight.
func (m *MemoryStore) BeginSubmission(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.flight == FlightInFlight {
		return ErrSubmissionInFlight
	}
	s.flight = FlightInFlight
	return nil
}

// EndSubmission marks the outstanding submission completed, whatever its
// outcome.
func (m *MemoryStore) EndSubmission(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flight != FlightInFlight {
		return ErrNoSubmission
	}
	s.flight = FlightCompleted
	return nil
}

// touch refreshes the idle timer of a live session.
func (m *MemoryStore) touch(s *Session) {
	if _, found := m.cache.Get(s.id); found {
		m.cache.Set(s.id, s, cache.DefaultExpiration)
	}
}

var _ Store = (*MemoryStore)(nil)
