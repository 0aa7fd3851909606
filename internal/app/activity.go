package app

import (
	"github.com/tfmusic/workflow-assistant/internal/events"
	"github.com/tfmusic/workflow-assistant/internal/storage"
)

// Activity is the payload of session events.
type Activity struct {
	Outcome   string           `json:"outcome,omitempty"`
	Notice    string           `json:"notice,omitempty"`
	Committed int              `json:"committed"`
	ElapsedMS int64            `json:"elapsed_ms,omitempty"`
	Metrics   *storage.Metrics `json:"metrics,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func (a *Assistant) publishTurn(s *storage.Session, turn *Turn, err error) {
	if err != nil {
		a.events.Publish(events.SubmissionFailed, s.ID(), Activity{Error: err.Error()})
		return
	}
	metrics := s.Metrics()
	a.events.Publish(events.TurnCompleted, s.ID(), Activity{
		Outcome:   turn.Outcome.String(),
		Notice:    turn.Notice,
		Committed: len(turn.Messages),
		ElapsedMS: turn.Elapsed.Milliseconds(),
		Metrics:   &metrics,
	})
}

// CreateSession registers a new session and announces it.
func (a *Assistant) CreateSession() *storage.Session {
	s := a.store.CreateSession()
	a.events.Publish(events.SessionCreated, s.ID(), Activity{})
	return s
}

// Reset replaces s with a fresh session. The reset event is published on the
// old identity so its subscribers learn where the conversation went.
func (a *Assistant) Reset(s *storage.Session) *storage.Session {
	fresh := a.store.Reset(s)
	if s != nil {
		a.events.Publish(events.SessionReset, s.ID(), Activity{Notice: fresh.ID()})
	}
	a.events.Publish(events.SessionCreated, fresh.ID(), Activity{})
	return fresh
}
