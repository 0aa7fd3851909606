package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tfmusic/workflow-assistant/internal/analysis"
	"github.com/tfmusic/workflow-assistant/internal/app"
	"github.com/tfmusic/workflow-assistant/internal/brief"
	"github.com/tfmusic/workflow-assistant/internal/storage"
)

const maxBriefBytes = 10 << 20

// sessionResponse is the full view of one session.
type sessionResponse struct {
	storage.SessionSummary
	Messages []storage.Message       `json:"messages"`
	Strategy *storage.ProjectStrategy `json:"strategy,omitempty"`
	Metrics  storage.Metrics          `json:"metrics"`
}

func newSessionResponse(s *storage.Session) sessionResponse {
	messages := s.Messages()
	if messages == nil {
		messages = []storage.Message{}
	}
	return sessionResponse{
		SessionSummary: s.Summary(),
		Messages:       messages,
		Strategy:       s.Strategy(),
		Metrics:        s.Metrics(),
	}
}

// briefRequest carries exactly one of its fields.
type briefRequest struct {
	Text     *string         `json:"text,omitempty"`
	Table    *brief.Table    `json:"table,omitempty"`
	Document *brief.Document `json:"document,omitempty"`
}

func (b briefRequest) input() (brief.RawInput, error) {
	var (
		input brief.RawInput
		set   int
	)
	if b.Text != nil {
		input = brief.Text{Body: *b.Text}
		set++
	}
	if b.Table != nil {
		input = *b.Table
		set++
	}
	if b.Document != nil {
		input = *b.Document
		set++
	}
	if set != 1 {
		return nil, errors.New("exactly one of text, table or document is required")
	}
	return input, nil
}

// turnResponse reports a submission that reached the analysis service.
type turnResponse struct {
	Outcome   app.Outcome              `json:"outcome"`
	Notice    string                   `json:"notice"`
	Messages  []storage.Message        `json:"messages"`
	Sections  []analysis.Section       `json:"sections,omitempty"`
	Markdown  string                   `json:"markdown,omitempty"`
	Strategy  *storage.ProjectStrategy `json:"strategy,omitempty"`
	Metrics   storage.Metrics          `json:"metrics"`
	ElapsedMS int64                    `json:"elapsed_ms"`
	Error     string                   `json:"error,omitempty"`
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.ListSessions()
	if sessions == nil {
		sessions = []storage.SessionSummary{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	session := s.assistant.CreateSession()
	s.logger.Info("Session created", "session", session.ID())
	s.writeJSON(w, http.StatusCreated, newSessionResponse(session))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}
	fresh := s.assistant.Reset(session)
	s.logger.Info("Session reset", "old", session.ID(), "new", fresh.ID())
	s.writeJSON(w, http.StatusCreated, newSessionResponse(fresh))
}

func (s *Server) submitBrief(w http.ResponseWriter, r *http.Request) {
	session, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req briefRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBriefBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	input, err := req.input()
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// A submission runs to completion or timeout even if the caller goes away.
	turn, err := s.assistant.Submit(context.WithoutCancel(r.Context()), session, input)
	if err != nil {
		var buildErr *brief.BuildError
		switch {
		case errors.As(err, &buildErr):
			s.writeError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, storage.ErrSubmissionInFlight):
			s.writeError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, storage.ErrSessionClosed):
			s.writeError(w, err.Error(), http.StatusGone)
		default:
			s.logger.Error("Submission failed", "session", session.ID(), "err", err)
			s.writeError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	s.writeJSON(w, turnStatus(turn.Outcome), newTurnResponse(session, turn))
}

func newTurnResponse(session *storage.Session, turn *app.Turn) turnResponse {
	resp := turnResponse{
		Outcome:   turn.Outcome,
		Notice:    turn.Notice,
		Messages:  turn.Messages,
		Metrics:   session.Metrics(),
		ElapsedMS: turn.Elapsed.Milliseconds(),
	}
	if resp.Messages == nil {
		resp.Messages = []storage.Message{}
	}
	if turn.Interpretation != nil {
		resp.Sections = turn.Interpretation.Sections
		resp.Markdown = turn.Interpretation.Markdown()
		resp.Strategy = turn.Interpretation.Strategy
	}
	if turn.Err != nil {
		resp.Error = turn.Err.Error()
	}
	return resp
}

// turnStatus maps outcomes that left the transcript untouched to gateway
// errors. Everything else was recorded and is a 200.
func turnStatus(o app.Outcome) int {
	switch o {
	case app.OutcomeTimeout:
		return http.StatusGatewayTimeout
	case app.OutcomeTransportError:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*storage.Session, bool) {
	id := mux.Vars(r)["id"]
	session, ok := s.store.GetSession(id)
	if !ok {
		s.writeError(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}
