package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfmusic/workflow-assistant/internal/analysis"
	"github.com/tfmusic/workflow-assistant/internal/brief"
	"github.com/tfmusic/workflow-assistant/internal/events"
	"github.com/tfmusic/workflow-assistant/internal/storage"
	"github.com/tfmusic/workflow-assistant/internal/workflow"
)

type fakeSubmitter struct {
	reply    workflow.Reply
	requests []workflow.AnalysisRequest
	during   func()
}

func (f *fakeSubmitter) Submit(_ context.Context, req workflow.AnalysisRequest) workflow.Reply {
	f.requests = append(f.requests, req)
	if f.during != nil {
		f.during()
	}
	return f.reply
}

func newAssistant(t *testing.T, reply workflow.Reply) (*Assistant, *storage.MemoryStore, *fakeSubmitter) {
	t.Helper()
	store := storage.NewMemoryStore(0)
	sub := &fakeSubmitter{reply: reply}
	return New(store, sub, log.New(io.Discard)), store, sub
}

func strategyReply() *workflow.Success {
	raw := `{"brief_analysis":{"client_info":{"client":"Mercedes-Benz"}},"project_strategy":{"project_type":"A","budget":75000,"payout":56250,"margin_percentage":25}}`
	return &workflow.Success{
		BriefAnalysis:   json.RawMessage(`{"client_info":{"client":"Mercedes-Benz"}}`),
		ProjectStrategy: json.RawMessage(`{"project_type":"A","budget":75000,"payout":56250,"margin_percentage":25}`),
		Raw:             json.RawMessage(raw),
	}
}

func TestSubmit_Analyzed(t *testing.T) {
	a, store, sub := newAssistant(t, strategyReply())
	s := store.CreateSession()

	turn, err := a.Submit(context.Background(), s, brief.Text{Body: "Client: Mercedes-Benz"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnalyzed, turn.Outcome)
	assert.Equal(t, NoticeAnalyzed, turn.Notice)
	require.Len(t, sub.requests, 1)
	assert.Equal(t, "Client: Mercedes-Benz", sub.requests[0].RawBrief)
	assert.Equal(t, s.ID(), sub.requests[0].ThreadID)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, storage.RoleUser, msgs[0].Role)
	assert.Equal(t, "Client: Mercedes-Benz", msgs[0].Content.Text)
	assert.Equal(t, storage.RoleAssistant, msgs[1].Role)
	assert.Contains(t, msgs[1].Content.Text, "### 📋 Brief Analysis")
	assert.Contains(t, msgs[1].Content.Text, "$56,250")

	assert.Equal(t, storage.Metrics{ProjectType: "A", Budget: "$75,000", Payout: "$56,250", Margin: "25%"}, s.Metrics())
	assert.Equal(t, storage.FlightCompleted, s.Flight())
}

func TestSubmit_FileInputAddsLabel(t *testing.T) {
	a, store, _ := newAssistant(t, &workflow.Success{Raw: json.RawMessage(`{}`)})
	s := store.CreateSession()

	turn, err := a.Submit(context.Background(), s, brief.Table{
		Source:  "budget.csv",
		Columns: []string{"Client", "Budget"},
		Rows:    [][]string{{"Mercedes-Benz", "75000"}},
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFallback, turn.Outcome)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "📊 Processing budget file: budget.csv", msgs[0].Content.Text)
	assert.Contains(t, msgs[1].Content.Text, "Please analyze this budget table:")
	assert.Equal(t, analysis.FallbackText, msgs[2].Content.Text)
}

func TestSubmit_BuildErrorSendsNothing(t *testing.T) {
	a, store, sub := newAssistant(t, strategyReply())
	s := store.CreateSession()

	_, err := a.Submit(context.Background(), s, brief.Text{Body: "   "})

	var be *brief.BuildError
	require.True(t, errors.As(err, &be))
	assert.Empty(t, sub.requests)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, storage.FlightIdle, s.Flight())
}

func TestSubmit_TimeoutLeavesSessionUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client, err := workflow.NewClient(workflow.Config{
		Endpoint: srv.URL,
		Timeout:  50 * time.Millisecond,
		Logger:   log.New(io.Discard),
	})
	require.NoError(t, err)

	store := storage.NewMemoryStore(0)
	a := New(store, client, log.New(io.Discard))
	s := store.CreateSession()

	_, err = store.AppendMessage(s, storage.RoleUser, storage.TextContent("earlier"))
	require.NoError(t, err)
	prior := &storage.ProjectStrategy{ProjectType: "C"}
	require.NoError(t, store.SetStrategy(s, prior))

	beforeMsgs := s.Messages()
	beforeStrategy := s.Strategy()

	turn, err := a.Submit(context.Background(), s, brief.Text{Body: "A long brief"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeTimeout, turn.Outcome)
	assert.Equal(t, NoticeTimeout, turn.Notice)
	assert.True(t, workflow.IsTimeout(turn.Err))
	assert.False(t, turn.Committed())

	assert.Equal(t, beforeMsgs, s.Messages())
	assert.Equal(t, beforeStrategy, s.Strategy())
}

func TestSubmit_RemoteError(t *testing.T) {
	a, store, _ := newAssistant(t, &workflow.Failure{Kind: workflow.FailureRemote, Status: 500, Body: "boom"})
	s := store.CreateSession()
	require.NoError(t, store.SetStrategy(s, &storage.ProjectStrategy{ProjectType: "B"}))

	turn, err := a.Submit(context.Background(), s, brief.Text{Body: "brief"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeRemoteError, turn.Outcome)
	assert.Equal(t, "API Error: 500\nboom", turn.Notice)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "API Error: 500\nboom", msgs[1].Content.Text)
	assert.Equal(t, "B", s.Strategy().ProjectType)
}

func TestSubmit_TransportError(t *testing.T) {
	a, store, _ := newAssistant(t, &workflow.Failure{Kind: workflow.FailureTransport, Err: errors.New("connection refused")})
	s := store.CreateSession()

	turn, err := a.Submit(context.Background(), s, brief.Text{Body: "brief"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeTransportError, turn.Outcome)
	assert.Contains(t, turn.Notice, "connection refused")
	assert.Contains(t, turn.Notice, NoticeAPIKey)
	assert.Equal(t, 0, s.Len())
}

func TestSubmit_MalformedReply(t *testing.T) {
	raw := json.RawMessage(`{"project_strategy":"A"}`)
	a, store, _ := newAssistant(t, &workflow.Success{ProjectStrategy: json.RawMessage(`"A"`), Raw: raw})
	s := store.CreateSession()

	turn, err := a.Submit(context.Background(), s, brief.Text{Body: "brief"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeMalformed, turn.Outcome)
	var se *analysis.StructuralError
	assert.True(t, errors.As(turn.Err, &se))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].Content.IsRaw())
	assert.JSONEq(t, string(raw), string(msgs[1].Content.Raw))
	assert.Nil(t, s.Strategy())
}

func TestSubmit_RejectsSecondInFlight(t *testing.T) {
	a, store, sub := newAssistant(t, strategyReply())
	s := store.CreateSession()

	var nested error
	sub.during = func() {
		_, nested = a.Submit(context.Background(), s, brief.Text{Body: "second"})
	}

	_, err := a.Submit(context.Background(), s, brief.Text{Body: "first"})
	require.NoError(t, err)

	assert.ErrorIs(t, nested, storage.ErrSubmissionInFlight)
	assert.Len(t, sub.requests, 1)
	assert.Equal(t, 2, s.Len())
}

func TestSubmit_ResetDuringFlight(t *testing.T) {
	a, store, sub := newAssistant(t, strategyReply())
	s := store.CreateSession()
	sub.during = func() { store.Reset(s) }

	_, err := a.Submit(context.Background(), s, brief.Text{Body: "brief"})
	assert.ErrorIs(t, err, storage.ErrSessionClosed)
}

func TestSubmit_PublishesActivity(t *testing.T) {
	a, store, _ := newAssistant(t, strategyReply())
	s := store.CreateSession()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := a.Events().Subscribe(ctx, events.FilterBySessionID[Activity](s.ID()))

	_, err := a.Submit(context.Background(), s, brief.Text{Body: "brief"})
	require.NoError(t, err)

	started := <-stream
	assert.Equal(t, events.SubmissionStarted, started.Type)

	done := <-stream
	assert.Equal(t, events.TurnCompleted, done.Type)
	assert.Equal(t, "analyzed", done.Payload.Outcome)
	assert.Equal(t, 2, done.Payload.Committed)
	require.NotNil(t, done.Payload.Metrics)
	assert.Equal(t, "$75,000", done.Payload.Metrics.Budget)

	_, err = a.Submit(context.Background(), s, brief.Text{Body: " "})
	require.Error(t, err)
	failed := <-stream
	assert.Equal(t, events.SubmissionFailed, failed.Type)
	assert.NotEmpty(t, failed.Payload.Error)
}

func TestResetPublishesOnOldSession(t *testing.T) {
	a, _, _ := newAssistant(t, strategyReply())
	s := a.CreateSession()

	fresh := a.Reset(s)
	assert.NotEqual(t, s.ID(), fresh.ID())
	assert.True(t, s.Closed())

	history := a.Events().History(events.FilterBySessionID[Activity](s.ID()))
	require.Len(t, history, 2)
	assert.Equal(t, events.SessionCreated, history[0].Type)
	assert.Equal(t, events.SessionReset, history[1].Type)
	assert.Equal(t, fresh.ID(), history[1].Payload.Notice)
}
