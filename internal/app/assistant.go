// Package app runs one conversational turn: build the payload, submit it,
// interpret the reply and commit the transcript.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tfmusic/workflow-assistant/internal/analysis"
	"github.com/tfmusic/workflow-assistant/internal/brief"
	"github.com/tfmusic/workflow-assistant/internal/events"
	"github.com/tfmusic/workflow-assistant/internal/storage"
	"github.com/tfmusic/workflow-assistant/internal/workflow"
)

// User-facing notices.
const (
	NoticeAnalyzed  = "✅ Brief analyzed successfully!"
	NoticeFallback  = "Brief received and processed. The analysis has been completed."
	NoticeTimeout   = "Request timed out. The brief might be too complex. Try a shorter version."
	NoticeMalformed = "The analysis service replied in an unexpected shape. The raw reply was added to the conversation."
	NoticeAPIKey    = "Note: Make sure the API key is configured if the service requires one."
)

// Submitter sends one analysis request.
type Submitter interface {
	Submit(ctx context.Context, req workflow.AnalysisRequest) workflow.Reply
}

// Outcome classifies a finished turn.
type Outcome int

const (
	OutcomeAnalyzed Outcome = iota
	OutcomeFallback
	OutcomeRemoteError
	OutcomeTimeout
	OutcomeTransportError
	OutcomeMalformed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnalyzed:
		return "analyzed"
	case OutcomeFallback:
		return "fallback"
	case OutcomeRemoteError:
		return "remote_error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Turn is the result of a submission that reached the remote service.
type Turn struct {
	Outcome Outcome
	// Messages are the transcript entries committed by this turn, empty for
	// timeouts and transport failures.
	Messages       []storage.Message
	Interpretation *analysis.Interpretation
	// Notice is the short status line for the user.
	Notice string
	// Err is the failure behind a non-success outcome.
	Err     error
	Elapsed time.Duration
}

// Committed reports whether the turn changed the transcript.
func (t *Turn) Committed() bool { return len(t.Messages) > 0 }

// Assistant wires the payload builder, workflow client, interpreter and
// session store together.
type Assistant struct {
	store       storage.Store
	client      Submitter
	interpreter *analysis.Interpreter
	events      *events.Broker[Activity]
	logger      *log.Logger
}

// New creates an Assistant.
func New(store storage.Store, client Submitter, logger *log.Logger) *Assistant {
	if logger == nil {
		logger = log.Default()
	}
	return &Assistant{
		store:       store,
		client:      client,
		interpreter: analysis.NewInterpreter(store, logger),
		events:      events.NewBroker[Activity](logger),
		logger:      logger,
	}
}

// Store returns the session store.
func (a *Assistant) Store() storage.Store { return a.store }

// Events returns the broker carrying session activity.
func (a *Assistant) Events() *events.Broker[Activity] { return a.events }

// Submit runs one turn for session s.
//
// An error return means nothing was sent or nothing could be recorded: a
// *brief.BuildError, storage.ErrSubmissionInFlight or storage.ErrSessionClosed.
// Every other outcome, including remote failures, is reported through Turn.
// Messages are committed together once the reply has been handled, so a
// timeout or transport failure leaves the session exactly as it was.
func (a *Assistant) Submit(ctx context.Context, s *storage.Session, input brief.RawInput) (*Turn, error) {
	turn, err := a.submit(ctx, s, input)
	a.publishTurn(s, turn, err)
	return turn, err
}

func (a *Assistant) submit(ctx context.Context, s *storage.Session, input brief.RawInput) (*Turn, error) {
	payload, err := brief.Build(input)
	if err != nil {
		return nil, err
	}

	if err := a.store.BeginSubmission(s); err != nil {
		return nil, err
	}
	defer func() {
		if err := a.store.EndSubmission(s); err != nil {
			a.logger.Error("Failed to end submission", "session", s.ID(), "err", err)
		}
	}()
	a.events.Publish(events.SubmissionStarted, s.ID(), Activity{})

	start := time.Now()
	reply := a.client.Submit(ctx, workflow.AnalysisRequest{RawBrief: payload, ThreadID: s.ID()})
	elapsed := time.Since(start)

	userMessages := userEntries(input, payload)

	switch r := reply.(type) {
	case *workflow.Success:
		return a.handleSuccess(s, r, userMessages, elapsed)

	case *workflow.Failure:
		turn := &Turn{Err: r, Elapsed: elapsed}
		switch r.Kind {
		case workflow.FailureTimeout:
			turn.Outcome = OutcomeTimeout
			turn.Notice = NoticeTimeout
			return turn, nil
		case workflow.FailureRemote:
			turn.Outcome = OutcomeRemoteError
			turn.Notice = remoteErrorText(r)
			return a.commit(s, turn, append(userMessages, storage.NewMessage{
				Role:    storage.RoleAssistant,
				Content: storage.TextContent(turn.Notice),
			}))
		default:
			turn.Outcome = OutcomeTransportError
			turn.Notice = fmt.Sprintf("Error: %v\n%s", r, NoticeAPIKey)
			return turn, nil
		}
	}

	return nil, fmt.Errorf("unexpected reply type %T", reply)
}

func (a *Assistant) handleSuccess(s *storage.Session, r *workflow.Success, userMessages []storage.NewMessage, elapsed time.Duration) (*Turn, error) {
	interp, err := a.interpreter.Interpret(s, r)
	if err != nil {
		var se *analysis.StructuralError
		if !errors.As(err, &se) {
			return nil, err
		}
		a.logger.Warn("Malformed analysis reply", "session", s.ID(), "field", se.Field, "reason", se.Reason)
		turn := &Turn{Outcome: OutcomeMalformed, Notice: NoticeMalformed, Err: se, Elapsed: elapsed}
		return a.commit(s, turn, append(userMessages, storage.NewMessage{
			Role:    storage.RoleAssistant,
			Content: storage.RawContent(r.Raw),
		}))
	}

	turn := &Turn{Outcome: OutcomeAnalyzed, Notice: NoticeAnalyzed, Interpretation: interp, Elapsed: elapsed}
	if interp.Fallback {
		turn.Outcome = OutcomeFallback
		turn.Notice = NoticeFallback
	}
	a.logger.Info("Brief analyzed", "session", s.ID(), "outcome", turn.Outcome, "sections", len(interp.Sections), "elapsed", elapsed)

	return a.commit(s, turn, append(userMessages, storage.NewMessage{
		Role:    storage.RoleAssistant,
		Content: storage.TextContent(interp.Markdown()),
	}))
}

func (a *Assistant) commit(s *storage.Session, turn *Turn, batch []storage.NewMessage) (*Turn, error) {
	msgs, err := a.store.AppendMessages(s, batch...)
	if err != nil {
		return nil, fmt.Errorf("commit transcript: %w", err)
	}
	turn.Messages = msgs
	return turn, nil
}

// userEntries returns the user side of the transcript: the payload itself,
// preceded by a short note for file inputs.
func userEntries(input brief.RawInput, payload string) []storage.NewMessage {
	var out []storage.NewMessage
	if label := brief.Label(input); label != "" {
		out = append(out, storage.NewMessage{Role: storage.RoleUser, Content: storage.TextContent(label)})
	}
	return append(out, storage.NewMessage{Role: storage.RoleUser, Content: storage.TextContent(payload)})
}

func remoteErrorText(f *workflow.Failure) string {
	text := fmt.Sprintf("API Error: %d", f.Status)
	if f.Body != "" {
		text += "\n" + f.Body
	}
	return text
}
