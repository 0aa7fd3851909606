// Package chat is the interactive terminal front-end.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tfmusic/workflow-assistant/internal/app"
	"github.com/tfmusic/workflow-assistant/internal/brief"
	"github.com/tfmusic/workflow-assistant/internal/margin"
	"github.com/tfmusic/workflow-assistant/internal/markdown"
	"github.com/tfmusic/workflow-assistant/internal/storage"
)

// blockDelimiter opens and closes a multi-line brief.
const blockDelimiter = `"""`

// Options configure a ChatSession.
type Options struct {
	In    io.Reader
	Out   io.Writer
	Quiet bool
	Width int
}

// ChatSession represents an interactive chat session
type ChatSession struct {
	assistant *app.Assistant
	store     storage.Store
	session   *storage.Session
	renderer  *markdown.Renderer
	logger    *log.Logger

	in    io.Reader
	out   io.Writer
	quiet bool
	width int
}

// NewChatSession creates a chat session with a fresh conversation.
func NewChatSession(assistant *app.Assistant, renderer *markdown.Renderer, logger *log.Logger, opts Options) *ChatSession {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if logger == nil {
		logger = log.Default()
	}
	store := assistant.Store()
	return &ChatSession{
		assistant: assistant,
		store:     store,
		session:   assistant.CreateSession(),
		renderer:  renderer,
		logger:    logger,
		in:        opts.In,
		out:       opts.Out,
		quiet:     opts.Quiet,
		width:     opts.Width,
	}
}

// Session returns the current conversation.
func (cs *ChatSession) Session() *storage.Session { return cs.session }

// StartInteractive starts an interactive chat session
func (cs *ChatSession) StartInteractive(ctx context.Context) error {
	if !cs.quiet {
		cs.println("🎵 TF Music Workflow Assistant")
		cs.println("Find, clear, and deliver the perfect music")
		cs.printf("Session: %s\n", cs.session.ShortID())
		cs.printf("Paste your brief or describe your music needs. Wrap a multi-line brief in %s lines.\n", blockDelimiter)
		cs.println("Type '/help' for available commands, '/exit' to quit")
		cs.println()
	}

	scanner := bufio.NewScanner(cs.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var block []string
	inBlock := false

	for {
		if !cs.quiet && !inBlock {
			cs.print("> ")
		}

		if !scanner.Scan() {
			break // EOF or error
		}

		line := strings.TrimRight(scanner.Text(), " \t\r")
		input := strings.TrimSpace(line)

		if input == blockDelimiter {
			if inBlock && len(block) > 0 {
				cs.Send(ctx, brief.Text{Body: strings.Join(block, "\n")})
			}
			block = nil
			inBlock = !inBlock
			continue
		}
		if inBlock {
			block = append(block, line)
			continue
		}

		if input == "" {
			continue
		}

		// Handle special commands
		if strings.HasPrefix(input, "/") {
			if cs.handleCommand(ctx, input) {
				return nil
			}
			continue
		}

		// Handle exit commands
		if input == "exit" || input == "quit" {
			cs.goodbye()
			return nil
		}

		cs.Send(ctx, brief.Text{Body: input})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return ctx.Err()
}

// Send submits one brief and prints the outcome.
func (cs *ChatSession) Send(ctx context.Context, input brief.RawInput) {
	if label := brief.Label(input); label != "" {
		cs.println(label)
	}

	spin := startSpinner(cs.out, SpinnerMessage)
	turn, err := cs.assistant.Submit(ctx, cs.session, input)
	spin.Stop()

	if err != nil {
		cs.showError(err)
		return
	}
	cs.showTurn(turn)
}

func (cs *ChatSession) showError(err error) {
	var be *brief.BuildError
	switch {
	case errors.As(err, &be):
		cs.printf("❌ Could not prepare the brief: %v\n", err)
	case errors.Is(err, storage.ErrSubmissionInFlight):
		cs.println("⏳ A brief is still being analyzed for this session.")
	case errors.Is(err, storage.ErrSessionClosed):
		cs.println("❌ This session was reset. Send the brief again.")
	default:
		cs.printf("❌ Error: %v\n", err)
	}
}

func (cs *ChatSession) showTurn(turn *app.Turn) {
	switch turn.Outcome {
	case app.OutcomeAnalyzed, app.OutcomeFallback:
		cs.println(cs.renderer.RenderOrPlain(turn.Interpretation.Markdown()))
		cs.println()
		cs.println(turn.Notice)
		if turn.Outcome == app.OutcomeAnalyzed && !cs.quiet {
			cs.println(RenderMetrics(cs.session.Metrics(), cs.width))
		}
	case app.OutcomeMalformed:
		cs.printf("⚠️ %s\n", turn.Notice)
		if n := len(turn.Messages); n > 0 {
			cs.println(cs.renderer.RenderMessage(turn.Messages[n-1]))
		}
	default:
		cs.printf("❌ %s\n", turn.Notice)
	}
}

// handleCommand processes special chat commands. It reports whether the
// session should end.
func (cs *ChatSession) handleCommand(ctx context.Context, input string) bool {
	name, arg := parseCommand(input)

	switch name {
	case "/help":
		cs.showHelp()
	case "/new":
		cs.newSession()
	case "/history":
		cs.showHistory()
	case "/metrics":
		cs.showMetrics()
	case "/margins":
		cs.print(MarginTable())
	case "/session":
		cs.showSession()
	case "/file":
		if arg == "" {
			cs.println("Usage: /file <path>")
			return false
		}
		input, err := LoadFile(arg)
		if err != nil {
			cs.printf("❌ %v\n", err)
			return false
		}
		cs.Send(ctx, input)
	case "/example":
		ex, ok := LookupExample(arg)
		if !ok {
			cs.printf("Usage: /example <%s>\n", strings.Join(ExampleNames(), "|"))
			return false
		}
		cs.println(ex.Title)
		cs.Send(ctx, brief.Text{Body: ex.Brief})
	case "/exit":
		cs.goodbye()
		return true
	default:
		cs.printf("Unknown command: %s\n", name)
		if suggestions := suggestCommands(name); len(suggestions) > 0 {
			cs.printf("Did you mean %s?\n", strings.Join(suggestions, ", "))
		}
		cs.println("Type '/help' for available commands.")
	}
	return false
}

// showHelp displays available commands
func (cs *ChatSession) showHelp() {
	cs.println("Available commands:")
	for _, c := range commands {
		name := c.Name
		if c.Args != "" {
			name += " " + c.Args
		}
		cs.printf("  %-28s - %s\n", name, c.Usage)
	}
	cs.println()
	cs.println("How to use:")
	cs.println("  1. Paste a brief: copy and paste your project brief into the chat")
	cs.println("  2. Upload files: /file with a CSV budget file or a brief document")
	cs.println("  3. Try examples: /example car, /example sports or /example margin")
	cs.println("  4. View analysis: project type (A/B/C based on budget), budget and")
	cs.println("     calculated payout, recommended approach and key considerations")
}

func (cs *ChatSession) newSession() {
	cs.session = cs.assistant.Reset(cs.session)
	cs.logger.Info("Session reset", "session", cs.session.ID())
	cs.printf("✅ New session started: %s\n", cs.session.ShortID())
}

// showHistory displays the conversation history
func (cs *ChatSession) showHistory() {
	msgs := cs.session.Messages()
	if len(msgs) == 0 {
		cs.println("No conversation history")
		return
	}

	cs.println("Conversation history:")
	for _, msg := range msgs {
		cs.printf("── %d. %s\n", msg.Position+1, strings.ToUpper(string(msg.Role)))
		cs.println(cs.renderer.RenderMessage(msg))
	}
}

func (cs *ChatSession) showMetrics() {
	m := cs.session.Metrics()
	if cs.quiet {
		cs.printf("Project Type: %s\nBudget: %s\nPayout: %s\nMargin: %s\n", m.ProjectType, m.Budget, m.Payout, m.Margin)
		return
	}
	cs.println(RenderMetrics(m, cs.width))
	cs.println(metricLabelStyle.Render(projectTypeHelp))
}

func (cs *ChatSession) showSession() {
	sum := cs.session.Summary()
	cs.printf("Session: %s\nStarted: %s\nMessages: %d\nState: %s\n",
		sum.ID, sum.CreatedAt.Format("2006-01-02 15:04:05"), sum.MessageCount, sum.State)
}

func (cs *ChatSession) goodbye() {
	if !cs.quiet {
		cs.println("Goodbye!")
	}
}

// MarginTable renders the margin structure.
func MarginTable() string {
	var b strings.Builder
	b.WriteString("Margin Structure:\n")
	tiers := margin.Tiers()
	for i, t := range tiers {
		var band string
		if i+1 < len(tiers) {
			band = fmt.Sprintf("%s-%s", storage.FormatCurrency(t.Floor), storage.FormatCurrency(tiers[i+1].Floor))
		} else {
			band = fmt.Sprintf("Above %s", storage.FormatCurrency(t.Floor))
		}
		line := fmt.Sprintf("  %-22s %d%% margin", band, t.Percentage())
		if !t.Documented {
			line += " (undocumented band, assumed)"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (cs *ChatSession) print(a ...any)                 { fmt.Fprint(cs.out, a...) }
func (cs *ChatSession) println(a ...any)               { fmt.Fprintln(cs.out, a...) }
func (cs *ChatSession) printf(format string, a ...any) { fmt.Fprintf(cs.out, format, a...) }
