package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tfmusic/workflow-assistant/internal/app"
	"github.com/tfmusic/workflow-assistant/internal/brief"
	"github.com/tfmusic/workflow-assistant/internal/chat"
	"github.com/tfmusic/workflow-assistant/internal/config"
	"github.com/tfmusic/workflow-assistant/internal/logging"
	"github.com/tfmusic/workflow-assistant/internal/markdown"
	"github.com/tfmusic/workflow-assistant/internal/storage"
	"github.com/tfmusic/workflow-assistant/internal/workflow"
)

var (
	debug      bool
	configFile string
	envFile    string
	endpoint   string
	quiet      bool
)

// runtime holds everything a command needs once configuration is loaded.
type runtime struct {
	cfg       *config.Config
	logger    *logging.Logger
	assistant *app.Assistant
	renderer  *markdown.Renderer
}

// Global runtime, built lazily by commands that talk to the service
var rt *runtime

// setupRuntime loads configuration, starts logging and wires the assistant.
func setupRuntime() (*runtime, error) {
	if rt != nil {
		return rt, nil
	}

	cfg, err := config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile, Debug: debug})
	if err != nil {
		return nil, err
	}
	if endpoint != "" {
		cfg.Endpoint = strings.TrimSpace(endpoint)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	paths, err := config.NewPaths()
	if err != nil {
		return nil, err
	}
	logger, err := logging.Setup(cfg, paths)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	client, err := workflow.NewClient(workflow.Config{
		Endpoint: cfg.Endpoint,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.Timeout,
		Logger:   logger.Logger,
	})
	if err != nil {
		logger.Close()
		return nil, err
	}

	renderer, err := markdown.NewRenderer(&markdown.RendererConfig{Width: cfg.Render.Width, Style: cfg.Render.Style})
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	logger.Info("Configuration loaded",
		"file", cfg.File,
		"endpoint", cfg.Endpoint,
		"api_key", cfg.HasAPIKey(),
		"timeout", cfg.Timeout)

	rt = &runtime{
		cfg:       cfg,
		logger:    logger,
		assistant: app.New(storage.NewMemoryStore(cfg.Session.TTL), client, logger.Logger),
		renderer:  renderer,
	}
	return rt, nil
}

func (r *runtime) newChat(out io.Writer) *chat.ChatSession {
	return chat.NewChatSession(r.assistant, r.renderer, r.logger.Logger, chat.Options{
		In:    os.Stdin,
		Out:   out,
		Quiet: quiet,
		Width: r.cfg.Render.Width,
	})
}

var rootCmd = &cobra.Command{
	Use:   "tfassist [brief]",
	Short: "Music licensing brief assistant",
	Long: `tfassist sends client music briefs to the TF agent workflow and shows the
structured analysis, project strategy and commission figures.

Usage:
  tfassist                       # Start interactive chat
  tfassist "your brief"          # Analyze a brief directly
  cat brief.txt | tfassist       # Pipe a brief
  tfassist analyze --file b.csv  # Analyze a budget sheet
  tfassist serve                 # Run the HTTP API`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	SilenceErrors:     true,
	Args:              cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := setupRuntime()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		switch {
		case len(args) > 0:
			return analyzeOnce(ctx, r, cmd.OutOrStdout(), brief.Text{Body: strings.Join(args, " ")})
		case hasStdinInput():
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return analyzeOnce(ctx, r, cmd.OutOrStdout(), brief.Text{Body: string(data)})
		default:
			return r.newChat(cmd.OutOrStdout()).StartInteractive(ctx)
		}
	},
}

// hasStdinInput reports whether stdin is piped rather than a terminal.
func hasStdinInput() bool {
	fd := os.Stdin.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// analyzeOnce runs a single non-interactive turn.
func analyzeOnce(ctx context.Context, r *runtime, out io.Writer, input brief.RawInput) error {
	cs := r.newChat(out)
	cs.Send(ctx, input)
	if cs.Session().Len() == 0 {
		return fmt.Errorf("brief was not analyzed")
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode (log to stderr)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.tfassist.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded at startup")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Override the workflow endpoint")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - output only the analysis")
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if rt != nil {
		rt.logger.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
