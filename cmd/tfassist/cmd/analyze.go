package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tfmusic/workflow-assistant/internal/brief"
	"github.com/tfmusic/workflow-assistant/internal/chat"
)

var (
	analyzeFile    string
	analyzeExample string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [brief]",
	Short: "Analyze a single brief and exit",
	Long: `Analyze one brief without starting the interactive chat.

The brief comes from the arguments, --file (txt, csv, pdf, docx, xlsx),
--example (` + strings.Join(chat.ExampleNames(), ", ") + `) or stdin, in that order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := analyzeInput(args)
		if err != nil {
			return err
		}

		r, err := setupRuntime()
		if err != nil {
			return err
		}
		return analyzeOnce(cmd.Context(), r, cmd.OutOrStdout(), input)
	},
}

func analyzeInput(args []string) (brief.RawInput, error) {
	switch {
	case len(args) > 0:
		return brief.Text{Body: strings.Join(args, " ")}, nil
	case analyzeFile != "":
		return chat.LoadFile(analyzeFile)
	case analyzeExample != "":
		ex, ok := chat.LookupExample(analyzeExample)
		if !ok {
			return nil, fmt.Errorf("unknown example %q (available: %s)",
				analyzeExample, strings.Join(chat.ExampleNames(), ", "))
		}
		return brief.Text{Body: ex.Brief}, nil
	case hasStdinInput():
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return brief.Text{Body: string(data)}, nil
	default:
		return nil, errors.New("no brief given: pass it as an argument, with --file, --example or on stdin")
	}
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Read the brief from a file")
	analyzeCmd.Flags().StringVarP(&analyzeExample, "example", "e", "", "Use a built-in example brief")
	analyzeCmd.MarkFlagsMutuallyExclusive("file", "example")
	rootCmd.AddCommand(analyzeCmd)
}
