package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tfmusic/workflow-assistant/internal/chat"
	"github.com/tfmusic/workflow-assistant/internal/margin"
	"github.com/tfmusic/workflow-assistant/internal/storage"
)

var marginBudget int64

var marginCmd = &cobra.Command{
	Use:   "margin",
	Short: "Show the margin structure or compute the payout for a budget",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !cmd.Flags().Changed("budget") {
			fmt.Fprint(out, chat.MarginTable())
			return nil
		}

		result, err := margin.Compute(marginBudget)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Budget:       %s\n", storage.FormatCurrency(result.Budget))
		fmt.Fprintf(out, "Project type: %s\n", margin.ClassifyProjectType(result.Budget))
		fmt.Fprintf(out, "Margin:       %d%% (%s)\n", result.MarginPercentage, storage.FormatCurrency(int64(result.MarginAmount)))
		fmt.Fprintf(out, "Payout:       %s\n", storage.FormatCurrency(int64(result.Payout)))
		if !result.Tier.Documented {
			fmt.Fprintln(out, "Note: this budget falls in an undocumented band; the rate is assumed.")
		}
		return nil
	},
}

func init() {
	marginCmd.Flags().Int64VarP(&marginBudget, "budget", "b", 0, "Client budget in whole dollars")
	rootCmd.AddCommand(marginCmd)
}
