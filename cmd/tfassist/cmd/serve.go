package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tfmusic/workflow-assistant/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for browser front-ends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := setupRuntime()
		if err != nil {
			return err
		}

		addr := r.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		cmd.Printf("🌐 API listening on %s\n", addr)
		return api.NewServer(r.assistant, r.logger.Logger).ListenAndServe(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :47100)")
	rootCmd.AddCommand(serveCmd)
}
