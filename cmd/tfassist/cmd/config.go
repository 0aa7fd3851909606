package cmd

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/tfmusic/workflow-assistant/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the tfassist configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if path == "" {
			paths, err := config.NewPaths()
			if err != nil {
				return err
			}
			path = paths.ConfigFile()
		}
		if err := config.SaveFile(path, config.NewFile(), configForce); err != nil {
			return err
		}
		cmd.Printf("✅ Wrote %s\n", path)
		cmd.Println("Set the API key with TFASSIST_APIKEY or LANGGRAPH_API_KEY, or add apiKey to the file.")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile, Debug: debug})
		if err != nil {
			return err
		}
		if endpoint != "" {
			cfg.Endpoint = endpoint
		}

		file := cfg.ToFile()
		if file.APIKey != "" {
			file.APIKey = "********"
		}

		out := cmd.OutOrStdout()
		if cfg.File != "" {
			fmt.Fprintf(out, "# loaded from %s\n", cfg.File)
		}
		if err := toml.NewEncoder(out).Encode(file); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "\n# invalid: %v\n", err)
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
