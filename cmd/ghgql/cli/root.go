// Package cli implements the ghgql command-line interface using Cobra.
// It provides commands for executing GraphQL operations against GitHub and
// for inspecting the configured credential.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/gqlmod/ghgraphql/github"
	"github.com/gqlmod/ghgraphql/internal/log"
)

var (
	verbose    bool
	jsonLog    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "ghgql",
	Short: "Run pre-declared GraphQL operations against GitHub",
	Long: `ghgql executes named operations from GraphQL documents against
GitHub's GraphQL API, authenticating with either a personal access token or
a GitHub App installation.

Credentials come from a settings file (--config) or the environment:
GITHUB_TOKEN/GH_TOKEN for a personal token, or GITHUB_APP_ID,
GITHUB_APP_PRIVATE_KEY (PEM or file path via GITHUB_APP_PRIVATE_KEY_FILE)
and GITHUB_APP_INSTALLATION_ID for App authentication.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(log.Options{Verbose: verbose, JSONFormat: jsonLog})
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML settings file (default: environment variables)")
}

// loadSettings reads the settings file when --config is given, falling back
// to the environment.
func loadSettings() (github.Settings, error) {
	if configPath != "" {
		return github.LoadSettings(configPath)
	}
	return github.SettingsFromEnv(), nil
}
