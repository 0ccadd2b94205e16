// Package commands defines all Cobra CLI commands for the ladle binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/ladleworks/ladle/internal/audit"
	"github.com/ladleworks/ladle/internal/config"
	"github.com/ladleworks/ladle/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ladle",
		Short: "Ladle — a retrieval-augmented assistant for your recipe collection",
		Long: `Ladle answers cooking questions over a personal recipe collection.

Recipes exported from your recipe manager are enriched, embedded, and indexed
into Qdrant; questions are expanded into multiple search queries, matched
against the index with hard constraints (ingredients to avoid, time limits,
ratings), and answered by an LLM grounded in the retrieved recipes.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.ladle/config.yaml).
See 'ladle --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.ladle/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewIngestCmd(),
		NewEvalCmd(),
		NewServeCmd(),
		NewDiagnoseCmd(),
		NewVersionCmd(),
	)

	return root
}
