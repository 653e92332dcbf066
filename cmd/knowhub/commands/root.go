// Package commands defines all Cobra CLI commands for the knowhub binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/knowhub/knowhub-go/internal/config"
	"github.com/knowhub/knowhub-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "knowhub",
		Short: "KnowHub — a retrieval-augmented knowledge base with intent-routed chat",
		Long: `KnowHub ingests documents into a Qdrant vector store and answers
questions over them through an intent-routed chat pipeline: calculator,
time, contact lookup, web search, or retrieval-augmented completion.

Providers are configured via environment variables or a YAML config file
(~/.knowhub/config.yaml). Without an OPENAI_API_KEY the service degrades
to a deterministic hashing embedder and an extractive answerer, which
keeps local development working offline.

See 'knowhub --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is a development convenience; absence is not an error.
			_ = godotenv.Load()

			// Bootstrap logger for config loading itself; subcommands build
			// theirs afterwards so YAML logging values are in effect.
			log := logging.New(nil)

			// Load YAML config (env vars always override YAML values).
			if _, err := config.Load(configPath, log); err != nil {
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.knowhub/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewVersionCmd(),
	)

	return root
}
