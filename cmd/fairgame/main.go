// Package main provides the fairgame CLI.
//
// fairgame plays repeated strategic games between language model agents.
// A configuration file describes the payoff matrix, the agents, the
// languages and the prompt template; every combination it describes
// becomes one game.
//
// # Basic Usage
//
// Run every game of a configuration and write the results:
//
//	fairgame run resources/config/prisoner_dilemma.yaml --output results.csv
//
// Check a configuration without calling any model:
//
//	fairgame validate resources/config/prisoner_dilemma.yaml
//
// Serve the HTTP API:
//
//	fairgame serve --addr :8080
//
// # Environment Variables
//
//   - ANTHROPIC_API_KEY, OPENAI_API_KEY, MISTRAL_API_KEY, GOOGLE_API_KEY: provider keys
//   - AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY: Bedrock and S3 access
//   - FAIRGAME_DECISION_ATTEMPTS, FAIRGAME_DECISION_DELAY: decision retry budget
//   - FAIRGAME_PARALLELISM: games run at once
//   - FAIRGAME_RESULTS_DSN: SQL results store (postgres:// or an SQLite path)
//   - FAIRGAME_S3_BUCKET, FAIRGAME_S3_PREFIX, FAIRGAME_S3_ENDPOINT: CSV upload target
//   - OTEL_EXPORTER_OTLP_ENDPOINT: trace collector
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fairgame",
		Short: "Repeated strategic games between language model agents",
		Long: `fairgame runs repeated games such as the prisoner's dilemma between
language model agents, in several languages and with configurable
personalities, and collects every prompt, message, choice and score.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildRunCmd(),
		buildValidateCmd(),
		buildDescribeCmd(),
		buildSchemaCmd(),
		buildServicesCmd(),
		buildServeCmd(),
		buildVersionCmd(),
	)
	return rootCmd
}
