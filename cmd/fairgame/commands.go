package main

import (
	"github.com/spf13/cobra"
)

func buildRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Run every game described by a configuration",
		Long: `Run every game described by a configuration file.

Results are flattened to one row per game and written to --output (CSV or
JSON by extension, stdout when empty). When FAIRGAME_RESULTS_DSN or
FAIRGAME_S3_BUCKET are set the results are also stored there.`,
		Example: `  # Write a CSV summary
  fairgame run prisoner_dilemma.yaml --output results.csv

  # Keep the full per-round history as well
  fairgame run prisoner_dilemma.yaml --output results.json --history history.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.configPath = args[0]
			return runGames(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Results file (.csv or .json); stdout when empty")
	cmd.Flags().StringVar(&opts.format, "format", "", "Results format for stdout: csv or json (default json)")
	cmd.Flags().StringVar(&opts.historyPath, "history", "", "Write every game's description and history as JSON")
	cmd.Flags().StringVar(&opts.templatesDir, "templates-dir", "", "Directory for templateFilename (overrides FAIRGAME_TEMPLATES_DIR)")
	cmd.Flags().IntVarP(&opts.parallelism, "parallelism", "p", 0, "Games run at once (overrides FAIRGAME_PARALLELISM)")
	cmd.Flags().BoolVar(&opts.noPublish, "no-publish", false, "Skip the SQL store and S3 upload")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func buildValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config>",
		Short: "Check a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0])
		},
	}
}

func buildDescribeCmd() *cobra.Command {
	var templatesDir string
	cmd := &cobra.Command{
		Use:   "describe <config>",
		Short: "Print the games a configuration expands to, without running them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd.OutOrStdout(), args[0], templatesDir)
		},
	}
	cmd.Flags().StringVar(&templatesDir, "templates-dir", "", "Directory for templateFilename (overrides FAIRGAME_TEMPLATES_DIR)")
	return cmd
}

func buildSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of configuration files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd.OutOrStdout())
		},
	}
}

func buildServicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the decision services usable as llm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServices(cmd.OutOrStdout())
		},
	}
}

func buildServeCmd() *cobra.Command {
	var (
		addr  string
		debug bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API.

Endpoints:
  POST /create_and_run_games  run the posted configuration and return one row per game
  GET  /healthz               liveness
  GET  /metrics               Prometheus metrics

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr, debug)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides FAIRGAME_HTTP_ADDR)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("fairgame %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
