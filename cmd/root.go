// Package cmd provides the docuquery CLI commands.
//
// Commands:
//   - ask: run one question through the corrective retrieval loop
//   - ingest: index a document into the knowledge store
//   - serve: HTTP API server
//   - version: show version information
//
// All long-running commands install signal handlers and shut down via
// context cancellation.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/docuquery/docuquery/internal/log"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "docuquery",
	Short: "docuquery - corrective retrieval over your own documents",
	Long: `docuquery answers questions against documents you have ingested.

Retrieved passages are graded for relevance before answering; when they do
not cover the question, the question is rephrased and researched with web
search tools instead. Conversations persist per owner and thread.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// newLogger builds the process logger honoring the --debug flag and
// installs it as the slog default.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})
	slog.SetDefault(logger)
	return logger
}
