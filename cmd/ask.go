package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docuquery/docuquery/internal/app"
	"github.com/docuquery/docuquery/internal/config"
	"github.com/docuquery/docuquery/internal/crag"
)

var (
	askOwner  string
	askThread string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against your ingested documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askOwner, "owner", "", "owner whose documents to search (required)")
	askCmd.Flags().StringVar(&askThread, "thread", crag.DefaultThread, "conversation thread")
	_ = askCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() { _ = a.Close() }()

	question := strings.Join(args, " ")
	answer, err := a.Orchestrator.Run(ctx, question, askOwner, crag.WithThread(askThread))
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
