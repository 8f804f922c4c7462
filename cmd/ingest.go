package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docuquery/docuquery/internal/app"
	"github.com/docuquery/docuquery/internal/config"
)

var ingestOwner string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Index a document into the knowledge store",
	Long: `Ingest extracts text from the given file, splits it into passages, and
stores them under the owner's ID. PDF files are extracted page by page;
any other file is treated as plain text.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestOwner, "owner", "", "owner to store passages under (required)")
	_ = ingestCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
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

	path := args[0]
	var passages int
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		passages, err = a.Ingestor.IngestPDFFile(ctx, ingestOwner, path)
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		passages, err = a.Ingestor.IngestText(ctx, ingestOwner, filepath.Base(path), string(data))
	}
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d passages from %s\n", passages, path)
	return nil
}
