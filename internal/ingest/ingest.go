// Package ingest turns uploaded documents into embedded passages. It
// extracts text from PDFs, splits it into overlapping chunks, and writes
// each chunk to the knowledge store under the uploading owner's ID.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/docuquery/docuquery/internal/knowledge"
)

// PassageAdder is the slice of the knowledge store the ingestor needs.
type PassageAdder interface {
	Add(ctx context.Context, p knowledge.Passage) (string, error)
}

// Ingestor coordinates extraction, splitting, and storage.
type Ingestor struct {
	store    PassageAdder
	splitter *Splitter
	logger   *slog.Logger
}

// New creates an Ingestor. splitter may be nil for default chunking; logger
// may be nil for slog.Default.
func New(store PassageAdder, splitter *Splitter, logger *slog.Logger) *Ingestor {
	if splitter == nil {
		splitter = NewSplitter(0, -1)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{store: store, splitter: splitter, logger: logger}
}

// IngestText splits raw text and stores each chunk as a passage owned by
// ownerID. It returns the number of passages written.
func (in *Ingestor) IngestText(ctx context.Context, ownerID, source, text string) (int, error) {
	if strings.TrimSpace(ownerID) == "" {
		return 0, knowledge.ErrEmptyOwner
	}

	chunks := in.splitter.Split(text)
	if len(chunks) == 0 {
		return 0, ErrNoText
	}

	for i, chunk := range chunks {
		if _, err := in.store.Add(ctx, knowledge.Passage{
			OwnerID: ownerID,
			Content: chunk,
			Source:  source,
		}); err != nil {
			return i, fmt.Errorf("storing chunk %d/%d from %q: %w", i+1, len(chunks), source, err)
		}
	}

	in.logger.Info("ingested document", "owner_id", ownerID, "source", source, "passages", len(chunks))
	return len(chunks), nil
}

// IngestPDF extracts text from an in-memory PDF and ingests it.
func (in *Ingestor) IngestPDF(ctx context.Context, ownerID, source string, r io.ReaderAt, size int64) (int, error) {
	text, err := ExtractPDF(r, size)
	if err != nil {
		return 0, err
	}
	return in.IngestText(ctx, ownerID, source, text)
}

// IngestPDFFile extracts text from a PDF on disk and ingests it.
func (in *Ingestor) IngestPDFFile(ctx context.Context, ownerID, path string) (int, error) {
	text, err := ExtractPDFFile(path)
	if err != nil {
		return 0, err
	}
	return in.IngestText(ctx, ownerID, path, text)
}
