package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/docuquery/docuquery/internal/ingest"
	"github.com/docuquery/docuquery/internal/log"
)

// maxUploadBytes caps document uploads.
const maxUploadBytes = 32 << 20 // 32 MiB

// Ingestor turns an uploaded document into stored passages.
// *ingest.Ingestor satisfies it.
type Ingestor interface {
	IngestPDF(ctx context.Context, ownerID, source string, r io.ReaderAt, size int64) (int, error)
	IngestText(ctx context.Context, ownerID, source, text string) (int, error)
}

// DocumentResponse is the POST /api/documents response body.
type DocumentResponse struct {
	Source   string `json:"source"`
	Passages int    `json:"passages"`
}

// DocumentsHandler serves document uploads.
type DocumentsHandler struct {
	ingestor Ingestor
	logger   log.Logger
}

// NewDocumentsHandler creates the documents handler.
func NewDocumentsHandler(ingestor Ingestor, logger log.Logger) *DocumentsHandler {
	return &DocumentsHandler{ingestor: ingestor, logger: logger}
}

// RegisterRoutes registers the documents route on the given mux.
func (h *DocumentsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/documents", h.upload)
}

// upload accepts a multipart form with an owner_id field and a file part.
// PDFs are extracted; any other file is ingested as plain text.
func (h *DocumentsHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected multipart form upload")
		return
	}

	ownerID := strings.TrimSpace(r.FormValue("owner_id"))
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "owner_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "file part is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("reading upload failed", "owner_id", ownerID, "error", err)
		writeError(w, http.StatusInternalServerError, "upload_failed", "could not read uploaded file")
		return
	}

	source := filepath.Base(header.Filename)
	var passages int
	if strings.EqualFold(filepath.Ext(source), ".pdf") {
		passages, err = h.ingestor.IngestPDF(r.Context(), ownerID, source, bytes.NewReader(data), int64(len(data)))
	} else {
		passages, err = h.ingestor.IngestText(r.Context(), ownerID, source, string(data))
	}
	if err != nil {
		if errors.Is(err, ingest.ErrNoText) {
			writeError(w, http.StatusUnprocessableEntity, "no_text", "document contains no extractable text")
			return
		}
		h.logger.Error("ingesting document failed",
			"owner_id", ownerID, "source", source, "error", err)
		writeError(w, http.StatusInternalServerError, "ingest_failed", "could not ingest document")
		return
	}

	h.logger.Info("document ingested", "owner_id", ownerID, "source", source, "passages", passages)
	writeJSON(w, http.StatusCreated, DocumentResponse{Source: source, Passages: passages})
}
