package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/docuquery/docuquery/internal/crag"
	"github.com/docuquery/docuquery/internal/log"
)

// askFailureMessage is returned to the caller when a turn could not
// complete. The operational cause stays in the logs.
const askFailureMessage = "Sorry, I could not complete an answer for this question. Please try again."

// Asker runs one answer turn. *crag.Orchestrator satisfies it.
type Asker interface {
	Run(ctx context.Context, question, ownerID string, opts ...crag.RunOption) (string, error)
}

// AskRequest is the POST /api/ask request body.
type AskRequest struct {
	Question string `json:"question"`
	OwnerID  string `json:"owner_id"`
	Thread   string `json:"thread,omitempty"`
}

// AskResponse is the POST /api/ask response body.
type AskResponse struct {
	Answer string `json:"answer"`
	Thread string `json:"thread"`
}

// AskHandler serves POST /api/ask.
type AskHandler struct {
	asker  Asker
	logger log.Logger
}

// NewAskHandler creates the ask handler.
func NewAskHandler(asker Asker, logger log.Logger) *AskHandler {
	return &AskHandler{asker: asker, logger: logger}
}

// RegisterRoutes registers the ask route on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ask", h.ask)
}

func (h *AskHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "owner_id is required")
		return
	}

	thread := req.Thread
	if thread == "" {
		thread = crag.DefaultThread
	}

	answer, err := h.asker.Run(r.Context(), req.Question, req.OwnerID, crag.WithThread(thread))
	if err != nil {
		h.logger.Error("answer turn failed",
			"owner_id", req.OwnerID, "thread", thread, "error", err)
		writeError(w, turnFailureStatus(err), "turn_failed", askFailureMessage)
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{Answer: answer, Thread: thread})
}

// turnFailureStatus maps the loop's error taxonomy onto HTTP status codes.
func turnFailureStatus(err error) int {
	switch {
	case errors.Is(err, crag.ErrMissingInput), errors.Is(err, crag.ErrMalformedState):
		return http.StatusBadRequest
	case errors.Is(err, crag.ErrGatewayUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, crag.ErrStepBudgetExceeded), errors.Is(err, crag.ErrSchemaViolation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
