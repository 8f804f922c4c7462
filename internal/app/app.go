// Package app wires configuration, storage, the AI provider, tools, and
// the answer loop into a runnable application.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docuquery/docuquery/internal/config"
	"github.com/docuquery/docuquery/internal/crag"
	"github.com/docuquery/docuquery/internal/ingest"
	"github.com/docuquery/docuquery/internal/knowledge"
	"github.com/docuquery/docuquery/internal/session"
	"github.com/docuquery/docuquery/internal/tools"
)

// App holds the wired application components.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool     *pgxpool.Pool
	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Knowledge    *knowledge.Store
	Ingestor     *ingest.Ingestor
	Tools        *tools.Registry
	Sessions     *session.Store
	Orchestrator *crag.Orchestrator
}

// Close releases held resources. Safe to call on a partially constructed
// App during setup failure.
func (a *App) Close() error {
	if a.Pool != nil {
		a.Pool.Close()
	}
	return nil
}
