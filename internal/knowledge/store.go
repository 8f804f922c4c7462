// Package knowledge stores and retrieves owner-scoped document passages
// using PostgreSQL with pgvector similarity search.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// Querier is the subset of pgx operations the store needs. It is satisfied
// by both *pgxpool.Pool and pgx.Tx, so the store works inside or outside a
// transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store manages passages with vector search. It generates embeddings through
// the configured embedder and persists them in the passages table.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db       Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a Store. logger may be nil, in which case slog.Default is used.
func New(db Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}
}

// Add embeds and upserts a passage. A zero ID gets a fresh UUID. The passage
// must carry a non-empty owner ID and content.
func (s *Store) Add(ctx context.Context, p Passage) (string, error) {
	if strings.TrimSpace(p.OwnerID) == "" {
		return "", ErrEmptyOwner
	}
	if strings.TrimSpace(p.Content) == "" {
		return "", ErrEmptyContent
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	embedding, err := s.embed(ctx, p.Content)
	if err != nil {
		return "", err
	}

	const q = `
		INSERT INTO passages (id, owner_id, content, source, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			owner_id  = EXCLUDED.owner_id,
			content   = EXCLUDED.content,
			source    = EXCLUDED.source,
			embedding = EXCLUDED.embedding`

	if _, err := s.db.Exec(ctx, q, p.ID, p.OwnerID, p.Content, p.Source, embedding); err != nil {
		return "", fmt.Errorf("upserting passage %q: %w", p.ID, err)
	}

	s.logger.Debug("added passage", "id", p.ID, "owner_id", p.OwnerID, "content_length", len(p.Content))
	return p.ID, nil
}

// Search returns the passages most similar to query within ownerID's corpus,
// ordered by descending similarity. Passages belonging to other owners are
// never returned. The whole call is bounded by the configured timeout.
func (s *Store) Search(ctx context.Context, ownerID, query string, opts ...SearchOption) ([]Result, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrEmptyOwner
	}
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, err
	}

	const q = `
		SELECT id, owner_id, content, source, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM passages
		WHERE owner_id = $2
		ORDER BY embedding <=> $1
		LIMIT $3`

	rows, err := s.db.Query(queryCtx, q, embedding, ownerID, cfg.topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vector search timeout: %w", err)
		}
		return nil, fmt.Errorf("searching passages: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Passage.ID, &r.Passage.OwnerID, &r.Passage.Content,
			&r.Passage.Source, &r.Passage.CreatedAt, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning passage row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading passage rows: %w", err)
	}

	s.logger.Debug("searched passages", "owner_id", ownerID, "results", len(results))
	return results, nil
}

// Count returns the number of passages in ownerID's corpus.
func (s *Store) Count(ctx context.Context, ownerID string) (int64, error) {
	if strings.TrimSpace(ownerID) == "" {
		return 0, ErrEmptyOwner
	}

	var count int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM passages WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting passages: %w", err)
	}
	return count, nil
}

// Delete removes a passage. The owner ID must match the stored row; deleting
// another owner's passage is a silent no-op reported as zero rows affected.
func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrEmptyOwner
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM passages WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting passage %q: %w", id, err)
	}
	s.logger.Debug("deleted passage", "id", id, "owner_id", ownerID, "rows", tag.RowsAffected())
	return nil
}

func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("generating embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, ErrEmptyEmbedding
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
