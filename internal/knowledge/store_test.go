package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEmbedder implements ai.Embedder for testing.
type mockEmbedder struct {
	err   error
	empty bool
}

func (m *mockEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.empty {
		return &ai.EmbedResponse{}, nil
	}
	return &ai.EmbedResponse{
		Embeddings: []*ai.Embedding{{Embedding: []float32{0.1, 0.2, 0.3}}},
	}, nil
}

func (m *mockEmbedder) Name() string { return "mockEmbedder" }

func (m *mockEmbedder) Register(r api.Registry) {}

// fakeQuerier records Exec calls and serves canned QueryRow results.
type fakeQuerier struct {
	execSQL  string
	execArgs []any
	execErr  error
	rowScan  func(dest ...any) error
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return fakeRow{scan: f.rowScan}
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

func TestAddValidation(t *testing.T) {
	store := New(&fakeQuerier{}, &mockEmbedder{}, nil)
	ctx := context.Background()

	t.Run("empty owner", func(t *testing.T) {
		_, err := store.Add(ctx, Passage{Content: "hello"})
		assert.ErrorIs(t, err, ErrEmptyOwner)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := store.Add(ctx, Passage{OwnerID: "alice", Content: "   "})
		assert.ErrorIs(t, err, ErrEmptyContent)
	})
}

func TestAddGeneratesID(t *testing.T) {
	q := &fakeQuerier{}
	store := New(q, &mockEmbedder{}, nil)

	id, err := store.Add(context.Background(), Passage{OwnerID: "alice", Content: "the sky is blue"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, q.execArgs, 5)
	assert.Equal(t, id, q.execArgs[0])
	assert.Equal(t, "alice", q.execArgs[1])
}

func TestAddKeepsExplicitID(t *testing.T) {
	q := &fakeQuerier{}
	store := New(q, &mockEmbedder{}, nil)

	id, err := store.Add(context.Background(), Passage{
		ID:      "passage-1",
		OwnerID: "alice",
		Content: "the sky is blue",
	})
	require.NoError(t, err)
	assert.Equal(t, "passage-1", id)
}

func TestAddEmbedderFailure(t *testing.T) {
	embedErr := errors.New("embedder unavailable")
	store := New(&fakeQuerier{}, &mockEmbedder{err: embedErr}, nil)

	_, err := store.Add(context.Background(), Passage{OwnerID: "alice", Content: "x"})
	assert.ErrorIs(t, err, embedErr)
}

func TestAddEmptyEmbedding(t *testing.T) {
	store := New(&fakeQuerier{}, &mockEmbedder{empty: true}, nil)

	_, err := store.Add(context.Background(), Passage{OwnerID: "alice", Content: "x"})
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}

func TestSearchRequiresOwner(t *testing.T) {
	store := New(&fakeQuerier{}, &mockEmbedder{}, nil)

	_, err := store.Search(context.Background(), "", "anything")
	assert.ErrorIs(t, err, ErrEmptyOwner)
}

func TestCount(t *testing.T) {
	q := &fakeQuerier{
		rowScan: func(dest ...any) error {
			*(dest[0].(*int64)) = 7
			return nil
		},
	}
	store := New(q, &mockEmbedder{}, nil)

	n, err := store.Count(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestCountRequiresOwner(t *testing.T) {
	store := New(&fakeQuerier{}, &mockEmbedder{}, nil)

	_, err := store.Count(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyOwner)
}

func TestDeleteRequiresOwner(t *testing.T) {
	store := New(&fakeQuerier{}, &mockEmbedder{}, nil)

	err := store.Delete(context.Background(), "", "passage-1")
	assert.ErrorIs(t, err, ErrEmptyOwner)
}

func TestSearchOptions(t *testing.T) {
	cfg := buildSearchConfig([]SearchOption{WithTopK(10)})
	assert.Equal(t, 10, cfg.topK)
	assert.Equal(t, DefaultSearchTimeout, cfg.timeout)

	cfg = buildSearchConfig(nil)
	assert.Equal(t, 4, cfg.topK)

	// Non-positive values keep the defaults.
	cfg = buildSearchConfig([]SearchOption{WithTopK(-1), WithTimeout(0)})
	assert.Equal(t, 4, cfg.topK)
	assert.Equal(t, DefaultSearchTimeout, cfg.timeout)
}
