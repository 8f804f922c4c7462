package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuquery/docuquery/internal/knowledge"
)

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(1000, 200)

	got := s.Split("a short paragraph")
	assert.Equal(t, []string{"a short paragraph"}, got)
}

func TestSplitEmpty(t *testing.T) {
	s := NewSplitter(1000, 200)

	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\n  "))
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(100, 20)

	var b strings.Builder
	for range 50 {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
	}

	chunks := s.Split(b.String())
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		// Overlap carry can push a chunk slightly past the target, but
		// never past size plus overlap.
		assert.LessOrEqualf(t, len(chunk), s.ChunkSize+s.Overlap, "chunk %d too large", i)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s := NewSplitter(60, 10)

	text := "First paragraph here.\n\nSecond paragraph here.\n\nThird paragraph here."
	chunks := s.Split(text)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Contains(t, chunks[0], "First paragraph")
}

func TestSplitOverlapCarriesContext(t *testing.T) {
	s := NewSplitter(50, 15)

	text := strings.Repeat("alpha beta gamma delta epsilon zeta. ", 10)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	// Each chunk after the first should share a suffix of its predecessor.
	for i := 1; i < len(chunks); i++ {
		head := chunks[i]
		if len(head) > 10 {
			head = head[:10]
		}
		assert.Containsf(t, chunks[i-1]+" "+chunks[i], head, "chunk %d lost continuity", i)
	}
}

func TestSplitNoWhitespace(t *testing.T) {
	s := NewSplitter(40, 10)

	chunks := s.Split(strings.Repeat("x", 200))
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), s.ChunkSize+s.Overlap)
	}
}

func TestNewSplitterClampsOverlap(t *testing.T) {
	s := NewSplitter(100, 500)
	assert.Less(t, s.Overlap, s.ChunkSize)

	s = NewSplitter(0, -1)
	assert.Equal(t, 1000, s.ChunkSize)
	assert.Equal(t, 200, s.Overlap)
}

type recordingAdder struct {
	passages []knowledge.Passage
	failAt   int
	err      error
}

func (r *recordingAdder) Add(ctx context.Context, p knowledge.Passage) (string, error) {
	if r.err != nil && len(r.passages) == r.failAt {
		return "", r.err
	}
	r.passages = append(r.passages, p)
	return "id", nil
}

func TestIngestText(t *testing.T) {
	adder := &recordingAdder{}
	in := New(adder, NewSplitter(50, 10), nil)

	text := strings.Repeat("All work and no play makes for dull anything. ", 5)
	n, err := in.IngestText(context.Background(), "alice", "notes.txt", text)
	require.NoError(t, err)
	assert.Equal(t, len(adder.passages), n)
	require.NotEmpty(t, adder.passages)

	for _, p := range adder.passages {
		assert.Equal(t, "alice", p.OwnerID)
		assert.Equal(t, "notes.txt", p.Source)
	}
}

func TestIngestTextRequiresOwner(t *testing.T) {
	in := New(&recordingAdder{}, nil, nil)

	_, err := in.IngestText(context.Background(), "", "notes.txt", "hello")
	assert.ErrorIs(t, err, knowledge.ErrEmptyOwner)
}

func TestIngestTextEmpty(t *testing.T) {
	in := New(&recordingAdder{}, nil, nil)

	_, err := in.IngestText(context.Background(), "alice", "notes.txt", "  ")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestIngestTextStoreFailure(t *testing.T) {
	storeErr := errors.New("db down")
	adder := &recordingAdder{failAt: 1, err: storeErr}
	in := New(adder, NewSplitter(50, 10), nil)

	text := strings.Repeat("All work and no play makes for dull anything. ", 5)
	n, err := in.IngestText(context.Background(), "alice", "notes.txt", text)
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, 1, n)
}
