package knowledge

import "time"

// VectorDimension is the embedding size the passages schema stores.
// The migrations declare vector(768); embedder output must match.
const VectorDimension = 768

// Passage is an embedded chunk of an owner's document corpus.
// Every passage belongs to exactly one owner and is only ever returned
// by searches scoped to that owner.
type Passage struct {
	ID        string
	OwnerID   string
	Content   string
	Source    string
	CreatedAt time.Time
}

// Result pairs a passage with its similarity to the search query.
// Similarity is cosine similarity in [0, 1], higher is closer.
type Result struct {
	Passage    Passage
	Similarity float64
}

// DefaultSearchTimeout bounds a single vector search including the
// embedding call.
const DefaultSearchTimeout = 10 * time.Second

type searchConfig struct {
	topK    int
	timeout time.Duration
}

// SearchOption configures a Search call.
type SearchOption func(*searchConfig)

// WithTopK sets the maximum number of passages to return.
func WithTopK(k int) SearchOption {
	return func(cfg *searchConfig) {
		if k > 0 {
			cfg.topK = k
		}
	}
}

// WithTimeout overrides the default search timeout.
func WithTimeout(d time.Duration) SearchOption {
	return func(cfg *searchConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

func buildSearchConfig(opts []SearchOption) searchConfig {
	cfg := searchConfig{
		topK:    4,
		timeout: DefaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
