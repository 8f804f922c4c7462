package crag

import "context"

// Searcher retrieves scored passages from the context store, mandatorily
// scoped to one owner. Queries never cross owner boundaries.
type Searcher interface {
	Search(ctx context.Context, ownerID, query string) ([]Passage, error)
}

// Generator is the generation gateway. Structured calls validate model
// output against the requested schema and fail with ErrSchemaViolation on
// non-conforming output; transient provider failures surface as
// ErrGatewayUnavailable after bounded retries.
type Generator interface {
	// Grade classifies whether context is relevant to question.
	Grade(ctx context.Context, question, context string) (GradeResponse, error)

	// Rephrase rewrites question into a clearer, retrieval-friendly form.
	Rephrase(ctx context.Context, question string) (string, error)

	// Crawl invokes the model with the research tool catalog bound. The
	// returned assistant message may carry pending tool calls instead of
	// (or alongside) text.
	Crawl(ctx context.Context, msgs []Message) (Message, error)

	// Respond composes the final concise answer from the selected context.
	Respond(ctx context.Context, question, context string) (string, error)
}

// ToolInvoker dispatches a model-requested tool call by name.
// *tools.Registry satisfies it.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
}

// StateStore persists conversation state. Load returns ErrStateNotFound for
// unknown keys. Save must be atomic per key: concurrent readers of the same
// key never observe a partial write.
type StateStore interface {
	Load(ctx context.Context, key string) (*State, error)
	Save(ctx context.Context, key string, s *State) error
}
