package knowledge

import "errors"

// Sentinel errors for the knowledge store. Callers check these with
// errors.Is; wrapped errors carry the operational detail.
var (
	// ErrEmptyOwner indicates an operation was attempted without an owner ID.
	// Owner scoping is mandatory; there is no unscoped access path.
	ErrEmptyOwner = errors.New("knowledge: owner ID is empty")

	// ErrEmptyContent indicates a passage with no content was submitted.
	ErrEmptyContent = errors.New("knowledge: passage content is empty")

	// ErrEmptyEmbedding indicates the embedder returned no vector.
	ErrEmptyEmbedding = errors.New("knowledge: embedder returned empty embedding")
)
