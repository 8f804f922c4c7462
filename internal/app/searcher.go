package app

import (
	"context"

	"github.com/docuquery/docuquery/internal/crag"
	"github.com/docuquery/docuquery/internal/knowledge"
)

// knowledgeSearcher adapts the knowledge store to the answer loop's
// Searcher interface, fixing the retrieval depth from configuration.
type knowledgeSearcher struct {
	store *knowledge.Store
	topK  int
}

func (s *knowledgeSearcher) Search(ctx context.Context, ownerID, query string) ([]crag.Passage, error) {
	results, err := s.store.Search(ctx, ownerID, query, knowledge.WithTopK(s.topK))
	if err != nil {
		return nil, err
	}

	passages := make([]crag.Passage, 0, len(results))
	for _, r := range results {
		passages = append(passages, crag.Passage{
			Content: r.Passage.Content,
			Metadata: map[string]string{
				"owner_id": r.Passage.OwnerID,
				"source":   r.Passage.Source,
			},
		})
	}
	return passages, nil
}
