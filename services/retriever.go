package services

import (
	"context"

	"github.com/devfolio/portfolio-rag/models"
)

// Retriever performs similarity search with configured defaults. It holds no
// state beyond its configuration and delegates to the vector store service.
type Retriever struct {
	store    *VectorStoreService
	topK     int
	minScore float64
}

func NewRetriever(store *VectorStoreService, topK int, minScore float64) *Retriever {
	return &Retriever{store: store, topK: topK, minScore: minScore}
}

// Search retrieves fragments for query using the configured topK and
// minScore. The concrete implementation never fails (the store degrades to
// empty results), but the interface keeps the error so callers handle
// retrieval failure uniformly.
func (r *Retriever) Search(ctx context.Context, query string) ([]models.RetrievedFragment, error) {
	return r.SearchWithParams(ctx, query, r.topK, r.minScore), nil
}

// SearchWithParams overrides topK and/or minScore for a single call.
// Non-positive topK and negative minScore fall back to the defaults.
func (r *Retriever) SearchWithParams(ctx context.Context, query string, topK int, minScore float64) []models.RetrievedFragment {
	if topK <= 0 {
		topK = r.topK
	}
	if minScore < 0 {
		minScore = r.minScore
	}
	return r.store.Query(ctx, query, topK, minScore)
}
