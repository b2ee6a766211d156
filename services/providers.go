package services

import (
	"context"

	"github.com/devfolio/portfolio-rag/models"
)

// EmbeddingProvider turns text into a fixed-length vector. The model is
// chosen at construction time; the vector length is constant per deployment.
// Embedding failures propagate to callers, unlike index-side failures.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenerationProvider completes a chat conversation into a single text answer.
type GenerationProvider interface {
	Complete(ctx context.Context, messages []models.ChatTurn) (string, error)
}

// VectorIndex is the nearest-neighbour index capability consumed by the
// vector store service. Production is backed by Chroma; tests use the
// in-memory implementation.
type VectorIndex interface {
	// EnsureReady creates the backing collection if absent and connects to
	// it. It is idempotent and safe for concurrent first use.
	EnsureReady(ctx context.Context) error

	// Upsert stores records in one batched call.
	Upsert(ctx context.Context, records []models.IndexRecord) error

	// Query returns up to topK nearest neighbours ordered by descending
	// cosine similarity, scores normalized to [0,1].
	Query(ctx context.Context, vector []float32, topK int) ([]models.IndexMatch, error)

	// Delete removes the given record IDs.
	Delete(ctx context.Context, ids ...string) error

	// DeleteByDocument removes every chunk whose metadata marks the given
	// parent document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Clear removes all records. The index must remain usable afterwards.
	Clear(ctx context.Context) error

	// Stats describes the index contents.
	Stats(ctx context.Context) (models.IndexStats, error)
}

// DocumentRetriever is the retrieval seam the orchestrator depends on.
type DocumentRetriever interface {
	Search(ctx context.Context, query string) ([]models.RetrievedFragment, error)
}

// KnowledgeStore is the storage seam the orchestrator depends on. The
// boolean-returning operations swallow provider errors at the adapter
// boundary; only Stats reports the failure description to its caller.
type KnowledgeStore interface {
	EnsureIndex(ctx context.Context) bool
	Upsert(ctx context.Context, chunks []models.Chunk) bool
	Delete(ctx context.Context, id string) bool
	DeleteDocument(ctx context.Context, documentID string) bool
	Clear(ctx context.Context) bool
	Stats(ctx context.Context) (models.IndexStats, error)
}
