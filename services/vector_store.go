package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/devfolio/portfolio-rag/models"
)

// embedWorkers bounds how many chunk embeddings run in parallel during an
// upsert, to stay inside provider rate limits.
const embedWorkers = 4

// VectorStoreService wraps an embedding provider and a vector index behind
// the knowledge-store contract. Index-side failures are absorbed here and
// reported as empty/false results so a flaky index degrades retrieval
// instead of crashing the chat pipeline; embedding failures from Embed
// propagate because callers must know their input never reached the index.
type VectorStoreService struct {
	embedder EmbeddingProvider
	index    VectorIndex

	mu    sync.Mutex
	ready bool
}

func NewVectorStoreService(embedder EmbeddingProvider, index VectorIndex) *VectorStoreService {
	return &VectorStoreService{embedder: embedder, index: index}
}

// EnsureIndex creates or connects the backing index. Idempotent; returns
// false instead of an error on provider failure.
func (s *VectorStoreService) EnsureIndex(ctx context.Context) bool {
	if err := s.ensure(ctx); err != nil {
		log.Printf("SERVICE: Failed to initialize vector index: %v", err)
		return false
	}
	return true
}

// ensure is the single initialization barrier: concurrent first callers
// collapse into one EnsureReady call, and a failed attempt stays retryable.
func (s *VectorStoreService) ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if err := s.index.EnsureReady(ctx); err != nil {
		return err
	}
	s.ready = true
	return nil
}

// Embed creates an embedding for text. Errors propagate.
func (s *VectorStoreService) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	return vector, nil
}

// Upsert embeds every chunk and stores the whole batch in one index call.
// All-or-nothing per call: any embedding or index error fails the batch.
// Chunk embeddings are mutually independent, so they run on a small worker
// pool before the single blocking upsert.
func (s *VectorStoreService) Upsert(ctx context.Context, chunks []models.Chunk) bool {
	if err := s.ensure(ctx); err != nil {
		log.Printf("SERVICE: Upsert aborted, index unavailable: %v", err)
		return false
	}
	if len(chunks) == 0 {
		return true
	}

	records := make([]models.IndexRecord, len(chunks))
	errs := make([]error, len(chunks))
	sem := make(chan struct{}, embedWorkers)
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk models.Chunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			vector, err := s.embedder.Embed(ctx, chunk.Text)
			if err != nil {
				errs[i] = fmt.Errorf("failed to embed chunk %s: %w", chunk.ID, err)
				return
			}

			metadata := make(map[string]any, len(chunk.Metadata)+1)
			for k, v := range chunk.Metadata {
				metadata[k] = v
			}
			metadata["text"] = chunk.Text

			records[i] = models.IndexRecord{ID: chunk.ID, Vector: vector, Metadata: metadata}
		}(i, chunk)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			log.Printf("SERVICE: Failed to store documents: %v", err)
			return false
		}
	}

	if err := s.index.Upsert(ctx, records); err != nil {
		log.Printf("SERVICE: Failed to store documents: %v", err)
		return false
	}
	log.Printf("SERVICE: Stored %d chunks in vector index", len(records))
	return true
}

// Query embeds the query text and returns fragments scoring at least
// minScore, ordered by descending score and capped at topK. Any failure,
// embedding included, degrades to an empty result here.
func (s *VectorStoreService) Query(ctx context.Context, query string, topK int, minScore float64) []models.RetrievedFragment {
	if err := s.ensure(ctx); err != nil {
		log.Printf("SERVICE: Similarity search failed, index unavailable: %v", err)
		return nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("SERVICE: Similarity search failed to embed query: %v", err)
		return nil
	}

	matches, err := s.index.Query(ctx, vector, topK)
	if err != nil {
		log.Printf("SERVICE: Similarity search failed: %v", err)
		return nil
	}

	// Providers return matches in descending score order; keep that order
	// stable even if an implementation does not.
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	fragments := make([]models.RetrievedFragment, 0, len(matches))
	for _, match := range matches {
		if match.Score < minScore {
			continue
		}
		if len(fragments) == topK {
			break
		}

		text, _ := match.Metadata["text"].(string)
		metadata := make(map[string]any, len(match.Metadata))
		for k, v := range match.Metadata {
			if k == "text" {
				continue
			}
			metadata[k] = v
		}
		fragments = append(fragments, models.RetrievedFragment{
			ID:       match.ID,
			Score:    match.Score,
			Text:     text,
			Metadata: metadata,
		})
	}

	log.Printf("SERVICE: Found %d similar documents (score >= %.2f)", len(fragments), minScore)
	return fragments
}

// Delete removes a single record by id.
func (s *VectorStoreService) Delete(ctx context.Context, id string) bool {
	if err := s.ensure(ctx); err != nil {
		log.Printf("SERVICE: Delete aborted, index unavailable: %v", err)
		return false
	}
	if err := s.index.Delete(ctx, id); err != nil {
		log.Printf("SERVICE: Failed to delete record %s: %v", id, err)
		return false
	}
	log.Printf("SERVICE: Deleted record %s", id)
	return true
}

// DeleteDocument removes a document and all of its chunks: the raw id (for
// unchunked records) plus everything marked with it as parent.
func (s *VectorStoreService) DeleteDocument(ctx context.Context, documentID string) bool {
	if err := s.ensure(ctx); err != nil {
		log.Printf("SERVICE: Delete aborted, index unavailable: %v", err)
		return false
	}
	if err := s.index.Delete(ctx, documentID); err != nil {
		log.Printf("SERVICE: Failed to delete document %s: %v", documentID, err)
		return false
	}
	if err := s.index.DeleteByDocument(ctx, documentID); err != nil {
		log.Printf("SERVICE: Failed to delete chunks of document %s: %v", documentID, err)
		return false
	}
	log.Printf("SERVICE: Deleted document %s", documentID)
	return true
}

// Clear removes every vector from the index. The ready flag is dropped so
// the next operation re-runs EnsureReady; index implementations that clear
// by recreating their backing collection reconnect before being used again.
func (s *VectorStoreService) Clear(ctx context.Context) bool {
	if err := s.ensure(ctx); err != nil {
		log.Printf("SERVICE: Clear aborted, index unavailable: %v", err)
		return false
	}
	if err := s.index.Clear(ctx); err != nil {
		log.Printf("SERVICE: Failed to clear index: %v", err)
		return false
	}
	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()
	log.Println("SERVICE: Cleared all vectors from index")
	return true
}

// Stats returns the index statistics; the error carries the provider failure
// description for the stats endpoint to report.
func (s *VectorStoreService) Stats(ctx context.Context) (models.IndexStats, error) {
	if err := s.ensure(ctx); err != nil {
		return models.IndexStats{}, fmt.Errorf("index unavailable: %w", err)
	}
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return models.IndexStats{}, fmt.Errorf("failed to get index stats: %w", err)
	}
	return stats, nil
}
