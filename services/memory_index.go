package services

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/devfolio/portfolio-rag/models"
)

// MemoryIndex is an in-process VectorIndex backed by a map. It is the test
// double for the Chroma adapter and doubles as a dependency-free index for
// local development.
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[string]models.IndexRecord
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[string]models.IndexRecord)}
}

func (m *MemoryIndex) EnsureReady(context.Context) error { return nil }

func (m *MemoryIndex) Upsert(_ context.Context, records []models.IndexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		m.records[rec.ID] = rec
	}
	return nil
}

func (m *MemoryIndex) Query(_ context.Context, vector []float32, topK int) ([]models.IndexMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]models.IndexMatch, 0, len(m.records))
	for _, rec := range m.records {
		matches = append(matches, models.IndexMatch{
			ID:       rec.ID,
			Score:    cosineSimilarity(vector, rec.Vector),
			Metadata: rec.Metadata,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *MemoryIndex) Delete(_ context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

func (m *MemoryIndex) DeleteByDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.records {
		if parent, ok := rec.Metadata["parent_document_id"].(string); ok && parent == documentID {
			delete(m.records, id)
		}
	}
	return nil
}

func (m *MemoryIndex) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]models.IndexRecord)
	return nil
}

func (m *MemoryIndex) Stats(context.Context) (models.IndexStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dimension := 0
	for _, rec := range m.records {
		dimension = len(rec.Vector)
		break
	}
	return models.IndexStats{
		TotalVectors:  len(m.records),
		Dimension:     dimension,
		IndexFullness: 0,
		Namespaces:    map[string]any{},
	}, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
