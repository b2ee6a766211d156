package services

import (
	"context"
	"errors"
	"testing"

	"github.com/devfolio/portfolio-rag/models"
)

// stubEmbedder returns a fixed vector, or an error when set.
type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (e *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

// stubIndex is a hand-written VectorIndex whose behavior is set per test.
type stubIndex struct {
	ensureErr   error
	ensureCalls int

	upserted  [][]models.IndexRecord
	upsertErr error

	matches   []models.IndexMatch
	queryTopK int
	queryErr  error

	deleted    []string
	deletedDoc []string
	cleared    int

	stats    models.IndexStats
	statsErr error
}

func (s *stubIndex) EnsureReady(context.Context) error {
	s.ensureCalls++
	return s.ensureErr
}

func (s *stubIndex) Upsert(_ context.Context, records []models.IndexRecord) error {
	s.upserted = append(s.upserted, records)
	return s.upsertErr
}

func (s *stubIndex) Query(_ context.Context, _ []float32, topK int) ([]models.IndexMatch, error) {
	s.queryTopK = topK
	return s.matches, s.queryErr
}

func (s *stubIndex) Delete(_ context.Context, ids ...string) error {
	s.deleted = append(s.deleted, ids...)
	return nil
}

func (s *stubIndex) DeleteByDocument(_ context.Context, documentID string) error {
	s.deletedDoc = append(s.deletedDoc, documentID)
	return nil
}

func (s *stubIndex) Clear(context.Context) error {
	s.cleared++
	return nil
}

func (s *stubIndex) Stats(context.Context) (models.IndexStats, error) {
	return s.stats, s.statsErr
}

func TestEnsureIndexIsIdempotentAndRetryable(t *testing.T) {
	index := &stubIndex{ensureErr: errors.New("connection refused")}
	store := NewVectorStoreService(&stubEmbedder{vector: []float32{1}}, index)

	ctx := context.Background()
	if store.EnsureIndex(ctx) {
		t.Fatal("EnsureIndex succeeded against a failing index")
	}

	// The failure must stay retryable.
	index.ensureErr = nil
	if !store.EnsureIndex(ctx) {
		t.Fatal("EnsureIndex did not recover after the index came back")
	}

	// Once ready, further calls must not hit the index again.
	store.EnsureIndex(ctx)
	store.EnsureIndex(ctx)
	if index.ensureCalls != 2 {
		t.Errorf("EnsureReady called %d times, want 2", index.ensureCalls)
	}
}

func TestQueryFiltersAndCapsResults(t *testing.T) {
	index := &stubIndex{matches: []models.IndexMatch{
		{ID: "a", Score: 0.9, Metadata: map[string]any{"text": "fragment a"}},
		{ID: "b", Score: 0.75, Metadata: map[string]any{"text": "fragment b"}},
		{ID: "c", Score: 0.5, Metadata: map[string]any{"text": "fragment c"}},
	}}
	store := NewVectorStoreService(&stubEmbedder{vector: []float32{1}}, index)

	got := store.Query(context.Background(), "query", 5, 0.8)

	if len(got) != 1 {
		t.Fatalf("expected 1 fragment above 0.8, got %d", len(got))
	}
	if got[0].ID != "a" || got[0].Text != "fragment a" {
		t.Errorf("unexpected fragment: %+v", got[0])
	}
	if _, ok := got[0].Metadata["text"]; ok {
		t.Error("raw text field leaked into fragment metadata")
	}
}

func TestQueryOrdersByScoreAndHonorsTopK(t *testing.T) {
	index := &stubIndex{matches: []models.IndexMatch{
		{ID: "low", Score: 0.71},
		{ID: "high", Score: 0.99},
		{ID: "mid", Score: 0.85},
	}}
	store := NewVectorStoreService(&stubEmbedder{vector: []float32{1}}, index)

	got := store.Query(context.Background(), "query", 2, 0.7)

	if len(got) != 2 {
		t.Fatalf("expected topK=2 fragments, got %d", len(got))
	}
	if got[0].ID != "high" || got[1].ID != "mid" {
		t.Errorf("fragments out of score order: %q, %q", got[0].ID, got[1].ID)
	}
}

func TestQuerySwallowsFailures(t *testing.T) {
	tests := []struct {
		name     string
		embedder *stubEmbedder
		index    *stubIndex
	}{
		{
			name:     "embedding failure",
			embedder: &stubEmbedder{err: errors.New("rate limited")},
			index:    &stubIndex{},
		},
		{
			name:     "index query failure",
			embedder: &stubEmbedder{vector: []float32{1}},
			index:    &stubIndex{queryErr: errors.New("index down")},
		},
		{
			name:     "index unavailable",
			embedder: &stubEmbedder{vector: []float32{1}},
			index:    &stubIndex{ensureErr: errors.New("connection refused")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewVectorStoreService(tt.embedder, tt.index)
			if got := store.Query(context.Background(), "query", 5, 0.7); len(got) != 0 {
				t.Errorf("Query returned %d fragments, want none", len(got))
			}
		})
	}
}

func TestUpsertBatchesAllChunks(t *testing.T) {
	index := &stubIndex{}
	embedder := &stubEmbedder{vector: []float32{0.1, 0.2}}
	store := NewVectorStoreService(embedder, index)

	chunks := []models.Chunk{
		{ID: "doc_chunk_0", Text: "first", Metadata: map[string]any{"chunk_number": 0}},
		{ID: "doc_chunk_1", Text: "second", Metadata: map[string]any{"chunk_number": 1}},
		{ID: "doc_chunk_2", Text: "third", Metadata: map[string]any{"chunk_number": 2}},
	}

	if !store.Upsert(context.Background(), chunks) {
		t.Fatal("Upsert failed")
	}

	if len(index.upserted) != 1 {
		t.Fatalf("expected a single batched index upsert, got %d", len(index.upserted))
	}
	records := index.upserted[0]
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.ID != chunks[i].ID {
			t.Errorf("record %d has ID %q, want %q; order must be preserved", i, rec.ID, chunks[i].ID)
		}
		if rec.Metadata["text"] != chunks[i].Text {
			t.Errorf("record %d metadata missing chunk text", i)
		}
	}
	if embedder.calls != 3 {
		t.Errorf("embedder called %d times, want once per chunk", embedder.calls)
	}
}

func TestUpsertFailsWholeBatchOnEmbedError(t *testing.T) {
	index := &stubIndex{}
	store := NewVectorStoreService(&stubEmbedder{err: errors.New("rate limited")}, index)

	ok := store.Upsert(context.Background(), []models.Chunk{{ID: "doc_chunk_0", Text: "first"}})

	if ok {
		t.Fatal("Upsert reported success despite an embedding failure")
	}
	if len(index.upserted) != 0 {
		t.Error("failed batch still reached the index")
	}
}

func TestUpsertEmptyBatchSucceedsWithoutIndexCall(t *testing.T) {
	index := &stubIndex{}
	store := NewVectorStoreService(&stubEmbedder{vector: []float32{1}}, index)

	if !store.Upsert(context.Background(), nil) {
		t.Fatal("empty upsert must succeed")
	}
	if len(index.upserted) != 0 {
		t.Error("empty upsert hit the index")
	}
}

func TestDeleteDocumentRemovesRecordAndChunks(t *testing.T) {
	index := &stubIndex{}
	store := NewVectorStoreService(&stubEmbedder{vector: []float32{1}}, index)

	if !store.DeleteDocument(context.Background(), "bio") {
		t.Fatal("DeleteDocument failed")
	}
	if len(index.deleted) != 1 || index.deleted[0] != "bio" {
		t.Errorf("raw record delete = %v, want [bio]", index.deleted)
	}
	if len(index.deletedDoc) != 1 || index.deletedDoc[0] != "bio" {
		t.Errorf("chunk delete = %v, want [bio]", index.deletedDoc)
	}
}

func TestStatsPropagatesError(t *testing.T) {
	index := &stubIndex{statsErr: errors.New("index down")}
	store := NewVectorStoreService(&stubEmbedder{vector: []float32{1}}, index)

	if _, err := store.Stats(context.Background()); err == nil {
		t.Fatal("Stats swallowed the index error")
	}
}

func TestEmbedPropagatesError(t *testing.T) {
	store := NewVectorStoreService(&stubEmbedder{err: errors.New("rate limited")}, &stubIndex{})

	if _, err := store.Embed(context.Background(), "text"); err == nil {
		t.Fatal("Embed swallowed the provider error")
	}
}

func TestClearKeepsStoreUsable(t *testing.T) {
	index := &stubIndex{}
	store := NewVectorStoreService(&stubEmbedder{vector: []float32{1}}, index)
	ctx := context.Background()

	if !store.EnsureIndex(ctx) {
		t.Fatal("EnsureIndex failed")
	}
	if !store.Clear(ctx) {
		t.Fatal("Clear failed")
	}

	// Clearing may recreate the backing collection, so the next operation
	// must reconnect and then reach the index.
	if !store.Upsert(ctx, []models.Chunk{{ID: "doc_chunk_0", Text: "after clear"}}) {
		t.Fatal("Upsert after Clear failed")
	}
	if len(index.upserted) != 1 {
		t.Fatal("cleared store never delivered the upsert to the index")
	}
	if index.ensureCalls != 2 {
		t.Errorf("EnsureReady called %d times, want a reconnect after Clear", index.ensureCalls)
	}

	if got := store.Query(ctx, "query", 5, 0); got == nil && index.matches != nil {
		t.Error("Query degraded after Clear")
	}
}
