package services

import (
	"context"
	"testing"

	"github.com/devfolio/portfolio-rag/models"
)

func TestMemoryIndexQueryOrdersBySimilarity(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	err := idx.Upsert(ctx, []models.IndexRecord{
		{ID: "aligned", Vector: []float32{1, 0}},
		{ID: "diagonal", Vector: []float32{1, 1}},
		{ID: "orthogonal", Vector: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	matches, err := idx.Query(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	if matches[0].ID != "aligned" || matches[1].ID != "diagonal" || matches[2].ID != "orthogonal" {
		t.Errorf("matches out of similarity order: %q, %q, %q", matches[0].ID, matches[1].ID, matches[2].ID)
	}
	if matches[0].Score < 0.99 {
		t.Errorf("identical vector scored %v, want ~1", matches[0].Score)
	}
}

func TestMemoryIndexQueryHonorsTopK(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	idx.Upsert(ctx, []models.IndexRecord{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{0.9, 0.1}},
		{ID: "c", Vector: []float32{0, 1}},
	})

	matches, _ := idx.Query(ctx, []float32{1, 0}, 2)
	if len(matches) != 2 {
		t.Errorf("got %d matches, want topK=2", len(matches))
	}
}

func TestMemoryIndexUpsertReplacesByID(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	idx.Upsert(ctx, []models.IndexRecord{{ID: "a", Vector: []float32{1, 0}}})
	idx.Upsert(ctx, []models.IndexRecord{{ID: "a", Vector: []float32{0, 1}}})

	stats, _ := idx.Stats(ctx)
	if stats.TotalVectors != 1 {
		t.Errorf("TotalVectors = %d after re-upserting the same ID, want 1", stats.TotalVectors)
	}
}

func TestMemoryIndexDeleteByDocument(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	idx.Upsert(ctx, []models.IndexRecord{
		{ID: "bio_chunk_0", Vector: []float32{1}, Metadata: map[string]any{"parent_document_id": "bio"}},
		{ID: "bio_chunk_1", Vector: []float32{1}, Metadata: map[string]any{"parent_document_id": "bio"}},
		{ID: "skills_chunk_0", Vector: []float32{1}, Metadata: map[string]any{"parent_document_id": "skills"}},
	})

	if err := idx.DeleteByDocument(ctx, "bio"); err != nil {
		t.Fatalf("DeleteByDocument error: %v", err)
	}

	stats, _ := idx.Stats(ctx)
	if stats.TotalVectors != 1 {
		t.Fatalf("TotalVectors = %d, want only the other document's chunk left", stats.TotalVectors)
	}
	matches, _ := idx.Query(ctx, []float32{1}, 10)
	if matches[0].ID != "skills_chunk_0" {
		t.Errorf("surviving record = %q, want skills_chunk_0", matches[0].ID)
	}
}

func TestMemoryIndexClearAndStats(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	idx.Upsert(ctx, []models.IndexRecord{
		{ID: "a", Vector: []float32{1, 2, 3}},
		{ID: "b", Vector: []float32{4, 5, 6}},
	})

	stats, err := idx.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.TotalVectors != 2 || stats.Dimension != 3 {
		t.Errorf("stats = %+v", stats)
	}

	if err := idx.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	stats, _ = idx.Stats(ctx)
	if stats.TotalVectors != 0 {
		t.Errorf("TotalVectors = %d after Clear, want 0", stats.TotalVectors)
	}
}
