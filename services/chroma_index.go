package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/devfolio/portfolio-rag/models"
)

// ChromaIndex implements VectorIndex on a Chroma collection using the v2
// API. Collections use cosine space, so match scores are reported as
// 1 - distance.
type ChromaIndex struct {
	client         chromago.Client
	collectionName string
	dimension      int

	mu         sync.Mutex
	collection chromago.Collection
}

// NewChromaIndex creates the client; the collection itself is created or
// connected lazily by EnsureReady.
func NewChromaIndex(baseURL, collectionName string, dimension int) (*ChromaIndex, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}
	return &ChromaIndex{
		client:         client,
		collectionName: collectionName,
		dimension:      dimension,
	}, nil
}

// EnsureReady gets or creates the collection. Concurrent first callers are
// serialized by the mutex so only one create call reaches the provider; a
// failed attempt is retried on the next call.
func (c *ChromaIndex) EnsureReady(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// connectLocked gets or creates the collection. Callers must hold c.mu.
func (c *ChromaIndex) connectLocked(ctx context.Context) error {
	if c.collection != nil {
		return nil
	}

	collection, err := c.client.GetOrCreateCollection(
		ctx,
		c.collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("hnsw:space", "cosine"),
				chromago.NewIntAttribute("dimension", int64(c.dimension)),
			),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to get or create collection %q: %w", c.collectionName, err)
	}
	log.Printf("SERVICE: Connected to collection %q", c.collectionName)
	c.collection = collection
	return nil
}

func (c *ChromaIndex) current() (chromago.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collection == nil {
		return nil, fmt.Errorf("collection %q not initialized", c.collectionName)
	}
	return c.collection, nil
}

// Upsert stores all records in one batched call.
func (c *ChromaIndex) Upsert(ctx context.Context, records []models.IndexRecord) error {
	collection, err := c.current()
	if err != nil {
		return err
	}

	ids := make([]chromago.DocumentID, len(records))
	texts := make([]string, len(records))
	embeds := make([]embeddings.Embedding, len(records))
	metadatas := make([]chromago.DocumentMetadata, len(records))
	for i, rec := range records {
		ids[i] = chromago.DocumentID(rec.ID)
		texts[i], _ = rec.Metadata["text"].(string)
		embeds[i] = embeddings.NewEmbeddingFromFloat32(rec.Vector)
		metadatas[i] = toDocumentMetadata(rec.Metadata)
	}

	if err := collection.Upsert(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(embeds...),
		chromago.WithMetadatas(metadatas...),
	); err != nil {
		return fmt.Errorf("failed to upsert records: %w", err)
	}
	return nil
}

// Query returns the topK nearest neighbours with metadata, scores converted
// from cosine distance to similarity.
func (c *ChromaIndex) Query(ctx context.Context, vector []float32, topK int) ([]models.IndexMatch, error) {
	collection, err := c.current()
	if err != nil {
		return nil, err
	}

	results, err := collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(topK),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	idGroups := results.GetIDGroups()
	distanceGroups := results.GetDistancesGroups()
	metadataGroups := results.GetMetadatasGroups()
	if len(idGroups) == 0 {
		return nil, nil
	}

	matches := make([]models.IndexMatch, 0, len(idGroups[0]))
	for i, id := range idGroups[0] {
		var score float64
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			score = distanceToScore(float64(distanceGroups[0][i]))
		}

		var metadata map[string]any
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			metadata = metadataToMap(metadataGroups[0][i])
		}

		matches = append(matches, models.IndexMatch{
			ID:       string(id),
			Score:    score,
			Metadata: metadata,
		})
	}
	return matches, nil
}

// Delete removes records by id. Missing ids are not an error.
func (c *ChromaIndex) Delete(ctx context.Context, ids ...string) error {
	collection, err := c.current()
	if err != nil {
		return err
	}
	docIDs := make([]chromago.DocumentID, len(ids))
	for i, id := range ids {
		docIDs[i] = chromago.DocumentID(id)
	}
	if err := collection.Delete(ctx, chromago.WithIDsDelete(docIDs...)); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

// DeleteByDocument removes every chunk whose parent_document_id matches.
func (c *ChromaIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	collection, err := c.current()
	if err != nil {
		return err
	}
	where := chromago.EqString("parent_document_id", documentID)
	if err := collection.Delete(ctx, chromago.WithWhereDelete(where)); err != nil {
		return fmt.Errorf("failed to delete chunks of %s: %w", documentID, err)
	}
	return nil
}

// Clear drops the collection and immediately creates a fresh empty one, so
// the index stays usable for the operations that follow.
func (c *ChromaIndex) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.client.DeleteCollection(ctx, c.collectionName); err != nil {
		return fmt.Errorf("failed to delete collection %q: %w", c.collectionName, err)
	}
	c.collection = nil
	return c.connectLocked(ctx)
}

// Stats reports vector count and configured dimension. Chroma has no
// fullness notion, so it is always zero.
func (c *ChromaIndex) Stats(ctx context.Context) (models.IndexStats, error) {
	collection, err := c.current()
	if err != nil {
		return models.IndexStats{}, err
	}
	count, err := collection.Count(ctx)
	if err != nil {
		return models.IndexStats{}, fmt.Errorf("failed to count collection: %w", err)
	}
	return models.IndexStats{
		TotalVectors:  int(count),
		Dimension:     c.dimension,
		IndexFullness: 0,
		Namespaces:    map[string]any{},
	}, nil
}

// distanceToScore converts cosine distance to a similarity score. Distance
// ranges up to 2 for opposed vectors, so the score is clamped into [0,1].
func distanceToScore(distance float64) float64 {
	score := 1 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// toDocumentMetadata converts a metadata map into typed Chroma attributes.
// Unknown scalar types are stored as their string form.
func toDocumentMetadata(metadata map[string]any) chromago.DocumentMetadata {
	attrs := make([]*chromago.MetaAttribute, 0, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(k, val))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(k, int64(val)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(k, val))
		case float64:
			attrs = append(attrs, chromago.NewFloatAttribute(k, val))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(k, val))
		default:
			attrs = append(attrs, chromago.NewStringAttribute(k, fmt.Sprintf("%v", val)))
		}
	}
	return chromago.NewDocumentMetadata(attrs...)
}

// metadataToMap converts DocumentMetadata back into a plain map. The struct
// exposes no value accessor, so a JSON round trip is the supported path.
func metadataToMap(metadata chromago.DocumentMetadata) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		log.Printf("WARN: could not marshal metadata: %v", err)
		return map[string]any{}
	}
	out := make(map[string]any)
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		log.Printf("WARN: could not unmarshal metadata: %v", err)
		return map[string]any{}
	}
	return out
}
