package models

// Document is the unit of ingestion. The ID is caller-assigned and must be
// unique within the knowledge base; Metadata is opaque to the pipeline and is
// carried through to the vector index unchanged.
type Document struct {
	ID       string         `json:"id" binding:"required"`
	Text     string         `json:"text" binding:"required"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Chunk is a bounded substring of a Document, the unit of embedding and
// retrieval. Its ID is "{documentID}_chunk_{n}" with n contiguous from 0.
type Chunk struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// RetrievedFragment is one similarity-search hit. Score is cosine similarity
// in [0,1]; Metadata excludes the raw text field stored alongside the vector.
type RetrievedFragment struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// IndexRecord is what gets upserted into the vector index.
type IndexRecord struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// IndexMatch is a raw nearest-neighbour result from the index provider,
// before score thresholding.
type IndexMatch struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// IndexStats describes the state of the backing vector index.
type IndexStats struct {
	TotalVectors  int            `json:"total_vectors"`
	Dimension     int            `json:"dimension"`
	IndexFullness float64        `json:"index_fullness"`
	Namespaces    map[string]any `json:"namespaces"`
}
