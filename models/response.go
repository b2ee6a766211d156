package models

// Source identifies one knowledge-base fragment that informed a response.
type Source struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RAGResponse is the chat pipeline's result. On internal failure Error is set,
// Response carries an apologetic message and Sources is empty; the HTTP layer
// still returns it as a success payload.
type RAGResponse struct {
	Response    string   `json:"response"`
	ModelUsed   string   `json:"model_used"`
	SourcesUsed int      `json:"sources_used"`
	Sources     []Source `json:"sources"`
	Error       string   `json:"error,omitempty"`
}

// RAGSettings echoes the retrieval tuning knobs in stats responses.
type RAGSettings struct {
	TopK         int     `json:"top_k"`
	MinScore     float64 `json:"min_score"`
	ChunkSize    int     `json:"chunk_size"`
	ChunkOverlap int     `json:"chunk_overlap"`
}

// StatsResponse summarises the knowledge base for the read-only stats endpoint.
type StatsResponse struct {
	TotalDocuments int         `json:"total_documents"`
	IndexDimension int         `json:"index_dimension"`
	IndexFullness  float64     `json:"index_fullness"`
	EmbeddingModel string      `json:"embedding_model"`
	ChatModel      string      `json:"chat_model"`
	RAGSettings    RAGSettings `json:"rag_settings"`
	Error          string      `json:"error,omitempty"`
}
