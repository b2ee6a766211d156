package models

type ChatRequest struct {
	Message     string     `json:"message" binding:"required"`
	ChatHistory []ChatTurn `json:"chat_history,omitempty"`
}

type IngestDocumentsRequest struct {
	Documents []Document `json:"documents" binding:"required"`
}
