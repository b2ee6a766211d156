package models

// OllamaEmbedRequest is the request body for the Ollama embeddings API.
type OllamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// OllamaEmbedResponse carries the embedding returned by Ollama.
type OllamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// OllamaChatRequest is the request body for the Ollama chat API.
type OllamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []ChatTurn     `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

// OllamaChatResponse is the non-streaming chat completion response.
type OllamaChatResponse struct {
	Message ChatTurn `json:"message"`
}
