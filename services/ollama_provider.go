package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/devfolio/portfolio-rag/config"
	"github.com/devfolio/portfolio-rag/models"
)

// OllamaProvider implements both provider contracts against a local Ollama
// instance. Selected with LLM_PROVIDER=ollama for offline development.
type OllamaProvider struct {
	httpClient     *http.Client
	baseURL        string
	chatModel      string
	embeddingModel string
	maxTokens      int
	temperature    float64
}

func NewOllamaProvider(cfg *config.Config, httpClient *http.Client) *OllamaProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaProvider{
		httpClient:     httpClient,
		baseURL:        cfg.OllamaBaseURL,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		maxTokens:      cfg.MaxTokens,
		temperature:    cfg.Temperature,
	}
}

// Embed generates an embedding through the Ollama embeddings API.
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(models.OllamaEmbedRequest{
		Model:  p.embeddingModel,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	var ollamaResp models.OllamaEmbedResponse
	if err := p.post(ctx, "/api/embeddings", reqBody, &ollamaResp); err != nil {
		return nil, err
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return ollamaResp.Embedding, nil
}

// Complete runs a non-streaming chat completion through the Ollama chat API.
func (p *OllamaProvider) Complete(ctx context.Context, messages []models.ChatTurn) (string, error) {
	reqBody, err := json.Marshal(models.OllamaChatRequest{
		Model:    p.chatModel,
		Messages: messages,
		Stream:   false,
		Options: map[string]any{
			"temperature": p.temperature,
			"num_predict": p.maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	var chatResp models.OllamaChatResponse
	if err := p.post(ctx, "/api/chat", reqBody, &chatResp); err != nil {
		return "", err
	}
	return chatResp.Message.Content, nil
}

func (p *OllamaProvider) post(ctx context.Context, path string, body []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to call ollama api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return nil
}
