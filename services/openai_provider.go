package services

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/devfolio/portfolio-rag/config"
	"github.com/devfolio/portfolio-rag/models"
)

// OpenAIProvider implements both provider contracts against the OpenAI API.
// One client serves chat completions and embeddings.
type OpenAIProvider struct {
	llm         *openai.LLM
	chatModel   string
	maxTokens   int
	temperature float64
}

func NewOpenAIProvider(cfg *config.Config) (*OpenAIProvider, error) {
	llm, err := openai.New(
		openai.WithToken(cfg.OpenAIAPIKey),
		openai.WithModel(cfg.ChatModel),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &OpenAIProvider{
		llm:         llm,
		chatModel:   cfg.ChatModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Embed creates an embedding with the configured embedding model.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("openai embedding failed: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("openai returned an empty embedding")
	}
	return vectors[0], nil
}

// Complete runs a chat completion over the full message list.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []models.ChatTurn) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case models.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case models.RoleAssistant:
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	resp, err := p.llm.GenerateContent(ctx, content,
		llms.WithModel(p.chatModel),
		llms.WithMaxTokens(p.maxTokens),
		llms.WithTemperature(p.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Content, nil
}
