package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/devfolio/portfolio-rag/config"
	"github.com/devfolio/portfolio-rag/models"
)

// GeminiProvider implements both provider contracts against the Gemini API.
// Selected with LLM_PROVIDER=gemini.
type GeminiProvider struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
	maxTokens      int32
	temperature    float32
}

func NewGeminiProvider(ctx context.Context, cfg *config.Config) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiProvider{
		client:         client,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		maxTokens:      int32(cfg.MaxTokens),
		temperature:    float32(cfg.Temperature),
	}, nil
}

// Embed creates an embedding with the configured embedding model.
func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.Models.EmbedContent(ctx, p.embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}
	return resp.Embeddings[0].Values, nil
}

// Complete runs a chat completion. The system turn becomes the system
// instruction; assistant turns map to the "model" role.
func (p *GeminiProvider) Complete(ctx context.Context, messages []models.ChatTurn) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		MaxOutputTokens: p.maxTokens,
		Temperature:     genai.Ptr(p.temperature),
	}

	var contents []*genai.Content
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			if sys := genai.Text(m.Content); len(sys) > 0 {
				genCfg.SystemInstruction = sys[0]
			}
			continue
		}
		role := genai.RoleUser
		if m.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	result, err := p.client.Models.GenerateContent(ctx, p.chatModel, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var answer strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			answer.WriteString(part.Text)
		}
	}
	return answer.String(), nil
}
