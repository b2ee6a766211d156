package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider names accepted for LLM_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Config holds every recognized setting, populated from environment variables
// (optionally via a .env file). All values are read once at startup.
type Config struct {
	// Provider selection and credentials
	Provider      string
	OpenAIAPIKey  string
	GeminiAPIKey  string
	OllamaBaseURL string

	// Models
	ChatModel      string
	EmbeddingModel string

	// Vector index
	ChromaURL          string
	IndexName          string
	EmbeddingDimension int

	// Generation
	MaxTokens   int
	Temperature float64

	// Retrieval
	TopK         int
	MinScore     float64
	ChunkSize    int
	ChunkOverlap int

	// Server
	Port        string
	CORSOrigins []string
	WatchDir    string
}

// Load reads the .env file if present, then builds and validates the Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("CONFIG: No .env file found, relying on environment variables.")
	}

	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI))
	defaultChatModel, defaultEmbeddingModel := defaultModels(provider)

	cfg := &Config{
		Provider:           provider,
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		ChatModel:          getEnv("CHAT_MODEL", defaultChatModel),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", defaultEmbeddingModel),
		ChromaURL:          getEnv("CHROMA_URL", "http://localhost:8000"),
		IndexName:          getEnv("INDEX_NAME", "portfolio-rag"),
		EmbeddingDimension: getEnvInt("EMBEDDING_DIMENSION", 1536),
		MaxTokens:          getEnvInt("MAX_TOKENS", 500),
		Temperature:        getEnvFloat("TEMPERATURE", 0.7),
		TopK:               getEnvInt("RAG_TOP_K", 5),
		MinScore:           getEnvFloat("RAG_MIN_SCORE", 0.7),
		ChunkSize:          getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:       getEnvInt("CHUNK_OVERLAP", 200),
		Port:               getEnv("PORT", "8080"),
		CORSOrigins:        splitOrigins(getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
		WatchDir:           os.Getenv("WATCH_DIR"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the same constraints the service relied on in production:
// key formats, numeric ranges, and the chunk overlap relation.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if !strings.HasPrefix(c.OpenAIAPIKey, "sk-") {
			return fmt.Errorf("OPENAI_API_KEY must start with \"sk-\"")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be set when LLM_PROVIDER=gemini")
		}
	case ProviderOllama:
		if c.OllamaBaseURL == "" {
			return fmt.Errorf("OLLAMA_BASE_URL must be set when LLM_PROVIDER=ollama")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (want openai, gemini or ollama)", c.Provider)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("TEMPERATURE must be between 0 and 2, got %v", c.Temperature)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("RAG_MIN_SCORE must be between 0 and 1, got %v", c.MinScore)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("RAG_TOP_K must be positive, got %d", c.TopK)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be non-negative and less than CHUNK_SIZE, got %d", c.ChunkOverlap)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.EmbeddingDimension)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	return nil
}

// defaultModels picks sensible chat/embedding model defaults per provider.
func defaultModels(provider string) (chat, embedding string) {
	switch provider {
	case ProviderGemini:
		return "gemini-2.5-flash", "text-embedding-004"
	case ProviderOllama:
		return "llama3", "nomic-embed-text:v1.5"
	default:
		return "gpt-4o-mini", "text-embedding-3-small"
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("CONFIG: invalid integer for %s (%q), using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("CONFIG: invalid number for %s (%q), using default %v", key, v, fallback)
		return fallback
	}
	return f
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
