// Command seed populates the knowledge base with sample portfolio documents.
// Run it once against a fresh index for testing and demonstration:
//
//	go run ./cmd/seed [--clear]
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/devfolio/portfolio-rag/config"
	"github.com/devfolio/portfolio-rag/models"
	"github.com/devfolio/portfolio-rag/services"
)

func main() {
	clear := flag.Bool("clear", false, "clear the knowledge base before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	ctx := context.Background()
	httpClient := &http.Client{Timeout: 30 * time.Second}

	embedder, generator, err := services.BuildProviders(ctx, cfg, httpClient)
	if err != nil {
		log.Fatalf("FATAL: Failed to create %s provider: %v", cfg.Provider, err)
	}

	index, err := services.NewChromaIndex(cfg.ChromaURL, cfg.IndexName, cfg.EmbeddingDimension)
	if err != nil {
		log.Fatalf("FATAL: Failed to create chroma client: %v", err)
	}

	store := services.NewVectorStoreService(embedder, index)
	retriever := services.NewRetriever(store, cfg.TopK, cfg.MinScore)
	chunker := services.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	ragService := services.NewRAGService(cfg, chunker, store, retriever, services.NewContextAssembler(), generator)

	log.Println("SEED: Initializing RAG service...")
	if !ragService.Initialize(ctx) {
		log.Fatal("SEED: Failed to initialize RAG service")
	}

	if *clear {
		log.Println("SEED: Clearing existing knowledge base...")
		if !ragService.ClearKnowledgeBase(ctx) {
			log.Fatal("SEED: Failed to clear knowledge base")
		}
	}

	documents := sampleDocuments()
	for i := range documents {
		if documents[i].ID == "" {
			documents[i].ID = uuid.NewString()
		}
	}

	log.Printf("SEED: Adding %d documents to knowledge base...", len(documents))
	if !ragService.AddDocuments(ctx, documents) {
		log.Fatal("SEED: Failed to seed knowledge base")
	}

	stats := ragService.GetStats(ctx)
	if stats.Error != "" {
		log.Printf("SEED: Seeded, but stats are unavailable: %s", stats.Error)
		return
	}
	log.Printf("SEED: Knowledge base now contains %d document chunks", stats.TotalDocuments)
	log.Printf("SEED: Index fullness: %.2f%%", stats.IndexFullness*100)
}

func sampleDocuments() []models.Document {
	return []models.Document{
		{
			ID: "bio",
			Text: "Mika Argyle is a Machine Learning Engineer with expertise in AI systems, vector databases, and full-stack development. " +
				"She has experience building RAG (Retrieval-Augmented Generation) systems, developing backend API applications, " +
				"and implementing comprehensive testing infrastructures. Her technical skills include Python, Go, TypeScript, React, and modern AI/ML technologies. " +
				"She follows professional development practices including test-driven development, proper version control, and production-ready code standards.",
			Metadata: map[string]any{"type": "bio", "category": "about"},
		},
		{
			ID: "skills",
			Text: "Technical Skills: Python, Go, OpenAI API, Vector Databases, RAG Systems, Machine Learning, " +
				"Concurrent Programming, Testing, Docker, Git, TypeScript, React, REST APIs, Database Design, " +
				"Cloud Services (AWS), Vector Embeddings, Natural Language Processing, Full-Stack Development, " +
				"Test-Driven Development, Agile Methodologies, System Architecture.",
			Metadata: map[string]any{"type": "skills", "category": "technical"},
		},
		{
			ID: "rag_project",
			Text: "Personal RAG Chatbot Project: Built a production-ready Retrieval-Augmented Generation chatbot backed by " +
				"GPT-4 class models and a vector database. Features include intelligent document chunking, similarity search " +
				"with configurable thresholds, comprehensive error handling, and extensive test coverage. " +
				"The system uses model embeddings for vector storage and implements professional software engineering practices " +
				"including dependency injection and mock-based testing.",
			Metadata: map[string]any{"type": "project", "category": "portfolio", "tech_stack": "Go,Gin,OpenAI,Chroma"},
		},
		{
			ID: "testing_expertise",
			Text: "Testing and Quality Assurance: Experienced in implementing comprehensive testing infrastructures with " +
				"table-driven tests and mock-based testing for external API integrations, and achieving high test coverage. " +
				"Implements professional testing practices including unit tests, integration tests, " +
				"edge case coverage, and proper test organization.",
			Metadata: map[string]any{"type": "expertise", "category": "testing"},
		},
		{
			ID: "ai_ml_experience",
			Text: "AI/ML Engineering Experience: Hands-on experience with OpenAI APIs including GPT-4 and embedding models, " +
				"vector database operations, similarity search algorithms, and RAG system architecture. Understands " +
				"embedding spaces, cosine similarity, prompt engineering, and context management for large language models. " +
				"Experience with document processing, text chunking strategies, and optimizing retrieval systems for accuracy.",
			Metadata: map[string]any{"type": "experience", "category": "ai_ml"},
		},
	}
}
