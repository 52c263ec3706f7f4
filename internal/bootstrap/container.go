package bootstrap

import (
	"log"

	"gorm.io/gorm"

	"paper-chat-be/internal/config"
	"paper-chat-be/internal/controller"
	"paper-chat-be/internal/pkg/logger"
	"paper-chat-be/internal/repository/contract"
	"paper-chat-be/internal/repository/file"
	"paper-chat-be/internal/repository/implementation"
	"paper-chat-be/internal/service"
	"paper-chat-be/pkg/database"
	"paper-chat-be/pkg/embedding"
	"paper-chat-be/pkg/llm/factory"
	"paper-chat-be/pkg/rag/retrieval"
	"paper-chat-be/pkg/vectorstore"
	"paper-chat-be/pkg/vectorstore/pgvectorstore"
	"paper-chat-be/pkg/vectorstore/qdrantstore"
)

type Container struct {
	ChatController controller.IChatController
	Logger         logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. External service clients (one instance for the process lifetime,
	// injected everywhere instead of package-level globals)

	// Embedding Provider
	var embeddingProvider embedding.Provider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	case "gemini":
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	default:
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIBaseURL, cfg.Keys.OpenAI, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	}

	// LLM Provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL(cfg),
		llmAPIKey(cfg),
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Postgres is only opened when a component is configured to use it.
	var gormDB *gorm.DB
	needsDB := cfg.Retrieval.VectorStoreProvider == "pgvector" || cfg.Papers.LinkTableProvider == "postgres"
	if needsDB {
		gormDB, err = database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Fatalf("[FATAL] Unable to connect to GORM DB: %v", err)
		}
	}

	// Vector Store
	var store vectorstore.Store
	if cfg.Retrieval.VectorStoreProvider == "pgvector" {
		store = pgvectorstore.NewStore(gormDB, cfg.Retrieval.IndexName)
		log.Printf("[INFO] Using Vector Store: PGVECTOR (table %s)", cfg.Retrieval.IndexName)
	} else {
		store, err = qdrantstore.NewStore(qdrantstore.Config{
			Host:       cfg.Retrieval.QdrantHost,
			Port:       cfg.Retrieval.QdrantPort,
			APIKey:     cfg.Keys.Qdrant,
			UseTLS:     cfg.Retrieval.QdrantUseTLS,
			Collection: cfg.Retrieval.IndexName,
		})
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize Qdrant store: %v", err)
		}
		log.Printf("[INFO] Using Vector Store: QDRANT (collection %s)", cfg.Retrieval.IndexName)
	}

	// Paper link table
	var linkRepo contract.PaperLinkRepository
	if cfg.Papers.LinkTableProvider == "postgres" {
		linkRepo = implementation.NewPaperLinkRepository(gormDB)
	} else {
		linkRepo, err = file.NewPaperLinkRepository(cfg.Papers.LinkTablePath)
		if err != nil {
			log.Fatalf("[FATAL] Failed to load paper link table: %v", err)
		}
	}

	// 3. Domain wiring
	retriever := retrieval.NewRetriever(store, cfg.Retrieval.TopK, cfg.Retrieval.ScoreFloor)

	chatService := service.NewChatService(
		embeddingProvider,
		retriever,
		llmProvider,
		linkRepo,
		sysLogger,
		cfg,
	)

	chatController := controller.NewChatController(chatService, sysLogger, cfg.App.RequestTimeout)

	return &Container{
		ChatController: chatController,
		Logger:         sysLogger,
	}
}

func llmBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "ollama" {
		return cfg.Ai.OllamaBaseURL
	}
	return cfg.Ai.OpenAIBaseURL
}

func llmAPIKey(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "gemini" {
		return cfg.Keys.GoogleGemini
	}
	return cfg.Keys.OpenAI
}
