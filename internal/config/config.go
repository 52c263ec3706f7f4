package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Retrieval RetrievalConfig
	Papers    PapersConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RequestTimeout     time.Duration
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	OpenAI       string
	GoogleGemini string
	Qdrant       string
}

type AIConfig struct {
	EmbeddingProvider  string // "openai", "gemini" or "ollama"
	EmbeddingModel     string
	EmbeddingDimension int
	OpenAIBaseURL      string
	OllamaBaseURL      string
	OllamaModel        string
	LLMProvider        string // "openai", "gemini" or "ollama"
	LLMModel           string
	Temperature        float64
	MaxTokens          int
}

type RetrievalConfig struct {
	VectorStoreProvider string // "qdrant" or "pgvector"
	IndexName           string
	QdrantHost          string
	QdrantPort          int
	QdrantUseTLS        bool
	TopK                int
	ScoreFloor          float64
	MaxImages           int
	MaxSources          int
	HistoryLimit        int // prior turns forwarded to the model; 0 forwards none
}

type PapersConfig struct {
	// Local folder served at /papers for corpus PDFs. Optional.
	LocalDir string
	// JSON file mapping derived pdf filenames to hosted document URLs.
	LinkTablePath string
	// "file" or "postgres"
	LinkTableProvider string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RequestTimeout:     getEnvAsDuration("REQUEST_TIMEOUT", 90*time.Second),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Qdrant:       getEnv("QDRANT_API_KEY", ""),
		},
		Ai: AIConfig{
			// The embedding model MUST match the one that built the index.
			// A mismatched embedding space degrades relevance silently.
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 1536),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:        getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:        getEnv("LLM_PROVIDER", "openai"),
			LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
			Temperature:        getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:          getEnvAsInt("LLM_MAX_TOKENS", 1500),
		},
		Retrieval: RetrievalConfig{
			VectorStoreProvider: getEnv("VECTOR_STORE_PROVIDER", "qdrant"),
			IndexName:           getEnv("VECTOR_INDEX_NAME", "research-papers"),
			QdrantHost:          getEnv("QDRANT_HOST", "localhost"),
			QdrantPort:          getEnvAsInt("QDRANT_PORT", 6334),
			QdrantUseTLS:        getEnvAsBool("QDRANT_USE_TLS", false),
			TopK:                getEnvAsInt("RETRIEVAL_TOP_K", 12),
			ScoreFloor:          getEnvAsFloat("RETRIEVAL_SCORE_FLOOR", 0.3),
			MaxImages:           getEnvAsInt("RESPONSE_MAX_IMAGES", 4),
			MaxSources:          getEnvAsInt("RESPONSE_MAX_SOURCES", 6),
			HistoryLimit:        getEnvAsInt("CHAT_HISTORY_LIMIT", 6),
		},
		Papers: PapersConfig{
			LocalDir:          getEnv("PAPERS_DIR", "./papers"),
			LinkTablePath:     getEnv("PAPER_LINKS_FILE", "paper_links.json"),
			LinkTableProvider: getEnv("PAPER_LINKS_PROVIDER", "file"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
