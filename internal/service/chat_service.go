package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"paper-chat-be/internal/config"
	"paper-chat-be/internal/dto"
	"paper-chat-be/internal/pkg/logger"
	"paper-chat-be/internal/repository/contract"
	"paper-chat-be/pkg/embedding"
	"paper-chat-be/pkg/llm"
	"paper-chat-be/pkg/rag/contextbuild"
	"paper-chat-be/pkg/rag/prompt"
	"paper-chat-be/pkg/rag/retrieval"
)

// IChatService defines the chat service interface
type IChatService interface {
	Chat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error)
	Links(ctx context.Context) (*dto.LinksResponse, error)
}

// chatService runs the retrieval-and-grounding pipeline: embed the question,
// search the index, assemble context, generate the answer, shape the reply.
// Every request is stateless; the knowledge base is read-only.
type chatService struct {
	embedder    embedding.Provider
	retriever   *retrieval.Retriever
	llmProvider llm.Provider
	linkRepo    contract.PaperLinkRepository
	sysLogger   logger.ILogger

	embeddingDim int
	temperature  float64
	maxTokens    int
	historyLimit int
	maxImages    int
	maxSources   int

	// Query-embedding cache: identical question text within the TTL skips
	// the embedding call.
	embedCache *cache.Cache
}

func NewChatService(
	embedder embedding.Provider,
	retriever *retrieval.Retriever,
	llmProvider llm.Provider,
	linkRepo contract.PaperLinkRepository,
	sysLogger logger.ILogger,
	cfg *config.Config,
) IChatService {
	return &chatService{
		embedder:     embedder,
		retriever:    retriever,
		llmProvider:  llmProvider,
		linkRepo:     linkRepo,
		sysLogger:    sysLogger,
		embeddingDim: cfg.Ai.EmbeddingDimension,
		temperature:  cfg.Ai.Temperature,
		maxTokens:    cfg.Ai.MaxTokens,
		historyLimit: cfg.Retrieval.HistoryLimit,
		maxImages:    cfg.Retrieval.MaxImages,
		maxSources:   cfg.Retrieval.MaxSources,
		embedCache:   cache.New(1*time.Hour, 10*time.Minute),
	}
}

func (cs *chatService) Chat(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	requestId := uuid.New().String()

	// 1. Embed the question
	started := time.Now()
	vector, err := cs.embedQuery(ctx, request.Message)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	embedTook := time.Since(started)

	// 2. Similarity search + relevance filtering
	started = time.Now()
	result, err := cs.retriever.Retrieve(ctx, vector)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	searchTook := time.Since(started)

	// 3. Assemble prompt context
	contextBlock := contextbuild.BuildContextBlock(result)
	sources := contextbuild.DedupSources(result.Texts)

	// 4. Generate the grounded answer
	history := make([]llm.Message, 0, len(request.ChatHistory))
	for _, turn := range request.ChatHistory {
		history = append(history, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	messages := prompt.NewBuilder(contextBlock, request.Message, history, cs.historyLimit).Messages()

	started = time.Now()
	answer, err := cs.llmProvider.Chat(ctx, messages,
		llm.WithTemperature(cs.temperature),
		llm.WithMaxTokens(cs.maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	generateTook := time.Since(started)

	cs.sysLogger.Info("chat", "pipeline completed", map[string]interface{}{
		"request_id":  requestId,
		"embed_ms":    embedTook.Milliseconds(),
		"search_ms":   searchTook.Milliseconds(),
		"generate_ms": generateTook.Milliseconds(),
		"text_items":  len(result.Texts),
		"image_items": len(result.Images),
		"sources":     len(sources),
	})

	// 5. Shape the response
	return cs.shapeResponse(answer, result, sources), nil
}

// embedQuery returns the query vector, from cache when the same question was
// embedded recently.
func (cs *chatService) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if cached, found := cs.embedCache.Get(text); found {
		return cached.([]float32), nil
	}

	vector, err := cs.embedder.Generate(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, errors.New("embedding provider returned an empty vector")
	}
	if cs.embeddingDim > 0 && len(vector) != cs.embeddingDim {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, index expects %d", len(vector), cs.embeddingDim)
	}

	cs.embedCache.Set(text, vector, cache.DefaultExpiration)
	return vector, nil
}

func (cs *chatService) shapeResponse(answer string, result *retrieval.Result, sources []contextbuild.SourcePaper) *dto.ChatResponse {
	images := result.Images
	if len(images) > cs.maxImages {
		images = images[:cs.maxImages]
	}
	if len(sources) > cs.maxSources {
		sources = sources[:cs.maxSources]
	}

	response := &dto.ChatResponse{
		Message: answer,
		Images:  make([]dto.ImageResult, 0, len(images)),
		Sources: make([]dto.SourceEntry, 0, len(sources)),
	}

	for _, img := range images {
		response.Images = append(response.Images, dto.ImageResult{
			URL:         img.ImageURL,
			Source:      img.Title,
			Page:        img.Page,
			Description: img.Content,
			PdfFile:     contextbuild.DeriveFilename(img.Title),
			Score:       img.Score,
		})
	}

	for _, src := range sources {
		response.Sources = append(response.Sources, dto.SourceEntry{
			Title:   src.Title,
			Page:    src.Page,
			PdfFile: src.PdfFile,
		})
	}

	return response
}

func (cs *chatService) Links(ctx context.Context) (*dto.LinksResponse, error) {
	links, err := cs.linkRepo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load paper links: %w", err)
	}
	return &dto.LinksResponse{Links: links}, nil
}
