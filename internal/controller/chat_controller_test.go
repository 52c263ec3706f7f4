package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-chat-be/internal/config"
	"paper-chat-be/internal/dto"
	"paper-chat-be/internal/service"
	"paper-chat-be/pkg/llm"
	"paper-chat-be/pkg/rag/retrieval"
	"paper-chat-be/pkg/vectorstore"
)

// --- Test doubles ---

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Generate(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

type fakeStore struct {
	matches []vectorstore.Match
	err     error
	calls   int
}

func (f *fakeStore) Query(_ context.Context, _ []float32, _ int) ([]vectorstore.Match, error) {
	f.calls++
	return f.matches, f.err
}

type fakeLLM struct {
	reply    string
	err      error
	calls    int
	messages []llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	f.calls++
	f.messages = history
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

type fakeLinkRepo struct {
	links map[string]string
}

func (f *fakeLinkRepo) All(_ context.Context) (map[string]string, error) {
	if f.links == nil {
		return map[string]string{}, nil
	}
	return f.links, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Ai.EmbeddingDimension = 3
	cfg.Ai.Temperature = 0.7
	cfg.Ai.MaxTokens = 1500
	cfg.Retrieval.TopK = 12
	cfg.Retrieval.ScoreFloor = 0.3
	cfg.Retrieval.MaxImages = 4
	cfg.Retrieval.MaxSources = 6
	cfg.Retrieval.HistoryLimit = 6
	return cfg
}

func newTestApp(embedder *fakeEmbedder, store *fakeStore, llmProvider *fakeLLM) *fiber.App {
	cfg := testConfig()
	retriever := retrieval.NewRetriever(store, cfg.Retrieval.TopK, cfg.Retrieval.ScoreFloor)
	chatService := service.NewChatService(embedder, retriever, llmProvider, &fakeLinkRepo{}, nopLogger{}, cfg)
	chatController := NewChatController(chatService, nopLogger{}, 10*time.Second)

	app := fiber.New()
	chatController.RegisterRoutes(app.Group("/api"))
	return app
}

func textMatch(title string, page int, content string, score float64) vectorstore.Match {
	return vectorstore.Match{
		ID:    fmt.Sprintf("%s-%d", title, page),
		Score: score,
		Payload: &vectorstore.Payload{
			Kind:    "text",
			Title:   title,
			Page:    page,
			Content: content,
		},
	}
}

func imageMatch(title string, page int, caption, url string, score float64) vectorstore.Match {
	return vectorstore.Match{
		ID:    fmt.Sprintf("%s-img-%d", title, page),
		Score: score,
		Payload: &vectorstore.Payload{
			Kind:     "image",
			Title:    title,
			Page:     page,
			Content:  caption,
			ImageURL: url,
		},
	}
}

func postChat(t *testing.T, app *fiber.App, payload any) (int, map[string]json.RawMessage) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	fields := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(raw, &fields))

	return res.StatusCode, fields
}

// --- Tests ---

func TestChatMissingMessage(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	store := &fakeStore{}
	llmProvider := &fakeLLM{reply: "never reached"}
	app := newTestApp(embedder, store, llmProvider)

	status, fields := postChat(t, app, map[string]any{})

	assert.Equal(t, fiber.StatusBadRequest, status)

	var errMsg string
	require.NoError(t, json.Unmarshal(fields["error"], &errMsg))
	assert.Equal(t, "Message is required", errMsg)

	// No downstream call may happen on validation failure.
	assert.Equal(t, 0, embedder.calls)
	assert.Equal(t, 0, store.calls)
	assert.Equal(t, 0, llmProvider.calls)
}

func TestChatDownstreamFailures(t *testing.T) {
	tests := []struct {
		name     string
		embedder *fakeEmbedder
		store    *fakeStore
		llm      *fakeLLM
	}{
		{
			name:     "embedding failure",
			embedder: &fakeEmbedder{err: errors.New("auth rejected")},
			store:    &fakeStore{},
			llm:      &fakeLLM{reply: "x"},
		},
		{
			name:     "search failure",
			embedder: &fakeEmbedder{vector: []float32{1, 0, 0}},
			store:    &fakeStore{err: errors.New("index unavailable")},
			llm:      &fakeLLM{reply: "x"},
		},
		{
			name:     "generation failure",
			embedder: &fakeEmbedder{vector: []float32{1, 0, 0}},
			store:    &fakeStore{matches: []vectorstore.Match{textMatch("Paper", 1, "text", 0.8)}},
			llm:      &fakeLLM{err: errors.New("model overloaded")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(tt.embedder, tt.store, tt.llm)

			status, fields := postChat(t, app, map[string]any{"message": "why do lakes burst?"})

			assert.Equal(t, fiber.StatusInternalServerError, status)

			var errMsg string
			require.NoError(t, json.Unmarshal(fields["error"], &errMsg))
			assert.Equal(t, "Failed to process your request. Please try again.", errMsg)

			// The opaque failure body must not leak partial results.
			assert.NotContains(t, fields, "message")
			assert.NotContains(t, fields, "images")
			assert.NotContains(t, fields, "sources")
		})
	}
}

func TestChatGroundedAnswer(t *testing.T) {
	const title = "Glacial Lake Outburst Floods in the Himalaya"

	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	store := &fakeStore{matches: []vectorstore.Match{
		textMatch(title, 5, "Moraine-dammed lakes fail when the dam is overtopped.", 0.81),
		textMatch(title, 12, "Peak discharge can exceed historical floods.", 0.45),
		imageMatch(title, 9, "Figure 2: lake growth 1990-2020", "https://img.example/fig2.png", 0.6),
		// Both of these must be dropped silently.
		textMatch("Unrelated Paper", 2, "low relevance", 0.2),
		imageMatch(title, 3, "figure without url", "", 0.9),
	}}
	llmProvider := &fakeLLM{reply: "Outburst floods happen when moraine dams fail."}
	app := newTestApp(embedder, store, llmProvider)

	status, fields := postChat(t, app, map[string]any{
		"message": "What causes glacier lake outburst floods?",
	})

	require.Equal(t, fiber.StatusOK, status)

	var answer string
	require.NoError(t, json.Unmarshal(fields["message"], &answer))
	assert.Equal(t, llmProvider.reply, answer)

	var sources []dto.SourceEntry
	require.NoError(t, json.Unmarshal(fields["sources"], &sources))
	require.Len(t, sources, 1)
	assert.Equal(t, title, sources[0].Title)
	assert.Equal(t, 5, sources[0].Page, "first-ranked page wins the dedup")
	assert.Equal(t, "Glacial_Lake_Outburst_Floods_in_the_Himalaya.pdf", sources[0].PdfFile)

	var images []dto.ImageResult
	require.NoError(t, json.Unmarshal(fields["images"], &images))
	require.Len(t, images, 1)
	assert.Equal(t, "https://img.example/fig2.png", images[0].URL)
	assert.Equal(t, 9, images[0].Page)

	// The final user turn must carry both text blocks and the figure block.
	require.NotEmpty(t, llmProvider.messages)
	finalTurn := llmProvider.messages[len(llmProvider.messages)-1]
	assert.Equal(t, "user", finalTurn.Role)
	assert.Contains(t, finalTurn.Content, fmt.Sprintf("[From %q, Page 5]", title))
	assert.Contains(t, finalTurn.Content, fmt.Sprintf("[From %q, Page 12]", title))
	assert.Contains(t, finalTurn.Content, fmt.Sprintf("[Figure from %q, Page 9]", title))
	assert.NotContains(t, finalTurn.Content, "low relevance")
}

func TestChatHistoryTrimmedToLastSix(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	store := &fakeStore{matches: []vectorstore.Match{textMatch("Paper", 1, "text", 0.8)}}
	llmProvider := &fakeLLM{reply: "ok"}
	app := newTestApp(embedder, store, llmProvider)

	history := make([]map[string]string, 0, 8)
	for i := 0; i < 8; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history = append(history, map[string]string{"role": role, "content": fmt.Sprintf("turn %d", i)})
	}

	status, _ := postChat(t, app, map[string]any{
		"message":     "follow-up question",
		"chatHistory": history,
	})
	require.Equal(t, fiber.StatusOK, status)

	// system + 6 forwarded turns + final user turn
	require.Len(t, llmProvider.messages, 8)
	assert.Equal(t, "system", llmProvider.messages[0].Role)
	assert.Equal(t, "turn 2", llmProvider.messages[1].Content)
	assert.Equal(t, "turn 7", llmProvider.messages[6].Content)
}

func TestChatResponseTruncation(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}

	matches := make([]vectorstore.Match, 0, 16)
	for i := 0; i < 10; i++ {
		matches = append(matches, textMatch(fmt.Sprintf("Paper %d", i), i+1, "content", 0.9))
	}
	for i := 0; i < 6; i++ {
		matches = append(matches, imageMatch(fmt.Sprintf("Paper %d", i), i+1, "caption",
			fmt.Sprintf("https://img.example/%d.png", i), 0.8))
	}
	store := &fakeStore{matches: matches}
	llmProvider := &fakeLLM{reply: "ok"}
	app := newTestApp(embedder, store, llmProvider)

	status, fields := postChat(t, app, map[string]any{"message": "show me everything"})
	require.Equal(t, fiber.StatusOK, status)

	var images []dto.ImageResult
	require.NoError(t, json.Unmarshal(fields["images"], &images))
	assert.Len(t, images, 4)

	var sources []dto.SourceEntry
	require.NoError(t, json.Unmarshal(fields["sources"], &sources))
	assert.Len(t, sources, 6)
}

func TestLinksEndpoint(t *testing.T) {
	cfg := testConfig()
	store := &fakeStore{}
	retriever := retrieval.NewRetriever(store, cfg.Retrieval.TopK, cfg.Retrieval.ScoreFloor)
	links := &fakeLinkRepo{links: map[string]string{
		"Glacier_Paper.pdf": "https://drive.example/d/abc/view",
	}}
	chatService := service.NewChatService(&fakeEmbedder{}, retriever, &fakeLLM{}, links, nopLogger{}, cfg)
	chatController := NewChatController(chatService, nopLogger{}, time.Second)

	app := fiber.New()
	chatController.RegisterRoutes(app.Group("/api"))

	req := httptest.NewRequest("GET", "/api/links", nil)
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, fiber.StatusOK, res.StatusCode)

	var body dto.LinksResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "https://drive.example/d/abc/view", body.Links["Glacier_Paper.pdf"])
}
