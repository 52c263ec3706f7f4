package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"paper-chat-be/pkg/llm"
)

// OpenAIProvider implements llm.Provider against an OpenAI-compatible
// /chat/completions endpoint.
type OpenAIProvider struct {
	BaseURL    string
	ApiKey     string
	ModelName  string
	Client     *http.Client
	maxRetries int
}

var _ llm.Provider = &OpenAIProvider{}

func NewOpenAIProvider(baseURL, apiKey, modelName string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		BaseURL:   baseURL,
		ApiKey:    apiKey,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
		maxRetries: 3,
	}
}

// --- Request/Response structs (Internal to this package) ---

type openaiChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
}

// --- Interface Implementation ---

func (o *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{
		Temperature: 0.7, // Default
	}
	for _, opt := range opts {
		opt(options)
	}

	openaiMessages := make([]openaiMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		openaiMessages[i] = openaiMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	reqPayload := openaiChatRequest{
		Model:       model,
		Messages:    openaiMessages,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := o.BaseURL + "/chat/completions"

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payloadBytes))
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+o.ApiKey)

		resp, err := o.Client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("openai request failed: %w", err)
			if attempt < o.maxRetries {
				if serr := sleepCtx(ctx, retryDelay(attempt)); serr != nil {
					return "", serr
				}
				continue
			}
			return "", lastErr
		}

		bodyBytes, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}

		// Retry only rate limits and server errors; honor Retry-After.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("openai error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
			if attempt < o.maxRetries {
				delay := retryDelay(attempt)
				if ra := resp.Header.Get("Retry-After"); ra != "" {
					if secs, aerr := strconv.Atoi(ra); aerr == nil {
						delay = time.Duration(secs) * time.Second
					}
				}
				if serr := sleepCtx(ctx, delay); serr != nil {
					return "", serr
				}
				continue
			}
			return "", lastErr
		}

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("openai error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
		}

		var openaiResp openaiChatResponse
		if err := json.Unmarshal(bodyBytes, &openaiResp); err != nil {
			return "", fmt.Errorf("unmarshal response: %w", err)
		}
		if len(openaiResp.Choices) == 0 {
			return "", errors.New("openai response contained no choices")
		}

		return openaiResp.Choices[0].Message.Content, nil
	}

	return "", lastErr
}

func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return o.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
