package embedding

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
)

// OpenAIProvider implements Provider against an OpenAI-compatible
// /embeddings endpoint.
type OpenAIProvider struct {
	BaseURL    string
	ApiKey     string
	Model      string
	Client     *http.Client
	maxRetries int
}

func NewOpenAIProvider(baseURL, apiKey, model string) Provider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "text-embedding-ada-002"
	}
	return &OpenAIProvider{
		BaseURL:    baseURL,
		ApiKey:     apiKey,
		Model:      model,
		Client:     &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
	}
}

type openaiEmbeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type openaiEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	reqBody := openaiEmbeddingRequest{Input: text, Model: p.Model}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/embeddings", p.BaseURL)

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.ApiKey)

		res, err := p.Client.Do(req)
		if err != nil {
			lastErr = err
			if attempt < p.maxRetries {
				if serr := sleepCtx(ctx, retryDelay(attempt)); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, err
		}

		resByte, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return nil, err
		}

		// Retry only transient statuses, honoring Retry-After when present.
		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			lastErr = fmt.Errorf("openai embeddings error, code %d, body %s", res.StatusCode, string(resByte))
			if attempt < p.maxRetries {
				delay := retryDelay(attempt)
				if ra := res.Header.Get("Retry-After"); ra != "" {
					if secs, aerr := strconv.Atoi(ra); aerr == nil {
						delay = time.Duration(secs) * time.Second
					}
				}
				if serr := sleepCtx(ctx, delay); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, lastErr
		}

		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("openai embeddings error, code %d, body %s", res.StatusCode, string(resByte))
		}

		var resEmbedding openaiEmbeddingResponse
		if err := json.Unmarshal(resByte, &resEmbedding); err != nil {
			return nil, err
		}
		if len(resEmbedding.Data) == 0 || len(resEmbedding.Data[0].Embedding) == 0 {
			return nil, errors.New("openai embeddings: empty embedding in response")
		}

		return resEmbedding.Data[0].Embedding, nil
	}

	return nil, lastErr
}

// retryDelay grows exponentially from 200ms, capped at 5s.
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
