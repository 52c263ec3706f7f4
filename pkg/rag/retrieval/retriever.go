package retrieval

import (
	"context"
	"fmt"

	"paper-chat-be/pkg/vectorstore"
)

// ContextItem is a retrieved match projected into the shape the assembler
// needs. One surviving match yields exactly one ContextItem.
type ContextItem struct {
	Kind     string // "text" or "image"
	Content  string // passage text or figure caption
	Title    string // source paper title
	Page     int
	ImageURL string
	Score    float64
}

// Result partitions surviving matches by content kind, in retrieval-rank
// order.
type Result struct {
	Texts  []ContextItem
	Images []ContextItem
}

// Retriever runs the similarity search and applies the relevance policy:
// drop anything at or below the score floor, drop matches without metadata,
// drop image matches without an image URL. Dropped items are not errors and
// are not individually logged.
type Retriever struct {
	store      vectorstore.Store
	topK       int
	scoreFloor float64
}

func NewRetriever(store vectorstore.Store, topK int, scoreFloor float64) *Retriever {
	if topK <= 0 {
		topK = 12
	}
	return &Retriever{
		store:      store,
		topK:       topK,
		scoreFloor: scoreFloor,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, vector []float32) (*Result, error) {
	matches, err := r.store.Query(ctx, vector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return r.partition(matches), nil
}

func (r *Retriever) partition(matches []vectorstore.Match) *Result {
	result := &Result{}

	for _, match := range matches {
		if match.Score <= r.scoreFloor {
			continue
		}
		if match.Payload == nil {
			continue
		}

		item := ContextItem{
			Kind:     match.Payload.Kind,
			Content:  match.Payload.Content,
			Title:    match.Payload.Title,
			Page:     match.Payload.Page,
			ImageURL: match.Payload.ImageURL,
			Score:    match.Score,
		}

		switch item.Kind {
		case "image":
			// An image match without a URL is unusable; skip silently.
			if item.ImageURL == "" {
				continue
			}
			result.Images = append(result.Images, item)
		default:
			result.Texts = append(result.Texts, item)
		}
	}

	return result
}
