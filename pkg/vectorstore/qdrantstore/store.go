package qdrantstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"paper-chat-be/pkg/vectorstore"
)

// Store queries a (possibly managed) Qdrant collection over gRPC.
type Store struct {
	client     *qdrant.Client
	collection string
}

type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

var _ vectorstore.Store = &Store{}

func NewStore(cfg Config) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Store{client: client, collection: cfg.Collection}, nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	if topK <= 0 {
		topK = 12
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query on %q: %w", s.collection, err)
	}

	matches := make([]vectorstore.Match, 0, len(points))
	for _, point := range points {
		matches = append(matches, vectorstore.Match{
			ID:      pointID(point.GetId()),
			Score:   float64(point.GetScore()),
			Payload: mapPayload(point.GetPayload()),
		})
	}
	return matches, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uid := id.GetUuid(); uid != "" {
		return uid
	}
	return fmt.Sprintf("%d", id.GetNum())
}

// mapPayload projects the raw qdrant payload into the typed shape the
// retriever expects. Returns nil when no known field is present.
func mapPayload(raw map[string]*qdrant.Value) *vectorstore.Payload {
	if len(raw) == 0 {
		return nil
	}

	p := &vectorstore.Payload{}
	found := false

	if v, ok := raw["type"]; ok {
		p.Kind = v.GetStringValue()
		found = true
	}
	if v, ok := raw["title"]; ok {
		p.Title = v.GetStringValue()
		found = true
	}
	if v, ok := raw["content"]; ok {
		p.Content = v.GetStringValue()
		found = true
	}
	if v, ok := raw["image_url"]; ok {
		p.ImageURL = v.GetStringValue()
	}
	if v, ok := raw["page"]; ok {
		// Indexers have written this both as integer and double.
		if n := v.GetIntegerValue(); n != 0 {
			p.Page = int(n)
		} else if f := v.GetDoubleValue(); f != 0 {
			p.Page = int(f)
		}
	}

	if !found {
		return nil
	}
	return p
}
