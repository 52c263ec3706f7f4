package pgvectorstore

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"paper-chat-be/pkg/vectorstore"
)

// Store runs cosine similarity search against a pgvector table holding the
// paper corpus. The table is written by the external indexing pipeline and
// is strictly read-only here.
type Store struct {
	db    *gorm.DB
	table string
}

var _ vectorstore.Store = &Store{}

func NewStore(db *gorm.DB, table string) *Store {
	return &Store{db: db, table: table}
}

type chunkRow struct {
	Id       string
	Kind     string
	Title    string
	Page     int
	Content  string
	ImageUrl string
	Score    float64
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	if topK <= 0 {
		topK = 12
	}

	queryVector := pgvector.NewVector(vector)

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query) recovers the similarity score.
	var rows []chunkRow
	err := s.db.WithContext(ctx).
		Table(s.table).
		Select("id, kind, title, page, content, image_url, 1 - (embedding <=> ?) AS score", queryVector).
		Order("score DESC").
		Limit(topK).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("pgvector query on %q: %w", s.table, err)
	}

	matches := make([]vectorstore.Match, 0, len(rows))
	for _, row := range rows {
		m := vectorstore.Match{
			ID:    row.Id,
			Score: row.Score,
		}
		if row.Kind != "" || row.Title != "" || row.Content != "" {
			m.Payload = &vectorstore.Payload{
				Kind:     row.Kind,
				Title:    row.Title,
				Page:     row.Page,
				Content:  row.Content,
				ImageURL: row.ImageUrl,
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}
