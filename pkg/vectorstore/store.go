package vectorstore

import "context"

// Payload is the typed metadata attached to an indexed chunk. The indexing
// pipeline (external to this service) writes these fields; anything else in
// the raw payload is ignored.
type Payload struct {
	Kind     string // "text" or "image"
	Title    string // owning paper title, the de facto paper identity
	Page     int
	Content  string // passage text, or figure caption for images
	ImageURL string
}

// Match is a single similarity-search result. Payload is nil when the stored
// point carries no usable metadata.
type Match struct {
	ID      string
	Score   float64 // cosine-similarity-like, in [0,1], higher is better
	Payload *Payload
}

// Store is a read-only similarity search against the knowledge base.
// Implementations must preserve the index's similarity ranking.
type Store interface {
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}
