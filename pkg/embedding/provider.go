package embedding

import "context"

// Provider defines the interface for generating text embeddings.
// Implementations must use the same model/version that built the vector
// index; mismatched embedding spaces degrade relevance without any error.
type Provider interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}
