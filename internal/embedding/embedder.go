// Package embedding produces dense vector embeddings for text. The same
// embedder instance is used for indexing-time chunk embedding and query-time
// embedding, so all vectors live in one comparable space.
package embedding

import "context"

// Embedder maps text to fixed-dimension unit vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
