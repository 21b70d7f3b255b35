package embedding

import (
	"context"
	"math"

	"github.com/chatkb/chatkb/pkg/utils"
)

// MockEmbedder produces deterministic unit vectors derived from the text
// hash, so identical text always maps to the identical embedding. Used in
// tests and as a stand-in when no ONNX model is available.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns a deterministic embedder of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a hash-seeded unit vector for text.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	seed := float64(hashWord(text) % 100003)
	vec := make([]float32, e.dimensions)
	for i := range vec {
		vec[i] = float32(math.Sin(seed*float64(i+1)) + 0.1)
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *MockEmbedder) Close() error {
	return nil
}
