//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
)

var errNoCgo = errors.New("ONNX embedder requires CGO; build with CGO_ENABLED=1 and onnxruntime installed")

// ONNXEmbedder stub for builds without CGO; see onnx.go for the real one.
type ONNXEmbedder struct{}

// NewONNXEmbedder always fails without CGO.
func NewONNXEmbedder(_ string, _, _, _ int) (*ONNXEmbedder, error) {
	return nil, errNoCgo
}

func (e *ONNXEmbedder) Embed(_ context.Context, _ string) ([]float32, error) { return nil, errNoCgo }

func (e *ONNXEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errNoCgo
}

func (e *ONNXEmbedder) Dimensions() int { return 0 }

func (e *ONNXEmbedder) Close() error { return nil }
