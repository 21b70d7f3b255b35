//go:build !cgo
// +build !cgo

package sentiment

import (
	"context"
	"errors"
)

var errNoCgo = errors.New("ONNX classifier requires CGO; build with CGO_ENABLED=1 and onnxruntime installed")

// ONNXClassifier stub for builds without CGO; see onnx.go for the real one.
type ONNXClassifier struct{}

// NewONNXClassifier always fails without CGO.
func NewONNXClassifier(_ string, _ int) (*ONNXClassifier, error) {
	return nil, errNoCgo
}

func (c *ONNXClassifier) Classify(_ context.Context, _ string) (Prediction, error) {
	return Prediction{}, errNoCgo
}

func (c *ONNXClassifier) Close() error { return nil }
