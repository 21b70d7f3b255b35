//go:build cgo
// +build cgo

package sentiment

import (
	"context"
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/chatkb/chatkb/internal/embedding"
)

// sst2Labels maps logit index to label; index 1 is positive in the SST-2 head.
var sst2Labels = [2]string{LabelNegative, LabelPositive}

// ONNXClassifier runs a DistilBERT SST-2 export through ONNX Runtime.
// DistilBERT takes input_ids and attention_mask only (no token_type_ids) and
// emits a [1, 2] logits tensor. Tensors are preallocated and reused, so
// inference is serialized by a mutex.
type ONNXClassifier struct {
	session       *ort.AdvancedSession
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	logits        *ort.Tensor[float32]
	tokenizer     embedding.Tokenizer
	maxTokens     int
	mu            sync.Mutex
}

// NewONNXClassifier creates a classifier from the model at modelPath.
func NewONNXClassifier(modelPath string, maxTokens int) (*ONNXClassifier, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}
	inputShape := ort.NewShape(1, int64(maxTokens))
	inputIDs, err := ort.NewTensor(inputShape, make([]int64, maxTokens))
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	attentionMask, err := ort.NewTensor(inputShape, make([]int64, maxTokens))
	if err != nil {
		_ = inputIDs.Destroy()
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	logits, err := ort.NewTensor(ort.NewShape(1, 2), make([]float32, 2))
	if err != nil {
		_ = inputIDs.Destroy()
		_ = attentionMask.Destroy()
		return nil, fmt.Errorf("create logits tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.ArbitraryTensor{inputIDs, attentionMask},
		[]ort.ArbitraryTensor{logits},
		nil,
	)
	if err != nil {
		_ = inputIDs.Destroy()
		_ = attentionMask.Destroy()
		_ = logits.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &ONNXClassifier{
		session:       session,
		inputIDs:      inputIDs,
		attentionMask: attentionMask,
		logits:        logits,
		tokenizer:     &embedding.WordTokenizer{},
		maxTokens:     maxTokens,
	}, nil
}

// Classify runs the model and returns the argmax label with its softmax
// probability.
func (c *ONNXClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inputIDs, attentionMask, _ := c.tokenizer.Tokenize(text, c.maxTokens)
	copy(c.inputIDs.GetData(), inputIDs)
	copy(c.attentionMask.GetData(), attentionMask)

	if err := c.session.Run(); err != nil {
		return Prediction{}, fmt.Errorf("classification inference failed: %w", err)
	}

	logits := c.logits.GetData()
	probs := softmax2(float64(logits[0]), float64(logits[1]))
	best := 0
	if probs[1] > probs[0] {
		best = 1
	}
	return Prediction{Label: sst2Labels[best], Confidence: probs[best]}, nil
}

// Close destroys the session and its tensors.
func (c *ONNXClassifier) Close() error {
	var err error
	if c.session != nil {
		err = c.session.Destroy()
		c.session = nil
	}
	for _, t := range []ort.ArbitraryTensor{c.inputIDs, c.attentionMask, c.logits} {
		if t != nil {
			_ = t.Destroy()
		}
	}
	c.inputIDs, c.attentionMask, c.logits = nil, nil, nil
	return err
}

func softmax2(a, b float64) [2]float64 {
	m := math.Max(a, b)
	ea := math.Exp(a - m)
	eb := math.Exp(b - m)
	sum := ea + eb
	return [2]float64{ea / sum, eb / sum}
}
