//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/chatkb/chatkb/pkg/utils"
)

// ONNXEmbedder runs a sentence-transformer model (all-MiniLM-L6-v2 export)
// through ONNX Runtime. Requires CGO and the onnxruntime shared library.
// Inference reuses preallocated tensors, so calls are serialized by a mutex;
// a cache in front keeps repeated texts cheap.
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	tensors    *bertTensors
	tokenizer  Tokenizer
	cache      *Cache
	dimensions int
	maxTokens  int
	mu         sync.Mutex
}

// bertTensors holds the reusable input/output tensors of a BERT-style session.
type bertTensors struct {
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
}

func newBertTensors(maxTokens, outputLen int) (*bertTensors, error) {
	t := &bertTensors{}
	var err error
	inputShape := ort.NewShape(1, int64(maxTokens))
	if t.inputIDs, err = ort.NewTensor(inputShape, make([]int64, maxTokens)); err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	if t.attentionMask, err = ort.NewTensor(inputShape, make([]int64, maxTokens)); err != nil {
		t.destroy()
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	if t.tokenTypeIDs, err = ort.NewTensor(inputShape, make([]int64, maxTokens)); err != nil {
		t.destroy()
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}
	if t.output, err = ort.NewTensor(ort.NewShape(1, int64(outputLen)), make([]float32, outputLen)); err != nil {
		t.destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	return t, nil
}

func (t *bertTensors) destroy() {
	for _, tensor := range []ort.ArbitraryTensor{t.inputIDs, t.attentionMask, t.tokenTypeIDs, t.output} {
		if tensor != nil {
			_ = tensor.Destroy()
		}
	}
	t.inputIDs, t.attentionMask, t.tokenTypeIDs, t.output = nil, nil, nil, nil
}

func (t *bertTensors) setInputs(inputIDs, attentionMask, tokenTypeIDs []int64) {
	copy(t.inputIDs.GetData(), inputIDs)
	copy(t.attentionMask.GetData(), attentionMask)
	copy(t.tokenTypeIDs.GetData(), tokenTypeIDs)
}

// NewONNXEmbedder creates an embedder from the model at modelPath. The ONNX
// environment is initialized on first use.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens, cacheSize int) (*ONNXEmbedder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}
	tensors, err := newBertTensors(maxTokens, dimensions)
	if err != nil {
		return nil, err
	}
	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{tensors.inputIDs, tensors.attentionMask, tensors.tokenTypeIDs},
		[]ort.ArbitraryTensor{tensors.output},
		nil,
	)
	if err != nil {
		tensors.destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &ONNXEmbedder{
		session:    session,
		tensors:    tensors,
		tokenizer:  &WordTokenizer{},
		cache:      NewCache(cacheSize),
		dimensions: dimensions,
		maxTokens:  maxTokens,
	}, nil
}

// Embed returns the unit embedding for text, consulting the cache first.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.cache.Get(text); ok {
		return vec, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.tensors.setInputs(e.tokenizer.Tokenize(text, e.maxTokens))
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("embedding inference failed: %w", err)
	}

	vec := make([]float32, e.dimensions)
	copy(vec, e.tensors.output.GetData()[:e.dimensions])
	utils.NormalizeL2(vec)
	e.cache.Set(text, vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and its tensors.
func (e *ONNXEmbedder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	if e.tensors != nil {
		e.tensors.destroy()
		e.tensors = nil
	}
	return err
}
