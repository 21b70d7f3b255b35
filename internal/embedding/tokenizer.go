package embedding

import (
	"hash/fnv"
	"strings"
)

// BERT special token IDs shared by MiniLM and DistilBERT vocabularies.
const (
	tokenCLS = 101
	tokenSEP = 102
)

// Tokenizer produces BERT-style model inputs (input_ids, attention_mask,
// token_type_ids), padded to maxTokens.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// WordTokenizer splits on whitespace and hashes each word into the BERT
// vocabulary range. It is not a WordPiece tokenizer; it exists so the ONNX
// path has a self-contained tokenizer without shipping a vocab file, and it
// is deterministic for tests.
type WordTokenizer struct{}

// Tokenize returns padded token IDs for text, truncating past maxTokens.
func (t *WordTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	inputIDs[0] = tokenCLS
	attentionMask[0] = 1

	pos := 1
	for _, word := range strings.Fields(text) {
		if pos >= maxTokens-1 {
			break
		}
		inputIDs[pos] = int64(hashWord(word)%28996) + 1000
		attentionMask[pos] = 1
		pos++
	}
	if pos < maxTokens {
		inputIDs[pos] = tokenSEP
		attentionMask[pos] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

func hashWord(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
