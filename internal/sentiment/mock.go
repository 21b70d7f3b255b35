package sentiment

import (
	"context"
	"strings"
)

var positiveWords = map[string]bool{
	"love": true, "great": true, "good": true, "excellent": true,
	"amazing": true, "wonderful": true, "best": true, "happy": true,
	"fantastic": true, "perfect": true, "like": true, "awesome": true,
}

var negativeWords = map[string]bool{
	"hate": true, "bad": true, "terrible": true, "awful": true,
	"worst": true, "horrible": true, "poor": true, "broken": true,
	"disappointing": true, "useless": true, "sad": true, "angry": true,
}

// MockClassifier is a deterministic lexicon classifier for tests and for
// running the service without an ONNX model. Confidence grows with the
// margin between positive and negative word counts.
type MockClassifier struct{}

// NewMockClassifier returns a lexicon-based classifier.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// Classify labels text by counting lexicon words. Ties (including texts with
// no lexicon words at all) come out POSITIVE at minimum confidence.
func (c *MockClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	var pos, neg int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:'\"()")
		if positiveWords[word] {
			pos++
		}
		if negativeWords[word] {
			neg++
		}
	}
	label := LabelPositive
	margin := pos - neg
	if neg > pos {
		label = LabelNegative
		margin = neg - pos
	}
	confidence := 0.5 + 0.5*float64(margin)/float64(pos+neg+1)
	return Prediction{Label: label, Confidence: confidence}, nil
}

// Close is a no-op.
func (c *MockClassifier) Close() error {
	return nil
}
