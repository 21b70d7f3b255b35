// Package sentiment wraps a pretrained binary sentiment classifier behind a
// small service. Unlike the knowledge-base path, this path is fail-closed:
// bad input is a client error and classifier failures propagate.
package sentiment

import "context"

// Sentiment labels produced by the SST-2 fine-tuned classifier.
const (
	LabelPositive = "POSITIVE"
	LabelNegative = "NEGATIVE"
)

// Prediction is a classification outcome. Confidence is the probability of
// Label, in (0, 1].
type Prediction struct {
	Label      string
	Confidence float64
}

// Classifier classifies a single text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
	Close() error
}
