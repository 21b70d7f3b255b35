package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chatkb/chatkb/internal/models"
	"github.com/chatkb/chatkb/pkg/utils"
)

// ErrEmptyText is returned for empty or whitespace-only input. Handlers map
// it to a client error; the classifier is never invoked.
var ErrEmptyText = errors.New("text is required")

// Service validates input, truncates it to the classifier's supported
// length, and classifies it. Stateless per request beyond the loaded model.
type Service struct {
	classifier Classifier
	maxChars   int
	logger     *zap.Logger
}

// NewService creates a sentiment service. maxChars <= 0 disables truncation.
func NewService(classifier Classifier, maxChars int, logger *zap.Logger) *Service {
	return &Service{
		classifier: classifier,
		maxChars:   maxChars,
		logger:     logger,
	}
}

// Analyze classifies text and returns the label with its confidence rounded
// to 4 decimal places. Input beyond maxChars is silently truncated before
// classification. Classification failures are returned to the caller; there
// is no safe default sentiment to substitute.
func (s *Service) Analyze(ctx context.Context, text string) (*models.AnalyzeResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if s.maxChars > 0 {
		if runes := []rune(text); len(runes) > s.maxChars {
			text = string(runes[:s.maxChars])
		}
	}
	pred, err := s.classifier.Classify(ctx, text)
	if err != nil {
		s.logger.Error("sentiment classification failed", zap.Error(err))
		return nil, fmt.Errorf("sentiment analysis failed: %w", err)
	}
	return &models.AnalyzeResponse{
		Sentiment:  pred.Label,
		Confidence: utils.Round4(pred.Confidence),
	}, nil
}
