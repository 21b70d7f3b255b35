// Package models defines request, response, and result types shared across the service.
package models

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Text string `json:"text"`
}

// AnalyzeResponse is the sentiment classification result.
// Sentiment is "POSITIVE" or "NEGATIVE"; Confidence is rounded to 4 decimal places.
type AnalyzeResponse struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}
