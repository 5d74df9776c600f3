package inference

import (
	"context"
	"fmt"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client interface defines the methods for text generation against a remote model
type Client interface {
	Generate(ctx context.Context, params GenerateRequest) (GenerateResponse, error)
}

// GenerateRequest holds a single prompt sent as one user turn
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse holds the raw text produced by the model.
// The text is untrusted and may be empty.
type GenerateResponse struct {
	Text string `json:"text"`
}

// UpstreamError is returned by clients when the outbound call fails.
// StatusCode and Body are set only when the upstream answered with a non-2xx status.
type UpstreamError struct {
	Message    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Body)
}

const (
	// PlaceholderAPIKey is the value shipped in sample env files; it is never sent upstream.
	PlaceholderAPIKey = "YOUR_API_KEY_HERE"
)
