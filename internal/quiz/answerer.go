package quiz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/at-ishikawa/quizgate/internal/inference"
)

// Answerer runs the batch pipeline. It holds no per-request state and is safe for concurrent use.
type Answerer struct {
	client inference.Client
}

// NewAnswerer creates an Answerer. A nil client means no API key is configured:
// every question is answered by the fallback policy without any outbound call.
func NewAnswerer(client inference.Client) *Answerer {
	return &Answerer{client: client}
}

// Answer returns one result per question, in input order. It never fails.
func (a *Answerer) Answer(ctx context.Context, questions []Question) []AnswerResult {
	if len(questions) == 0 {
		return []AnswerResult{}
	}
	if a.client == nil {
		return fallbackAll(questions, Source{Error: detailNoAPIKey})
	}

	prompt, err := BuildPrompt(questions)
	if err != nil {
		slog.Default().Error("failed to build prompt", "error", err)
		return fallbackAll(questions, Source{Error: err.Error()})
	}

	response, err := a.client.Generate(ctx, inference.GenerateRequest{Prompt: prompt})
	if err != nil {
		slog.Default().Warn("generation call failed, using fallback",
			"questionCount", len(questions),
			"error", err)
		return fallbackAll(questions, transportSource(err))
	}

	answers, parseErr := ParseAnswers(response.Text)
	if parseErr != nil {
		slog.Default().Warn("failed to parse generation response, using fallback",
			"questionCount", len(questions))
		slog.Default().Debug("unparsable generation response", "text", response.Text)
	}
	return Reconcile(questions, answers, parseErr)
}

func transportSource(err error) Source {
	var upstreamErr *inference.UpstreamError
	if errors.As(err, &upstreamErr) {
		return Source{
			Error:  upstreamErr.Message,
			Status: upstreamErr.StatusCode,
			Data:   upstreamData(upstreamErr.Body),
		}
	}
	return Source{Error: err.Error()}
}
