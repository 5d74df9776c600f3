package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/at-ishikawa/quizgate/internal/inference"
	"resty.dev/v3"
)

const (
	DefaultBaseURL         = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel           = "gemini-2.0-flash"
	DefaultTimeout         = 30 * time.Second
	DefaultMaxOutputTokens = 4096
)

// Settings holds everything the client needs besides the API key.
type Settings struct {
	BaseURL         string
	Model           string
	Timeout         time.Duration
	Temperature     float32
	MaxOutputTokens int
}

type Client struct {
	httpClient      *resty.Client
	apiKey          string
	model           string
	temperature     float32
	maxOutputTokens int
}

func NewClient(apiKey string, settings Settings) *Client {
	if settings.BaseURL == "" {
		settings.BaseURL = DefaultBaseURL
	}
	if settings.Model == "" {
		settings.Model = DefaultModel
	}
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}
	if settings.MaxOutputTokens <= 0 {
		settings.MaxOutputTokens = DefaultMaxOutputTokens
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(settings.BaseURL, "/"))
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(settings.Timeout)

	return &Client{
		httpClient:      client,
		apiKey:          apiKey,
		model:           settings.Model,
		temperature:     settings.Temperature,
		maxOutputTokens: settings.MaxOutputTokens,
	}
}

func (client Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client Client) GetModel() string {
	return client.model
}

type GenerateContentRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type Content struct {
	Role  Role   `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// GenerationConfig is always sent in full; a zero temperature is meaningful.
type GenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type GenerateContentResponse struct {
	Candidates    []Candidate   `json:"candidates"`
	UsageMetadata UsageMetadata `json:"usageMetadata"`
	ModelVersion  string        `json:"modelVersion,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
	Index        int     `json:"index"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Text returns the first part of the first candidate, or an empty string.
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Parts[0].Text
}

func (client *Client) getRequestBody(args inference.GenerateRequest) GenerateContentRequest {
	return GenerateContentRequest{
		Contents: []Content{
			{
				Role:  RoleUser,
				Parts: []Part{{Text: args.Prompt}},
			},
		},
		GenerationConfig: GenerationConfig{
			Temperature:     client.temperature,
			MaxOutputTokens: client.maxOutputTokens,
		},
	}
}

// Generate implements the inference.Client interface.
// It makes exactly one call; every failure is returned as *inference.UpstreamError.
func (client *Client) Generate(
	ctx context.Context,
	args inference.GenerateRequest,
) (inference.GenerateResponse, error) {
	requestBody := client.getRequestBody(args)

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", client.apiKey).
		SetBody(requestBody).
		SetResult(&GenerateContentResponse{}).
		Post(fmt.Sprintf("/models/%s:generateContent", url.PathEscape(client.model)))
	if err != nil {
		if isUndecodableSuccess(response, err) {
			// the call went through; an unreadable 2xx body is left to the answer parser
			slog.Default().Warn("gemini response body could not be decoded",
				"model", client.model,
				"error", err,
			)
			return inference.GenerateResponse{}, nil
		}
		return inference.GenerateResponse{}, &inference.UpstreamError{
			Message: client.redact(transportMessage(err)),
		}
	}
	if response.IsError() {
		return inference.GenerateResponse{}, &inference.UpstreamError{
			Message:    fmt.Sprintf("response error %d", response.StatusCode()),
			StatusCode: response.StatusCode(),
			Body:       client.redact(response.String()),
		}
	}

	responseBody, _ := response.Result().(*GenerateContentResponse)
	slog.Default().Debug("gemini response content",
		"model", client.model,
		"response", responseBody,
	)
	return inference.GenerateResponse{Text: responseBody.Text()}, nil
}

func isUndecodableSuccess(response *resty.Response, err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}
	return response != nil && response.IsSuccess() &&
		!errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled)
}

// transportMessage drops the request URL from net/http errors; it carries the API key.
func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

func (client *Client) redact(s string) string {
	if client.apiKey == "" {
		return s
	}
	return strings.ReplaceAll(s, client.apiKey, "[redacted]")
}
