package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/at-ishikawa/quizgate/internal/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Generate(t *testing.T) {
	tests := []struct {
		name              string
		request           inference.GenerateRequest
		mockServerHandler func(t *testing.T, w http.ResponseWriter, r *http.Request)

		wantResponse   inference.GenerateResponse
		wantError      bool
		wantStatusCode int
		wantMessage    string
		wantBody       string
	}{
		{
			name:    "Success returns the first candidate text",
			request: inference.GenerateRequest{Prompt: "answer these"},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
				assert.Equal(t, "test-key", r.URL.Query().Get("key"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var reqBody map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
				assert.Equal(t, map[string]any{
					"contents": []any{
						map[string]any{
							"role":  "user",
							"parts": []any{map[string]any{"text": "answer these"}},
						},
					},
					"generationConfig": map[string]any{
						"temperature":     float64(0),
						"maxOutputTokens": float64(4096),
					},
				}, reqBody)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(GenerateContentResponse{
					Candidates: []Candidate{
						{
							Content: Content{
								Role:  RoleModel,
								Parts: []Part{{Text: `[{"id":"q1","answer":"B"}]`}},
							},
							FinishReason: "STOP",
						},
					},
				})
			},
			wantResponse: inference.GenerateResponse{Text: `[{"id":"q1","answer":"B"}]`},
		},
		{
			name:    "Non-JSON 200 body returns empty text",
			request: inference.GenerateRequest{Prompt: "answer these"},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("<html>gateway page</html>"))
			},
			wantResponse: inference.GenerateResponse{},
		},
		{
			name:    "No candidates returns empty text",
			request: inference.GenerateRequest{Prompt: "answer these"},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"candidates":[]}`))
			},
			wantResponse: inference.GenerateResponse{Text: ""},
		},
		{
			name:    "HTTP 400 error carries status and body",
			request: inference.GenerateRequest{Prompt: "answer these"},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
			},
			wantError:      true,
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "response error 400",
			wantBody:       `{"error":{"code":400,"message":"API key not valid"}}`,
		},
		{
			name:    "HTTP 500 error is not retried",
			request: inference.GenerateRequest{Prompt: "answer these"},
			mockServerHandler: func() func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				calls := 0
				return func(t *testing.T, w http.ResponseWriter, r *http.Request) {
					calls++
					assert.Equal(t, 1, calls, "upstream must be called exactly once")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte("internal"))
				}
			}(),
			wantError:      true,
			wantStatusCode: http.StatusInternalServerError,
			wantMessage:    "response error 500",
			wantBody:       "internal",
		},
		{
			name:    "Error body never echoes the API key",
			request: inference.GenerateRequest{Prompt: "answer these"},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("key test-key is blocked"))
			},
			wantError:      true,
			wantStatusCode: http.StatusForbidden,
			wantMessage:    "response error 403",
			wantBody:       "key [redacted] is blocked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, w, r)
			}))
			defer server.Close()

			client := NewClient("test-key", Settings{
				BaseURL: server.URL,
				Model:   "gemini-test",
				Timeout: 5 * time.Second,
			})
			defer client.Close()

			gotResponse, gotErr := client.Generate(context.Background(), tt.request)

			if tt.wantError {
				require.Error(t, gotErr)
				var upstreamErr *inference.UpstreamError
				require.True(t, errors.As(gotErr, &upstreamErr))
				assert.Equal(t, tt.wantStatusCode, upstreamErr.StatusCode)
				assert.Equal(t, tt.wantMessage, upstreamErr.Message)
				assert.Equal(t, tt.wantBody, upstreamErr.Body)
				return
			}

			require.NoError(t, gotErr)
			assert.Equal(t, tt.wantResponse, gotResponse)
		})
	}
}

func TestClient_Generate_TransportFailure(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client := NewClient("test-key", Settings{
			BaseURL: server.URL,
			Model:   "gemini-test",
			Timeout: 50 * time.Millisecond,
		})
		defer client.Close()

		_, err := client.Generate(context.Background(), inference.GenerateRequest{Prompt: "p"})
		require.Error(t, err)
		var upstreamErr *inference.UpstreamError
		require.True(t, errors.As(err, &upstreamErr))
		assert.Zero(t, upstreamErr.StatusCode)
		assert.NotEmpty(t, upstreamErr.Message)
		assert.NotContains(t, upstreamErr.Message, "test-key")
	})

	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		baseURL := server.URL
		server.Close()

		client := NewClient("secret-key", Settings{BaseURL: baseURL, Timeout: time.Second})
		defer client.Close()

		_, err := client.Generate(context.Background(), inference.GenerateRequest{Prompt: "p"})
		require.Error(t, err)
		var upstreamErr *inference.UpstreamError
		require.True(t, errors.As(err, &upstreamErr))
		assert.Zero(t, upstreamErr.StatusCode)
		assert.NotContains(t, upstreamErr.Error(), "secret-key")
	})
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("k", Settings{})
	defer client.Close()

	assert.Equal(t, DefaultModel, client.GetModel())
	assert.Equal(t, DefaultMaxOutputTokens, client.maxOutputTokens)
	assert.Equal(t, float32(0), client.temperature)
}
