// Package server exposes the answering pipeline over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/at-ishikawa/quizgate/internal/config"
	"github.com/at-ishikawa/quizgate/internal/quiz"
)

const livenessText = "quizgate server running"

var errInvalidJSON = errors.New("invalid JSON body")

// AnswerHandler serves /api/answer and the liveness endpoints.
type AnswerHandler struct {
	answerer     *quiz.Answerer
	maxBodyBytes int64
	now          func() time.Time
}

// NewAnswerHandler creates a new AnswerHandler.
func NewAnswerHandler(answerer *quiz.Answerer, maxBodyBytes int64) *AnswerHandler {
	return &AnswerHandler{
		answerer:     answerer,
		maxBodyBytes: maxBodyBytes,
		now:          time.Now,
	}
}

// NewRouter wires the handler with CORS, request ids, access logs and panic recovery.
func NewRouter(cfg config.ServerConfig, handler *AnswerHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(cfg.CORS.AllowedOrigins))

	r.Get("/", handler.Root)
	r.Get("/health", handler.Health)
	r.Post("/api/answer", handler.Answer)
	return r
}

// Answer always replies 200 with the envelope once the body is valid JSON.
// Upstream failures are reported per result, never as an HTTP status.
func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errInvalidJSON.Error()})
		return
	}

	questions := quiz.Normalize(payload)
	response := quiz.Aggregate(h.answerer.Answer(r.Context(), questions))

	slog.Default().Info("answered batch",
		"requestId", RequestIDFromContext(r.Context()),
		"questionCount", len(questions),
		"fallbackCount", response.FallbackCount(),
	)
	writeJSON(w, http.StatusOK, response)
}

type healthResponse struct {
	Status string `json:"status"`
	Time   int64  `json:"time"`
}

func (h *AnswerHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Time:   h.now().UnixMilli(),
	})
}

func (h *AnswerHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, livenessText)
}

type errorResponse struct {
	Error string `json:"error"`
}

// decodePayload reads any JSON value; an empty body is an empty object.
func decodePayload(body io.Reader) (any, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll > %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	if !json.Valid(raw) {
		return nil, errInvalidJSON
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("json.Decode > %w", err)
	}
	return payload, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("failed to write response", "status", status, "error", err)
	}
}
