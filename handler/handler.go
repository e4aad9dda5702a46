package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"bedrock-chat/internal/domain"
	"bedrock-chat/internal/usecase"
)

// ChatExecutor is the chat operation consumed by the front door.
type ChatExecutor interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
	Model() string
}

type chatRequest struct {
	Message             string               `json:"message"`
	ConversationHistory []domain.ChatMessage `json:"conversationHistory"`
}

type chatResponse struct {
	Success             bool                 `json:"success"`
	Response            string               `json:"response"`
	ConversationHistory []domain.ChatMessage `json:"conversationHistory"`
}

type healthResponse struct {
	Status string  `json:"status"`
	Model  *string `json:"model"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Handler is the HTTP front door for the chat relay.
type Handler struct {
	chat ChatExecutor
}

func New(chat ChatExecutor) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat executor must not be nil")
	}
	return &Handler{chat: chat}, nil
}

// Routes returns the full front-door handler: routing, CORS, request IDs
// and request logging. The CORS policy is deliberately open; this is a
// demo surface, not a hardened API boundary.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /chat", h.handleChat)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return requestID(logRequests(c.Handler(mux)))
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.chat != nil {
		model := h.chat.Model()
		resp.Model = &model
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON body"})
		return
	}

	out, err := h.chat.Chat(r.Context(), usecase.ChatInput{
		Message: req.Message,
		History: req.ConversationHistory,
	})
	if err != nil {
		status, detail := mapError(err)
		writeJSON(w, status, errorResponse{Detail: detail})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Success:             true,
		Response:            out.Reply,
		ConversationHistory: out.History,
	})
}

// mapError translates usecase errors into front-door status and detail.
// Both provider failure kinds surface as 502; only the detail differs.
func mapError(err error) (int, string) {
	var usecaseErr *usecase.Error
	if errors.As(err, &usecaseErr) {
		switch usecaseErr.Code {
		case usecase.ErrorInvalidInput:
			return http.StatusBadRequest, "message must not be empty"
		case usecase.ErrorUpstreamResponse:
			return http.StatusBadGateway, "Invalid response from model"
		case usecase.ErrorUpstream:
			return http.StatusBadGateway, fmt.Sprintf("Bedrock invocation failed: %v", usecaseErr.Unwrap())
		}
	}
	return http.StatusInternalServerError, "internal error"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding response", "err", err)
	}
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", r.Context().Value(requestIDKey),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
