// Package chatapi exposes the booking assistant over HTTP for web chat
// clients.
package chatapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acmedental/booking-agent/internal/agent"
	"github.com/acmedental/booking-agent/pkg/logging"
)

// Responder is the slice of the agent the handler depends on.
type Responder interface {
	Respond(ctx context.Context, conversationID, userMessage string) (string, error)
}

// ChatHandler serves the conversational endpoint.
type ChatHandler struct {
	responder Responder
	logger    *logging.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(responder Responder, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{responder: responder, logger: logger}
}

// ChatRequest is the request body for a chat turn. ConversationID is
// optional; omitting it starts a new conversation.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse is returned for each chat turn.
type ChatResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// Chat handles one conversation turn.
// POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		jsonError(w, "message is required", http.StatusBadRequest)
		return
	}

	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = agent.NewConversationID()
	}

	reply, err := h.responder.Respond(r.Context(), conversationID, req.Message)
	if err != nil {
		h.logger.Error("chat turn failed", "conversation_id", conversationID, "error", err)
		jsonError(w, "assistant is temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID: conversationID,
		Reply:          reply,
	})
}

// HealthCheck reports liveness.
// GET /health
func (h *ChatHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RouterConfig carries the router's dependencies.
type RouterConfig struct {
	Chat   *ChatHandler
	Logger *logging.Logger
}

// NewRouter creates a Chi router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", cfg.Chat.HealthCheck)
	r.Post("/chat", cfg.Chat.Chat)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
