// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/voyago-ai/flight-concierge/internal/middleware"
	"github.com/voyago-ai/flight-concierge/internal/model"
	"github.com/voyago-ai/flight-concierge/internal/router"
	"github.com/voyago-ai/flight-concierge/pkg/logger"
	"github.com/voyago-ai/flight-concierge/pkg/metrics"
)

// ChatHandler handles the chat endpoints.
type ChatHandler struct {
	router *router.Router
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(r *router.Router, log *logger.Logger) *ChatHandler {
	return &ChatHandler{router: r, logger: log}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.router.HandleTurn(ctx, userID, *req)
	if err != nil {
		h.writeTurnError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ChatStream handles POST /api/v1/chat/stream. The reply is delivered as
// SSE events; the turn is committed before the first event, so clients that
// drop mid-stream recover it by listing messages.
func (h *ChatHandler) ChatStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	err := h.router.HandleTurnStream(ctx, userID, *req, func(ev model.StreamEvent) error {
		return sendSSEEvent(w, flusher, string(ev.Type), ev.Data)
	})
	if err != nil {
		h.logger.Warn("stream interrupted", "error", err)
	}
}

func (h *ChatHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*model.ChatRequest, bool) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if req.ConversationID != "" {
		if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return nil, false
		}
	}
	if err := middleware.ValidateChannel(req.Channel); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func (h *ChatHandler) writeTurnError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, router.ErrEmptyMessage):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, router.ErrConversationNotFound):
		writeError(w, r, http.StatusNotFound, "conversation not found")
	default:
		h.logger.Error("turn failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to process message")
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
