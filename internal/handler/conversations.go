package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/voyago-ai/flight-concierge/internal/middleware"
	"github.com/voyago-ai/flight-concierge/internal/model"
	"github.com/voyago-ai/flight-concierge/internal/session"
	"github.com/voyago-ai/flight-concierge/pkg/logger"
)

// ConversationHandler handles conversation read endpoints. Conversations
// are created implicitly by the first chat turn and never deleted, so the
// surface is list, get and message history.
type ConversationHandler struct {
	store  session.Store
	logger *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(store session.Store, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{store: store, logger: log}
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := 20
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	resp, err := h.store.ListConversations(ctx, userID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list conversations", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// Messages handles GET /api/v1/conversations/{id}/messages
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	messages, err := h.store.Messages(r.Context(), conv.ID, limit+1)
	if err != nil {
		h.logger.Error("failed to list messages", "conversation_id", conv.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list messages")
		return
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}
	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		Messages: messages,
		HasMore:  hasMore,
	})
}

// loadOwned fetches the conversation and enforces ownership. A missing
// conversation and someone else's conversation both read as 404.
func (h *ConversationHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*model.Conversation, bool) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}

	conv, err := h.store.LoadConversation(ctx, conversationID)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "conversation not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to load conversation", "conversation_id", conversationID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to load conversation")
		return nil, false
	}
	if conv.UserID != userID {
		writeError(w, r, http.StatusNotFound, "conversation not found")
		return nil, false
	}
	return conv, true
}
