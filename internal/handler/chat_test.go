package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago-ai/flight-concierge/internal/agent"
	"github.com/voyago-ai/flight-concierge/internal/intent"
	"github.com/voyago-ai/flight-concierge/internal/model"
	"github.com/voyago-ai/flight-concierge/internal/router"
	"github.com/voyago-ai/flight-concierge/internal/session"
	"github.com/voyago-ai/flight-concierge/internal/tools"
	"github.com/voyago-ai/flight-concierge/pkg/logger"
)

func newTestServer() http.Handler {
	log := logger.NewNop()
	store := session.NewMemoryStore()
	adapters := tools.NewInMemory()

	flight := agent.NewFlightAgent(adapters, adapters, log)
	assistant := agent.NewAssistantAgent(adapters, nil, "", log)
	conversationRouter := router.New(store, intent.NewRuleClassifier(), flight, assistant, log)

	chatHandler := NewChatHandler(conversationRouter, log)
	conversationHandler := NewConversationHandler(store, log)

	r := chi.NewRouter()
	r.Post("/api/v1/chat", chatHandler.Chat)
	r.Post("/api/v1/chat/stream", chatHandler.ChatStream)
	r.Get("/api/v1/conversations", conversationHandler.List)
	r.Get("/api/v1/conversations/{id}", conversationHandler.Get)
	r.Get("/api/v1/conversations/{id}/messages", conversationHandler.Messages)
	return r
}

func postChat(t *testing.T, srv http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestChatEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer()

	rec := postChat(t, srv, model.ChatRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ConversationID)
	assert.NotEmpty(t, resp.Content)
	assert.Equal(t, model.IntentGeneralQuestion, resp.Intent)

	// Follow-up turn reuses the conversation.
	rec = postChat(t, srv, model.ChatRequest{Message: "hello again", ConversationID: resp.ConversationID})
	require.Equal(t, http.StatusOK, rec.Code)
	var second model.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, resp.ConversationID, second.ConversationID)
}

func TestChatEndpointValidation(t *testing.T) {
	t.Parallel()
	srv := newTestServer()

	rec := postChat(t, srv, model.ChatRequest{Message: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postChat(t, srv, model.ChatRequest{Message: "hi", ConversationID: "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postChat(t, srv, model.ChatRequest{Message: "hi", Channel: "carrier-pigeon"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postChat(t, srv, model.ChatRequest{Message: "hi", ConversationID: uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader("{broken"))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatStreamEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer()

	data, err := json.Marshal(model.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/stream", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: meta\n")
	assert.Contains(t, body, "event: token\n")
	assert.Contains(t, body, "event: done\n")

	// done is the last event on the wire.
	events := parseSSEEventNames(body)
	require.NotEmpty(t, events)
	assert.Equal(t, "meta", events[0])
	assert.Equal(t, "done", events[len(events)-1])
}

func TestConversationEndpoints(t *testing.T) {
	t.Parallel()
	srv := newTestServer()

	rec := postChat(t, srv, model.ChatRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var list model.ListConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/conversations/"+resp.ConversationID, nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/conversations/"+resp.ConversationID+"/messages", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs model.ListMessagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	assert.Len(t, msgs.Messages, 2)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/conversations/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/conversations/junk", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func parseSSEEventNames(body string) []string {
	var names []string
	for _, line := range strings.Split(body, "\n") {
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			names = append(names, name)
		}
	}
	return names
}
