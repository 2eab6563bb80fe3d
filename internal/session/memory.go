package session

import (
	"context"
	"sort"
	"sync"

	"github.com/voyago-ai/flight-concierge/internal/model"
)

// MemoryStore is a map-backed Store for tests and single-node local runs.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]model.Conversation
	messages      map[string][]model.Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]model.Conversation),
		messages:      make(map[string][]model.Message),
	}
}

// LoadConversation implements Store.
func (s *MemoryStore) LoadConversation(_ context.Context, id string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	conv.State = conv.State.Clone()
	return &conv, nil
}

// SaveConversation implements Store.
func (s *MemoryStore) SaveConversation(_ context.Context, conv *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *conv
	cp.State = conv.State.Clone()
	s.conversations[conv.ID] = cp
	return nil
}

// AppendMessage implements Store.
func (s *MemoryStore) AppendMessage(_ context.Context, conversationID string, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return ErrNotFound
	}
	s.messages[conversationID] = append(s.messages[conversationID], *msg)
	return nil
}

// Messages implements Store.
func (s *MemoryStore) Messages(_ context.Context, conversationID string, limit int) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}
	msgs := s.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]model.Message(nil), msgs...), nil
}

// ListConversations implements Store.
func (s *MemoryStore) ListConversations(_ context.Context, userID string, limit, offset int) (*model.ListConversationsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var convs []model.Conversation
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			convs = append(convs, conv)
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})

	total := len(convs)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if limit <= 0 || end > total {
		end = total
	}

	return &model.ListConversationsResponse{
		Conversations: convs[start:end],
		Total:         total,
		HasMore:       end < total,
	}, nil
}
