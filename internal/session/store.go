// Package session persists conversation identity, state and the append-only
// message log across turns.
package session

import (
	"context"
	"errors"

	"github.com/voyago-ai/flight-concierge/internal/model"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// Store is the session persistence boundary. All mutation goes through the
// router's single merge-then-persist step; messages are append-only and
// never rewritten.
type Store interface {
	// LoadConversation returns ErrNotFound when the id is unknown.
	LoadConversation(ctx context.Context, id string) (*model.Conversation, error)

	// SaveConversation upserts a conversation including its state document.
	SaveConversation(ctx context.Context, conv *model.Conversation) error

	// AppendMessage appends one turn record to the conversation's log.
	AppendMessage(ctx context.Context, conversationID string, msg *model.Message) error

	// Messages returns the log in creation order, capped at limit.
	Messages(ctx context.Context, conversationID string, limit int) ([]model.Message, error)

	// ListConversations returns a user's conversations, newest first.
	ListConversations(ctx context.Context, userID string, limit, offset int) (*model.ListConversationsResponse, error)
}
