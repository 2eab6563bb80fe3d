package session

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago-ai/flight-concierge/internal/model"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.LoadConversation(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	conv := &model.Conversation{
		ID:      "c1",
		UserID:  "u1",
		Channel: "web",
		State: model.State{
			CurrentIntent: model.IntentFlightSearch,
			Slots:         map[string]string{model.SlotOrigin: "HAN"},
			LastOfferIDs:  []string{"o1", "o2"},
			Step:          "awaiting_adults",
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, s.SaveConversation(ctx, conv))

	got, err := s.LoadConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, conv.State, got.State)

	// Mutating the loaded copy must not leak back into the store.
	got.State.SetSlot(model.SlotOrigin, "SGN")
	got.State.LastOfferIDs[0] = "tampered"

	again, err := s.LoadConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "HAN", again.State.Slots[model.SlotOrigin])
	assert.Equal(t, "o1", again.State.LastOfferIDs[0])
}

func TestMemoryStoreMessages(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.AppendMessage(ctx, "nope", &model.Message{ID: "m0"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveConversation(ctx, &model.Conversation{ID: "c1"}))
	for i := 0; i < 5; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		require.NoError(t, s.AppendMessage(ctx, "c1", &model.Message{
			ID:      strconv.Itoa(i),
			Role:    role,
			Content: "msg " + strconv.Itoa(i),
		}))
	}

	msgs, err := s.Messages(ctx, "c1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	assert.Equal(t, "0", msgs[0].ID)
	assert.Equal(t, "4", msgs[4].ID)

	// Limit keeps the most recent tail.
	msgs, err = s.Messages(ctx, "c1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "3", msgs[0].ID)
	assert.Equal(t, "4", msgs[1].ID)
}

func TestMemoryStoreListConversations(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.SaveConversation(ctx, &model.Conversation{
			ID:        "u1-" + strconv.Itoa(i),
			UserID:    "u1",
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.SaveConversation(ctx, &model.Conversation{
		ID:        "u2-0",
		UserID:    "u2",
		UpdatedAt: base,
	}))

	resp, err := s.ListConversations(ctx, "u1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	assert.True(t, resp.HasMore)
	require.Len(t, resp.Conversations, 2)
	assert.Equal(t, "u1-2", resp.Conversations[0].ID, "newest first")
	assert.Equal(t, "u1-1", resp.Conversations[1].ID)

	resp, err = s.ListConversations(ctx, "u1", 2, 2)
	require.NoError(t, err)
	assert.False(t, resp.HasMore)
	require.Len(t, resp.Conversations, 1)
	assert.Equal(t, "u1-0", resp.Conversations[0].ID)

	resp, err = s.ListConversations(ctx, "u3", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.Conversations)
}
