package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago-ai/flight-concierge/internal/model"
)

func collectStream(t *testing.T, f *fixture, userID, convID, message string) []model.StreamEvent {
	t.Helper()
	var events []model.StreamEvent
	err := f.router.HandleTurnStream(context.Background(), userID, model.ChatRequest{
		Message:        message,
		ConversationID: convID,
	}, func(ev model.StreamEvent) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	return events
}

func TestStreamEventGrammar(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seedPassenger(testUser)

	events := collectStream(t, f, testUser, "", "find flight from hanoi to saigon 2026-12-20 for 2 adults economy")

	require.NotEmpty(t, events)
	require.Equal(t, model.StreamEventMeta, events[0].Type, "meta comes first")
	meta := events[0].Data.(model.MetaEvent)
	assert.NotEmpty(t, meta.ConversationID)
	assert.NotEmpty(t, meta.UserMessageID)

	require.Equal(t, model.StreamEventDone, events[len(events)-1].Type, "done is terminal")
	done := events[len(events)-1].Data.(model.DoneEvent)

	// Tokens are ordered and concatenate to the final content.
	var b strings.Builder
	lastIndex := -1
	sawAttachments, sawActions := 0, 0
	for _, ev := range events[1 : len(events)-1] {
		switch ev.Type {
		case model.StreamEventToken:
			tok := ev.Data.(model.TokenEvent)
			assert.Equal(t, lastIndex+1, tok.Index)
			assert.Zero(t, sawAttachments, "tokens must precede attachments")
			lastIndex = tok.Index
			b.WriteString(tok.Token)
		case model.StreamEventAttachments:
			sawAttachments++
		case model.StreamEventSuggestedActions:
			sawActions++
		default:
			t.Fatalf("unexpected event type %s", ev.Type)
		}
	}
	assert.Equal(t, done.Content, b.String())
	assert.Equal(t, 1, sawAttachments, "attachments emitted exactly once for an offer reply")
	assert.Equal(t, 1, sawActions)
	assert.Len(t, done.State.LastOfferIDs, 3)
}

func TestStreamErrorIsTerminal(t *testing.T) {
	t.Parallel()
	f := newFixture()

	var events []model.StreamEvent
	err := f.router.HandleTurnStream(context.Background(), testUser, model.ChatRequest{
		Message: "   ",
	}, func(ev model.StreamEvent) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 1, "a failed turn emits exactly one event")
	require.Equal(t, model.StreamEventError, events[0].Type)
	errEv := events[0].Data.(model.ErrorEvent)
	assert.Equal(t, "invalid_request", errEv.Code)
	assert.NotEmpty(t, errEv.Message)
}

func TestStreamCommitsBeforeEmitting(t *testing.T) {
	t.Parallel()
	f := newFixture()

	emitErr := errors.New("client gone")
	var convID string
	err := f.router.HandleTurnStream(context.Background(), testUser, model.ChatRequest{
		Message: "hello",
	}, func(ev model.StreamEvent) error {
		if meta, ok := ev.Data.(model.MetaEvent); ok {
			convID = meta.ConversationID
		}
		return emitErr
	})
	assert.ErrorIs(t, err, emitErr)
	require.NotEmpty(t, convID)

	// The turn survived the dropped client.
	msgs, err := f.store.Messages(context.Background(), convID, 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}
