// Package agent implements the two sub-agents the router delegates to: the
// flight agent (search/book/cancel) and the assistant agent (read-only
// queries and general Q&A).
package agent

import (
	"github.com/voyago-ai/flight-concierge/internal/model"
)

// StatePatch is the set of conversation-state changes an agent wants
// applied. Only the router merges patches into persisted state; agents
// never mutate the conversation directly.
type StatePatch struct {
	// LastOfferIDs replaces the offer list when non-nil. An empty non-nil
	// slice clears it.
	LastOfferIDs []string

	LastBookingID       string
	SelectedPassengerID string
}

// Result is what a sub-agent returns to the router for one delegation.
type Result struct {
	Text             string
	Attachments      []model.Attachment
	SuggestedActions []model.SuggestedAction
	StatePatch       *StatePatch

	// FollowUpStep, when set, tells the router the agent needs more input
	// before it can finish (e.g. "awaiting_passenger_id"); the router keeps
	// the current intent and stores this as state.step.
	FollowUpStep string
}

// Apply merges a patch into a state value.
func (p *StatePatch) Apply(s *model.State) {
	if p == nil {
		return
	}
	if p.LastOfferIDs != nil {
		s.LastOfferIDs = p.LastOfferIDs
	}
	if p.LastBookingID != "" {
		s.LastBookingID = p.LastBookingID
	}
	if p.SelectedPassengerID != "" {
		s.SelectedPassengerID = p.SelectedPassengerID
	}
}
