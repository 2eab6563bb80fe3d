// Package model defines data structures for the flight concierge.
package model

import (
	"time"
)

// State is the router's accumulated view of a conversation. It is persisted
// on every turn and is always valid when empty: an absent field means
// "not yet known", never an error.
type State struct {
	CurrentIntent       Intent            `json:"current_intent,omitempty"`
	Slots               map[string]string `json:"slots,omitempty"`
	LastOfferIDs        []string          `json:"last_offer_ids,omitempty"`
	SelectedPassengerID string            `json:"selected_passenger_id,omitempty"`
	LastBookingID       string            `json:"last_booking_id,omitempty"`

	// Step names the single slot the router is currently asking for,
	// e.g. "awaiting_depart_date". Empty when no follow-up is pending.
	Step string `json:"step,omitempty"`
}

// Clone returns a deep copy so agents can compute patches without
// mutating the state the router read.
func (s State) Clone() State {
	out := s
	if s.Slots != nil {
		out.Slots = make(map[string]string, len(s.Slots))
		for k, v := range s.Slots {
			out.Slots[k] = v
		}
	}
	if s.LastOfferIDs != nil {
		out.LastOfferIDs = make([]string, len(s.LastOfferIDs))
		copy(out.LastOfferIDs, s.LastOfferIDs)
	}
	return out
}

// Slot returns the value for a slot key, or "" when unset.
func (s State) Slot(key string) string {
	if s.Slots == nil {
		return ""
	}
	return s.Slots[key]
}

// SetSlot stores a slot value, allocating the map on first use.
func (s *State) SetSlot(key, value string) {
	if s.Slots == nil {
		s.Slots = make(map[string]string)
	}
	s.Slots[key] = value
}

// Conversation is a chat session. An empty UserID means the session is
// anonymous. Conversations are never deleted by the core.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Channel   string    `json:"channel"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	HasMore       bool           `json:"has_more"`
}
