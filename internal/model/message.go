package model

import (
	"time"
)

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn record in a conversation. Messages are append-only
// and never mutated after creation.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`

	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Annotations set only on assistant messages: which classifier outcome
	// and which sub-agent produced the reply.
	Intent    Intent `json:"intent,omitempty"`
	AgentName string `json:"agent_name,omitempty"`

	Attachments      []Attachment      `json:"attachments,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// AttachmentType tags the structured payload variant carried by a message.
type AttachmentType string

const (
	AttachmentFlightOffers   AttachmentType = "flight_offers"
	AttachmentBookingSuccess AttachmentType = "booking_success"
)

// Attachment is a tagged union: exactly one of Offers or Booking is set,
// according to Type.
type Attachment struct {
	Type    AttachmentType  `json:"type"`
	Offers  []OfferSummary  `json:"offers,omitempty"`
	Booking *BookingSummary `json:"booking,omitempty"`
}

// OfferSummary is a flight-offer card. Index is 0-based within the current
// search result list.
type OfferSummary struct {
	Index           int             `json:"index"`
	OfferID         string          `json:"offer_id"`
	TotalPrice      float64         `json:"total_price"`
	Currency        string          `json:"currency"`
	DurationMinutes int             `json:"duration_minutes"`
	Stops           int             `json:"stops"`
	Segments        []FlightSegment `json:"segments"`
}

// BookingSummary is a booking-success card.
type BookingSummary struct {
	BookingID string          `json:"booking_id"`
	Reference string          `json:"reference"`
	Status    BookingStatus   `json:"status"`
	Flights   []FlightSegment `json:"flights,omitempty"`
}

// SuggestedAction is a quick-reply descriptor. Payload, when set, should be
// treated by the client as if the user typed it.
type SuggestedAction struct {
	Label   string `json:"label"`
	Payload string `json:"payload,omitempty"`
	Type    string `json:"type"`
	Icon    string `json:"icon,omitempty"`
}

// ChatRequest is an incoming user turn.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	Channel        string `json:"channel,omitempty"`
}

// ChatResponse is the synchronous reply for one turn.
type ChatResponse struct {
	ConversationID   string            `json:"conversation_id"`
	MessageID        string            `json:"message_id"`
	Content          string            `json:"content"`
	Intent           Intent            `json:"intent,omitempty"`
	AgentName        string            `json:"agent_name,omitempty"`
	State            State             `json:"state"`
	Attachments      []Attachment      `json:"attachments,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// ListMessagesResponse is the response for listing messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
}
