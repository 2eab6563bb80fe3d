package model

// StreamEventType identifies one event kind in a turn's reply stream.
type StreamEventType string

const (
	// StreamEventMeta is emitted first and carries the conversation id and
	// the persisted user-message id.
	StreamEventMeta StreamEventType = "meta"
	// StreamEventToken carries an incremental text chunk, in content order.
	StreamEventToken StreamEventType = "token"
	// StreamEventAttachments is emitted at most once, after all tokens.
	StreamEventAttachments StreamEventType = "attachments"
	// StreamEventSuggestedActions is emitted at most once.
	StreamEventSuggestedActions StreamEventType = "suggested_actions"
	// StreamEventDone terminates a successful stream.
	StreamEventDone StreamEventType = "done"
	// StreamEventError terminates a failed stream instead of done.
	StreamEventError StreamEventType = "error"
)

// StreamEvent is one element of the finite, ordered, non-restartable event
// sequence produced by a streamed turn. Exactly one terminal event (done or
// error) closes every stream.
type StreamEvent struct {
	Type StreamEventType `json:"type"`
	Data any             `json:"data,omitempty"`
}

// MetaEvent is the payload of the initial meta event.
type MetaEvent struct {
	ConversationID string `json:"conversation_id"`
	UserMessageID  string `json:"user_message_id"`
}

// TokenEvent is one incremental text chunk.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// AttachmentsEvent carries the turn's structured attachments.
type AttachmentsEvent struct {
	Attachments []Attachment `json:"attachments"`
}

// SuggestedActionsEvent carries the turn's quick replies.
type SuggestedActionsEvent struct {
	SuggestedActions []SuggestedAction `json:"suggested_actions"`
}

// DoneEvent closes a successful stream with the final message id and the
// full concatenated reply text.
type DoneEvent struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
	Intent    Intent `json:"intent,omitempty"`
	AgentName string `json:"agent_name,omitempty"`
	State     State  `json:"state"`
}

// ErrorEvent closes a failed stream with a human-readable message.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
