// Package message defines the wire protocol for the livechat WebSocket
// surface: event envelopes, payload shapes, and their normalization.
package message

import (
	"encoding/json"
	"time"
)

// EventType names a WebSocket event in either direction
type EventType string

const (
	EventJoin            EventType = "join"
	EventMessage         EventType = "message"
	EventOperatorMessage EventType = "operator-message"
	EventNewSession      EventType = "new-session"
	EventAIFailureNotice EventType = "ai-failure-notice"
	EventTypingState     EventType = "typing-state"
	EventChatHistory     EventType = "chat-history"
	EventGetChatHistory  EventType = "get-chat-history"
	EventChatAssigned    EventType = "chat-assigned"
	EventAIToggled       EventType = "ai-toggled"
	EventError           EventType = "error"
)

// SenderType represents who authored a chat message
type SenderType string

const (
	SenderVisitor  SenderType = "visitor"
	SenderAI       SenderType = "ai"
	SenderOperator SenderType = "operator"
	SenderSystem   SenderType = "system"
)

// Envelope is the framing for every socket event. Data holds the
// event-specific payload and is decoded after the event name is known.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrorInfo contains error details in their wire-safe form
type ErrorInfo struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
	RetryAfter  int    `json:"retry_after,omitempty"` // seconds
}

// JoinPayload identifies a visitor connection
type JoinPayload struct {
	Token            string `json:"token"`
	ClientDescriptor string `json:"clientDescriptor,omitempty"`
}

// VisitorMessagePayload carries an inbound visitor message. Older clients
// send the body as a bare JSON string instead of the structured object;
// UnmarshalJSON absorbs both so downstream code sees one shape.
type VisitorMessagePayload struct {
	Token string `json:"token,omitempty"`
	Body  string `json:"body"`
}

// UnmarshalJSON accepts both {"token":...,"body":...} and a legacy bare
// string payload. The bare form has no token; the connection's resolved
// session fills it in.
func (p *VisitorMessagePayload) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		p.Token = ""
		p.Body = bare
		return nil
	}

	type alias VisitorMessagePayload
	var aux alias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = VisitorMessagePayload(aux)
	return nil
}

// OperatorMessagePayload carries an operator reply addressed to one visitor.
// ActingOperatorID is populated server-side from the operator's validated
// identity, never trusted from the payload.
type OperatorMessagePayload struct {
	TargetSessionRef string `json:"targetSessionRef"`
	Body             string `json:"body"`
	ActingOperatorID string `json:"actingOperatorId,omitempty"`
}

// ChatMessage is the outbound form of a persisted message
type ChatMessage struct {
	ID        string     `json:"id"`
	Body      string     `json:"body"`
	Timestamp time.Time  `json:"timestamp"`
	Sender    SenderType `json:"sender"`
	FromAI    bool       `json:"fromAi,omitempty"`
}

// MarshalJSON implements custom JSON marshaling for ChatMessage
func (m *ChatMessage) MarshalJSON() ([]byte, error) {
	type Alias ChatMessage
	return json.Marshal(&struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias:     (*Alias)(m),
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for ChatMessage
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	type Alias ChatMessage
	aux := &struct {
		*Alias
		Timestamp string `json:"timestamp"`
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, aux.Timestamp)
		if err != nil {
			return err
		}
		m.Timestamp = t
	}

	return nil
}

// OperatorRoomMessage fans a new message out to all connected operators.
// ActingOperatorID is non-nil only for operator-authored messages, letting
// the sender's own client discard the echo.
type OperatorRoomMessage struct {
	SessionRef       string      `json:"sessionRef"`
	Message          ChatMessage `json:"message"`
	Timestamp        time.Time   `json:"timestamp"`
	ActingOperatorID *string     `json:"actingOperatorId"`
}

// NewSessionNotice announces a first-contact visitor to the operator room
type NewSessionNotice struct {
	SessionRef    string    `json:"sessionRef"`
	NetworkOrigin string    `json:"networkOrigin"`
	Timestamp     time.Time `json:"timestamp"`
}

// AIFailureNotice surfaces a degraded-AI event to the operator room.
// Detail carries the raw provider error text for diagnosis; it never
// travels to visitors.
type AIFailureNotice struct {
	SessionRef  string    `json:"sessionRef"`
	FailureKind string    `json:"failureKind"`
	Detail      string    `json:"detail"`
	Timestamp   time.Time `json:"timestamp"`
}

// TypingState is an ephemeral presence signal, relayed but never persisted
type TypingState struct {
	SessionRef string `json:"id"`
	Typing     bool   `json:"typing"`
}

// ChatHistory returns a session's persisted messages in ascending
// timestamp order
type ChatHistory struct {
	SessionRef string        `json:"sessionRef"`
	Messages   []ChatMessage `json:"messages"`
}
