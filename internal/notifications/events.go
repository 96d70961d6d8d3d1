package notifications

import "encoding/json"

// Event types pushed to clients.
const (
	EventNotification    = "notification"
	EventMessage         = "message"
	EventMessageSent     = "message_sent"
	EventPong            = "pong"
	EventError           = "error"
	EventMessagesDropped = "messages_dropped"
)

// Event is the wire envelope of every frame: {"type": ..., "payload": ...}.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Encode marshals the envelope.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// InboundFrame is a client-to-server frame. Payload is decoded per Type.
type InboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload is the payload of an "error" event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEvent builds an "error" event.
func ErrorEvent(code, message string) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Code: code, Message: message}}
}
