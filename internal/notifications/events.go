package notifications

import (
	"encoding/json"
	"fmt"
)

// Event type constants prevent typos in event names.
const (
	EventModeration      = "moderation_event"
	EventMessagesDropped = "messages_dropped"
)

// Event is the envelope pushed to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode marshals an event envelope.
func Encode(eventType string, payload any) (string, error) {
	b, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return string(b), nil
}
