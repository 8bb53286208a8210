package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type identifiers.
const (
	// TypeGenerationRequested asks for a batch of vocabulary to be generated
	// for a topic on behalf of a user.
	TypeGenerationRequested = "generation_requested"
)

// GenerationRequestedPayload is the payload for TypeGenerationRequested.
type GenerationRequestedPayload struct {
	UserID  uuid.UUID `json:"user_id"`
	TopicID uuid.UUID `json:"topic_id"`
}

// TaskRequestEvent represents a request to create a background task. It
// carries only serializable data so that it can cross package boundaries
// without dragging in task dependencies.
type TaskRequestEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewTaskRequestEvent creates an event of the given type with a
// JSON-serialized payload.
func NewTaskRequestEvent(eventType string, payload any) (*TaskRequestEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload decodes the event payload into v.
func (e *TaskRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler processes emitted events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
