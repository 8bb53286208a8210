package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []*TaskRequestEvent
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *TaskRequestEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func newTestEmitter() *InMemoryEventEmitter {
	return NewInMemoryEventEmitter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewTaskRequestEvent(t *testing.T) {
	payload := GenerationRequestedPayload{UserID: uuid.New(), TopicID: uuid.New()}

	event, err := NewTaskRequestEvent(TypeGenerationRequested, payload)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeGenerationRequested, event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded GenerationRequestedPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestEmitEvent_NoHandlers(t *testing.T) {
	emitter := newTestEmitter()

	event, err := NewTaskRequestEvent(TypeGenerationRequested, GenerationRequestedPayload{})
	require.NoError(t, err)

	assert.NoError(t, emitter.EmitEvent(context.Background(), event))
}

func TestEmitEvent_DeliversToAllHandlers(t *testing.T) {
	emitter := newTestEmitter()
	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event, err := NewTaskRequestEvent(TypeGenerationRequested, GenerationRequestedPayload{})
	require.NoError(t, err)

	require.NoError(t, emitter.EmitEvent(context.Background(), event))
	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
	assert.Equal(t, event, first.events[0])
}

func TestEmitEvent_FailingHandlerDoesNotStopDelivery(t *testing.T) {
	emitter := newTestEmitter()
	firstErr := errors.New("first handler failed")
	failing := &recordingHandler{err: firstErr}
	healthy := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(healthy)

	event, err := NewTaskRequestEvent(TypeGenerationRequested, GenerationRequestedPayload{})
	require.NoError(t, err)

	err = emitter.EmitEvent(context.Background(), event)
	assert.ErrorIs(t, err, firstErr)
	assert.Len(t, healthy.events, 1)
}

func TestEmitEvent_ReturnsFirstError(t *testing.T) {
	emitter := newTestEmitter()
	firstErr := errors.New("first")
	secondErr := errors.New("second")
	emitter.RegisterHandler(&recordingHandler{err: firstErr})
	emitter.RegisterHandler(&recordingHandler{err: secondErr})

	event, err := NewTaskRequestEvent(TypeGenerationRequested, GenerationRequestedPayload{})
	require.NoError(t, err)

	assert.ErrorIs(t, emitter.EmitEvent(context.Background(), event), firstErr)
}
