package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/events"
)

// TaskFactory creates tasks from a user and topic pair.
type TaskFactory interface {
	CreateTask(userID, topicID uuid.UUID) (Task, error)
}

// TaskSubmitter accepts tasks for background execution.
type TaskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// GenerationEventHandler turns generation-requested events into submitted
// tasks. It is the bridge between the event emitter used by the services and
// the task runner.
type GenerationEventHandler struct {
	factory TaskFactory
	runner  TaskSubmitter
	logger  *slog.Logger
}

// NewGenerationEventHandler creates an event handler that builds tasks with
// the given factory and submits them to the runner.
func NewGenerationEventHandler(
	factory TaskFactory,
	runner TaskSubmitter,
	logger *slog.Logger,
) *GenerationEventHandler {
	return &GenerationEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "generation_event_handler"),
	}
}

var _ events.EventHandler = (*GenerationEventHandler)(nil)

// HandleEvent processes generation-requested events; other event types are
// ignored so multiple handlers can share one emitter.
func (h *GenerationEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if event.Type != events.TypeGenerationRequested {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload events.GenerationRequestedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal event payload", "event_id", event.ID, "error", err)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	task, err := h.factory.CreateTask(payload.UserID, payload.TopicID)
	if err != nil {
		h.logger.Error("failed to create generation task",
			"user_id", payload.UserID,
			"topic_id", payload.TopicID,
			"event_id", event.ID,
			"error", err)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit generation task",
			"task_id", task.ID(),
			"event_id", event.ID,
			"error", err)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("generation task submitted",
		"task_id", task.ID(),
		"user_id", payload.UserID,
		"topic_id", payload.TopicID)
	return nil
}
