package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// GenerationTaskFactory creates GenerationTask instances with live
// dependencies. It also acts as the Resolver for tasks recovered from the
// database after a restart.
type GenerationTaskFactory struct {
	users  UserService
	topics TopicService
	client VocabularyGenerator
	writer BatchWriter
	logger *slog.Logger
}

// NewGenerationTaskFactory creates a new factory for GenerationTasks.
func NewGenerationTaskFactory(
	users UserService,
	topics TopicService,
	client VocabularyGenerator,
	writer BatchWriter,
	logger *slog.Logger,
) *GenerationTaskFactory {
	return &GenerationTaskFactory{
		users:  users,
		topics: topics,
		client: client,
		writer: writer,
		logger: logger.With("component", "generation_task_factory"),
	}
}

var _ Resolver = (*GenerationTaskFactory)(nil)

// CreateTask creates a new GenerationTask for the given user and topic.
func (f *GenerationTaskFactory) CreateTask(userID, topicID uuid.UUID) (Task, error) {
	return NewGenerationTask(userID, topicID, f.users, f.topics, f.client, f.writer, f.logger)
}

// Resolve implements Resolver for generation tasks loaded from the tasks
// table. The returned function re-runs the pipeline with the same user and
// topic as the original submission.
func (f *GenerationTaskFactory) Resolve(taskType string, payload []byte) (func(ctx context.Context) error, error) {
	if taskType != TaskTypeGeneration {
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}

	var p generationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal generation payload: %w", err)
	}

	task, err := NewGenerationTask(p.UserID, p.TopicID, f.users, f.topics, f.client, f.writer, f.logger)
	if err != nil {
		return nil, err
	}

	return task.Execute, nil
}
