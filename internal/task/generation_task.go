package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/generation"
	"github.com/lexiday/lexiday-api/internal/store"
	"github.com/lexiday/lexiday-api/internal/tier"
)

// Status constants for GenerationTask.
// These match the TaskStatus values defined in task.go.
const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// Common errors
var (
	ErrNilUserService  = errors.New("user service cannot be nil")
	ErrNilTopicService = errors.New("topic service cannot be nil")
	ErrNilGenerator    = errors.New("generator cannot be nil")
	ErrNilBatchWriter  = errors.New("batch writer cannot be nil")
	ErrNilLogger       = errors.New("logger cannot be nil")
	ErrEmptyUserID     = errors.New("user ID cannot be empty")
	ErrEmptyTopicID    = errors.New("topic ID cannot be empty")
)

// UserService provides the user lookups the task needs.
type UserService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// TopicService provides the topic lookups the task needs.
type TopicService interface {
	GetTopic(ctx context.Context, topicID uuid.UUID) (*domain.Topic, error)
}

// VocabularyGenerator is the cached generation client as seen by the task.
type VocabularyGenerator interface {
	GenerateWithCache(
		ctx context.Context,
		userID uuid.UUID,
		userTier domain.Tier,
		req generation.Request,
	) (*generation.ClientResult, error)
}

// BatchWriter persists a generated batch of terms and facts atomically.
type BatchWriter interface {
	SaveBatch(ctx context.Context, terms []*domain.Term, facts []*domain.Fact) error
}

// generationPayload represents the serialized data stored in the task.
type generationPayload struct {
	UserID  uuid.UUID `json:"user_id"`
	TopicID uuid.UUID `json:"topic_id"`
}

// GenerationTask implements the Task interface for generating a vocabulary
// batch for a user's topic. The batch size and complexity come from the
// user's tier, not from the payload, so a tier change between enqueue and
// execution is honored.
type GenerationTask struct {
	id      uuid.UUID
	userID  uuid.UUID
	topicID uuid.UUID
	users   UserService
	topics  TopicService
	client  VocabularyGenerator
	writer  BatchWriter
	logger  *slog.Logger
	status  string // Using string instead of TaskStatus to avoid circular imports
}

// NewGenerationTask creates a new vocabulary generation task.
func NewGenerationTask(
	userID uuid.UUID,
	topicID uuid.UUID,
	users UserService,
	topics TopicService,
	client VocabularyGenerator,
	writer BatchWriter,
	logger *slog.Logger,
) (*GenerationTask, error) {
	if users == nil {
		return nil, ErrNilUserService
	}
	if topics == nil {
		return nil, ErrNilTopicService
	}
	if client == nil {
		return nil, ErrNilGenerator
	}
	if writer == nil {
		return nil, ErrNilBatchWriter
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	if topicID == uuid.Nil {
		return nil, ErrEmptyTopicID
	}

	return &GenerationTask{
		id:      uuid.New(),
		userID:  userID,
		topicID: topicID,
		users:   users,
		topics:  topics,
		client:  client,
		writer:  writer,
		logger:  logger.With("task_type", TaskTypeGeneration, "user_id", userID, "topic_id", topicID),
		status:  statusPending,
	}, nil
}

// ID returns the task's unique identifier.
func (t *GenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier.
func (t *GenerationTask) Type() string {
	return TaskTypeGeneration
}

// Payload returns the task data as a byte slice.
func (t *GenerationTask) Payload() []byte {
	data, err := json.Marshal(generationPayload{
		UserID:  t.userID,
		TopicID: t.topicID,
	})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status.
func (t *GenerationTask) Status() TaskStatus {
	return TaskStatus(t.status)
}

// Execute runs the full generation pipeline: resolve the user's tier quotas,
// call the cached generation client, and persist the batch atomically.
func (t *GenerationTask) Execute(ctx context.Context) error {
	t.status = statusProcessing
	t.logger.Info("starting vocabulary generation task")

	if err := ctx.Err(); err != nil {
		t.status = statusFailed
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	user, err := t.users.GetUser(ctx, t.userID)
	if err != nil {
		t.status = statusFailed
		return fmt.Errorf("failed to retrieve user: %w", err)
	}

	topic, err := t.topics.GetTopic(ctx, t.topicID)
	if err != nil {
		t.status = statusFailed
		return fmt.Errorf("failed to retrieve topic: %w", err)
	}

	limits, err := tier.LimitsFor(user.Tier)
	if err != nil {
		t.status = statusFailed
		return fmt.Errorf("failed to resolve tier limits: %w", err)
	}

	// Zero requested counts mean "as much as the tier allows".
	validation, err := tier.ValidateTierLimits(user.Tier, 0, 0)
	if err != nil {
		t.status = statusFailed
		return fmt.Errorf("failed to validate tier limits: %w", err)
	}

	req := generation.Request{
		Topic:      topic.Name,
		TermCount:  validation.Terms,
		FactCount:  validation.Facts,
		Complexity: limits.Complexity,
		MaxTokens:  limits.MaxTokens,
	}

	result, err := t.client.GenerateWithCache(ctx, t.userID, user.Tier, req)
	if err != nil {
		t.status = statusFailed
		return fmt.Errorf("failed to generate vocabulary: %w", err)
	}

	terms, facts := t.buildEntities(topic, result.Result)
	if len(terms) == 0 {
		t.status = statusCompleted
		t.logger.Warn("generation produced no usable terms")
		return nil
	}

	if err := t.writer.SaveBatch(ctx, terms, facts); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// A cached or concurrent batch already landed these words.
			t.status = statusCompleted
			t.logger.Info("generated batch already present, skipping")
			return nil
		}
		t.status = statusFailed
		return fmt.Errorf("failed to save generated batch: %w", err)
	}

	t.status = statusCompleted
	t.logger.Info("vocabulary generation task completed",
		"terms", len(terms),
		"facts", len(facts),
		"cached", result.Cached)
	return nil
}

// buildEntities converts generation drafts into domain entities bound to the
// topic. Facts reference terms by word; facts whose word or type does not
// check out are dropped with a warning rather than failing the batch.
func (t *GenerationTask) buildEntities(
	topic *domain.Topic,
	result *generation.Result,
) ([]*domain.Term, []*domain.Fact) {
	termsByWord := make(map[string]*domain.Term, len(result.Terms))
	terms := make([]*domain.Term, 0, len(result.Terms))

	for _, draft := range result.Terms {
		term, err := domain.NewTerm(topic.ID, draft.Word, draft.Definition)
		if err != nil {
			t.logger.Warn("dropping invalid term draft", "word", draft.Word, "error", err)
			continue
		}
		term.Examples = draft.Examples
		term.Synonyms = draft.Synonyms
		term.Antonyms = draft.Antonyms
		term.Source = result.Usage.Model
		term.Confidence = draft.Confidence

		terms = append(terms, term)
		termsByWord[strings.ToLower(draft.Word)] = term
	}

	facts := make([]*domain.Fact, 0, len(result.Facts))
	for _, draft := range result.Facts {
		term, ok := termsByWord[strings.ToLower(draft.Word)]
		if !ok {
			t.logger.Warn("dropping fact for unknown word", "word", draft.Word)
			continue
		}

		fact, err := domain.NewFact(term.ID, domain.FactType(strings.ToLower(draft.Type)), draft.Content)
		if err != nil {
			t.logger.Warn("dropping invalid fact draft",
				"word", draft.Word,
				"type", draft.Type,
				"error", err)
			continue
		}
		facts = append(facts, fact)
	}

	return terms, facts
}
