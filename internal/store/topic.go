package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lexiday/lexiday-api/internal/domain"
)

// TopicStore defines the interface for topic data persistence, including the
// user-topic subscription table.
type TopicStore interface {
	// Create saves a new topic.
	// Returns ErrDuplicate if a topic with the same name already exists.
	Create(ctx context.Context, topic *domain.Topic) error

	// GetByID retrieves a topic by its unique ID.
	// Returns ErrTopicNotFound if the topic does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error)

	// GetByName retrieves a topic by name.
	// Returns ErrTopicNotFound if the topic does not exist.
	GetByName(ctx context.Context, name string) (*domain.Topic, error)

	// Subscribe upserts a user-topic subscription with the given weight.
	Subscribe(ctx context.Context, userID, topicID uuid.UUID, weight float64) error

	// ListForUser returns the user's subscribed topics with their per-user
	// weights, ordered by topic name for determinism.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserTopic, error)

	// ListStarvedSubscriptions returns subscriptions whose topic has no
	// terms left that the user hasn't seen. Used by the nightly sweep to
	// refill backlogs before users hit an empty one at request time.
	ListStarvedSubscriptions(ctx context.Context) ([]*domain.UserTopic, error)

	// WithTx returns a new TopicStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) TopicStore
}
