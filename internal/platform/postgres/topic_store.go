package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/platform/logger"
	"github.com/lexiday/lexiday-api/internal/store"
)

// TopicStore implements the store.TopicStore interface using PostgreSQL.
type TopicStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTopicStore creates a new PostgreSQL implementation of store.TopicStore.
func NewTopicStore(db store.DBTX, log *slog.Logger) *TopicStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &TopicStore{
		db:     db,
		logger: log.With(slog.String("component", "topic_store")),
	}
}

var _ store.TopicStore = (*TopicStore)(nil)

// Create implements store.TopicStore.Create.
func (s *TopicStore) Create(ctx context.Context, topic *domain.Topic) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := topic.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO topics (id, name, weight, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.ExecContext(ctx, query,
		topic.ID,
		topic.Name,
		topic.Weight,
		topic.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		log.Error("failed to create topic",
			"topic_id", topic.ID,
			"error", err)
		return fmt.Errorf("failed to create topic: %w", err)
	}

	return nil
}

// GetByID implements store.TopicStore.GetByID.
func (s *TopicStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	return s.get(ctx, `SELECT id, name, weight, created_at FROM topics WHERE id = $1`, id)
}

// GetByName implements store.TopicStore.GetByName.
func (s *TopicStore) GetByName(ctx context.Context, name string) (*domain.Topic, error) {
	return s.get(ctx, `SELECT id, name, weight, created_at FROM topics WHERE name = $1`, name)
}

func (s *TopicStore) get(ctx context.Context, query string, arg any) (*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var topic domain.Topic
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&topic.ID,
		&topic.Name,
		&topic.Weight,
		&topic.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTopicNotFound
		}
		log.Error("failed to get topic", "error", err)
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}

	return &topic, nil
}

// Subscribe implements store.TopicStore.Subscribe.
// The subscription is upserted, so re-onboarding with a new weight works.
func (s *TopicStore) Subscribe(ctx context.Context, userID, topicID uuid.UUID, weight float64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO user_topics (user_id, topic_id, weight, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, topic_id) DO UPDATE SET weight = EXCLUDED.weight
	`

	_, err := s.db.ExecContext(ctx, query, userID, topicID, weight, time.Now().UTC())
	if err != nil {
		log.Error("failed to subscribe user to topic",
			"user_id", userID,
			"topic_id", topicID,
			"error", err)
		return fmt.Errorf("failed to subscribe user to topic: %w", err)
	}

	return nil
}

// ListForUser implements store.TopicStore.ListForUser.
func (s *TopicStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.UserTopic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ut.user_id, ut.topic_id, t.name, ut.weight, ut.created_at
		FROM user_topics ut
		JOIN topics t ON t.id = ut.topic_id
		WHERE ut.user_id = $1
		ORDER BY t.name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list user topics",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("failed to list user topics: %w", err)
	}
	defer rows.Close()

	var topics []*domain.UserTopic
	for rows.Next() {
		var ut domain.UserTopic
		if err := rows.Scan(&ut.UserID, &ut.TopicID, &ut.TopicName, &ut.Weight, &ut.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user topic row: %w", err)
		}
		topics = append(topics, &ut)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user topic rows: %w", err)
	}

	return topics, nil
}

// ListStarvedSubscriptions implements store.TopicStore.ListStarvedSubscriptions.
func (s *TopicStore) ListStarvedSubscriptions(ctx context.Context) ([]*domain.UserTopic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ut.user_id, ut.topic_id, t.name, ut.weight, ut.created_at
		FROM user_topics ut
		JOIN topics t ON t.id = ut.topic_id
		WHERE NOT EXISTS (
			SELECT 1 FROM terms tm
			WHERE tm.topic_id = ut.topic_id
			AND tm.id NOT IN (
				SELECT wb.term_id FROM wordbank_entries wb WHERE wb.user_id = ut.user_id
			)
		)
		ORDER BY ut.user_id, t.name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list starved subscriptions", "error", err)
		return nil, fmt.Errorf("failed to list starved subscriptions: %w", err)
	}
	defer rows.Close()

	var starved []*domain.UserTopic
	for rows.Next() {
		var ut domain.UserTopic
		if err := rows.Scan(&ut.UserID, &ut.TopicID, &ut.TopicName, &ut.Weight, &ut.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan starved subscription row: %w", err)
		}
		starved = append(starved, &ut)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating starved subscription rows: %w", err)
	}

	return starved, nil
}

// WithTx implements store.TopicStore.WithTx.
func (s *TopicStore) WithTx(tx *sql.Tx) store.TopicStore {
	return &TopicStore{db: tx, logger: s.logger}
}
