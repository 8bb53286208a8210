package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/platform/logger"
	"github.com/lexiday/lexiday-api/internal/store"
)

// DeliveryStore implements the store.DeliveryStore interface using PostgreSQL.
type DeliveryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewDeliveryStore creates a new PostgreSQL implementation of store.DeliveryStore.
func NewDeliveryStore(db store.DBTX, log *slog.Logger) *DeliveryStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &DeliveryStore{
		db:     db,
		logger: log.With(slog.String("component", "delivery_store")),
	}
}

var _ store.DeliveryStore = (*DeliveryStore)(nil)

const deliveryColumns = `id, user_id, term_id, type, day, snapshot_bucket, snapshot_status, delivered_at`

// CreateIfAbsent implements store.DeliveryStore.CreateIfAbsent.
// The UNIQUE (user_id, day) constraint makes the insert race-safe: when two
// requests land on the same day, exactly one row wins and both callers read
// back the same delivery. The created flag tells the caller whether its
// insert was the winner.
func (s *DeliveryStore) CreateIfAbsent(ctx context.Context, delivery *domain.Delivery) (*domain.Delivery, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := delivery.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO deliveries (` + deliveryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, day) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query,
		delivery.ID,
		delivery.UserID,
		delivery.TermID,
		delivery.Type,
		delivery.Day,
		delivery.SnapshotBucket,
		delivery.SnapshotStatus,
		delivery.DeliveredAt,
	)
	if err != nil {
		log.Error("failed to insert delivery",
			"user_id", delivery.UserID,
			"day", delivery.Day,
			"error", err)
		return nil, false, fmt.Errorf("failed to insert delivery: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return delivery, true, nil
	}

	existing, err := s.GetByUserAndDay(ctx, delivery.UserID, delivery.Day)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByUserAndDay implements store.DeliveryStore.GetByUserAndDay.
func (s *DeliveryStore) GetByUserAndDay(ctx context.Context, userID uuid.UUID, day string) (*domain.Delivery, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + deliveryColumns + `
		FROM deliveries
		WHERE user_id = $1 AND day = $2
	`

	var delivery domain.Delivery
	err := s.db.QueryRowContext(ctx, query, userID, day).Scan(
		&delivery.ID,
		&delivery.UserID,
		&delivery.TermID,
		&delivery.Type,
		&delivery.Day,
		&delivery.SnapshotBucket,
		&delivery.SnapshotStatus,
		&delivery.DeliveredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDeliveryNotFound
		}
		log.Error("failed to get delivery",
			"user_id", userID,
			"day", day,
			"error", err)
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}

	return &delivery, nil
}

// WithTx implements store.DeliveryStore.WithTx.
func (s *DeliveryStore) WithTx(tx *sql.Tx) store.DeliveryStore {
	return &DeliveryStore{db: tx, logger: s.logger}
}
