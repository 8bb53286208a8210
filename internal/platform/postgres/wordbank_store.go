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

// WordbankStore implements the store.WordbankStore interface using PostgreSQL.
type WordbankStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewWordbankStore creates a new PostgreSQL implementation of store.WordbankStore.
func NewWordbankStore(db store.DBTX, log *slog.Logger) *WordbankStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &WordbankStore{
		db:     db,
		logger: log.With(slog.String("component", "wordbank_store")),
	}
}

var _ store.WordbankStore = (*WordbankStore)(nil)

const wordbankColumns = `user_id, term_id, status, bucket, review_count, correct_count,
	consecutive_correct, last_reviewed_at, next_review_at, is_favorited, wants_to_relearn,
	created_at, updated_at`

// Create implements store.WordbankStore.Create.
func (s *WordbankStore) Create(ctx context.Context, entry *domain.WordbankEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO wordbank_entries (` + wordbankColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.UserID,
		entry.TermID,
		entry.Status,
		entry.Bucket,
		entry.ReviewCount,
		entry.CorrectCount,
		entry.ConsecutiveCorrect,
		nullableTime(entry.LastReviewedAt),
		entry.NextReviewAt,
		entry.IsFavorited,
		entry.WantsToRelearn,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		log.Error("failed to create wordbank entry",
			"user_id", entry.UserID,
			"term_id", entry.TermID,
			"error", err)
		return fmt.Errorf("failed to create wordbank entry: %w", err)
	}

	return nil
}

// Get implements store.WordbankStore.Get.
func (s *WordbankStore) Get(ctx context.Context, userID, termID uuid.UUID) (*domain.WordbankEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + wordbankColumns + `
		FROM wordbank_entries
		WHERE user_id = $1 AND term_id = $2
	`

	entry, err := scanWordbankEntry(s.db.QueryRowContext(ctx, query, userID, termID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrWordbankEntryNotFound
		}
		log.Error("failed to get wordbank entry",
			"user_id", userID,
			"term_id", termID,
			"error", err)
		return nil, fmt.Errorf("failed to get wordbank entry: %w", err)
	}

	return entry, nil
}

// Update implements store.WordbankStore.Update.
func (s *WordbankStore) Update(ctx context.Context, entry *domain.WordbankEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE wordbank_entries
		SET status = $1, bucket = $2, review_count = $3, correct_count = $4,
			consecutive_correct = $5, last_reviewed_at = $6, next_review_at = $7,
			is_favorited = $8, wants_to_relearn = $9, updated_at = $10
		WHERE user_id = $11 AND term_id = $12
	`

	result, err := s.db.ExecContext(ctx, query,
		entry.Status,
		entry.Bucket,
		entry.ReviewCount,
		entry.CorrectCount,
		entry.ConsecutiveCorrect,
		nullableTime(entry.LastReviewedAt),
		entry.NextReviewAt,
		entry.IsFavorited,
		entry.WantsToRelearn,
		entry.UpdatedAt,
		entry.UserID,
		entry.TermID,
	)
	if err != nil {
		log.Error("failed to update wordbank entry",
			"user_id", entry.UserID,
			"term_id", entry.TermID,
			"error", err)
		return fmt.Errorf("failed to update wordbank entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrWordbankEntryNotFound
	}

	return nil
}

// DueEntries implements store.WordbankStore.DueEntries.
// The ordering is the review queue contract: earliest due first, then least
// mastered, then term ID so the order is fully deterministic even when many
// entries share a due time.
func (s *WordbankStore) DueEntries(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.WordbankEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + wordbankColumns + `
		FROM wordbank_entries
		WHERE user_id = $1
		AND status IN ('learning', 'reviewing')
		AND next_review_at <= $2
		ORDER BY next_review_at ASC, bucket ASC, term_id ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, now, limit)
	if err != nil {
		log.Error("failed to query due wordbank entries",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("failed to query due wordbank entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.WordbankEntry
	for rows.Next() {
		entry, err := scanWordbankEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wordbank entry row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wordbank entry rows: %w", err)
	}

	return entries, nil
}

// WithTx implements store.WordbankStore.WithTx.
func (s *WordbankStore) WithTx(tx *sql.Tx) store.WordbankStore {
	return &WordbankStore{db: tx, logger: s.logger}
}

// scanWordbankEntry scans a full wordbank entry row.
func scanWordbankEntry(row rowScanner) (*domain.WordbankEntry, error) {
	var entry domain.WordbankEntry
	var lastReviewedAt sql.NullTime

	if err := row.Scan(
		&entry.UserID,
		&entry.TermID,
		&entry.Status,
		&entry.Bucket,
		&entry.ReviewCount,
		&entry.CorrectCount,
		&entry.ConsecutiveCorrect,
		&lastReviewedAt,
		&entry.NextReviewAt,
		&entry.IsFavorited,
		&entry.WantsToRelearn,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if lastReviewedAt.Valid {
		entry.LastReviewedAt = lastReviewedAt.Time
	}

	return &entry, nil
}

// nullableTime maps the zero time to NULL for never-reviewed entries.
func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
