package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lexiday/lexiday-api/internal/domain"
)

// WordbankStore defines the interface for wordbank entry persistence.
type WordbankStore interface {
	// Create saves a new wordbank entry.
	// Returns ErrDuplicate if an entry for (user, term) already exists.
	Create(ctx context.Context, entry *domain.WordbankEntry) error

	// Get retrieves the entry for a (user, term) pair.
	// Returns ErrWordbankEntryNotFound if it does not exist.
	Get(ctx context.Context, userID, termID uuid.UUID) (*domain.WordbankEntry, error)

	// Update persists a full new state for an existing entry.
	// Returns ErrWordbankEntryNotFound if it does not exist.
	Update(ctx context.Context, entry *domain.WordbankEntry) error

	// DueEntries returns entries in learning or reviewing whose
	// next_review_at is at or before now, ordered by next_review_at
	// ascending, then bucket ascending (least mastered first), then term ID
	// ascending for a fully deterministic order.
	DueEntries(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.WordbankEntry, error)

	// WithTx returns a new WordbankStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) WordbankStore
}
