package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lexiday/lexiday-api/internal/domain"
)

// TermStore defines the interface for term and fact persistence.
type TermStore interface {
	// CreateWithFacts saves a batch of terms and their facts.
	// IMPORTANT: run this within a transaction via WithTx and
	// store.RunInTransaction — the pipeline relies on all-or-nothing
	// persistence of a generation batch.
	CreateWithFacts(ctx context.Context, terms []*domain.Term, facts []*domain.Fact) error

	// GetByID retrieves a term by its unique ID.
	// Returns ErrTermNotFound if the term does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Term, error)

	// ListFactsByTerm returns the facts attached to a term.
	ListFactsByTerm(ctx context.Context, termID uuid.UUID) ([]*domain.Fact, error)

	// CountUnseen returns, per subscribed topic, how many of its terms the
	// user has never had delivered (no wordbank entry). Topics with zero
	// unseen terms are included with a zero count.
	CountUnseen(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)

	// RandomUnseen picks a uniformly random term from the topic that is not
	// yet in the user's wordbank. Returns ErrTermNotFound when the topic's
	// backlog for this user is empty.
	RandomUnseen(ctx context.Context, userID, topicID uuid.UUID) (*domain.Term, error)

	// WithTx returns a new TermStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) TermStore
}
