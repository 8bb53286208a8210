package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/platform/logger"
	"github.com/lexiday/lexiday-api/internal/store"
)

// TermService persists generated vocabulary batches. It owns the transaction
// that makes a batch land all-or-nothing.
type TermService struct {
	db     *sql.DB
	terms  store.TermStore
	logger *slog.Logger
}

// NewTermService creates a TermService.
func NewTermService(db *sql.DB, terms store.TermStore, log *slog.Logger) *TermService {
	if log == nil {
		log = slog.Default()
	}
	return &TermService{
		db:     db,
		terms:  terms,
		logger: log.With(slog.String("component", "term_service")),
	}
}

// SaveBatch writes a batch of terms and their facts in a single transaction.
func (s *TermService) SaveBatch(ctx context.Context, terms []*domain.Term, facts []*domain.Fact) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.terms.WithTx(tx).CreateWithFacts(ctx, terms, facts)
	})
	if err != nil {
		return err
	}

	log.Info("saved generated batch", "terms", len(terms), "facts", len(facts))
	return nil
}
