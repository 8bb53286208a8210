package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/domain/srs"
	"github.com/lexiday/lexiday-api/internal/platform/logger"
	"github.com/lexiday/lexiday-api/internal/store"
)

// WordbankService applies user actions to wordbank entries. Each action is a
// read-modify-write executed inside a transaction so concurrent actions on
// the same entry serialize instead of clobbering each other.
type WordbankService struct {
	db        *sql.DB
	wordbank  store.WordbankStore
	scheduler srs.Service
	logger    *slog.Logger

	now func() time.Time
}

// NewWordbankService creates a WordbankService.
func NewWordbankService(
	db *sql.DB,
	wordbank store.WordbankStore,
	scheduler srs.Service,
	log *slog.Logger,
) *WordbankService {
	if log == nil {
		log = slog.Default()
	}
	return &WordbankService{
		db:        db,
		wordbank:  wordbank,
		scheduler: scheduler,
		logger:    log.With(slog.String("component", "wordbank_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetEntry returns the user's wordbank state for a term.
func (s *WordbankService) GetEntry(ctx context.Context, userID, termID uuid.UUID) (*domain.WordbankEntry, error) {
	return s.wordbank.Get(ctx, userID, termID)
}

// HandleAction applies a wordbank action to the (user, term) entry and
// returns the entry's new state.
func (s *WordbankService) HandleAction(
	ctx context.Context,
	userID, termID uuid.UUID,
	action domain.WordbankAction,
) (*domain.WordbankEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	var updated *domain.WordbankEntry
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		wordbank := s.wordbank.WithTx(tx)

		entry, err := wordbank.Get(ctx, userID, termID)
		if err != nil {
			return err
		}

		next, err := s.transition(entry, action, now)
		if err != nil {
			return err
		}

		if err := wordbank.Update(ctx, next); err != nil {
			return err
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("wordbank action applied",
		"user_id", userID,
		"term_id", termID,
		"action", action,
		"status", updated.Status,
		"bucket", updated.Bucket)

	return updated, nil
}

func (s *WordbankService) transition(
	entry *domain.WordbankEntry,
	action domain.WordbankAction,
	now time.Time,
) (*domain.WordbankEntry, error) {
	switch action {
	case domain.ActionReviewCorrect:
		return s.scheduler.ApplyReview(entry, true, now)
	case domain.ActionReviewIncorrect:
		return s.scheduler.ApplyReview(entry, false, now)
	case domain.ActionFavorite:
		return s.scheduler.Favorite(entry, now)
	case domain.ActionLearnAgain:
		return s.scheduler.LearnAgain(entry, now)
	case domain.ActionArchive:
		return s.scheduler.Archive(entry, now)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAction, action)
	}
}
