package srs

import (
	"errors"
	"time"

	"github.com/lexiday/lexiday-api/internal/domain"
)

// Common errors
var (
	ErrNilEntry        = errors.New("wordbank entry cannot be nil")
	ErrEntryArchived   = errors.New("archived entries cannot be reviewed")
	ErrAlreadyArchived = errors.New("entry is already archived")
)

// Service defines the interface for spaced-repetition state transitions.
// All methods follow immutability principles: they return a new entry and
// never modify the one passed in.
type Service interface {
	// ApplyReview computes the entry's next state after a review.
	// A correct answer promotes the bucket (capped at 5); an incorrect
	// answer resets it to 1 and drops the entry back to learning.
	ApplyReview(
		entry *domain.WordbankEntry,
		correct bool,
		now time.Time,
	) (*domain.WordbankEntry, error)

	// Favorite marks the entry as a favorite without touching review
	// state. Favoriting an already-favorited entry is a no-op.
	Favorite(entry *domain.WordbankEntry, now time.Time) (*domain.WordbankEntry, error)

	// LearnAgain resets the entry to bucket 1 learning and flags it as a
	// deliberate relearn. It does not count as a review.
	LearnAgain(entry *domain.WordbankEntry, now time.Time) (*domain.WordbankEntry, error)

	// Archive moves the entry to the archived state, reachable from any
	// other state. Archived entries are never selected for review.
	Archive(entry *domain.WordbankEntry, now time.Time) (*domain.WordbankEntry, error)

	// FirstReviewAt returns when a freshly delivered term (bucket 1) is
	// next due.
	FirstReviewAt(now time.Time) time.Time
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new spaced-repetition service with default
// parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new spaced-repetition service with custom
// parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// ApplyReview implements the Service interface.
func (s *defaultService) ApplyReview(
	entry *domain.WordbankEntry,
	correct bool,
	now time.Time,
) (*domain.WordbankEntry, error) {
	if entry == nil {
		return nil, ErrNilEntry
	}

	if entry.Status == domain.WordbankStatusArchived {
		return nil, ErrEntryArchived
	}

	newEntry := applyReview(entry, correct, now, s.params)
	return newEntry, nil
}

// Favorite implements the Service interface.
func (s *defaultService) Favorite(
	entry *domain.WordbankEntry,
	now time.Time,
) (*domain.WordbankEntry, error) {
	if entry == nil {
		return nil, ErrNilEntry
	}

	newEntry := clone(entry)
	newEntry.IsFavorited = true
	newEntry.UpdatedAt = now
	return newEntry, nil
}

// LearnAgain implements the Service interface.
func (s *defaultService) LearnAgain(
	entry *domain.WordbankEntry,
	now time.Time,
) (*domain.WordbankEntry, error) {
	if entry == nil {
		return nil, ErrNilEntry
	}

	newEntry := clone(entry)
	newEntry.Bucket = domain.MinBucket
	newEntry.Status = domain.WordbankStatusLearning
	newEntry.WantsToRelearn = true
	newEntry.ConsecutiveCorrect = 0
	newEntry.NextReviewAt = now.Add(s.params.Interval(domain.MinBucket))
	newEntry.UpdatedAt = now
	return newEntry, nil
}

// Archive implements the Service interface.
func (s *defaultService) Archive(
	entry *domain.WordbankEntry,
	now time.Time,
) (*domain.WordbankEntry, error) {
	if entry == nil {
		return nil, ErrNilEntry
	}

	if entry.Status == domain.WordbankStatusArchived {
		return nil, ErrAlreadyArchived
	}

	newEntry := clone(entry)
	newEntry.Status = domain.WordbankStatusArchived
	newEntry.UpdatedAt = now
	return newEntry, nil
}

// FirstReviewAt implements the Service interface.
func (s *defaultService) FirstReviewAt(now time.Time) time.Time {
	return now.Add(s.params.Interval(domain.MinBucket))
}
