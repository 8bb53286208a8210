package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// WordbankStatus represents the learning state of a (user, term) pair.
type WordbankStatus string

// Possible wordbank status values
const (
	WordbankStatusLearning  WordbankStatus = "learning"
	WordbankStatusReviewing WordbankStatus = "reviewing"
	WordbankStatusMastered  WordbankStatus = "mastered"
	WordbankStatusArchived  WordbankStatus = "archived"
)

// WordbankAction represents a user action advancing the state machine.
type WordbankAction string

// Possible wordbank actions
const (
	ActionReviewCorrect   WordbankAction = "review_correct"
	ActionReviewIncorrect WordbankAction = "review_incorrect"
	ActionFavorite        WordbankAction = "favorite"
	ActionLearnAgain      WordbankAction = "learn_again"
	ActionArchive         WordbankAction = "archive"
)

// ParseWordbankAction converts a raw string into a WordbankAction.
func ParseWordbankAction(s string) (WordbankAction, error) {
	switch WordbankAction(s) {
	case ActionReviewCorrect, ActionReviewIncorrect, ActionFavorite,
		ActionLearnAgain, ActionArchive:
		return WordbankAction(s), nil
	default:
		return "", ErrInvalidAction
	}
}

// Bucket bounds for the spaced-repetition interval classes.
const (
	MinBucket = 1
	MaxBucket = 5
)

// Common validation errors for WordbankEntry
var (
	ErrEmptyWordbankUserID  = errors.New("wordbank entry user ID cannot be empty")
	ErrEmptyWordbankTermID  = errors.New("wordbank entry term ID cannot be empty")
	ErrInvalidBucket        = errors.New("bucket must be between 1 and 5")
	ErrInvalidStatus        = errors.New("invalid wordbank status")
	ErrNegativeReviewCounts = errors.New("review counts cannot be negative")
)

// WordbankEntry tracks a user's spaced-repetition state for a single term,
// keyed by (UserID, TermID). Entries are created on first delivery and are
// archived rather than deleted.
//
// Invariant: once an entry has been reviewed, NextReviewAt equals
// LastReviewedAt plus the interval for the current bucket. The bucket only
// increases on correct answers and only resets on incorrect answers or an
// explicit learn-again action.
type WordbankEntry struct {
	UserID             uuid.UUID      `json:"user_id"`
	TermID             uuid.UUID      `json:"term_id"`
	Status             WordbankStatus `json:"status"`
	Bucket             int            `json:"bucket"`
	ReviewCount        int            `json:"review_count"`
	CorrectCount       int            `json:"correct_count"`
	ConsecutiveCorrect int            `json:"consecutive_correct"`
	LastReviewedAt     time.Time      `json:"last_reviewed_at"`
	NextReviewAt       time.Time      `json:"next_review_at"`
	IsFavorited        bool           `json:"is_favorited"`
	WantsToRelearn     bool           `json:"wants_to_relearn"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// NewWordbankEntry creates the entry recorded on first delivery of a term:
// bucket 1, learning, due again after the bucket-1 interval supplied by the
// caller.
func NewWordbankEntry(userID, termID uuid.UUID, nextReviewAt time.Time) (*WordbankEntry, error) {
	now := time.Now().UTC()
	entry := &WordbankEntry{
		UserID:       userID,
		TermID:       termID,
		Status:       WordbankStatusLearning,
		Bucket:       MinBucket,
		NextReviewAt: nextReviewAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the WordbankEntry has valid data.
func (e *WordbankEntry) Validate() error {
	if e.UserID == uuid.Nil {
		return ErrEmptyWordbankUserID
	}

	if e.TermID == uuid.Nil {
		return ErrEmptyWordbankTermID
	}

	if e.Bucket < MinBucket || e.Bucket > MaxBucket {
		return ErrInvalidBucket
	}

	switch e.Status {
	case WordbankStatusLearning, WordbankStatusReviewing,
		WordbankStatusMastered, WordbankStatusArchived:
	default:
		return ErrInvalidStatus
	}

	if e.ReviewCount < 0 || e.CorrectCount < 0 || e.ConsecutiveCorrect < 0 {
		return ErrNegativeReviewCounts
	}

	return nil
}

// Note: state transitions live in the srs package, which follows
// immutability principles by returning new instances rather than
// modifying existing ones.
