package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/domain/srs"
	"github.com/lexiday/lexiday-api/internal/store"
)

type wordbankFixture struct {
	svc      *WordbankService
	mock     sqlmock.Sqlmock
	wordbank *fakeWordbankStore
	userID   uuid.UUID
	termID   uuid.UUID
}

func newWordbankFixture(t *testing.T) *wordbankFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &wordbankFixture{
		mock:     mock,
		wordbank: newFakeWordbankStore(),
		userID:   uuid.New(),
		termID:   uuid.New(),
	}

	entry, err := domain.NewWordbankEntry(f.userID, f.termID, time.Now().UTC())
	require.NoError(t, err)
	f.wordbank.entries[wordbankKey(f.userID, f.termID)] = entry

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewWordbankService(db, f.wordbank, srs.NewDefaultService(), log)

	return f
}

func TestGetEntry(t *testing.T) {
	f := newWordbankFixture(t)

	entry, err := f.svc.GetEntry(context.Background(), f.userID, f.termID)
	require.NoError(t, err)
	assert.Equal(t, f.userID, entry.UserID)
	assert.Equal(t, f.termID, entry.TermID)
}

func TestGetEntry_NotFound(t *testing.T) {
	f := newWordbankFixture(t)

	_, err := f.svc.GetEntry(context.Background(), f.userID, uuid.New())
	assert.ErrorIs(t, err, store.ErrWordbankEntryNotFound)
}

func TestHandleAction(t *testing.T) {
	tests := []struct {
		name   string
		action domain.WordbankAction
		check  func(t *testing.T, entry *domain.WordbankEntry)
	}{
		{
			name:   "correct review promotes",
			action: domain.ActionReviewCorrect,
			check: func(t *testing.T, entry *domain.WordbankEntry) {
				assert.Equal(t, 2, entry.Bucket)
				assert.Equal(t, 1, entry.ReviewCount)
			},
		},
		{
			name:   "incorrect review resets",
			action: domain.ActionReviewIncorrect,
			check: func(t *testing.T, entry *domain.WordbankEntry) {
				assert.Equal(t, domain.MinBucket, entry.Bucket)
				assert.Equal(t, domain.WordbankStatusLearning, entry.Status)
			},
		},
		{
			name:   "favorite sets flag",
			action: domain.ActionFavorite,
			check: func(t *testing.T, entry *domain.WordbankEntry) {
				assert.True(t, entry.IsFavorited)
			},
		},
		{
			name:   "learn again flags relearn",
			action: domain.ActionLearnAgain,
			check: func(t *testing.T, entry *domain.WordbankEntry) {
				assert.True(t, entry.WantsToRelearn)
				assert.Equal(t, domain.MinBucket, entry.Bucket)
			},
		},
		{
			name:   "archive",
			action: domain.ActionArchive,
			check: func(t *testing.T, entry *domain.WordbankEntry) {
				assert.Equal(t, domain.WordbankStatusArchived, entry.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWordbankFixture(t)

			f.mock.ExpectBegin()
			f.mock.ExpectCommit()

			updated, err := f.svc.HandleAction(context.Background(), f.userID, f.termID, tt.action)
			require.NoError(t, err)
			tt.check(t, updated)

			// The persisted state matches what was returned.
			stored := f.wordbank.entries[wordbankKey(f.userID, f.termID)]
			assert.Equal(t, updated, stored)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestHandleAction_InvalidAction(t *testing.T) {
	f := newWordbankFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.HandleAction(context.Background(), f.userID, f.termID, domain.WordbankAction("promote"))
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandleAction_EntryNotFound(t *testing.T) {
	f := newWordbankFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.HandleAction(context.Background(), f.userID, uuid.New(), domain.ActionReviewCorrect)
	assert.ErrorIs(t, err, store.ErrWordbankEntryNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandleAction_ArchivedEntryRejectsReview(t *testing.T) {
	f := newWordbankFixture(t)
	f.wordbank.entries[wordbankKey(f.userID, f.termID)].Status = domain.WordbankStatusArchived

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.HandleAction(context.Background(), f.userID, f.termID, domain.ActionReviewCorrect)
	assert.ErrorIs(t, err, srs.ErrEntryArchived)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
