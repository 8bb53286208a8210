package srs

import (
	"time"

	"github.com/lexiday/lexiday-api/internal/domain"
)

// clone copies a wordbank entry so transitions never mutate their input.
func clone(entry *domain.WordbankEntry) *domain.WordbankEntry {
	c := *entry
	return &c
}

// nextBucket computes the bucket after a review. Correct answers move the
// bucket up one class, capped at the top; incorrect answers reset to the
// bottom. These are the only two ways a bucket ever changes on review.
func nextBucket(current int, correct bool) int {
	if !correct {
		return domain.MinBucket
	}
	if current >= domain.MaxBucket {
		return domain.MaxBucket
	}
	return current + 1
}

// statusAfterReview derives the status from the new bucket and streak.
// An incorrect answer always lands back in learning. Correct answers
// graduate to reviewing once the bucket reaches the configured class, and
// to mastered once the entry was already at the top bucket and the
// consecutive-correct streak reaches the mastery threshold.
func statusAfterReview(
	prevBucket, bucket, consecutiveCorrect int,
	correct bool,
	params *Params,
) domain.WordbankStatus {
	if !correct {
		return domain.WordbankStatusLearning
	}

	if prevBucket >= domain.MaxBucket && bucket >= domain.MaxBucket &&
		consecutiveCorrect >= params.MasteryThreshold {
		return domain.WordbankStatusMastered
	}

	if bucket >= params.ReviewingBucket {
		return domain.WordbankStatusReviewing
	}

	return domain.WordbankStatusLearning
}

// applyReview creates a new WordbankEntry with updated values after a review.
//
// The invariant callers rely on: NextReviewAt is always exactly
// LastReviewedAt + Interval(new bucket).
func applyReview(
	entry *domain.WordbankEntry,
	correct bool,
	now time.Time,
	params *Params,
) *domain.WordbankEntry {
	newEntry := clone(entry)

	newEntry.ReviewCount++
	newEntry.LastReviewedAt = now

	if correct {
		newEntry.CorrectCount++
		newEntry.ConsecutiveCorrect++
	} else {
		newEntry.ConsecutiveCorrect = 0
	}

	newEntry.Bucket = nextBucket(entry.Bucket, correct)
	newEntry.Status = statusAfterReview(
		entry.Bucket,
		newEntry.Bucket,
		newEntry.ConsecutiveCorrect,
		correct,
		params,
	)

	// A successful relearn pass clears the relearn flag.
	if correct && entry.WantsToRelearn {
		newEntry.WantsToRelearn = false
	}

	newEntry.NextReviewAt = now.Add(params.Interval(newEntry.Bucket))
	newEntry.UpdatedAt = now

	return newEntry
}
