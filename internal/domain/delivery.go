package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DeliveryType distinguishes a brand-new word from a review.
type DeliveryType string

// Possible delivery types
const (
	DeliveryTypeNew    DeliveryType = "new"
	DeliveryTypeReview DeliveryType = "review"
)

// Delivery-specific validation errors
var (
	// ErrDeliveryIDEmpty is returned when a delivery ID is empty or nil.
	ErrDeliveryIDEmpty = errors.New("delivery ID cannot be empty")

	// ErrDeliveryUserIDEmpty is returned when a delivery's user ID is empty.
	ErrDeliveryUserIDEmpty = errors.New("delivery user ID cannot be empty")

	// ErrDeliveryTermIDEmpty is returned when a delivery's term ID is empty.
	ErrDeliveryTermIDEmpty = errors.New("delivery term ID cannot be empty")

	// ErrDeliveryDayEmpty is returned when a delivery's day key is empty.
	ErrDeliveryDayEmpty = errors.New("delivery day cannot be empty")
)

// Delivery is the immutable record of "term X was shown to user Y on day Z".
// Day is the calendar date in the user's timezone, formatted YYYY-MM-DD, and
// is part of the (UserID, Day) uniqueness constraint that makes daily-word
// requests idempotent. The snapshot fields capture the wordbank state at
// delivery time.
type Delivery struct {
	ID     uuid.UUID    `json:"id"`
	UserID uuid.UUID    `json:"user_id"`
	TermID uuid.UUID    `json:"term_id"`
	Type   DeliveryType `json:"type"`
	Day    string       `json:"day"`

	// Wordbank snapshot at delivery time.
	SnapshotBucket int            `json:"snapshot_bucket"`
	SnapshotStatus WordbankStatus `json:"snapshot_status"`

	DeliveredAt time.Time `json:"delivered_at"`
}

// DayKey formats a moment as the delivery day in the given location.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// NewDelivery creates a new Delivery record with a generated ID.
// Returns an error if validation fails.
func NewDelivery(
	userID, termID uuid.UUID,
	deliveryType DeliveryType,
	day string,
	entry *WordbankEntry,
) (*Delivery, error) {
	d := &Delivery{
		ID:          uuid.New(),
		UserID:      userID,
		TermID:      termID,
		Type:        deliveryType,
		Day:         day,
		DeliveredAt: time.Now().UTC(),
	}

	if entry != nil {
		d.SnapshotBucket = entry.Bucket
		d.SnapshotStatus = entry.Status
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

// Validate checks if the Delivery has valid data.
func (d *Delivery) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeliveryIDEmpty
	}

	if d.UserID == uuid.Nil {
		return ErrDeliveryUserIDEmpty
	}

	if d.TermID == uuid.Nil {
		return ErrDeliveryTermIDEmpty
	}

	switch d.Type {
	case DeliveryTypeNew, DeliveryTypeReview:
	default:
		return ErrInvalidDeliveryType
	}

	if d.Day == "" {
		return ErrDeliveryDayEmpty
	}

	return nil
}
