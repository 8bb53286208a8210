package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lexiday/lexiday-api/internal/domain"
)

// DeliveryStore defines the interface for delivery log persistence.
type DeliveryStore interface {
	// CreateIfAbsent atomically records the delivery unless one already
	// exists for (user, day). It returns the delivery that is now current
	// for the day and whether this call created it. A lost race is not an
	// error: the caller gets the winner's record with created=false.
	CreateIfAbsent(ctx context.Context, delivery *domain.Delivery) (*domain.Delivery, bool, error)

	// GetByUserAndDay retrieves the delivery for a user on a given day key.
	// Returns ErrDeliveryNotFound if none exists.
	GetByUserAndDay(ctx context.Context, userID uuid.UUID, day string) (*domain.Delivery, error)

	// WithTx returns a new DeliveryStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) DeliveryStore
}
