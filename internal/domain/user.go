package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// User-specific validation errors
var (
	// ErrUserIDEmpty is returned when a user ID is empty or nil.
	ErrUserIDEmpty = errors.New("user ID cannot be empty")

	// ErrUserEmailEmpty is returned when a user's email is empty.
	ErrUserEmailEmpty = errors.New("user email cannot be empty")

	// ErrUserTimezoneInvalid is returned when a user's timezone is not a
	// loadable IANA zone name.
	ErrUserTimezoneInvalid = errors.New("user timezone must be a valid IANA zone")
)

// User represents an account receiving daily words. The tier is mutated by
// billing events outside this system; everything else is set during
// onboarding.
type User struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	Tier                Tier      `json:"tier"`
	Timezone            string    `json:"timezone,omitempty"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewUser creates a new User on the free tier with a generated ID.
// Returns an error if validation fails.
func NewUser(email string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Tier:      TierFree,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrUserIDEmpty
	}

	if u.Email == "" {
		return ErrUserEmailEmpty
	}

	if !u.Tier.Valid() {
		return ErrInvalidTier
	}

	if u.Timezone != "" {
		if _, err := time.LoadLocation(u.Timezone); err != nil {
			return ErrUserTimezoneInvalid
		}
	}

	return nil
}

// Location resolves the user's timezone, falling back to UTC when the user
// never set one. Validate guarantees a set timezone is loadable.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
