package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Topic-specific validation errors
var (
	// ErrTopicIDEmpty is returned when a topic ID is empty or nil.
	ErrTopicIDEmpty = errors.New("topic ID cannot be empty")

	// ErrTopicNameEmpty is returned when a topic's name is empty.
	ErrTopicNameEmpty = errors.New("topic name cannot be empty")

	// ErrTopicWeightInvalid is returned when a topic weight is not positive.
	ErrTopicWeightInvalid = errors.New("topic weight must be greater than zero")
)

// Topic is a subject area that terms are generated for. Weight is the
// default selection weight for users who don't override it.
type Topic struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTopic creates a new Topic with a generated ID.
// Returns an error if validation fails.
func NewTopic(name string, weight float64) (*Topic, error) {
	topic := &Topic{
		ID:        uuid.New(),
		Name:      name,
		Weight:    weight,
		CreatedAt: time.Now().UTC(),
	}

	if err := topic.Validate(); err != nil {
		return nil, err
	}

	return topic, nil
}

// Validate checks if the Topic has valid data.
func (t *Topic) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTopicIDEmpty
	}

	if t.Name == "" {
		return ErrTopicNameEmpty
	}

	if t.Weight <= 0 {
		return ErrTopicWeightInvalid
	}

	return nil
}

// UserTopic links a user to a topic with a per-user selection weight.
// Higher weight means a higher probability the topic is chosen when
// picking a new word.
type UserTopic struct {
	UserID    uuid.UUID `json:"user_id"`
	TopicID   uuid.UUID `json:"topic_id"`
	TopicName string    `json:"topic_name"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks if the UserTopic has valid data.
func (ut *UserTopic) Validate() error {
	if ut.UserID == uuid.Nil {
		return ErrUserIDEmpty
	}

	if ut.TopicID == uuid.Nil {
		return ErrTopicIDEmpty
	}

	if ut.Weight <= 0 {
		return ErrTopicWeightInvalid
	}

	return nil
}
