package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Term-specific validation errors
var (
	// ErrTermIDEmpty is returned when a term ID is empty or nil.
	ErrTermIDEmpty = errors.New("term ID cannot be empty")

	// ErrTermTopicIDEmpty is returned when a term's topic ID is empty or nil.
	ErrTermTopicIDEmpty = errors.New("term topic ID cannot be empty")

	// ErrTermWordEmpty is returned when a term's word is empty.
	ErrTermWordEmpty = errors.New("term word cannot be empty")

	// ErrTermDefinitionEmpty is returned when a term's definition is empty.
	ErrTermDefinitionEmpty = errors.New("term definition cannot be empty")
)

// Term is a vocabulary entry belonging to a topic. Terms are immutable once
// created except for moderation edits, which happen outside this system.
type Term struct {
	ID         uuid.UUID `json:"id"`
	TopicID    uuid.UUID `json:"topic_id"`
	Word       string    `json:"word"`
	Definition string    `json:"definition"`
	Examples   []string  `json:"examples,omitempty"`
	Synonyms   []string  `json:"synonyms,omitempty"`
	Antonyms   []string  `json:"antonyms,omitempty"`

	// Generation provenance.
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`

	CreatedAt time.Time `json:"created_at"`
}

// NewTerm creates a new Term with a generated ID.
// Returns an error if validation fails.
func NewTerm(topicID uuid.UUID, word, definition string) (*Term, error) {
	term := &Term{
		ID:         uuid.New(),
		TopicID:    topicID,
		Word:       word,
		Definition: definition,
		CreatedAt:  time.Now().UTC(),
	}

	if err := term.Validate(); err != nil {
		return nil, err
	}

	return term, nil
}

// Validate checks if the Term has valid data.
func (t *Term) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTermIDEmpty
	}

	if t.TopicID == uuid.Nil {
		return ErrTermTopicIDEmpty
	}

	if t.Word == "" {
		return ErrTermWordEmpty
	}

	if t.Definition == "" {
		return ErrTermDefinitionEmpty
	}

	return nil
}
