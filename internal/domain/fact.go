package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FactType classifies a fact attached to a term.
type FactType string

// Known fact types.
const (
	FactTypeEtymology  FactType = "etymology"
	FactTypeCultural   FactType = "cultural"
	FactTypeHistorical FactType = "historical"
	FactTypeUsage      FactType = "usage"
)

// Fact-specific validation errors
var (
	// ErrFactIDEmpty is returned when a fact ID is empty or nil.
	ErrFactIDEmpty = errors.New("fact ID cannot be empty")

	// ErrFactTermIDEmpty is returned when a fact's term ID is empty or nil.
	ErrFactTermIDEmpty = errors.New("fact term ID cannot be empty")

	// ErrFactContentEmpty is returned when a fact's content is empty.
	ErrFactContentEmpty = errors.New("fact content cannot be empty")

	// ErrFactTypeInvalid is returned when a fact type is not a known value.
	ErrFactTypeInvalid = errors.New("invalid fact type")
)

// Fact is a free-text tidbit tied to a term.
type Fact struct {
	ID        uuid.UUID `json:"id"`
	TermID    uuid.UUID `json:"term_id"`
	Type      FactType  `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFact creates a new Fact with a generated ID.
// Returns an error if validation fails.
func NewFact(termID uuid.UUID, factType FactType, content string) (*Fact, error) {
	fact := &Fact{
		ID:        uuid.New(),
		TermID:    termID,
		Type:      factType,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := fact.Validate(); err != nil {
		return nil, err
	}

	return fact, nil
}

// Validate checks if the Fact has valid data.
func (f *Fact) Validate() error {
	if f.ID == uuid.Nil {
		return ErrFactIDEmpty
	}

	if f.TermID == uuid.Nil {
		return ErrFactTermIDEmpty
	}

	switch f.Type {
	case FactTypeEtymology, FactTypeCultural, FactTypeHistorical, FactTypeUsage:
	default:
		return fmt.Errorf("%w: %q", ErrFactTypeInvalid, f.Type)
	}

	if f.Content == "" {
		return ErrFactContentEmpty
	}

	return nil
}
