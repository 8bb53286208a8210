package generation

import (
	"context"

	"github.com/lexiday/lexiday-api/internal/tier"
)

// Request describes one vocabulary generation call. Topic and complexity
// shape the prompt; the counts must already be clamped to tier limits by
// the caller.
type Request struct {
	Topic      string
	TermCount  int
	FactCount  int
	Complexity tier.Complexity
	MaxTokens  int
}

// TermDraft is a generated term before it is bound to a topic and persisted.
type TermDraft struct {
	Word       string   `json:"word"`
	Definition string   `json:"definition"`
	Examples   []string `json:"examples,omitempty"`
	Synonyms   []string `json:"synonyms,omitempty"`
	Antonyms   []string `json:"antonyms,omitempty"`
	Confidence float64  `json:"confidence"`
}

// FactDraft is a generated fact, keyed to a term draft by word.
type FactDraft struct {
	Word    string `json:"word"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Usage reports the token footprint of one upstream call.
type Usage struct {
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Result is the parsed output of one upstream call.
type Result struct {
	Terms []TermDraft
	Facts []FactDraft
	Usage Usage
}

// Generator defines the interface for the upstream vocabulary model.
// This is the boundary between the application core and the external
// LLM service; it is treated as a black box with latency and per-call cost.
type Generator interface {
	// GenerateVocabulary produces term and fact drafts for a topic.
	// Implementations classify failures with the package error taxonomy
	// (ErrTransientFailure, ErrContentBlocked, ErrInvalidResponse).
	GenerateVocabulary(ctx context.Context, req Request) (*Result, error)
}
