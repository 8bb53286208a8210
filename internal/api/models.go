package api

import (
	"time"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/service"
)

// TermResponse represents a vocabulary term in API responses.
type TermResponse struct {
	ID         string   `json:"id"`
	TopicID    string   `json:"topic_id"`
	Word       string   `json:"word"`
	Definition string   `json:"definition"`
	Examples   []string `json:"examples,omitempty"`
	Synonyms   []string `json:"synonyms,omitempty"`
	Antonyms   []string `json:"antonyms,omitempty"`
}

// FactResponse represents a fact attached to a term.
type FactResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// WordbankEntryResponse represents the user's learning state for a term.
type WordbankEntryResponse struct {
	TermID             string     `json:"term_id"`
	Status             string     `json:"status"`
	Bucket             int        `json:"bucket"`
	ReviewCount        int        `json:"review_count"`
	CorrectCount       int        `json:"correct_count"`
	ConsecutiveCorrect int        `json:"consecutive_correct"`
	LastReviewedAt     *time.Time `json:"last_reviewed_at,omitempty"`
	NextReviewAt       time.Time  `json:"next_review_at"`
	IsFavorited        bool       `json:"is_favorited"`
	WantsToRelearn     bool       `json:"wants_to_relearn"`
}

// DailyWordResponse is the payload for the daily word endpoint.
type DailyWordResponse struct {
	Day         string                `json:"day"`
	Type        string                `json:"type"`
	DeliveredAt time.Time             `json:"delivered_at"`
	Term        TermResponse          `json:"term"`
	Facts       []FactResponse        `json:"facts"`
	Wordbank    WordbankEntryResponse `json:"wordbank"`
}

// ActionRequest is the body for wordbank action submissions.
type ActionRequest struct {
	Action string `json:"action" validate:"required,oneof=review_correct review_incorrect favorite learn_again archive"`
}

// OnboardingTopicRequest is one topic selection in an onboarding submission.
type OnboardingTopicRequest struct {
	Name   string  `json:"name"   validate:"required"`
	Weight float64 `json:"weight" validate:"gte=0"`
}

// OnboardingRequest is the body for completing onboarding.
type OnboardingRequest struct {
	Timezone string                   `json:"timezone"`
	Topics   []OnboardingTopicRequest `json:"topics" validate:"required,min=1,dive"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	Tier                string `json:"tier"`
	Timezone            string `json:"timezone,omitempty"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
}

func termToResponse(t *domain.Term) TermResponse {
	return TermResponse{
		ID:         t.ID.String(),
		TopicID:    t.TopicID.String(),
		Word:       t.Word,
		Definition: t.Definition,
		Examples:   t.Examples,
		Synonyms:   t.Synonyms,
		Antonyms:   t.Antonyms,
	}
}

func factsToResponse(facts []*domain.Fact) []FactResponse {
	out := make([]FactResponse, 0, len(facts))
	for _, f := range facts {
		out = append(out, FactResponse{
			ID:      f.ID.String(),
			Type:    string(f.Type),
			Content: f.Content,
		})
	}
	return out
}

func entryToResponse(e *domain.WordbankEntry) WordbankEntryResponse {
	resp := WordbankEntryResponse{
		TermID:             e.TermID.String(),
		Status:             string(e.Status),
		Bucket:             e.Bucket,
		ReviewCount:        e.ReviewCount,
		CorrectCount:       e.CorrectCount,
		ConsecutiveCorrect: e.ConsecutiveCorrect,
		NextReviewAt:       e.NextReviewAt,
		IsFavorited:        e.IsFavorited,
		WantsToRelearn:     e.WantsToRelearn,
	}
	if !e.LastReviewedAt.IsZero() {
		t := e.LastReviewedAt
		resp.LastReviewedAt = &t
	}
	return resp
}

func dailyWordToResponse(word *service.DailyWord) DailyWordResponse {
	return DailyWordResponse{
		Day:         word.Delivery.Day,
		Type:        string(word.Delivery.Type),
		DeliveredAt: word.Delivery.DeliveredAt,
		Term:        termToResponse(word.Term),
		Facts:       factsToResponse(word.Facts),
		Wordbank:    entryToResponse(word.Entry),
	}
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:                  u.ID.String(),
		Email:               u.Email,
		Tier:                string(u.Tier),
		Timezone:            u.Timezone,
		OnboardingCompleted: u.OnboardingCompleted,
	}
}
