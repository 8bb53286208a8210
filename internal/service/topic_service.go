package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/store"
)

// TopicService exposes topic lookups to packages that should not depend on
// the store layer directly.
type TopicService struct {
	topics store.TopicStore
}

// NewTopicService creates a TopicService.
func NewTopicService(topics store.TopicStore) *TopicService {
	return &TopicService{topics: topics}
}

// GetTopic retrieves a topic by ID.
func (s *TopicService) GetTopic(ctx context.Context, topicID uuid.UUID) (*domain.Topic, error) {
	return s.topics.GetByID(ctx, topicID)
}

// ListUserTopics returns the user's subscriptions with weights.
func (s *TopicService) ListUserTopics(ctx context.Context, userID uuid.UUID) ([]*domain.UserTopic, error) {
	return s.topics.ListForUser(ctx, userID)
}
