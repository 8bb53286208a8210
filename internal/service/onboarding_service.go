package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/events"
	"github.com/lexiday/lexiday-api/internal/platform/logger"
	"github.com/lexiday/lexiday-api/internal/store"
)

// TopicSelection is one topic chosen during onboarding with its selection
// weight.
type TopicSelection struct {
	Name   string
	Weight float64
}

// OnboardingService finalizes a new user's setup: topic subscriptions,
// timezone, and the initial vocabulary generation for each chosen topic.
type OnboardingService struct {
	db      *sql.DB
	users   store.UserStore
	topics  store.TopicStore
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewOnboardingService creates an OnboardingService.
func NewOnboardingService(
	db *sql.DB,
	users store.UserStore,
	topics store.TopicStore,
	emitter events.EventEmitter,
	log *slog.Logger,
) *OnboardingService {
	if log == nil {
		log = slog.Default()
	}
	return &OnboardingService{
		db:      db,
		users:   users,
		topics:  topics,
		emitter: emitter,
		logger:  log.With(slog.String("component", "onboarding_service")),
	}
}

// CompleteOnboarding subscribes the user to the selected topics, stores the
// timezone, and marks onboarding done, all in one transaction. Topics that
// don't exist yet are created on the fly. After commit, a generation request
// is emitted per topic so the user's backlog starts filling immediately.
func (s *OnboardingService) CompleteOnboarding(
	ctx context.Context,
	userID uuid.UUID,
	timezone string,
	selections []TopicSelection,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(selections) == 0 {
		return nil, ErrNoTopicsSelected
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, domain.ErrUserTimezoneInvalid
		}
	}

	var user *domain.User
	var topicIDs []uuid.UUID

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		topics := s.topics.WithTx(tx)

		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		for _, sel := range selections {
			topic, err := s.findOrCreateTopic(ctx, topics, sel)
			if err != nil {
				return err
			}

			weight := sel.Weight
			if weight <= 0 {
				weight = topic.Weight
			}
			if err := topics.Subscribe(ctx, userID, topic.ID, weight); err != nil {
				return err
			}
			topicIDs = append(topicIDs, topic.ID)
		}

		if timezone != "" {
			u.Timezone = timezone
		}
		u.OnboardingCompleted = true
		if err := users.Update(ctx, u); err != nil {
			return err
		}

		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Pre-fill the backlog. Emission failures are logged, not fatal: the
	// daily-word path re-requests generation when a backlog turns out empty.
	for _, topicID := range topicIDs {
		event, err := events.NewTaskRequestEvent(events.TypeGenerationRequested, events.GenerationRequestedPayload{
			UserID:  userID,
			TopicID: topicID,
		})
		if err != nil {
			log.Error("failed to build generation event", "topic_id", topicID, "error", err)
			continue
		}
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			log.Error("failed to emit generation event", "topic_id", topicID, "error", err)
		}
	}

	log.Info("onboarding completed",
		"user_id", userID,
		"topics", len(topicIDs),
		"timezone", timezone)

	return user, nil
}

func (s *OnboardingService) findOrCreateTopic(
	ctx context.Context,
	topics store.TopicStore,
	sel TopicSelection,
) (*domain.Topic, error) {
	topic, err := topics.GetByName(ctx, sel.Name)
	if err == nil {
		return topic, nil
	}
	if !errors.Is(err, store.ErrTopicNotFound) {
		return nil, err
	}

	weight := sel.Weight
	if weight <= 0 {
		weight = 1
	}
	topic, err = domain.NewTopic(sel.Name, weight)
	if err != nil {
		return nil, err
	}
	if err := topics.Create(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}
