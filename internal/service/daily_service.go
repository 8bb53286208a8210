package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/domain/srs"
	"github.com/lexiday/lexiday-api/internal/events"
	"github.com/lexiday/lexiday-api/internal/generation"
	"github.com/lexiday/lexiday-api/internal/platform/logger"
	"github.com/lexiday/lexiday-api/internal/store"
)

// errRaceLost aborts the delivery transaction when another request recorded
// today's delivery first. Never escapes GetNextDailyWord.
var errRaceLost = errors.New("delivery race lost")

// DailyWord is the full payload for one day's delivery: the delivery record,
// the term with its facts, and the user's wordbank state for it.
type DailyWord struct {
	Delivery *domain.Delivery      `json:"delivery"`
	Term     *domain.Term          `json:"term"`
	Facts    []*domain.Fact        `json:"facts"`
	Entry    *domain.WordbankEntry `json:"wordbank_entry"`
}

// DailyServiceConfig tunes the generation-fallback behavior.
type DailyServiceConfig struct {
	// BacklogPollInterval is how often to re-check for a generated term
	// while waiting on an enqueued generation request.
	BacklogPollInterval time.Duration

	// BacklogWaitDeadline bounds the total wait before the request fails
	// with generation.ErrGenerationUnavailable.
	BacklogWaitDeadline time.Duration
}

// DailyService hands out exactly one word per user per local calendar day.
// Due reviews always win over new words; new words are drawn from a
// weighted pick across the user's subscribed topics, falling back to
// on-demand generation when every topic's backlog is empty.
type DailyService struct {
	db         *sql.DB
	users      store.UserStore
	topics     store.TopicStore
	terms      store.TermStore
	wordbank   store.WordbankStore
	deliveries store.DeliveryStore
	scheduler  srs.Service
	emitter    events.EventEmitter
	config     DailyServiceConfig
	logger     *slog.Logger

	// group collapses concurrent same-day requests for one user into a
	// single execution, so the race on the deliveries unique index is only
	// a cross-process concern.
	group singleflight.Group

	// Injection points for tests.
	now       func() time.Time
	randFloat func() float64
}

// NewDailyService creates a DailyService.
func NewDailyService(
	db *sql.DB,
	users store.UserStore,
	topics store.TopicStore,
	terms store.TermStore,
	wordbank store.WordbankStore,
	deliveries store.DeliveryStore,
	scheduler srs.Service,
	emitter events.EventEmitter,
	config DailyServiceConfig,
	log *slog.Logger,
) *DailyService {
	if log == nil {
		log = slog.Default()
	}
	if config.BacklogPollInterval <= 0 {
		config.BacklogPollInterval = 2 * time.Second
	}
	if config.BacklogWaitDeadline <= 0 {
		config.BacklogWaitDeadline = 30 * time.Second
	}

	return &DailyService{
		db:         db,
		users:      users,
		topics:     topics,
		terms:      terms,
		wordbank:   wordbank,
		deliveries: deliveries,
		scheduler:  scheduler,
		emitter:    emitter,
		config:     config,
		logger:     log.With(slog.String("component", "daily_service")),
		now:        func() time.Time { return time.Now().UTC() },
		randFloat:  rand.Float64,
	}
}

// GetNextDailyWord returns the user's word for today. The first call of the
// day selects and records it; every later call that day returns the same
// word. The day boundary follows the user's timezone.
func (s *DailyService) GetNextDailyWord(ctx context.Context, userID uuid.UUID) (*DailyWord, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.OnboardingCompleted {
		return nil, ErrOnboardingIncomplete
	}

	day := domain.DayKey(s.now(), user.Location())

	// The flight's result is shared between callers, so it must not die
	// with whichever request happened to start it. The backlog wait
	// deadline still bounds the execution.
	flightCtx := context.WithoutCancel(ctx)
	result, err, _ := s.group.Do(userID.String()+"|"+day, func() (any, error) {
		return s.wordForDay(flightCtx, user, day)
	})
	if err != nil {
		return nil, err
	}

	return result.(*DailyWord), nil
}

func (s *DailyService) wordForDay(ctx context.Context, user *domain.User, day string) (*DailyWord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("user_id", user.ID, "day", day)
	now := s.now()

	// Already delivered today?
	existing, err := s.deliveries.GetByUserAndDay(ctx, user.ID, day)
	if err == nil {
		return s.assemble(ctx, existing)
	}
	if !errors.Is(err, store.ErrDeliveryNotFound) {
		return nil, err
	}

	// Due reviews take priority over new words.
	due, err := s.wordbank.DueEntries(ctx, user.ID, now, 1)
	if err != nil {
		return nil, err
	}
	if len(due) > 0 {
		log.Info("delivering review", "term_id", due[0].TermID, "bucket", due[0].Bucket)
		return s.deliverReview(ctx, user, day, due[0])
	}

	// No review due: pick a new word from a subscribed topic.
	subscriptions, err := s.topics.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(subscriptions) == 0 {
		return nil, ErrNoSubscribedTopics
	}

	counts, err := s.terms.CountUnseen(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	topicID, ok := s.pickTopic(subscriptions, counts)
	if !ok {
		// Every backlog is empty: request generation and wait for it.
		topicID = s.pickAnyTopic(subscriptions)
		log.Info("backlog empty, requesting generation", "topic_id", topicID)

		term, err := s.waitForGeneration(ctx, user.ID, topicID)
		if err != nil {
			return nil, err
		}
		return s.deliverNew(ctx, user, day, term)
	}

	term, err := s.terms.RandomUnseen(ctx, user.ID, topicID)
	if err != nil {
		return nil, err
	}

	log.Info("delivering new word", "term_id", term.ID, "topic_id", topicID)
	return s.deliverNew(ctx, user, day, term)
}

// deliverReview records today's delivery for a due wordbank entry. Reviewing
// does not change the entry's state; that happens when the user answers.
func (s *DailyService) deliverReview(
	ctx context.Context,
	user *domain.User,
	day string,
	entry *domain.WordbankEntry,
) (*DailyWord, error) {
	delivery, err := domain.NewDelivery(user.ID, entry.TermID, domain.DeliveryTypeReview, day, entry)
	if err != nil {
		return nil, err
	}

	// A lost race hands back the winner's record, which is exactly what
	// idempotence requires here.
	recorded, _, err := s.deliveries.CreateIfAbsent(ctx, delivery)
	if err != nil {
		return nil, err
	}

	return s.assemble(ctx, recorded)
}

// deliverNew atomically creates the wordbank entry and the delivery record
// for a never-seen term. If another process delivered today's word in the
// meantime, the entry creation is rolled back and the winner's word is
// served instead.
func (s *DailyService) deliverNew(
	ctx context.Context,
	user *domain.User,
	day string,
	term *domain.Term,
) (*DailyWord, error) {
	entry, err := domain.NewWordbankEntry(user.ID, term.ID, s.scheduler.FirstReviewAt(s.now()))
	if err != nil {
		return nil, err
	}

	delivery, err := domain.NewDelivery(user.ID, term.ID, domain.DeliveryTypeNew, day, entry)
	if err != nil {
		return nil, err
	}

	var recorded *domain.Delivery
	txErr := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.wordbank.WithTx(tx).Create(ctx, entry); err != nil {
			// A duplicate entry means another process picked the same
			// term and committed first; serve its delivery instead.
			if errors.Is(err, store.ErrDuplicate) {
				return errRaceLost
			}
			return err
		}

		d, created, err := s.deliveries.WithTx(tx).CreateIfAbsent(ctx, delivery)
		if err != nil {
			return err
		}
		if !created {
			return errRaceLost
		}
		recorded = d
		return nil
	})
	if errors.Is(txErr, errRaceLost) {
		winner, err := s.deliveries.GetByUserAndDay(ctx, user.ID, day)
		if err != nil {
			return nil, err
		}
		return s.assemble(ctx, winner)
	}
	if txErr != nil {
		return nil, txErr
	}

	return s.assemble(ctx, recorded)
}

// assemble loads the term, facts and wordbank entry behind a delivery
// record.
func (s *DailyService) assemble(ctx context.Context, delivery *domain.Delivery) (*DailyWord, error) {
	term, err := s.terms.GetByID(ctx, delivery.TermID)
	if err != nil {
		return nil, err
	}

	facts, err := s.terms.ListFactsByTerm(ctx, delivery.TermID)
	if err != nil {
		return nil, err
	}

	entry, err := s.wordbank.Get(ctx, delivery.UserID, delivery.TermID)
	if err != nil {
		return nil, err
	}

	return &DailyWord{
		Delivery: delivery,
		Term:     term,
		Facts:    facts,
		Entry:    entry,
	}, nil
}

// pickTopic makes a weighted random pick among subscribed topics that still
// have unseen terms. Returns false when every eligible topic is exhausted.
func (s *DailyService) pickTopic(
	subscriptions []*domain.UserTopic,
	unseenCounts map[uuid.UUID]int,
) (uuid.UUID, bool) {
	var total float64
	eligible := make([]*domain.UserTopic, 0, len(subscriptions))
	for _, sub := range subscriptions {
		if unseenCounts[sub.TopicID] > 0 {
			eligible = append(eligible, sub)
			total += sub.Weight
		}
	}
	if len(eligible) == 0 || total <= 0 {
		return uuid.Nil, false
	}

	target := s.randFloat() * total
	for _, sub := range eligible {
		target -= sub.Weight
		if target < 0 {
			return sub.TopicID, true
		}
	}
	return eligible[len(eligible)-1].TopicID, true
}

// pickAnyTopic makes a weighted pick over all subscriptions, used to choose
// which topic to generate for.
func (s *DailyService) pickAnyTopic(subscriptions []*domain.UserTopic) uuid.UUID {
	var total float64
	for _, sub := range subscriptions {
		total += sub.Weight
	}

	target := s.randFloat() * total
	for _, sub := range subscriptions {
		target -= sub.Weight
		if target < 0 {
			return sub.TopicID
		}
	}
	return subscriptions[len(subscriptions)-1].TopicID
}

// RefillStarvedBacklogs emits a generation request for every subscription
// whose backlog is empty. Run nightly so users rarely hit the synchronous
// generation wait during the day.
func (s *DailyService) RefillStarvedBacklogs(ctx context.Context) error {
	starved, err := s.topics.ListStarvedSubscriptions(ctx)
	if err != nil {
		return err
	}

	for _, sub := range starved {
		event, err := events.NewTaskRequestEvent(events.TypeGenerationRequested, events.GenerationRequestedPayload{
			UserID:  sub.UserID,
			TopicID: sub.TopicID,
		})
		if err != nil {
			return fmt.Errorf("failed to build generation event: %w", err)
		}
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			s.logger.Error("failed to emit refill event",
				"user_id", sub.UserID,
				"topic_id", sub.TopicID,
				"error", err)
		}
	}

	s.logger.Info("backlog refill sweep completed", "starved_subscriptions", len(starved))
	return nil
}

// waitForGeneration emits a generation request for the topic and polls the
// backlog until a term lands or the deadline passes.
func (s *DailyService) waitForGeneration(
	ctx context.Context,
	userID, topicID uuid.UUID,
) (*domain.Term, error) {
	event, err := events.NewTaskRequestEvent(events.TypeGenerationRequested, events.GenerationRequestedPayload{
		UserID:  userID,
		TopicID: topicID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build generation event: %w", err)
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit generation event",
			"user_id", userID,
			"topic_id", topicID,
			"error", err)
	}

	deadline := time.NewTimer(s.config.BacklogWaitDeadline)
	defer deadline.Stop()
	ticker := time.NewTicker(s.config.BacklogPollInterval)
	defer ticker.Stop()

	for {
		term, err := s.terms.RandomUnseen(ctx, userID, topicID)
		if err == nil {
			return term, nil
		}
		if !errors.Is(err, store.ErrTermNotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, generation.ErrGenerationUnavailable
		case <-ticker.C:
		}
	}
}
