package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/domain/srs"
	"github.com/lexiday/lexiday-api/internal/events"
	"github.com/lexiday/lexiday-api/internal/generation"
	"github.com/lexiday/lexiday-api/internal/store"
)

// In-memory store fakes. WithTx returns the same instance; the transaction
// itself is exercised through sqlmock's Begin/Commit expectations.

type fakeUserStore struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) Update(_ context.Context, user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) WithTx(_ *sql.Tx) store.UserStore { return f }

type subscription struct {
	userID  uuid.UUID
	topicID uuid.UUID
	weight  float64
}

type fakeTopicStore struct {
	topics     map[uuid.UUID]*domain.Topic
	byName     map[string]*domain.Topic
	subs       []*domain.UserTopic
	subscribed []subscription
	starved    []*domain.UserTopic
}

func newFakeTopicStore() *fakeTopicStore {
	return &fakeTopicStore{
		topics: make(map[uuid.UUID]*domain.Topic),
		byName: make(map[string]*domain.Topic),
	}
}

func (f *fakeTopicStore) Create(_ context.Context, topic *domain.Topic) error {
	if _, ok := f.byName[topic.Name]; ok {
		return store.ErrDuplicate
	}
	f.topics[topic.ID] = topic
	f.byName[topic.Name] = topic
	return nil
}

func (f *fakeTopicStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Topic, error) {
	topic, ok := f.topics[id]
	if !ok {
		return nil, store.ErrTopicNotFound
	}
	return topic, nil
}

func (f *fakeTopicStore) GetByName(_ context.Context, name string) (*domain.Topic, error) {
	topic, ok := f.byName[name]
	if !ok {
		return nil, store.ErrTopicNotFound
	}
	return topic, nil
}

func (f *fakeTopicStore) Subscribe(_ context.Context, userID, topicID uuid.UUID, weight float64) error {
	f.subscribed = append(f.subscribed, subscription{userID: userID, topicID: topicID, weight: weight})
	return nil
}

func (f *fakeTopicStore) ListForUser(_ context.Context, _ uuid.UUID) ([]*domain.UserTopic, error) {
	return f.subs, nil
}

func (f *fakeTopicStore) ListStarvedSubscriptions(_ context.Context) ([]*domain.UserTopic, error) {
	return f.starved, nil
}

func (f *fakeTopicStore) WithTx(_ *sql.Tx) store.TopicStore { return f }

type fakeTermStore struct {
	// mu guards unseenByTopic, which one test fills from another goroutine
	// while the service is polling.
	mu            sync.Mutex
	terms         map[uuid.UUID]*domain.Term
	facts         map[uuid.UUID][]*domain.Fact
	unseenCounts  map[uuid.UUID]int
	unseenByTopic map[uuid.UUID]*domain.Term
}

func newFakeTermStore() *fakeTermStore {
	return &fakeTermStore{
		terms:         make(map[uuid.UUID]*domain.Term),
		facts:         make(map[uuid.UUID][]*domain.Fact),
		unseenCounts:  make(map[uuid.UUID]int),
		unseenByTopic: make(map[uuid.UUID]*domain.Term),
	}
}

func (f *fakeTermStore) CreateWithFacts(_ context.Context, terms []*domain.Term, facts []*domain.Fact) error {
	for _, term := range terms {
		f.terms[term.ID] = term
	}
	for _, fact := range facts {
		f.facts[fact.TermID] = append(f.facts[fact.TermID], fact)
	}
	return nil
}

func (f *fakeTermStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Term, error) {
	term, ok := f.terms[id]
	if !ok {
		return nil, store.ErrTermNotFound
	}
	return term, nil
}

func (f *fakeTermStore) ListFactsByTerm(_ context.Context, termID uuid.UUID) ([]*domain.Fact, error) {
	return f.facts[termID], nil
}

func (f *fakeTermStore) CountUnseen(_ context.Context, _ uuid.UUID) (map[uuid.UUID]int, error) {
	return f.unseenCounts, nil
}

func (f *fakeTermStore) RandomUnseen(_ context.Context, _, topicID uuid.UUID) (*domain.Term, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	term, ok := f.unseenByTopic[topicID]
	if !ok {
		return nil, store.ErrTermNotFound
	}
	return term, nil
}

func (f *fakeTermStore) setUnseen(topicID uuid.UUID, term *domain.Term) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unseenByTopic[topicID] = term
}

func (f *fakeTermStore) WithTx(_ *sql.Tx) store.TermStore { return f }

type fakeWordbankStore struct {
	entries map[string]*domain.WordbankEntry
	due     []*domain.WordbankEntry
}

func newFakeWordbankStore() *fakeWordbankStore {
	return &fakeWordbankStore{entries: make(map[string]*domain.WordbankEntry)}
}

func wordbankKey(userID, termID uuid.UUID) string {
	return userID.String() + "|" + termID.String()
}

func (f *fakeWordbankStore) Create(_ context.Context, entry *domain.WordbankEntry) error {
	key := wordbankKey(entry.UserID, entry.TermID)
	if _, ok := f.entries[key]; ok {
		return store.ErrDuplicate
	}
	f.entries[key] = entry
	return nil
}

func (f *fakeWordbankStore) Get(_ context.Context, userID, termID uuid.UUID) (*domain.WordbankEntry, error) {
	entry, ok := f.entries[wordbankKey(userID, termID)]
	if !ok {
		return nil, store.ErrWordbankEntryNotFound
	}
	return entry, nil
}

func (f *fakeWordbankStore) Update(_ context.Context, entry *domain.WordbankEntry) error {
	key := wordbankKey(entry.UserID, entry.TermID)
	if _, ok := f.entries[key]; !ok {
		return store.ErrWordbankEntryNotFound
	}
	f.entries[key] = entry
	return nil
}

func (f *fakeWordbankStore) DueEntries(_ context.Context, _ uuid.UUID, _ time.Time, limit int) ([]*domain.WordbankEntry, error) {
	if len(f.due) > limit {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeWordbankStore) WithTx(_ *sql.Tx) store.WordbankStore { return f }

type fakeDeliveryStore struct {
	byDay map[string]*domain.Delivery

	// missFirstLookup makes the first GetByUserAndDay miss even when a
	// record exists, simulating another process winning the day between the
	// initial check and the insert.
	missFirstLookup bool
}

func newFakeDeliveryStore() *fakeDeliveryStore {
	return &fakeDeliveryStore{byDay: make(map[string]*domain.Delivery)}
}

func deliveryKey(userID uuid.UUID, day string) string {
	return userID.String() + "|" + day
}

func (f *fakeDeliveryStore) CreateIfAbsent(_ context.Context, delivery *domain.Delivery) (*domain.Delivery, bool, error) {
	key := deliveryKey(delivery.UserID, delivery.Day)
	if existing, ok := f.byDay[key]; ok {
		return existing, false, nil
	}
	f.byDay[key] = delivery
	return delivery, true, nil
}

func (f *fakeDeliveryStore) GetByUserAndDay(_ context.Context, userID uuid.UUID, day string) (*domain.Delivery, error) {
	if f.missFirstLookup {
		f.missFirstLookup = false
		return nil, store.ErrDeliveryNotFound
	}
	delivery, ok := f.byDay[deliveryKey(userID, day)]
	if !ok {
		return nil, store.ErrDeliveryNotFound
	}
	return delivery, nil
}

func (f *fakeDeliveryStore) WithTx(_ *sql.Tx) store.DeliveryStore { return f }

type fakeEmitter struct {
	events []*events.TaskRequestEvent
}

func (f *fakeEmitter) EmitEvent(_ context.Context, event *events.TaskRequestEvent) error {
	f.events = append(f.events, event)
	return nil
}

// dailyFixture wires a DailyService against the fakes.
type dailyFixture struct {
	svc        *DailyService
	mock       sqlmock.Sqlmock
	user       *domain.User
	topic      *domain.Topic
	term       *domain.Term
	users      *fakeUserStore
	topics     *fakeTopicStore
	terms      *fakeTermStore
	wordbank   *fakeWordbankStore
	deliveries *fakeDeliveryStore
	emitter    *fakeEmitter
}

func newDailyFixture(t *testing.T) *dailyFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	user, err := domain.NewUser("learner@example.com")
	require.NoError(t, err)
	user.OnboardingCompleted = true

	topic, err := domain.NewTopic("astronomy", 1)
	require.NoError(t, err)

	term, err := domain.NewTerm(topic.ID, "quasar", "an extremely luminous galactic nucleus")
	require.NoError(t, err)

	f := &dailyFixture{
		mock:       mock,
		user:       user,
		topic:      topic,
		term:       term,
		users:      newFakeUserStore(),
		topics:     newFakeTopicStore(),
		terms:      newFakeTermStore(),
		wordbank:   newFakeWordbankStore(),
		deliveries: newFakeDeliveryStore(),
		emitter:    &fakeEmitter{},
	}
	f.users.users[user.ID] = user
	f.topics.topics[topic.ID] = topic
	f.terms.terms[term.ID] = term

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewDailyService(
		db,
		f.users,
		f.topics,
		f.terms,
		f.wordbank,
		f.deliveries,
		srs.NewDefaultService(),
		f.emitter,
		DailyServiceConfig{
			BacklogPollInterval: time.Millisecond,
			BacklogWaitDeadline: 20 * time.Millisecond,
		},
		log,
	)

	return f
}

func (f *dailyFixture) subscribe(weight float64) {
	f.topics.subs = append(f.topics.subs, &domain.UserTopic{
		UserID:    f.user.ID,
		TopicID:   f.topic.ID,
		TopicName: f.topic.Name,
		Weight:    weight,
	})
}

func TestGetNextDailyWord_OnboardingIncomplete(t *testing.T) {
	f := newDailyFixture(t)
	f.user.OnboardingCompleted = false

	_, err := f.svc.GetNextDailyWord(context.Background(), f.user.ID)
	assert.ErrorIs(t, err, ErrOnboardingIncomplete)
}

func TestGetNextDailyWord_UnknownUser(t *testing.T) {
	f := newDailyFixture(t)

	_, err := f.svc.GetNextDailyWord(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestGetNextDailyWord_NoSubscribedTopics(t *testing.T) {
	f := newDailyFixture(t)

	_, err := f.svc.GetNextDailyWord(context.Background(), f.user.ID)
	assert.ErrorIs(t, err, ErrNoSubscribedTopics)
}

func TestGetNextDailyWord_DeliversNewWord(t *testing.T) {
	f := newDailyFixture(t)
	f.subscribe(1)
	f.terms.unseenCounts[f.topic.ID] = 3
	f.terms.unseenByTopic[f.topic.ID] = f.term

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	word, err := f.svc.GetNextDailyWord(context.Background(), f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.DeliveryTypeNew, word.Delivery.Type)
	assert.Equal(t, f.term.ID, word.Delivery.TermID)
	assert.Equal(t, f.term, word.Term)
	require.NotNil(t, word.Entry)
	assert.Equal(t, domain.MinBucket, word.Entry.Bucket)
	assert.Equal(t, domain.WordbankStatusLearning, word.Entry.Status)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGetNextDailyWord_SecondCallSameDayReturnsSameWord(t *testing.T) {
	f := newDailyFixture(t)
	f.subscribe(1)
	f.terms.unseenCounts[f.topic.ID] = 3
	f.terms.unseenByTopic[f.topic.ID] = f.term

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	first, err := f.svc.GetNextDailyWord(context.Background(), f.user.ID)
	require.NoError(t, err)

	// No Begin expected: the second call reads the existing delivery.
	second, err := f.svc.GetNextDailyWord(context.Background(), f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Delivery.ID, second.Delivery.ID)
	assert.Equal(t, first.Term.ID, second.Term.ID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGetNextDailyWord_ReviewBeatsNewWord(t *testing.T) {
	f := newDailyFixture(t)
	f.subscribe(1)
	f.terms.unseenCounts[f.topic.ID] = 3
	f.terms.unseenByTopic[f.topic.ID] = f.term

	reviewTerm, err := domain.NewTerm(f.topic.ID, "nebula", "a cloud of interstellar gas")
	require.NoError(t, err)
	f.terms.terms[reviewTerm.ID] = reviewTerm

	entry, err := domain.NewWordbankEntry(f.user.ID, reviewTerm.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	entry.Bucket = 3
	f.wordbank.entries[wordbankKey(f.user.ID, reviewTerm.ID)] = entry
	f.wordbank.due = []*domain.WordbankEntry{entry}

	word, err := f.svc.GetNextDailyWord(context.Background(), f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.DeliveryTypeReview, word.Delivery.Type)
	assert.Equal(t, reviewTerm.ID, word.Delivery.TermID)
	assert.Equal(t, 3, word.Delivery.SnapshotBucket)
}

func TestGetNextDailyWord_RaceLostServesWinner(t *testing.T) {
	f := newDailyFixture(t)
	f.subscribe(1)
	f.terms.unseenCounts[f.topic.ID] = 3
	f.terms.unseenByTopic[f.topic.ID] = f.term

	// Another process already delivered a different term today.
	winnerTerm, err := domain.NewTerm(f.topic.ID, "pulsar", "a rotating neutron star")
	require.NoError(t, err)
	f.terms.terms[winnerTerm.ID] = winnerTerm

	winnerEntry, err := domain.NewWordbankEntry(f.user.ID, winnerTerm.ID, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	f.wordbank.entries[wordbankKey(f.user.ID, winnerTerm.ID)] = winnerEntry

	day := domain.DayKey(time.Now().UTC(), f.user.Location())
	winner, err := domain.NewDelivery(f.user.ID, winnerTerm.ID, domain.DeliveryTypeNew, day, winnerEntry)
	require.NoError(t, err)
	f.deliveries.byDay[deliveryKey(f.user.ID, day)] = winner
	f.deliveries.missFirstLookup = true

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	word, err := f.svc.GetNextDailyWord(context.Background(), f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, winner.ID, word.Delivery.ID)
	assert.Equal(t, winnerTerm.ID, word.Term.ID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGetNextDailyWord_DuplicateEntryServesWinner(t *testing.T) {
	f := newDailyFixture(t)
	f.subscribe(1)
	f.terms.unseenCounts[f.topic.ID] = 1
	f.terms.unseenByTopic[f.topic.ID] = f.term

	// Another process picked the same term and committed its entry and
	// delivery after our initial lookup. The entry insert hits the
	// duplicate before the delivery upsert ever runs.
	winnerEntry, err := domain.NewWordbankEntry(f.user.ID, f.term.ID, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	f.wordbank.entries[wordbankKey(f.user.ID, f.term.ID)] = winnerEntry

	day := domain.DayKey(time.Now().UTC(), f.user.Location())
	winner, err := domain.NewDelivery(f.user.ID, f.term.ID, domain.DeliveryTypeNew, day, winnerEntry)
	require.NoError(t, err)
	f.deliveries.byDay[deliveryKey(f.user.ID, day)] = winner
	f.deliveries.missFirstLookup = true

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	word, err := f.svc.GetNextDailyWord(context.Background(), f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, winner.ID, word.Delivery.ID)
	assert.Equal(t, f.term.ID, word.Term.ID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGetNextDailyWord_CallerCancelDoesNotAbortFlight(t *testing.T) {
	f := newDailyFixture(t)
	f.subscribe(1)
	f.terms.unseenCounts[f.topic.ID] = 0

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	// The caller gives up while the service is waiting on generation; the
	// shared flight keeps polling and still produces the day's word.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(2 * time.Millisecond)
		cancel()
	}()
	go func() {
		time.Sleep(8 * time.Millisecond)
		f.terms.setUnseen(f.topic.ID, f.term)
	}()

	word, err := f.svc.GetNextDailyWord(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, f.term.ID, word.Term.ID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestGetNextDailyWord_EmptyBacklogTimesOut(t *testing.T) {
	f := newDailyFixture(t)
	f.subscribe(1)
	f.terms.unseenCounts[f.topic.ID] = 0

	_, err := f.svc.GetNextDailyWord(context.Background(), f.user.ID)
	assert.ErrorIs(t, err, generation.ErrGenerationUnavailable)

	// The generation request was emitted before waiting.
	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, events.TypeGenerationRequested, f.emitter.events[0].Type)

	var payload events.GenerationRequestedPayload
	require.NoError(t, f.emitter.events[0].UnmarshalPayload(&payload))
	assert.Equal(t, f.user.ID, payload.UserID)
	assert.Equal(t, f.topic.ID, payload.TopicID)

	// No delivery was recorded for the failed day.
	assert.Empty(t, f.deliveries.byDay)
}

func TestGetNextDailyWord_EmptyBacklogRecoversWhenGenerationLands(t *testing.T) {
	f := newDailyFixture(t)
	f.subscribe(1)
	f.terms.unseenCounts[f.topic.ID] = 0

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	// The backlog fills while the service is polling.
	go func() {
		time.Sleep(5 * time.Millisecond)
		f.terms.setUnseen(f.topic.ID, f.term)
	}()

	word, err := f.svc.GetNextDailyWord(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, f.term.ID, word.Term.ID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestPickTopic_WeightedSelection(t *testing.T) {
	f := newDailyFixture(t)

	first := uuid.New()
	second := uuid.New()
	subs := []*domain.UserTopic{
		{UserID: f.user.ID, TopicID: first, Weight: 1},
		{UserID: f.user.ID, TopicID: second, Weight: 3},
	}
	counts := map[uuid.UUID]int{first: 5, second: 5}

	// target = randFloat * 4; below 1 picks the first topic, above picks
	// the second.
	f.svc.randFloat = func() float64 { return 0.1 }
	topicID, ok := f.svc.pickTopic(subs, counts)
	require.True(t, ok)
	assert.Equal(t, first, topicID)

	f.svc.randFloat = func() float64 { return 0.9 }
	topicID, ok = f.svc.pickTopic(subs, counts)
	require.True(t, ok)
	assert.Equal(t, second, topicID)
}

func TestPickTopic_SkipsExhaustedTopics(t *testing.T) {
	f := newDailyFixture(t)

	exhausted := uuid.New()
	stocked := uuid.New()
	subs := []*domain.UserTopic{
		{UserID: f.user.ID, TopicID: exhausted, Weight: 100},
		{UserID: f.user.ID, TopicID: stocked, Weight: 1},
	}
	counts := map[uuid.UUID]int{exhausted: 0, stocked: 2}

	f.svc.randFloat = func() float64 { return 0.5 }
	topicID, ok := f.svc.pickTopic(subs, counts)
	require.True(t, ok)
	assert.Equal(t, stocked, topicID)
}

func TestPickTopic_AllExhausted(t *testing.T) {
	f := newDailyFixture(t)

	subs := []*domain.UserTopic{
		{UserID: f.user.ID, TopicID: uuid.New(), Weight: 1},
	}
	counts := map[uuid.UUID]int{}

	_, ok := f.svc.pickTopic(subs, counts)
	assert.False(t, ok)
}

func TestRefillStarvedBacklogs(t *testing.T) {
	f := newDailyFixture(t)

	f.topics.starved = []*domain.UserTopic{
		{UserID: uuid.New(), TopicID: uuid.New(), Weight: 1},
		{UserID: uuid.New(), TopicID: uuid.New(), Weight: 1},
	}

	require.NoError(t, f.svc.RefillStarvedBacklogs(context.Background()))
	assert.Len(t, f.emitter.events, 2)
	for _, event := range f.emitter.events {
		assert.Equal(t, events.TypeGenerationRequested, event.Type)
	}
}

func TestRefillStarvedBacklogs_NothingStarved(t *testing.T) {
	f := newDailyFixture(t)

	require.NoError(t, f.svc.RefillStarvedBacklogs(context.Background()))
	assert.Empty(t, f.emitter.events)
}
