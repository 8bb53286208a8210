package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiday/lexiday-api/internal/cost"
	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/tier"
)

// stubGenerator returns a canned result and counts upstream calls.
type stubGenerator struct {
	result *Result
	err    error
	calls  int
}

func (s *stubGenerator) GenerateVocabulary(_ context.Context, _ Request) (*Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func testResult() *Result {
	return &Result{
		Terms: []TermDraft{
			{Word: "ephemeral", Definition: "lasting a very short time", Confidence: 0.95},
		},
		Facts: []FactDraft{
			{Word: "ephemeral", Type: "etymology", Content: "from Greek ephemeros"},
		},
		Usage: Usage{Model: "gemini-2.0-flash", InputTokens: 800, OutputTokens: 1200},
	}
}

func newTestClient(t *testing.T, upstream Generator, ceilings cost.Config, config ClientConfig) (*Client, *cost.Monitor) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := cost.NewMonitor(ceilings, log)
	return NewClient(upstream, monitor, config, log), monitor
}

func TestGenerateWithCache_MissCallsUpstream(t *testing.T) {
	upstream := &stubGenerator{result: testResult()}
	client, monitor := newTestClient(t, upstream, cost.Config{HourlyCeilingUSD: 100, DailyCeilingUSD: 1000}, ClientConfig{})

	req := Request{Topic: "astronomy", TermCount: 5, FactCount: 3, Complexity: tier.ComplexityBasic}
	got, err := client.GenerateWithCache(context.Background(), uuid.New(), domain.TierFree, req)
	require.NoError(t, err)

	assert.False(t, got.Cached)
	assert.Equal(t, upstream.result, got.Result)
	assert.Equal(t, 1, upstream.calls)

	summary := monitor.GetCostSummary()
	assert.Equal(t, 1, summary.Calls)
	assert.Equal(t, int64(800), summary.InputTokens)
	assert.Equal(t, int64(1200), summary.OutputTokens)
}

func TestGenerateWithCache_HitSkipsUpstreamAndQuota(t *testing.T) {
	upstream := &stubGenerator{result: testResult()}
	client, monitor := newTestClient(t, upstream, cost.Config{HourlyCeilingUSD: 100, DailyCeilingUSD: 1000}, ClientConfig{})

	req := Request{Topic: "astronomy", TermCount: 5, FactCount: 3, Complexity: tier.ComplexityBasic}
	userID := uuid.New()

	_, err := client.GenerateWithCache(context.Background(), userID, domain.TierFree, req)
	require.NoError(t, err)

	// The free tier allows 3 requests per day; many more cache hits must
	// still succeed because hits consume no quota.
	for i := 0; i < 10; i++ {
		got, err := client.GenerateWithCache(context.Background(), userID, domain.TierFree, req)
		require.NoError(t, err)
		assert.True(t, got.Cached)
	}
	assert.Equal(t, 1, upstream.calls)

	summary := monitor.GetCostSummary()
	assert.Equal(t, 11, summary.Calls)
	assert.Equal(t, 10, summary.CachedCalls)
	assert.Equal(t, int64(800), summary.InputTokens)
}

func TestGenerateWithCache_DifferentKeysMiss(t *testing.T) {
	upstream := &stubGenerator{result: testResult()}
	client, _ := newTestClient(t, upstream, cost.Config{HourlyCeilingUSD: 100, DailyCeilingUSD: 1000}, ClientConfig{})

	userID := uuid.New()
	base := Request{Topic: "astronomy", TermCount: 5, Complexity: tier.ComplexityBasic}

	_, err := client.GenerateWithCache(context.Background(), userID, domain.TierPremium, base)
	require.NoError(t, err)

	other := base
	other.Complexity = tier.ComplexityAdvanced
	got, err := client.GenerateWithCache(context.Background(), userID, domain.TierPremium, other)
	require.NoError(t, err)

	assert.False(t, got.Cached)
	assert.Equal(t, 2, upstream.calls)
}

func TestGenerateWithCache_RateLimitExceeded(t *testing.T) {
	upstream := &stubGenerator{result: testResult()}
	client, _ := newTestClient(t, upstream, cost.Config{HourlyCeilingUSD: 100, DailyCeilingUSD: 1000}, ClientConfig{})

	userID := uuid.New()

	// Distinct topics so every call misses the cache; the free tier allows
	// three misses per period.
	topics := []string{"astronomy", "botany", "chemistry", "dynamics"}
	for i, topic := range topics {
		req := Request{Topic: topic, TermCount: 5, Complexity: tier.ComplexityBasic}
		_, err := client.GenerateWithCache(context.Background(), userID, domain.TierFree, req)
		if i < 3 {
			require.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrRateLimitExceeded)
		}
	}
	assert.Equal(t, 3, upstream.calls)
}

func TestGenerateWithCache_EmergencyModeRefusesMisses(t *testing.T) {
	upstream := &stubGenerator{result: testResult()}
	// A ceiling below the first call's cost trips emergency mode.
	client, monitor := newTestClient(t, upstream, cost.Config{HourlyCeilingUSD: 0.000001, DailyCeilingUSD: 1000}, ClientConfig{})

	userID := uuid.New()
	req := Request{Topic: "astronomy", TermCount: 5, Complexity: tier.ComplexityBasic}

	_, err := client.GenerateWithCache(context.Background(), userID, domain.TierPremium, req)
	require.NoError(t, err)
	require.True(t, monitor.EmergencyMode())

	// Misses are refused.
	miss := Request{Topic: "botany", TermCount: 5, Complexity: tier.ComplexityBasic}
	_, err = client.GenerateWithCache(context.Background(), userID, domain.TierPremium, miss)
	assert.ErrorIs(t, err, ErrCostCeilingExceeded)

	// Hits still serve.
	got, err := client.GenerateWithCache(context.Background(), userID, domain.TierPremium, req)
	require.NoError(t, err)
	assert.True(t, got.Cached)
}

func TestGenerateWithCache_UpstreamErrorNotCached(t *testing.T) {
	upstreamErr := errors.New("model timeout")
	upstream := &stubGenerator{err: upstreamErr}
	client, monitor := newTestClient(t, upstream, cost.Config{HourlyCeilingUSD: 100, DailyCeilingUSD: 1000}, ClientConfig{})

	req := Request{Topic: "astronomy", TermCount: 5, Complexity: tier.ComplexityBasic}
	_, err := client.GenerateWithCache(context.Background(), uuid.New(), domain.TierPremium, req)
	assert.ErrorIs(t, err, upstreamErr)

	// The failure consumed quota but produced no spend and no cache entry.
	assert.Equal(t, 0, monitor.GetCostSummary().Calls)

	upstream.err = nil
	upstream.result = testResult()
	got, err := client.GenerateWithCache(context.Background(), uuid.New(), domain.TierPremium, req)
	require.NoError(t, err)
	assert.False(t, got.Cached)
}

func TestGenerateWithCache_UnknownTier(t *testing.T) {
	upstream := &stubGenerator{result: testResult()}
	client, _ := newTestClient(t, upstream, cost.Config{HourlyCeilingUSD: 100, DailyCeilingUSD: 1000}, ClientConfig{})

	req := Request{Topic: "astronomy", TermCount: 5, Complexity: tier.ComplexityBasic}
	_, err := client.GenerateWithCache(context.Background(), uuid.New(), domain.Tier("gold"), req)
	assert.ErrorIs(t, err, domain.ErrInvalidTier)
	assert.Equal(t, 0, upstream.calls)
}

func TestCacheEviction_CapsEntries(t *testing.T) {
	upstream := &stubGenerator{result: testResult()}
	client, _ := newTestClient(t, upstream, cost.Config{HourlyCeilingUSD: 100, DailyCeilingUSD: 1000}, ClientConfig{CacheMaxEntries: 2})

	userID := uuid.New()
	for _, topic := range []string{"a", "b", "c"} {
		req := Request{Topic: topic, TermCount: 5, Complexity: tier.ComplexityBasic}
		_, err := client.GenerateWithCache(context.Background(), userID, domain.TierEnterprise, req)
		require.NoError(t, err)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Len(t, client.cache, 2)
}

func TestNewClient_Defaults(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	monitor := cost.NewMonitor(cost.Config{HourlyCeilingUSD: 1, DailyCeilingUSD: 1}, log)

	client := NewClient(&stubGenerator{}, monitor, ClientConfig{}, log)
	assert.Equal(t, 512, client.config.CacheMaxEntries)

	assert.Panics(t, func() { NewClient(nil, monitor, ClientConfig{}, log) })
	assert.Panics(t, func() { NewClient(&stubGenerator{}, nil, ClientConfig{}, log) })
}
