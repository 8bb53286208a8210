package generation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/cost"
	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/platform/logger"
	"github.com/lexiday/lexiday-api/internal/tier"
)

// cacheKey identifies reusable generation output. Vocabulary for a given
// topic and complexity is largely reusable across users, which makes the
// cache the primary cost-control lever.
type cacheKey struct {
	Topic      string
	Count      int
	Complexity tier.Complexity
}

// ClientResult wraps an upstream result with cache provenance.
type ClientResult struct {
	Result *Result
	Cached bool
}

// ClientConfig tunes the cached client.
type ClientConfig struct {
	// CacheMaxEntries caps the response cache. When full, new entries
	// evict an arbitrary existing one; the cache is an optimization, not
	// a store of record.
	CacheMaxEntries int
}

// Client wraps a Generator with a response cache, per-user rate limiting and
// cost tracking. It is safe for concurrent use.
type Client struct {
	upstream Generator
	costs    *cost.Monitor
	limiter  *rateLimiter
	logger   *slog.Logger
	config   ClientConfig

	mu    sync.Mutex
	cache map[cacheKey]*Result
}

// NewClient creates a generation Client.
func NewClient(
	upstream Generator,
	costs *cost.Monitor,
	config ClientConfig,
	log *slog.Logger,
) *Client {
	if upstream == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("upstream generator cannot be nil")
	}
	if costs == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("cost monitor cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	if config.CacheMaxEntries <= 0 {
		config.CacheMaxEntries = 512
	}

	return &Client{
		upstream: upstream,
		costs:    costs,
		limiter:  newRateLimiter(),
		logger:   log.With(slog.String("component", "generation_client")),
		config:   config,
		cache:    make(map[cacheKey]*Result),
	}
}

// GenerateWithCache produces vocabulary for a topic on behalf of a user.
//
// A cache hit returns previously generated content with zero incremental
// cost and does not consume rate-limit quota. A miss consumes one request
// from the user's fixed-window quota and calls upstream, unless the cost
// monitor's emergency mode is set, in which case the call is refused with
// ErrCostCeilingExceeded regardless of tier.
//
// Every call, hit or miss, reports usage to the cost monitor.
func (c *Client) GenerateWithCache(
	ctx context.Context,
	userID uuid.UUID,
	userTier domain.Tier,
	req Request,
) (*ClientResult, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	limits, err := tier.LimitsFor(userTier)
	if err != nil {
		return nil, err
	}

	key := cacheKey{Topic: req.Topic, Count: req.TermCount, Complexity: req.Complexity}

	if cached := c.lookup(key); cached != nil {
		log.Debug("generation cache hit",
			"topic", req.Topic,
			"count", req.TermCount,
			"complexity", req.Complexity)
		c.costs.TrackCost(cached.Usage.Model, 0, 0, userID)
		return &ClientResult{Result: cached, Cached: true}, nil
	}

	if c.costs.EmergencyMode() {
		log.Warn("refusing generation call, emergency mode is set",
			"topic", req.Topic,
			"user_id", userID)
		return nil, ErrCostCeilingExceeded
	}

	if !c.limiter.allow(userID, limits.MaxRequestsPerPeriod, limits.ResetPeriod) {
		log.Warn("generation rate limit exceeded",
			"user_id", userID,
			"tier", userTier,
			"limit", limits.MaxRequestsPerPeriod,
			"period", limits.ResetPeriod)
		return nil, fmt.Errorf("%w: %d requests per %s for tier %s",
			ErrRateLimitExceeded, limits.MaxRequestsPerPeriod, limits.ResetPeriod, userTier)
	}

	result, err := c.upstream.GenerateVocabulary(ctx, req)
	if err != nil {
		return nil, err
	}

	c.costs.TrackCost(result.Usage.Model, result.Usage.InputTokens, result.Usage.OutputTokens, userID)
	c.store(key, result)

	log.Info("generation call completed",
		"topic", req.Topic,
		"terms", len(result.Terms),
		"facts", len(result.Facts),
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens)

	return &ClientResult{Result: result, Cached: false}, nil
}

func (c *Client) lookup(key cacheKey) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache[key]
}

func (c *Client) store(key cacheKey, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) >= c.config.CacheMaxEntries {
		for k := range c.cache {
			delete(c.cache, k)
			break
		}
	}
	c.cache[key] = result
}
