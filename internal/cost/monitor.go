// Package cost tracks language-model spend and enforces global ceilings.
// The Monitor is the one shared mutable object for cost state: it is
// created once in main and injected into every component that needs it,
// rather than being reached through package globals.
package cost

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Pricing is the per-million-token price for a model, in USD.
type Pricing struct {
	InputUSD  float64
	OutputUSD float64
}

// defaultPricing covers the models this service calls. Unknown models fall
// back to the most expensive entry so an unpriced model can never spend
// under the radar.
var defaultPricing = map[string]Pricing{
	"gemini-2.0-flash":      {InputUSD: 0.10, OutputUSD: 0.40},
	"gemini-2.0-flash-lite": {InputUSD: 0.075, OutputUSD: 0.30},
	"gemini-1.5-pro":        {InputUSD: 1.25, OutputUSD: 5.00},
}

var fallbackPricing = Pricing{InputUSD: 1.25, OutputUSD: 5.00}

// Config holds the spend ceilings for the monitor.
type Config struct {
	HourlyCeilingUSD float64
	DailyCeilingUSD  float64
}

// Summary is a point-in-time view of tracked spend.
type Summary struct {
	HourUSD       float64 `json:"hour_usd"`
	DayUSD        float64 `json:"day_usd"`
	Calls         int     `json:"calls"`
	CachedCalls   int     `json:"cached_calls"`
	InputTokens   int64   `json:"input_tokens"`
	OutputTokens  int64   `json:"output_tokens"`
	EmergencyMode bool    `json:"emergency_mode"`
}

// record is one tracked call, kept until it ages out of the daily window.
type record struct {
	at      time.Time
	costUSD float64
}

// Monitor tracks rolling hourly/daily spend and flips a process-wide
// emergency flag when a ceiling is crossed. While the flag is set the
// generation client refuses all non-cached calls; the flag stays set until
// explicitly cleared.
type Monitor struct {
	mu      sync.Mutex
	records []record

	calls        int
	cachedCalls  int
	inputTokens  int64
	outputTokens int64

	emergency atomic.Bool

	config  Config
	pricing map[string]Pricing
	logger  *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewMonitor creates a cost Monitor with the given ceilings.
func NewMonitor(config Config, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		config:  config,
		pricing: defaultPricing,
		logger:  logger.With(slog.String("component", "cost_monitor")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// TrackCost records the spend for a single upstream call and checks the
// ceilings. Cache hits are tracked with zero tokens so the call count stays
// honest without adding cost. The update is atomic with the ceiling check so
// concurrent callers cannot undercount past a ceiling.
func (m *Monitor) TrackCost(model string, inputTokens, outputTokens int64, userID uuid.UUID) {
	costUSD := m.estimate(model, inputTokens, outputTokens)
	now := m.now()

	m.mu.Lock()
	m.prune(now)

	m.calls++
	if inputTokens == 0 && outputTokens == 0 {
		m.cachedCalls++
	}
	m.inputTokens += inputTokens
	m.outputTokens += outputTokens
	if costUSD > 0 {
		m.records = append(m.records, record{at: now, costUSD: costUSD})
	}

	hourUSD, dayUSD := m.totals(now)
	m.mu.Unlock()

	m.logger.Debug("tracked generation cost",
		"model", model,
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
		"cost_usd", costUSD,
		"user_id", userID)

	if hourUSD > m.config.HourlyCeilingUSD || dayUSD > m.config.DailyCeilingUSD {
		if m.emergency.CompareAndSwap(false, true) {
			m.logger.Error("spend ceiling exceeded, emergency mode enabled",
				"hour_usd", hourUSD,
				"day_usd", dayUSD,
				"hourly_ceiling_usd", m.config.HourlyCeilingUSD,
				"daily_ceiling_usd", m.config.DailyCeilingUSD)
		}
	}
}

// GetCostSummary returns the current rolling spend totals.
func (m *Monitor) GetCostSummary() Summary {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.prune(now)
	hourUSD, dayUSD := m.totals(now)

	return Summary{
		HourUSD:       hourUSD,
		DayUSD:        dayUSD,
		Calls:         m.calls,
		CachedCalls:   m.cachedCalls,
		InputTokens:   m.inputTokens,
		OutputTokens:  m.outputTokens,
		EmergencyMode: m.emergency.Load(),
	}
}

// EmergencyMode reports whether the kill switch is set.
func (m *Monitor) EmergencyMode() bool {
	return m.emergency.Load()
}

// ClearEmergency explicitly resets the kill switch. Spend records are kept,
// so the next tracked call may trip it again immediately.
func (m *Monitor) ClearEmergency() {
	if m.emergency.CompareAndSwap(true, false) {
		m.logger.Warn("emergency mode cleared")
	}
}

// estimate converts token counts into USD for the given model.
func (m *Monitor) estimate(model string, inputTokens, outputTokens int64) float64 {
	p, ok := m.pricing[model]
	if !ok {
		p = fallbackPricing
	}
	const million = 1_000_000
	return float64(inputTokens)/million*p.InputUSD +
		float64(outputTokens)/million*p.OutputUSD
}

// prune drops records older than the daily window. Caller must hold mu.
func (m *Monitor) prune(now time.Time) {
	cutoff := now.Add(-24 * time.Hour)
	kept := m.records[:0]
	for _, r := range m.records {
		if r.at.After(cutoff) {
			kept = append(kept, r)
		}
	}
	m.records = kept
}

// totals sums spend over the rolling hour and day. Caller must hold mu.
func (m *Monitor) totals(now time.Time) (hourUSD, dayUSD float64) {
	hourCutoff := now.Add(-time.Hour)
	for _, r := range m.records {
		dayUSD += r.costUSD
		if r.at.After(hourCutoff) {
			hourUSD += r.costUSD
		}
	}
	return hourUSD, dayUSD
}
