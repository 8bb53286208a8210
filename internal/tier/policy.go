// Package tier maps subscription tiers to generation quotas. It is a pure
// lookup table with no state; callers must always use the clamped values it
// returns, never the raw request.
package tier

import (
	"time"

	"github.com/lexiday/lexiday-api/internal/domain"
)

// Complexity selects the language-model effort class for a tier.
type Complexity string

// Known complexity classes.
const (
	ComplexityBasic    Complexity = "basic"
	ComplexityStandard Complexity = "standard"
	ComplexityAdvanced Complexity = "advanced"
)

// Limits bounds what a single tier may request from the generation pipeline.
type Limits struct {
	MaxTerms             int
	MaxFacts             int
	MaxTokens            int
	ResetPeriod          time.Duration
	MaxRequestsPerPeriod int
	Complexity           Complexity
}

// limitsTable is the closed lookup table from tier to quotas. Every known
// tier has an entry; LimitsFor rejects anything else.
var limitsTable = map[domain.Tier]Limits{
	domain.TierFree: {
		MaxTerms:             5,
		MaxFacts:             3,
		MaxTokens:            2048,
		ResetPeriod:          24 * time.Hour,
		MaxRequestsPerPeriod: 3,
		Complexity:           ComplexityBasic,
	},
	domain.TierBasic: {
		MaxTerms:             10,
		MaxFacts:             5,
		MaxTokens:            4096,
		ResetPeriod:          24 * time.Hour,
		MaxRequestsPerPeriod: 10,
		Complexity:           ComplexityStandard,
	},
	domain.TierPremium: {
		MaxTerms:             20,
		MaxFacts:             10,
		MaxTokens:            8192,
		ResetPeriod:          time.Hour,
		MaxRequestsPerPeriod: 20,
		Complexity:           ComplexityAdvanced,
	},
	domain.TierEnterprise: {
		MaxTerms:             50,
		MaxFacts:             25,
		MaxTokens:            16384,
		ResetPeriod:          time.Hour,
		MaxRequestsPerPeriod: 100,
		Complexity:           ComplexityAdvanced,
	},
}

// LimitsFor returns the quota limits for the given tier.
// Returns domain.ErrInvalidTier for unknown tiers.
func LimitsFor(t domain.Tier) (Limits, error) {
	limits, ok := limitsTable[t]
	if !ok {
		return Limits{}, domain.ErrInvalidTier
	}
	return limits, nil
}

// Validation is the result of clamping a request against tier limits.
// Terms and Facts are the values the pipeline must actually honor.
type Validation struct {
	WithinLimits bool
	Terms        int
	Facts        int
}

// ValidateTierLimits clamps the requested counts to the tier's quotas.
// Non-positive requests are raised to the tier maximum, which is what the
// pipeline uses when the caller has no preference.
func ValidateTierLimits(t domain.Tier, requestedTerms, requestedFacts int) (Validation, error) {
	limits, err := LimitsFor(t)
	if err != nil {
		return Validation{}, err
	}

	v := Validation{
		WithinLimits: true,
		Terms:        requestedTerms,
		Facts:        requestedFacts,
	}

	if requestedTerms <= 0 || requestedTerms > limits.MaxTerms {
		v.Terms = limits.MaxTerms
		v.WithinLimits = v.WithinLimits && requestedTerms <= 0
	}

	if requestedFacts <= 0 || requestedFacts > limits.MaxFacts {
		v.Facts = limits.MaxFacts
		v.WithinLimits = v.WithinLimits && requestedFacts <= 0
	}

	return v, nil
}
