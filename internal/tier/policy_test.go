package tier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexiday/lexiday-api/internal/domain"
)

func TestLimitsFor(t *testing.T) {
	tests := []struct {
		tier domain.Tier
		want Limits
	}{
		{domain.TierFree, Limits{
			MaxTerms:             5,
			MaxFacts:             3,
			MaxTokens:            2048,
			ResetPeriod:          24 * time.Hour,
			MaxRequestsPerPeriod: 3,
			Complexity:           ComplexityBasic,
		}},
		{domain.TierBasic, Limits{
			MaxTerms:             10,
			MaxFacts:             5,
			MaxTokens:            4096,
			ResetPeriod:          24 * time.Hour,
			MaxRequestsPerPeriod: 10,
			Complexity:           ComplexityStandard,
		}},
		{domain.TierPremium, Limits{
			MaxTerms:             20,
			MaxFacts:             10,
			MaxTokens:            8192,
			ResetPeriod:          time.Hour,
			MaxRequestsPerPeriod: 20,
			Complexity:           ComplexityAdvanced,
		}},
		{domain.TierEnterprise, Limits{
			MaxTerms:             50,
			MaxFacts:             25,
			MaxTokens:            16384,
			ResetPeriod:          time.Hour,
			MaxRequestsPerPeriod: 100,
			Complexity:           ComplexityAdvanced,
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			got, err := LimitsFor(tt.tier)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLimitsFor_UnknownTier(t *testing.T) {
	_, err := LimitsFor(domain.Tier("platinum"))
	assert.ErrorIs(t, err, domain.ErrInvalidTier)
}

func TestValidateTierLimits(t *testing.T) {
	tests := []struct {
		name             string
		tier             domain.Tier
		terms            int
		facts            int
		wantTerms        int
		wantFacts        int
		wantWithinLimits bool
	}{
		{
			name:             "within limits passes through",
			tier:             domain.TierBasic,
			terms:            7,
			facts:            4,
			wantTerms:        7,
			wantFacts:        4,
			wantWithinLimits: true,
		},
		{
			name:             "zero means tier default",
			tier:             domain.TierFree,
			terms:            0,
			facts:            0,
			wantTerms:        5,
			wantFacts:        3,
			wantWithinLimits: true,
		},
		{
			name:             "over-limit terms are clamped",
			tier:             domain.TierFree,
			terms:            20,
			facts:            2,
			wantTerms:        5,
			wantFacts:        2,
			wantWithinLimits: false,
		},
		{
			name:             "over-limit facts are clamped",
			tier:             domain.TierPremium,
			terms:            10,
			facts:            99,
			wantTerms:        10,
			wantFacts:        10,
			wantWithinLimits: false,
		},
		{
			name:             "negative counts are raised to the maximum",
			tier:             domain.TierEnterprise,
			terms:            -1,
			facts:            -1,
			wantTerms:        50,
			wantFacts:        25,
			wantWithinLimits: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateTierLimits(tt.tier, tt.terms, tt.facts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTerms, got.Terms)
			assert.Equal(t, tt.wantFacts, got.Facts)
			assert.Equal(t, tt.wantWithinLimits, got.WithinLimits)
		})
	}
}

func TestValidateTierLimits_UnknownTier(t *testing.T) {
	_, err := ValidateTierLimits(domain.Tier(""), 5, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidTier)
}
