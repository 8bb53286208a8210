package domain

import "fmt"

// Tier represents a user's subscription level. It is a closed enumeration:
// every switch over Tier values in this codebase handles all four variants
// plus a default that rejects unknown strings.
type Tier string

// Known subscription tiers, from least to most generous.
const (
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// ParseTier converts a raw string into a Tier, rejecting unknown values.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierFree, TierBasic, TierPremium, TierEnterprise:
		return Tier(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, s)
	}
}

// Valid reports whether the tier is one of the known values.
func (t Tier) Valid() bool {
	_, err := ParseTier(string(t))
	return err == nil
}
