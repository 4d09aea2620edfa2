/*
tiers.go - Tier policy table and reward catalog

PURPOSE:
  Static configuration for the loyalty program: point thresholds per
  tier, per-tier earn multipliers, display benefits, and the catalog of
  redeemable rewards. Loaded once at init, immutable afterwards.

  Thresholds are strictly increasing by construction, so tier lookup by
  point total never ties.
*/
package loyalty

import "github.com/shopspring/decimal"

// TierConfig is the static policy for one tier.
type TierConfig struct {
	// Required is the point threshold at which the tier is reached.
	Required int

	// Multiplier is applied to the base earn rate for purchases made
	// while holding this tier.
	Multiplier float64

	// Benefits are display strings shown to the customer.
	Benefits []string
}

var tierTable = map[Tier]TierConfig{
	TierBronze: {
		Required:   0,
		Multiplier: 1.0,
		Benefits: []string{
			"Earn 1 point per $1 spent",
			"Birthday reward",
		},
	},
	TierSilver: {
		Required:   1000,
		Multiplier: 1.25,
		Benefits: []string{
			"Earn 1.25 points per $1 spent",
			"Birthday reward",
			"Free shipping on orders over $50",
		},
	},
	TierGold: {
		Required:   5000,
		Multiplier: 1.5,
		Benefits: []string{
			"Earn 1.5 points per $1 spent",
			"Birthday reward",
			"Free shipping on all orders",
			"Early access to new arrivals",
		},
	},
	TierPlatinum: {
		Required:   15000,
		Multiplier: 2.0,
		Benefits: []string{
			"Earn 2 points per $1 spent",
			"Birthday reward",
			"Free shipping on all orders",
			"Early access to new arrivals",
			"Dedicated support line",
			"Annual thank-you gift",
		},
	},
}

// TierSpec returns the policy for a tier. Unknown tiers fall back to bronze.
func TierSpec(t Tier) TierConfig {
	if c, ok := tierTable[t]; ok {
		return c
	}
	return tierTable[TierBronze]
}

// Tiers returns all tiers from lowest to highest.
func Tiers() []Tier {
	out := make([]Tier, len(tierOrder))
	copy(out, tierOrder)
	return out
}

// BenefitsDelta returns the benefits present in newTier but absent from
// oldTier. Used for upgrade notification copy only.
func BenefitsDelta(oldTier, newTier Tier) []string {
	old := make(map[string]bool)
	for _, b := range TierSpec(oldTier).Benefits {
		old[b] = true
	}
	var delta []string
	for _, b := range TierSpec(newTier).Benefits {
		if !old[b] {
			delta = append(delta, b)
		}
	}
	return delta
}

// =============================================================================
// REWARD CATALOG
// =============================================================================

// Reward is one redeemable catalog item. Value is the monetary value of
// the reward, zero for non-monetary perks.
type Reward struct {
	ID          string
	Points      int
	Value       decimal.Decimal
	Description string
}

var rewardCatalog = []Reward{
	{ID: "discount-5", Points: 500, Value: decimal.NewFromInt(5), Description: "$5 off your next purchase"},
	{ID: "discount-10", Points: 950, Value: decimal.NewFromInt(10), Description: "$10 off your next purchase"},
	{ID: "discount-25", Points: 2250, Value: decimal.NewFromInt(25), Description: "$25 off your next purchase"},
	{ID: "free-shipping", Points: 300, Value: decimal.Zero, Description: "Free shipping on your next order"},
	{ID: "early-access", Points: 750, Value: decimal.Zero, Description: "Early access to the next product drop"},
}

// Rewards returns the full reward catalog.
func Rewards() []Reward {
	out := make([]Reward, len(rewardCatalog))
	copy(out, rewardCatalog)
	return out
}

// RewardByID looks up a catalog reward.
func RewardByID(id string) (Reward, bool) {
	for _, r := range rewardCatalog {
		if r.ID == id {
			return r, true
		}
	}
	return Reward{}, false
}
