/*
calc.go - Pure point and tier arithmetic

PURPOSE:
  Side-effect-free calculations used by the earn and tier-transition
  flows. Everything here is deterministic for a given input; no clock,
  no platform access.

TRUNCATION:
  EarnedPoints truncates twice: once when converting the order amount to
  base points, and again after applying the multipliers. The compounded
  rounding loss is intentional and must not be "fixed" to a single
  rounding step - stored balances were produced with this exact rule.
*/
package loyalty

import "github.com/shopspring/decimal"

// EarnedPoints computes the points granted for a purchase.
//
//	base  = floor(orderAmount * perDollarRate)
//	total = floor(base * tierMultiplier * eventMultiplier)
//
// The event multiplier only applies while specialEvent is set. Negative
// order amounts earn nothing.
func EarnedPoints(orderAmount decimal.Decimal, perDollarRate float64, tier Tier, specialEvent bool, eventMultiplier float64) int {
	if orderAmount.IsNegative() {
		return 0
	}

	base := orderAmount.Mul(decimal.NewFromFloat(perDollarRate)).Floor()

	total := base.Mul(decimal.NewFromFloat(TierSpec(tier).Multiplier))
	if specialEvent {
		total = total.Mul(decimal.NewFromFloat(eventMultiplier))
	}
	return int(total.Floor().IntPart())
}

// TierForPoints returns the highest tier whose threshold is <= points.
// Monotonic: a larger point total never yields a lower tier.
func TierForPoints(points int) Tier {
	current := TierBronze
	for _, t := range tierOrder {
		if TierSpec(t).Required <= points {
			current = t
		}
	}
	return current
}

// PointsToNext returns the distance to the lowest threshold strictly
// greater than points, or 0 when points is at or beyond the top tier.
func PointsToNext(points int) int {
	for _, t := range tierOrder {
		if required := TierSpec(t).Required; required > points {
			return required - points
		}
	}
	return 0
}
