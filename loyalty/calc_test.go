package loyalty_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/meridian/loyalty-engine/loyalty"
)

// =============================================================================
// EARNED POINTS
// =============================================================================

func TestEarnedPoints_BronzeBaseline(t *testing.T) {
	// GIVEN: $100 order, bronze tier, rate 1, no event
	// THEN: exactly 100 points

	got := loyalty.EarnedPoints(decimal.NewFromInt(100), 1, loyalty.TierBronze, false, 1)
	assert.Equal(t, 100, got)
}

func TestEarnedPoints_TruncatesTwice(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		rate     float64
		tier     loyalty.Tier
		event    bool
		eventMul float64
		want     int
	}{
		// base = floor(amount * rate), total = floor(base * tierMul * eventMul)
		{"fractional amount truncates", "99.99", 1, loyalty.TierBronze, false, 1, 99},
		{"silver multiplier on truncated base", "99.99", 1, loyalty.TierSilver, false, 1, 123}, // floor(99*1.25)
		{"gold multiplier", "10.50", 1, loyalty.TierGold, false, 1, 15},                        // floor(10*1.5)
		{"platinum doubles", "7.25", 1, loyalty.TierPlatinum, false, 1, 14},
		{"event multiplier applies", "10", 1, loyalty.TierBronze, true, 2, 20},
		{"event multiplier ignored when inactive", "10", 1, loyalty.TierBronze, false, 2, 10},
		{"fractional rate truncates base", "10", 0.5, loyalty.TierBronze, false, 1, 5},
		{"compounded truncation", "9.99", 0.5, loyalty.TierSilver, false, 1, 5}, // floor(4*1.25)=5
		{"zero amount", "0", 1, loyalty.TierGold, true, 3, 0},
		{"negative amount earns nothing", "-25", 1, loyalty.TierBronze, false, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			got := loyalty.EarnedPoints(amount, tt.rate, tt.tier, tt.event, tt.eventMul)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// TIER LOOKUP
// =============================================================================

func TestTierForPoints_Thresholds(t *testing.T) {
	tests := []struct {
		points int
		want   loyalty.Tier
	}{
		{0, loyalty.TierBronze},
		{999, loyalty.TierBronze},
		{1000, loyalty.TierSilver},
		{4999, loyalty.TierSilver},
		{5000, loyalty.TierGold},
		{14999, loyalty.TierGold},
		{15000, loyalty.TierPlatinum},
		{1000000, loyalty.TierPlatinum},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, loyalty.TierForPoints(tt.points), "points=%d", tt.points)
	}
}

func TestTierForPoints_Monotonic(t *testing.T) {
	// Tier rank must never decrease as the point total grows.
	prev := loyalty.TierForPoints(0)
	for p := 1; p <= 20000; p += 7 {
		cur := loyalty.TierForPoints(p)
		assert.GreaterOrEqual(t, cur.Rank(), prev.Rank(), "points=%d", p)
		prev = cur
	}
}

func TestPointsToNext(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{0, 1000},
		{400, 600},
		{999, 1},
		{1000, 4000},
		{5000, 10000},
		{14999, 1},
		{15000, 0}, // top tier
		{99999, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, loyalty.PointsToNext(tt.points), "points=%d", tt.points)
	}
}
