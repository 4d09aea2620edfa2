/*
Package loyalty implements the customer loyalty ledger.

PURPOSE:
  Tracks a customer's point balance, tier, and transaction history. State
  lives entirely in the commerce platform's customer metafields; this
  package owns the read/compute/write cycle around that external store.

KEY CONCEPTS:
  - Account: the in-memory view of one customer's loyalty state
  - Entry: one immutable history record (points earned or redeemed)
  - Tier: a named level (bronze < silver < gold < platinum) granting an
    earn multiplier and display perks
  - Update: a partial set of fields to write back to the platform

INVARIANTS:
  1. Points never go below zero: redemptions are validated before any
     write is issued, and mutations for one customer are serialized
     in-process (see service.go).
  2. History is append-only, newest first. Entries are never edited.
  3. Tier always matches the tier implied by the point balance after a
     mutation settles, except that a tier is never taken away.

SEE ALSO:
  - tiers.go: tier policy table and reward catalog
  - calc.go: pure point/tier arithmetic
  - codec.go: metafield serialization
  - service.go: earn, redeem, and initialization flows
*/
package loyalty

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIERS
// =============================================================================

// Tier is a loyalty level. Tiers form a strict total order; Rank reflects it.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// tierOrder lists tiers from lowest to highest.
var tierOrder = []Tier{TierBronze, TierSilver, TierGold, TierPlatinum}

// Rank returns the tier's position in the total order (bronze = 0).
// Unknown tiers rank below bronze so a corrupted stored value can only
// be corrected upward.
func (t Tier) Rank() int {
	for i, o := range tierOrder {
		if o == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t names a known tier.
func (t Tier) Valid() bool { return t.Rank() >= 0 }

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

// EntryType distinguishes the two ledger entry kinds. The sign of a
// transaction is carried by the type; Entry.Points is always a magnitude.
type EntryType string

const (
	EntryEarned   EntryType = "earned"
	EntryRedeemed EntryType = "redeemed"
)

// Entry is one immutable history record. The JSON shape is the stored
// representation inside the loyalty_history metafield.
type Entry struct {
	ID          string    `json:"id"`
	Type        EntryType `json:"type"`
	Points      int       `json:"points"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// =============================================================================
// ACCOUNT
// =============================================================================

// Account is the fully-populated view of one customer's loyalty state.
// A read never produces a partial Account: missing metafields are
// replaced with defaults (see codec.go).
type Account struct {
	// Points is the current redeemable balance. Tier derives from this
	// value, not from lifetime earnings, so redeeming can stall progress
	// toward the next tier.
	Points int

	// Tier is the persisted tier, reconciled after every mutation.
	Tier Tier

	// PointsToNextTier is a cached display value: distance to the lowest
	// threshold strictly above Points, 0 at the top tier.
	PointsToNextTier int

	// TotalSpent is the lifetime purchase total. Display only; tier
	// computation never reads it.
	TotalSpent decimal.Decimal

	// JoinedAt is set once at account creation and never mutated.
	JoinedAt time.Time

	// SignupPoints is the bonus granted at account creation.
	SignupPoints int

	// History holds ledger entries newest first.
	History []Entry
}

// Update is a partial write set. Nil fields are left untouched on the
// platform; each non-nil field becomes one metafield input.
type Update struct {
	Points           *int
	Tier             *Tier
	PointsToNextTier *int
	TotalSpent       *decimal.Decimal
	JoinedAt         *time.Time
	SignupPoints     *int
	History          *[]Entry
}
