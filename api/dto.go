/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the storefront-facing API. These decouple the
  domain types from the wire contract: monetary values cross the wire as
  strings so clients never round them, timestamps are RFC3339.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients
*/
package api

import (
	"time"

	"github.com/meridian/loyalty-engine/loyalty"
)

// AccountDTO is the customer's loyalty state in API responses.
type AccountDTO struct {
	Points           int        `json:"points"`
	Tier             string     `json:"tier"`
	PointsToNextTier int        `json:"points_to_next_tier"`
	TotalSpent       string     `json:"total_spent"`
	JoinedAt         string     `json:"joined_at"`
	SignupPoints     int        `json:"signup_points"`
	History          []EntryDTO `json:"history"`
}

// EntryDTO is one history record.
type EntryDTO struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Points      int    `json:"points"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// TierDTO describes one tier of the policy table.
type TierDTO struct {
	Tier       string   `json:"tier"`
	Required   int      `json:"required"`
	Multiplier float64  `json:"multiplier"`
	Benefits   []string `json:"benefits"`
}

// RewardDTO is one catalog reward.
type RewardDTO struct {
	ID          string `json:"id"`
	Points      int    `json:"points"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// PurchaseRequest reports a completed order.
type PurchaseRequest struct {
	OrderAmount string `json:"order_amount"`
	Description string `json:"description,omitempty"`
}

// PurchaseResponse reports the points granted for an order.
type PurchaseResponse struct {
	PointsEarned int        `json:"points_earned"`
	Account      AccountDTO `json:"account"`
}

// RedeemRequest asks to exchange points for a reward.
type RedeemRequest struct {
	RewardID string `json:"reward_id"`
}

// RedeemResponse reports a successful redemption.
type RedeemResponse struct {
	Points int       `json:"points"`
	Reward RewardDTO `json:"reward"`
}

// InitializeRequest seeds a loyalty account for a new customer.
type InitializeRequest struct {
	CustomerID string `json:"customer_id"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toAccountDTO(a loyalty.Account) AccountDTO {
	history := make([]EntryDTO, len(a.History))
	for i, e := range a.History {
		history[i] = toEntryDTO(e)
	}
	return AccountDTO{
		Points:           a.Points,
		Tier:             string(a.Tier),
		PointsToNextTier: a.PointsToNextTier,
		TotalSpent:       a.TotalSpent.StringFixed(2),
		JoinedAt:         a.JoinedAt.UTC().Format(time.RFC3339),
		SignupPoints:     a.SignupPoints,
		History:          history,
	}
}

func toEntryDTO(e loyalty.Entry) EntryDTO {
	return EntryDTO{
		ID:          e.ID,
		Type:        string(e.Type),
		Points:      e.Points,
		Description: e.Description,
		Date:        e.Date.UTC().Format(time.RFC3339),
	}
}

func toRewardDTO(r loyalty.Reward) RewardDTO {
	return RewardDTO{
		ID:          r.ID,
		Points:      r.Points,
		Value:       r.Value.StringFixed(2),
		Description: r.Description,
	}
}
