/*
handlers.go - HTTP handlers for the loyalty API

PURPOSE:
  Exposes the loyalty ledger to the storefront. Handlers parse the HTTP
  request, delegate to the loyalty service, and map domain errors onto
  HTTP status codes. No loyalty logic lives here.

ENDPOINTS:
  GET  /api/loyalty/account          Current account state
  GET  /api/loyalty/history          Ledger entries, newest first
  GET  /api/loyalty/tiers            Tier policy table
  GET  /api/loyalty/rewards          Reward catalog
  POST /api/loyalty/purchases        Order-completion hook (earn flow)
  POST /api/loyalty/redeem           Redeem a catalog reward
  POST /api/admin/loyalty/accounts   Initialize a new account (admin)

AUTHENTICATION:
  Customer endpoints take the customer's platform access token as a
  bearer token and forward it opaquely; this service never mints or
  inspects tokens. The admin endpoint requires the configured admin
  token in X-Admin-Token.

ERROR MAPPING:
  400: malformed body / invalid amount
  401: missing token, or the platform resolves no customer for it
  404: unknown reward id
  422: insufficient points
  502: platform read/write failure
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/meridian/loyalty-engine/loyalty"
)

// LoyaltyService is what handlers need from the loyalty package.
type LoyaltyService interface {
	Account(ctx context.Context, token string) (loyalty.Account, error)
	RecordPurchase(ctx context.Context, token string, orderAmount decimal.Decimal, description string) (loyalty.EarnResult, error)
	Redeem(ctx context.Context, token string, rewardID string) (loyalty.RedeemResult, error)
	Initialize(ctx context.Context, customerID string) (loyalty.Account, error)
}

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	Loyalty LoyaltyService

	// AdminToken guards the initialization endpoint. Empty disables it.
	AdminToken string
}

// NewHandler creates a handler around the loyalty service.
func NewHandler(svc LoyaltyService, adminToken string) *Handler {
	return &Handler{Loyalty: svc, AdminToken: adminToken}
}

// =============================================================================
// CUSTOMER HANDLERS
// =============================================================================

// GetAccount returns the caller's loyalty account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing access token", nil)
		return
	}

	acct, err := h.Loyalty.Account(r.Context(), token)
	if err != nil {
		writeDomainError(w, "Failed to load account", err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountDTO(acct))
}

// GetHistory returns the caller's ledger entries, newest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing access token", nil)
		return
	}

	acct, err := h.Loyalty.Account(r.Context(), token)
	if err != nil {
		writeDomainError(w, "Failed to load history", err)
		return
	}

	history := make([]EntryDTO, len(acct.History))
	for i, e := range acct.History {
		history[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, history)
}

// GetTiers returns the tier policy table.
func (h *Handler) GetTiers(w http.ResponseWriter, r *http.Request) {
	tiers := loyalty.Tiers()
	dtos := make([]TierDTO, len(tiers))
	for i, t := range tiers {
		spec := loyalty.TierSpec(t)
		dtos[i] = TierDTO{
			Tier:       string(t),
			Required:   spec.Required,
			Multiplier: spec.Multiplier,
			Benefits:   spec.Benefits,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRewards returns the reward catalog.
func (h *Handler) GetRewards(w http.ResponseWriter, r *http.Request) {
	rewards := loyalty.Rewards()
	dtos := make([]RewardDTO, len(rewards))
	for i, rw := range rewards {
		dtos[i] = toRewardDTO(rw)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordPurchase applies a completed order to the caller's ledger.
func (h *Handler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing access token", nil)
		return
	}

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.OrderAmount)
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "order_amount must be a non-negative decimal string", err)
		return
	}

	result, err := h.Loyalty.RecordPurchase(r.Context(), token, amount, req.Description)
	if err != nil {
		writeDomainError(w, "Failed to record purchase", err)
		return
	}

	writeJSON(w, http.StatusOK, PurchaseResponse{
		PointsEarned: result.PointsEarned,
		Account:      toAccountDTO(result.Account),
	})
}

// Redeem exchanges the caller's points for a catalog reward.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing access token", nil)
		return
	}

	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.RewardID == "" {
		writeError(w, http.StatusBadRequest, "reward_id is required", nil)
		return
	}

	result, err := h.Loyalty.Redeem(r.Context(), token, req.RewardID)
	if err != nil {
		writeDomainError(w, "Failed to redeem reward", err)
		return
	}

	writeJSON(w, http.StatusOK, RedeemResponse{
		Points: result.Points,
		Reward: toRewardDTO(result.Reward),
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// InitializeAccount seeds a loyalty account for a newly registered
// customer. Guarded by the admin token middleware.
func (h *Handler) InitializeAccount(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, "customer_id is required", nil)
		return
	}

	acct, err := h.Loyalty.Initialize(r.Context(), req.CustomerID)
	if err != nil {
		writeDomainError(w, "Failed to initialize account", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountDTO(acct))
}

// =============================================================================
// HELPERS
// =============================================================================

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case loyalty.IsNotFound(err):
		writeError(w, http.StatusUnauthorized, "Unknown customer", err)
	case errors.Is(err, loyalty.ErrInvalidReward):
		writeError(w, http.StatusNotFound, "Reward not found", err)
	case errors.Is(err, loyalty.ErrInsufficientPoints):
		writeError(w, http.StatusUnprocessableEntity, "Insufficient points", err)
	default:
		writeError(w, http.StatusBadGateway, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
