package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meridian/loyalty-engine/api"
	"github.com/meridian/loyalty-engine/loyalty"
	"github.com/meridian/loyalty-engine/platform"
)

// =============================================================================
// STUB SERVICE
// =============================================================================

type stubLoyalty struct {
	account    loyalty.Account
	accountErr error
	earn       loyalty.EarnResult
	earnErr    error
	redeem     loyalty.RedeemResult
	redeemErr  error
	initErr    error

	gotToken      string
	gotAmount     decimal.Decimal
	gotRewardID   string
	gotCustomerID string
}

func (s *stubLoyalty) Account(_ context.Context, token string) (loyalty.Account, error) {
	s.gotToken = token
	return s.account, s.accountErr
}

func (s *stubLoyalty) RecordPurchase(_ context.Context, token string, amount decimal.Decimal, _ string) (loyalty.EarnResult, error) {
	s.gotToken = token
	s.gotAmount = amount
	return s.earn, s.earnErr
}

func (s *stubLoyalty) Redeem(_ context.Context, token, rewardID string) (loyalty.RedeemResult, error) {
	s.gotToken = token
	s.gotRewardID = rewardID
	return s.redeem, s.redeemErr
}

func (s *stubLoyalty) Initialize(_ context.Context, customerID string) (loyalty.Account, error) {
	s.gotCustomerID = customerID
	return s.account, s.initErr
}

func newTestRouter(s *stubLoyalty) http.Handler {
	h := api.NewHandler(s, "admin-token")
	return api.NewRouter(h, zap.NewNop(), api.RouterConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AdminToken:     "admin-token",
	})
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sampleAccount() loyalty.Account {
	return loyalty.Account{
		Points:           1200,
		Tier:             loyalty.TierSilver,
		PointsToNextTier: 3800,
		TotalSpent:       decimal.RequireFromString("482.50"),
		JoinedAt:         time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC),
		SignupPoints:     200,
		History: []loyalty.Entry{
			{ID: "e1", Type: loyalty.EntryEarned, Points: 150, Description: "Order #1001", Date: time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)},
		},
	}
}

// =============================================================================
// ACCOUNT
// =============================================================================

func TestGetAccount(t *testing.T) {
	stub := &stubLoyalty{account: sampleAccount()}
	router := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodGet, "/api/loyalty/account", "tok-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-1", stub.gotToken)

	var dto api.AccountDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, 1200, dto.Points)
	assert.Equal(t, "silver", dto.Tier)
	assert.Equal(t, "482.50", dto.TotalSpent)
	assert.Equal(t, "2025-11-20T08:00:00Z", dto.JoinedAt)
	require.Len(t, dto.History, 1)
	assert.Equal(t, "earned", dto.History[0].Type)
}

func TestGetAccount_MissingToken(t *testing.T) {
	router := newTestRouter(&stubLoyalty{})

	rec := doRequest(t, router, http.MethodGet, "/api/loyalty/account", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetAccount_UnknownCustomer(t *testing.T) {
	stub := &stubLoyalty{accountErr: platform.ErrCustomerNotFound}
	router := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodGet, "/api/loyalty/account", "expired", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetAccount_PlatformFailure(t *testing.T) {
	stub := &stubLoyalty{accountErr: &platform.RequestError{Status: 500, Message: "boom"}}
	router := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodGet, "/api/loyalty/account", "tok", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// =============================================================================
// STATIC TABLES
// =============================================================================

func TestGetTiersAndRewards_NoAuthRequired(t *testing.T) {
	router := newTestRouter(&stubLoyalty{})

	rec := doRequest(t, router, http.MethodGet, "/api/loyalty/tiers", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var tiers []api.TierDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tiers))
	require.Len(t, tiers, 4)
	assert.Equal(t, "bronze", tiers[0].Tier)
	assert.Equal(t, "platinum", tiers[3].Tier)
	assert.Equal(t, 15000, tiers[3].Required)

	rec = doRequest(t, router, http.MethodGet, "/api/loyalty/rewards", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rewards []api.RewardDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rewards))
	assert.NotEmpty(t, rewards)
}

// =============================================================================
// PURCHASES
// =============================================================================

func TestRecordPurchase(t *testing.T) {
	stub := &stubLoyalty{earn: loyalty.EarnResult{PointsEarned: 125, Account: sampleAccount()}}
	router := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPost, "/api/loyalty/purchases", "tok-1",
		api.PurchaseRequest{OrderAmount: "100.00", Description: "Order #1001"})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, stub.gotAmount.Equal(decimal.NewFromInt(100)))

	var resp api.PurchaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 125, resp.PointsEarned)
}

func TestRecordPurchase_InvalidAmount(t *testing.T) {
	router := newTestRouter(&stubLoyalty{})

	for _, amount := range []string{"", "abc", "-5"} {
		rec := doRequest(t, router, http.MethodPost, "/api/loyalty/purchases", "tok",
			api.PurchaseRequest{OrderAmount: amount})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "amount=%q", amount)
	}
}

// =============================================================================
// REDEEM
// =============================================================================

func TestRedeem(t *testing.T) {
	reward, _ := loyalty.RewardByID("discount-5")
	stub := &stubLoyalty{redeem: loyalty.RedeemResult{Points: 700, Reward: reward}}
	router := newTestRouter(stub)

	rec := doRequest(t, router, http.MethodPost, "/api/loyalty/redeem", "tok-1",
		api.RedeemRequest{RewardID: "discount-5"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "discount-5", stub.gotRewardID)

	var resp api.RedeemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 700, resp.Points)
	assert.Equal(t, "5.00", resp.Reward.Value)
}

func TestRedeem_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient points", &loyalty.InsufficientPointsError{Available: 100, Requested: 500}, http.StatusUnprocessableEntity},
		{"unknown reward", &loyalty.InvalidRewardError{RewardID: "nope"}, http.StatusNotFound},
		{"platform failure", &platform.RequestError{Status: 500, Message: "boom"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubLoyalty{redeemErr: tt.err})
			rec := doRequest(t, router, http.MethodPost, "/api/loyalty/redeem", "tok",
				api.RedeemRequest{RewardID: "discount-5"})
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRedeem_MissingRewardID(t *testing.T) {
	router := newTestRouter(&stubLoyalty{})

	rec := doRequest(t, router, http.MethodPost, "/api/loyalty/redeem", "tok", api.RedeemRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestInitializeAccount_RequiresAdminToken(t *testing.T) {
	stub := &stubLoyalty{account: sampleAccount()}
	router := newTestRouter(stub)

	// Without token: rejected before reaching the handler.
	rec := doRequest(t, router, http.MethodPost, "/api/admin/loyalty/accounts", "",
		api.InitializeRequest{CustomerID: "cust-1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, stub.gotCustomerID)

	// With token: accepted.
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(api.InitializeRequest{CustomerID: "cust-1"}))
	req := httptest.NewRequest(http.MethodPost, "/api/admin/loyalty/accounts", &buf)
	req.Header.Set("X-Admin-Token", "admin-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "cust-1", stub.gotCustomerID)
}
