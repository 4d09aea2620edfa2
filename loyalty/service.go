/*
service.go - Earn, redeem, and initialization flows

PURPOSE:
  Orchestrates the loyalty ledger: read the account from the platform,
  compute the change, write it back, then reconcile the tier. This is
  the only place that mutates loyalty state.

CONTROL FLOW:
  RecordPurchase: read -> EarnedPoints -> write {points, total_spent,
  history} -> tier transition.
  Redeem: read -> validate reward + balance -> write {points, history}
  -> tier transition.
  The tier transition is always the last step of a points-affecting flow
  so the persisted tier tracks the balance as closely as the non-atomic
  write model allows.

CONCURRENCY:
  The platform offers no conditional writes, so a bare read-modify-write
  races against concurrent mutations of the same customer. Mutations are
  serialized per customer through a keyed lock held for the whole
  read-compute-write cycle. This protects a single process; the platform
  remains last-write-wins across processes.

TIER TRANSITIONS:
  Tiers are never demoted. If the recomputed tier is above the stored
  one, a zero-point "earned" entry records the upgrade and the new tier
  is written together with the refreshed points_to_next_tier. Otherwise
  only the cached distance is refreshed. A failed write at any step
  propagates to the caller; there is no retry or compensation, so the
  caller sees an error whenever the stored state may be behind.
*/
package loyalty

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meridian/loyalty-engine/platform"
)

// Platform is the subset of the platform client the service needs.
type Platform interface {
	GetCustomerMetafields(ctx context.Context, token string) (platform.MetafieldSet, error)
	SetCustomerMetafields(ctx context.Context, token string, inputs []platform.MetafieldInput) error
	InitCustomerMetafields(ctx context.Context, customerID string, inputs []platform.MetafieldInput) error
}

// Program holds the tunable earn parameters of the loyalty program.
type Program struct {
	// PointsPerDollar is the base earn rate before tier multipliers.
	PointsPerDollar float64

	// SignupBonus is granted once at account initialization.
	SignupBonus int

	// SpecialEvent applies EventMultiplier to all purchases while set
	// (e.g. a double-points weekend).
	SpecialEvent    bool
	EventMultiplier float64
}

// DefaultProgram is the standard program configuration.
var DefaultProgram = Program{
	PointsPerDollar: 1,
	SignupBonus:     200,
	EventMultiplier: 2,
}

// Service owns all loyalty state mutations.
type Service struct {
	platform Platform
	program  Program
	log      *zap.Logger

	// now is swappable for tests.
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a loyalty service on top of a platform client.
func NewService(p Platform, program Program, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		platform: p,
		program:  program,
		log:      log,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutation lock for one customer. Locks are keyed by
// access token: every token resolves to exactly one customer, so this
// serializes read-modify-write cycles per customer within the process.
func (s *Service) lockFor(token string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[token]
	if !ok {
		l = &sync.Mutex{}
		s.locks[token] = l
	}
	return l
}

// EarnResult reports the outcome of a purchase-completion event.
type EarnResult struct {
	PointsEarned int
	Account      Account
}

// RedeemResult reports the outcome of a successful redemption.
type RedeemResult struct {
	Points int
	Reward Reward
}

// Account fetches and decodes the customer's loyalty state. Missing
// fields default; malformed history decodes to empty (logged).
func (s *Service) Account(ctx context.Context, token string) (Account, error) {
	set, err := s.platform.GetCustomerMetafields(ctx, token)
	if err != nil {
		return Account{}, err
	}
	return decodeAccount(set, s.now(), s.log), nil
}

// RecordPurchase applies a completed order to the ledger: the balance
// grows by the earned points, the lifetime total grows by the order
// amount, and one earned entry is prepended to history.
func (s *Service) RecordPurchase(ctx context.Context, token string, orderAmount decimal.Decimal, description string) (EarnResult, error) {
	lock := s.lockFor(token)
	lock.Lock()
	defer lock.Unlock()

	acct, err := s.Account(ctx, token)
	if err != nil {
		return EarnResult{}, err
	}

	earned := EarnedPoints(orderAmount, s.program.PointsPerDollar, acct.Tier, s.program.SpecialEvent, s.program.EventMultiplier)

	newPoints := acct.Points + earned
	newTotal := acct.TotalSpent.Add(orderAmount)
	if description == "" {
		description = fmt.Sprintf("Purchase of $%s", orderAmount.StringFixed(2))
	}
	history := prepend(acct.History, s.newEntry(EntryEarned, earned, description))

	if err := s.write(ctx, token, Update{
		Points:     &newPoints,
		TotalSpent: &newTotal,
		History:    &history,
	}); err != nil {
		return EarnResult{}, err
	}

	history, tier, err := s.transition(ctx, token, acct.Tier, newPoints, history)
	if err != nil {
		return EarnResult{}, err
	}

	acct.Points = newPoints
	acct.TotalSpent = newTotal
	acct.Tier = tier
	acct.PointsToNextTier = PointsToNext(newPoints)
	acct.History = history

	s.log.Info("purchase recorded",
		zap.String("order_amount", orderAmount.String()),
		zap.Int("points_earned", earned),
		zap.Int("balance", newPoints),
	)

	return EarnResult{PointsEarned: earned, Account: acct}, nil
}

// Redeem exchanges points for a catalog reward. Validation happens
// before any write: an unknown reward or a short balance leaves the
// stored state untouched.
func (s *Service) Redeem(ctx context.Context, token string, rewardID string) (RedeemResult, error) {
	reward, ok := RewardByID(rewardID)
	if !ok {
		return RedeemResult{}, &InvalidRewardError{RewardID: rewardID}
	}

	lock := s.lockFor(token)
	lock.Lock()
	defer lock.Unlock()

	acct, err := s.Account(ctx, token)
	if err != nil {
		return RedeemResult{}, err
	}

	if acct.Points < reward.Points {
		return RedeemResult{}, &InsufficientPointsError{Available: acct.Points, Requested: reward.Points}
	}

	newPoints := acct.Points - reward.Points
	history := prepend(acct.History, s.newEntry(EntryRedeemed, reward.Points, reward.Description))

	if err := s.write(ctx, token, Update{
		Points:  &newPoints,
		History: &history,
	}); err != nil {
		return RedeemResult{}, err
	}

	if _, _, err := s.transition(ctx, token, acct.Tier, newPoints, history); err != nil {
		return RedeemResult{}, err
	}

	s.log.Info("reward redeemed",
		zap.String("reward_id", reward.ID),
		zap.Int("points_cost", reward.Points),
		zap.Int("balance", newPoints),
	)

	return RedeemResult{Points: newPoints, Reward: reward}, nil
}

// Initialize seeds a new customer's loyalty metafields with the signup
// bonus and a single earned history entry. Requires the admin credential
// carried by the platform client.
func (s *Service) Initialize(ctx context.Context, customerID string) (Account, error) {
	now := s.now()
	bonus := s.program.SignupBonus

	acct := Account{
		Points:           bonus,
		Tier:             TierBronze,
		PointsToNextTier: PointsToNext(bonus),
		TotalSpent:       decimal.Zero,
		JoinedAt:         now,
		SignupPoints:     bonus,
		History: []Entry{
			s.newEntry(EntryEarned, bonus, "Welcome signup bonus"),
		},
	}

	inputs := encodeUpdate(Update{
		Points:           &acct.Points,
		Tier:             &acct.Tier,
		PointsToNextTier: &acct.PointsToNextTier,
		TotalSpent:       &acct.TotalSpent,
		JoinedAt:         &acct.JoinedAt,
		SignupPoints:     &acct.SignupPoints,
		History:          &acct.History,
	})
	if err := s.platform.InitCustomerMetafields(ctx, customerID, inputs); err != nil {
		return Account{}, err
	}

	s.log.Info("loyalty account initialized",
		zap.String("customer_id", customerID),
		zap.Int("signup_bonus", bonus),
	)

	return acct, nil
}

// transition reconciles the persisted tier with the balance after a
// mutation. Returns the (possibly extended) history and effective tier.
// A failed write propagates, with history and tier as stored: the
// caller must not report an upgrade that was never persisted.
func (s *Service) transition(ctx context.Context, token string, stored Tier, points int, history []Entry) ([]Entry, Tier, error) {
	computed := TierForPoints(points)
	next := PointsToNext(points)

	if computed.Rank() > stored.Rank() {
		upgraded := prepend(history, s.newEntry(EntryEarned, 0, fmt.Sprintf("Upgraded to %s tier!", computed)))
		if err := s.write(ctx, token, Update{
			Tier:             &computed,
			PointsToNextTier: &next,
			History:          &upgraded,
		}); err != nil {
			return history, stored, err
		}
		s.log.Info("tier upgraded",
			zap.String("from", string(stored)),
			zap.String("to", string(computed)),
			zap.Strings("new_benefits", BenefitsDelta(stored, computed)),
		)
		return upgraded, computed, nil
	}

	// No upgrade: only the cached distance needs refreshing.
	if err := s.write(ctx, token, Update{PointsToNextTier: &next}); err != nil {
		return history, stored, err
	}
	return history, stored, nil
}

func (s *Service) write(ctx context.Context, token string, u Update) error {
	return s.platform.SetCustomerMetafields(ctx, token, encodeUpdate(u))
}

func (s *Service) newEntry(typ EntryType, points int, description string) Entry {
	return Entry{
		ID:          uuid.NewString(),
		Type:        typ,
		Points:      points,
		Description: description,
		Date:        s.now().UTC(),
	}
}

func prepend(history []Entry, e Entry) []Entry {
	out := make([]Entry, 0, len(history)+1)
	out = append(out, e)
	return append(out, history...)
}
