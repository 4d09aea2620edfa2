/*
codec.go - Metafield serialization for loyalty accounts

PURPOSE:
  Converts between the platform's typed metafield representation and the
  in-memory Account/Update types.

DEFAULTS:
  A read always yields a fully-populated Account. Missing fields get:
    points = 0, tier = bronze, pointsToNextTier = next threshold,
    totalSpent = 0, joinedAt = now, signupPoints = 0, history = [].

MALFORMED HISTORY:
  A loyalty_history value that fails JSON parsing is replaced with an
  empty history rather than failing the read. Stored balances must stay
  reachable even if one field is corrupted, but the recovery is logged
  as a warning so corruption is observable instead of silent.
*/
package loyalty

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meridian/loyalty-engine/platform"
)

// decodeAccount builds an Account from a metafield read, applying
// defaults for anything missing or unparseable.
func decodeAccount(set platform.MetafieldSet, now time.Time, log *zap.Logger) Account {
	acct := Account{
		Tier:       TierBronze,
		TotalSpent: decimal.Zero,
		JoinedAt:   now,
		History:    []Entry{},
	}

	if raw, ok := set.Value(platform.KeyPoints); ok {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			acct.Points = v
		}
	}
	if raw, ok := set.Value(platform.KeyTier); ok {
		if t := Tier(raw); t.Valid() {
			acct.Tier = t
		}
	}
	if raw, ok := set.Value(platform.KeyTotalSpent); ok {
		if v, err := decimal.NewFromString(raw); err == nil {
			acct.TotalSpent = v
		}
	}
	if raw, ok := set.Value(platform.KeyJoinedAt); ok {
		if v, err := time.Parse(time.RFC3339, raw); err == nil {
			acct.JoinedAt = v
		}
	}
	if raw, ok := set.Value(platform.KeySignupPoints); ok {
		if v, err := strconv.Atoi(raw); err == nil {
			acct.SignupPoints = v
		}
	}
	if raw, ok := set.Value(platform.KeyHistory); ok && raw != "" {
		var history []Entry
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			log.Warn("malformed loyalty history, resetting to empty",
				zap.String("customer_id", set.CustomerID),
				zap.Error(err),
			)
		} else {
			acct.History = history
		}
	}

	// The cached distance is recomputed from the balance rather than
	// trusted from storage, so a stale stored value self-heals on read.
	acct.PointsToNextTier = PointsToNext(acct.Points)

	return acct
}

// encodeUpdate serializes the non-nil fields of an Update into metafield
// inputs. The platform leaves absent fields untouched.
func encodeUpdate(u Update) []platform.MetafieldInput {
	var inputs []platform.MetafieldInput

	add := func(key, value, typ string) {
		inputs = append(inputs, platform.MetafieldInput{
			Namespace: platform.Namespace,
			Key:       key,
			Value:     value,
			Type:      typ,
		})
	}

	if u.Points != nil {
		add(platform.KeyPoints, strconv.Itoa(*u.Points), platform.TypeInteger)
	}
	if u.Tier != nil {
		add(platform.KeyTier, string(*u.Tier), platform.TypeText)
	}
	if u.PointsToNextTier != nil {
		add(platform.KeyPointsToNext, strconv.Itoa(*u.PointsToNextTier), platform.TypeInteger)
	}
	if u.TotalSpent != nil {
		add(platform.KeyTotalSpent, u.TotalSpent.String(), platform.TypeDecimal)
	}
	if u.JoinedAt != nil {
		add(platform.KeyJoinedAt, u.JoinedAt.UTC().Format(time.RFC3339), platform.TypeDateTime)
	}
	if u.SignupPoints != nil {
		add(platform.KeySignupPoints, strconv.Itoa(*u.SignupPoints), platform.TypeInteger)
	}
	if u.History != nil {
		raw, err := json.Marshal(*u.History)
		if err != nil {
			// Entries contain only plain fields; this cannot fail in
			// practice, but an empty list is the safe fallback.
			raw = []byte("[]")
		}
		add(platform.KeyHistory, string(raw), platform.TypeJSON)
	}

	return inputs
}
