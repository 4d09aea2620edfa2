package loyalty

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/meridian/loyalty-engine/platform"
)

func fieldSet(fields map[string]string) platform.MetafieldSet {
	set := platform.MetafieldSet{CustomerID: "cust-1", Fields: map[string]platform.Metafield{}}
	for k, v := range fields {
		set.Fields[k] = platform.Metafield{Key: k, Value: v}
	}
	return set
}

// =============================================================================
// DECODE
// =============================================================================

func TestDecodeAccount_EmptySetGetsDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	acct := decodeAccount(fieldSet(nil), now, zap.NewNop())

	assert.Equal(t, 0, acct.Points)
	assert.Equal(t, TierBronze, acct.Tier)
	assert.Equal(t, 1000, acct.PointsToNextTier)
	assert.True(t, acct.TotalSpent.IsZero())
	assert.Equal(t, now, acct.JoinedAt)
	assert.Equal(t, []Entry{}, acct.History)
}

func TestDecodeAccount_PopulatedFields(t *testing.T) {
	history := []Entry{{
		ID:          "e1",
		Type:        EntryEarned,
		Points:      150,
		Description: "Purchase of $150.00",
		Date:        time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC),
	}}
	raw, err := json.Marshal(history)
	require.NoError(t, err)

	acct := decodeAccount(fieldSet(map[string]string{
		platform.KeyPoints:       "1350",
		platform.KeyTier:         "silver",
		platform.KeyTotalSpent:   "482.50",
		platform.KeyJoinedAt:     "2025-11-20T08:00:00Z",
		platform.KeySignupPoints: "200",
		platform.KeyHistory:      string(raw),
	}), time.Now(), zap.NewNop())

	assert.Equal(t, 1350, acct.Points)
	assert.Equal(t, TierSilver, acct.Tier)
	assert.Equal(t, 5000-1350, acct.PointsToNextTier)
	assert.True(t, acct.TotalSpent.Equal(decimal.RequireFromString("482.50")))
	assert.Equal(t, 200, acct.SignupPoints)
	require.Len(t, acct.History, 1)
	assert.Equal(t, history[0], acct.History[0])
}

func TestDecodeAccount_MalformedHistoryRecoversEmpty(t *testing.T) {
	// A corrupted history field must never fail the read; it decodes to
	// an empty history and the recovery is observable in the log.
	core, logs := observer.New(zap.WarnLevel)

	acct := decodeAccount(fieldSet(map[string]string{
		platform.KeyPoints:  "400",
		platform.KeyHistory: `{"not":"a list"`,
	}), time.Now(), zap.New(core))

	assert.Equal(t, 400, acct.Points)
	assert.Equal(t, []Entry{}, acct.History)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Contains(t, entry.Message, "malformed loyalty history")
	assert.Equal(t, "cust-1", entry.ContextMap()["customer_id"])
}

func TestDecodeAccount_IgnoresGarbageScalars(t *testing.T) {
	acct := decodeAccount(fieldSet(map[string]string{
		platform.KeyPoints:     "minus five",
		platform.KeyTier:       "diamond",
		platform.KeyTotalSpent: "lots",
		platform.KeyJoinedAt:   "yesterday",
	}), time.Now(), zap.NewNop())

	assert.Equal(t, 0, acct.Points)
	assert.Equal(t, TierBronze, acct.Tier)
	assert.True(t, acct.TotalSpent.IsZero())
}

// =============================================================================
// ENCODE
// =============================================================================

func TestEncodeUpdate_OnlyProvidedFields(t *testing.T) {
	points := 750
	tier := TierSilver

	inputs := encodeUpdate(Update{Points: &points, Tier: &tier})

	require.Len(t, inputs, 2)
	byKey := map[string]platform.MetafieldInput{}
	for _, in := range inputs {
		assert.Equal(t, platform.Namespace, in.Namespace)
		byKey[in.Key] = in
	}

	assert.Equal(t, "750", byKey[platform.KeyPoints].Value)
	assert.Equal(t, platform.TypeInteger, byKey[platform.KeyPoints].Type)
	assert.Equal(t, "silver", byKey[platform.KeyTier].Value)
	assert.Equal(t, platform.TypeText, byKey[platform.KeyTier].Type)
}

func TestEncodeUpdate_AllFieldTypes(t *testing.T) {
	points := 100
	tier := TierGold
	next := 250
	spent := decimal.RequireFromString("99.95")
	joined := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)
	signup := 200
	history := []Entry{}

	inputs := encodeUpdate(Update{
		Points:           &points,
		Tier:             &tier,
		PointsToNextTier: &next,
		TotalSpent:       &spent,
		JoinedAt:         &joined,
		SignupPoints:     &signup,
		History:          &history,
	})
	require.Len(t, inputs, 7)

	types := map[string]string{}
	values := map[string]string{}
	for _, in := range inputs {
		types[in.Key] = in.Type
		values[in.Key] = in.Value
	}

	assert.Equal(t, platform.TypeDecimal, types[platform.KeyTotalSpent])
	assert.Equal(t, "99.95", values[platform.KeyTotalSpent])
	assert.Equal(t, platform.TypeDateTime, types[platform.KeyJoinedAt])
	assert.Equal(t, "2026-02-14T10:00:00Z", values[platform.KeyJoinedAt])
	assert.Equal(t, platform.TypeJSON, types[platform.KeyHistory])
	assert.Equal(t, "[]", values[platform.KeyHistory])
}

func TestEncodeDecode_HistoryRoundTrip(t *testing.T) {
	history := []Entry{
		{ID: "b", Type: EntryRedeemed, Points: 500, Description: "$5 off your next purchase", Date: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "a", Type: EntryEarned, Points: 150, Description: "Purchase of $150.00", Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	inputs := encodeUpdate(Update{History: &history})
	require.Len(t, inputs, 1)

	acct := decodeAccount(fieldSet(map[string]string{
		platform.KeyHistory: inputs[0].Value,
	}), time.Now(), zap.NewNop())

	assert.Equal(t, history, acct.History)
}
