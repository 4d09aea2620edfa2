/*
Package platform is the client for the commerce platform's GraphQL API.

PURPOSE:
  The commerce platform is the sole persistence layer for loyalty state.
  Each customer record carries a set of typed metafields (key-value pairs)
  under the "custom" namespace, and this package reads and writes them.

METAFIELD LAYOUT:
  custom.loyalty_points       number_integer          redeemable balance
  custom.loyalty_tier         single_line_text_field  persisted tier name
  custom.points_to_next_tier  number_integer          cached display value
  custom.total_spent          number_decimal          lifetime purchase total
  custom.joined_at            date_time               set once at signup
  custom.loyalty_history      json                    ledger entries, newest first
  custom.signup_points        number_integer          bonus granted at signup

  Each field is independently typed and independently writable; there is
  no atomic "account record" on the platform side. Callers that need
  read-modify-write safety must serialize per customer themselves
  (see loyalty.Service).

CREDENTIALS:
  Customer reads and writes authenticate with the customer's own access
  token. Account initialization uses a separate elevated admin token and
  is only available server-side.

SEE ALSO:
  - client.go: GraphQL transport
  - loyalty/codec.go: metafield <-> account conversion
*/
package platform

// Namespace is the metafield namespace owned by the loyalty subsystem.
const Namespace = "custom"

// Metafield keys for the loyalty account layout.
const (
	KeyPoints       = "loyalty_points"
	KeyTier         = "loyalty_tier"
	KeyPointsToNext = "points_to_next_tier"
	KeyTotalSpent   = "total_spent"
	KeyJoinedAt     = "joined_at"
	KeyHistory      = "loyalty_history"
	KeySignupPoints = "signup_points"
)

// Keys lists every metafield key fetched by a customer read, in layout order.
var Keys = []string{
	KeyPoints,
	KeyTier,
	KeyPointsToNext,
	KeyTotalSpent,
	KeyJoinedAt,
	KeyHistory,
	KeySignupPoints,
}

// Metafield value types understood by the platform.
const (
	TypeInteger  = "number_integer"
	TypeDecimal  = "number_decimal"
	TypeText     = "single_line_text_field"
	TypeDateTime = "date_time"
	TypeJSON     = "json"
)

// Metafield is a single typed field read from a customer record.
type Metafield struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// MetafieldSet holds the fields returned for one customer, keyed by Key.
// Missing fields are simply absent from the map.
type MetafieldSet struct {
	CustomerID string
	Fields     map[string]Metafield
}

// Value returns the raw value for a key and whether it was present.
func (s MetafieldSet) Value(key string) (string, bool) {
	f, ok := s.Fields[key]
	return f.Value, ok
}

// MetafieldInput is one field of a write mutation. Any subset of the
// layout may be written per call.
type MetafieldInput struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

// UserError is a platform-side validation failure attached to a mutation.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}
