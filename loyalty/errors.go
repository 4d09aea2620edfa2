/*
errors.go - Error types for the loyalty ledger

PURPOSE:
  All domain error types in one place. Validation errors (insufficient
  points, unknown reward) are detected before any platform write is
  issued; platform failures propagate from the platform package and can
  be recognized with errors.As.

USAGE:
  if errors.Is(err, loyalty.ErrInsufficientPoints) { ... }

  var short *loyalty.InsufficientPointsError
  if errors.As(err, &short) { short.Available ... }
*/
package loyalty

import (
	"errors"
	"fmt"

	"github.com/meridian/loyalty-engine/platform"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientPoints is returned when a redemption exceeds the
	// current balance. No write is issued in this case.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrInvalidReward is returned when a redemption references a reward
	// id not present in the catalog.
	ErrInvalidReward = errors.New("invalid reward")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InsufficientPointsError reports a balance shortfall on redemption.
type InsufficientPointsError struct {
	Available int
	Requested int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: have %d, reward costs %d", e.Available, e.Requested)
}

func (e *InsufficientPointsError) Unwrap() error { return ErrInsufficientPoints }

// InvalidRewardError reports an unknown reward id.
type InvalidRewardError struct {
	RewardID string
}

func (e *InvalidRewardError) Error() string {
	return fmt.Sprintf("invalid reward: %q is not in the catalog", e.RewardID)
}

func (e *InvalidRewardError) Unwrap() error { return ErrInvalidReward }

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsClientError reports whether the error is caused by invalid client
// input rather than a platform or transport failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientPoints) || errors.Is(err, ErrInvalidReward)
}

// IsNotFound reports whether the error indicates an unknown customer.
func IsNotFound(err error) bool {
	return errors.Is(err, platform.ErrCustomerNotFound)
}
