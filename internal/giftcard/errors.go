package giftcard

import "errors"

// Domain errors surfaced to callers. Handlers map these onto HTTP status
// codes and machine-readable reasons.
var (
	// ErrValidation indicates a rejected issuance or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrCardNotFound indicates an unknown card code or ID.
	ErrCardNotFound = errors.New("card not found")
	// ErrCardNotRedeemable indicates the card is not in a redeemable state,
	// including a lazily derived EXPIRED.
	ErrCardNotRedeemable = errors.New("card not redeemable")
	// ErrInsufficientBalance indicates the card balance is already zero.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrConflict indicates the concurrent-write retry budget was exhausted.
	// The whole operation can be retried by the caller.
	ErrConflict = errors.New("concurrent update conflict")
)
