package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteWrite means an order or order-line insert failed. No automatic
	// retry; the user re-attempts the whole checkout.
	ErrRemoteWrite = errors.New("order write failed")

	// ErrInvalidReference means a verify call arrived without both
	// identifiers.
	ErrInvalidReference = errors.New("missing transaction reference")

	// ErrUnconfirmed means the gateway did not confirm the transaction as
	// successful. "Could not confirm" and "confirmed as failed" are treated
	// identically: the order is left untouched.
	ErrUnconfirmed = errors.New("payment not confirmed")
)

// ValidationError reports a missing or invalid billing field before any
// network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
