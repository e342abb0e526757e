package app

import "errors"

// Recoverable, caller-facing failures raised by the card-service business
// logic. Storage-level failures (not-found, duplicate request, storage
// conflict) are defined in the store package.
var (
	ErrInvalidState         = errors.New("operation not permitted in the card's current status")
	ErrInvalidOwnership     = errors.New("card does not belong to this user")
	ErrInsufficientFunds    = errors.New("insufficient funds for transfer")
	ErrInvalidAmount        = errors.New("transfer amount must be greater than zero")
	ErrUnsupportedOperation = errors.New("unsupported card operation")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrUserDisabled         = errors.New("user account is disabled")
	ErrUserHasActiveCards   = errors.New("cannot delete a user who holds active cards")
)
