package registration

import "errors"

var (
	// ErrInvalidInput indicates the issuance request failed validation before
	// any state was committed.
	ErrInvalidInput = errors.New("invalid registration input")

	// ErrTokenNotFound indicates the token was never issued or its pending
	// record has already been consumed.
	ErrTokenNotFound = errors.New("verification token not found")

	// ErrTokenExpired indicates the pending record existed but its TTL lapsed.
	// Reporting this error deletes the stale record as a side effect; the
	// user must register again.
	ErrTokenExpired = errors.New("verification token expired")

	// ErrEmailConflict indicates the identity provider rejected the email as
	// already registered. The pending record is intentionally retained on
	// this path so a race-induced false conflict cannot strand a legitimate
	// completion; the record expires naturally.
	ErrEmailConflict = errors.New("email already registered")

	// ErrMailDelivery indicates the verification mail could not be sent.
	// Issuance rolls back the pending record before reporting it.
	ErrMailDelivery = errors.New("verification mail delivery failed")
)
