package identity

import (
	"context"
	"errors"
	"time"
)

// ErrEmailTaken indicates an account with the same email already exists.
// The provider's uniqueness enforcement on email is the exactly-once gate
// for the whole registration protocol.
var ErrEmailTaken = errors.New("email already registered")

// Account represents a created user account.
type Account struct {
	ID            string
	Email         string
	PasswordHash  []byte
	EmailVerified bool
	CreatedAt     time.Time
}

// Provider mints real user accounts. CreateAccount must fail with
// ErrEmailTaken when the email is already registered; all other guarantees
// (token handling, record cleanup) live with the caller.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string, preVerified bool) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
}
