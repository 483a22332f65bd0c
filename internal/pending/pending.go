package pending

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no pending registration exists for the given token,
// either because it was never issued or because it has already been consumed.
var ErrNotFound = errors.New("pending registration not found")

// Registration holds the data captured at issuance time, keyed by the
// verification token. It exists only between issuance and either promotion
// or expiry cleanup; nothing updates it in place.
type Registration struct {
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	UserData  map[string]any `json:"user_data"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// ExpiredAt reports whether the registration's TTL has lapsed at the given instant.
func (r Registration) ExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Store persists pending registrations keyed by token. No transactional
// guarantees are assumed across calls; callers order their operations so
// that a record is deleted only after the promotion it gates has succeeded.
type Store interface {
	Put(ctx context.Context, token string, reg Registration) error
	Get(ctx context.Context, token string) (Registration, error)
	Delete(ctx context.Context, token string) error
}
