package profile

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no profile or weight record exists for the given key.
var ErrNotFound = errors.New("profile record not found")

// Profile is the user-facing document written at promotion time, keyed by
// the account's email. Data holds the registration payload merged with the
// fixed account defaults.
type Profile struct {
	Email     string
	Data      map[string]any
	CreatedAt time.Time
}

// WeightRecord is the initial weight-history entry created alongside the
// account. Key is "<accountID>_<YYYY-MM-DD>" with the date in UTC.
type WeightRecord struct {
	Key        string
	AccountID  string
	Weight     float64
	RecordedAt time.Time
}

// Store persists profiles and weight history. Creation timestamps are
// assigned by the store, never by the caller.
type Store interface {
	PutProfile(ctx context.Context, p Profile) error
	GetProfile(ctx context.Context, email string) (Profile, error)
	PutWeight(ctx context.Context, rec WeightRecord) error
	GetWeight(ctx context.Context, key string) (WeightRecord, error)
}
