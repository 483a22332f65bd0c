package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL. Profile payloads are
// stored as jsonb; created_at/recorded_at come from the database clock.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed profile store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// PutProfile inserts the profile document for an email.
func (s *PostgresStore) PutProfile(ctx context.Context, p Profile) error {
	_, err := s.db.Exec(ctx, `INSERT INTO profiles (email, data, created_at)
        VALUES ($1, $2, now())`, p.Email, p.Data)
	return err
}

// GetProfile fetches the profile document for an email.
func (s *PostgresStore) GetProfile(ctx context.Context, email string) (Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT email, data, created_at FROM profiles WHERE email = $1`, email)

	var p Profile
	if err := row.Scan(&p.Email, &p.Data, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// PutWeight inserts a weight-history row.
func (s *PostgresStore) PutWeight(ctx context.Context, rec WeightRecord) error {
	_, err := s.db.Exec(ctx, `INSERT INTO weight_history (key, account_id, weight, recorded_at)
        VALUES ($1, $2, $3, now())`, rec.Key, rec.AccountID, rec.Weight)
	return err
}

// GetWeight fetches a weight-history row by its composite key.
func (s *PostgresStore) GetWeight(ctx context.Context, key string) (WeightRecord, error) {
	row := s.db.QueryRow(ctx, `SELECT key, account_id, weight, recorded_at FROM weight_history WHERE key = $1`, key)

	var rec WeightRecord
	if err := row.Scan(&rec.Key, &rec.AccountID, &rec.Weight, &rec.RecordedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WeightRecord{}, ErrNotFound
		}
		return WeightRecord{}, err
	}
	rec.RecordedAt = rec.RecordedAt.UTC()
	return rec, nil
}
