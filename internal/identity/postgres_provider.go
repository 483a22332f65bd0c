package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolationCode = "23505"

// PostgresProvider implements Provider against an accounts table with a
// unique constraint on email.
type PostgresProvider struct {
	db *pgxpool.Pool
}

// NewPostgresProvider builds a Postgres-backed identity provider.
func NewPostgresProvider(db *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{db: db}
}

// CreateAccount inserts a new account. The password is stored only as a
// bcrypt hash; the creation timestamp is assigned server-side.
func (p *PostgresProvider) CreateAccount(ctx context.Context, email, password string, preVerified bool) (Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}

	accountID := uuid.New()

	row := p.db.QueryRow(ctx, `INSERT INTO accounts (id, email, password_hash, email_verified, created_at)
        VALUES ($1, $2, $3, $4, now())
        RETURNING created_at`, accountID, email, hash, preVerified)

	var createdAt time.Time
	if err := row.Scan(&createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return Account{}, ErrEmailTaken
		}
		return Account{}, err
	}

	return Account{
		ID:            accountID.String(),
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: preVerified,
		CreatedAt:     createdAt.UTC(),
	}, nil
}

// FindByEmail fetches an account by its email address.
func (p *PostgresProvider) FindByEmail(ctx context.Context, email string) (Account, error) {
	row := p.db.QueryRow(ctx, `SELECT id, email, password_hash, email_verified, created_at
        FROM accounts WHERE email = $1`, email)

	var (
		id      uuid.UUID
		account Account
	)
	if err := row.Scan(&id, &account.Email, &account.PasswordHash, &account.EmailVerified, &account.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, errors.New("account not found")
		}
		return Account{}, err
	}
	account.ID = id.String()
	account.CreatedAt = account.CreatedAt.UTC()
	return account, nil
}
