package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memoryProvider struct {
	mu       sync.Mutex
	accounts map[string]Account
}

// NewMemoryProvider builds an in-memory identity provider for testing. It
// enforces the same email uniqueness guarantee as the real provider, under
// a single mutex, so concurrent creations for one email yield exactly one
// account.
func NewMemoryProvider() Provider {
	return &memoryProvider{accounts: make(map[string]Account)}
}

func (p *memoryProvider) CreateAccount(_ context.Context, email, password string, preVerified bool) (Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return Account{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[email]; exists {
		return Account{}, ErrEmailTaken
	}

	account := Account{
		ID:            uuid.New().String(),
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: preVerified,
		CreatedAt:     time.Now().UTC(),
	}
	p.accounts[email] = account
	return account, nil
}

func (p *memoryProvider) FindByEmail(_ context.Context, email string) (Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.accounts[email]
	if !ok {
		return Account{}, errors.New("account not found")
	}
	return account, nil
}
