package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/mailgate/mailgate/internal/identity"
	mailer "github.com/mailgate/mailgate/internal/mail"
	"github.com/mailgate/mailgate/internal/pending"
	"github.com/mailgate/mailgate/internal/profile"
)

// Service implements the two-phase registration protocol: token issuance
// with a pending record, and promotion of that record into a real account.
type Service struct {
	pending  pending.Store
	ids      identity.Provider
	profiles profile.Store
	mailer   mailer.Mailer
	logger   *slog.Logger

	tokenTTL      time.Duration
	verifyBaseURL string
	mailSubject   string
}

// Options carries the issuance settings that are configuration, not wiring.
type Options struct {
	TokenTTL      time.Duration
	VerifyBaseURL string
	MailSubject   string
}

// NewService builds the registration service.
func NewService(store pending.Store, ids identity.Provider, profiles profile.Store, m mailer.Mailer, logger *slog.Logger, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.MailSubject == "" {
		opts.MailSubject = "Verify your email"
	}
	return &Service{
		pending:       store,
		ids:           ids,
		profiles:      profiles,
		mailer:        m,
		logger:        logger,
		tokenTTL:      opts.TokenTTL,
		verifyBaseURL: opts.VerifyBaseURL,
		mailSubject:   opts.MailSubject,
	}
}

// IssueInput captures a registration request.
type IssueInput struct {
	Email    string
	Password string
	UserData map[string]any
}

// IssueVerification persists a pending registration under a fresh token and
// mails the verification link. The mail send is awaited: if delivery fails
// the pending record is rolled back and ErrMailDelivery is returned, so no
// unreachable record outlives the request.
//
// No uniqueness check against existing accounts happens here; duplicate
// issuance for one address is allowed and resolved at completion by the
// identity provider's own uniqueness enforcement.
func (s *Service) IssueVerification(ctx context.Context, input IssueInput) (string, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}
	if input.Password == "" {
		return "", fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	token, err := NewToken()
	if err != nil {
		return "", err
	}

	reg := pending.Registration{
		Email:     email,
		Password:  input.Password,
		UserData:  input.UserData,
		ExpiresAt: time.Now().UTC().Add(s.tokenTTL),
	}

	if err := s.pending.Put(ctx, token, reg); err != nil {
		return "", err
	}

	link := s.verifyBaseURL + "?token=" + url.QueryEscape(token)
	body := fmt.Sprintf(`<p>Please click <a href="%s">here</a> to verify your email address.</p>`, link)

	if err := s.mailer.Send(ctx, email, s.mailSubject, body); err != nil {
		if delErr := s.pending.Delete(ctx, token); delErr != nil {
			s.logger.Warn("rollback pending registration failed", "token", token, "error", delErr)
		}
		return "", fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	s.logger.Info("verification issued", "email", email, "expires_at", reg.ExpiresAt)
	return token, nil
}

// CompleteRegistration promotes the pending record for a token into a real
// account plus its dependent records, then consumes the record.
//
// Ordering is the correctness rule here: the pending record is deleted only
// after account creation succeeds, never before. Two concurrent completions
// of one token may both observe the record as valid; the second one's
// account creation fails with ErrEmailConflict and, because its record was
// never deleted early, the first completion is never undone.
func (s *Service) CompleteRegistration(ctx context.Context, token string) (identity.Account, error) {
	reg, err := s.pending.Get(ctx, token)
	if err != nil {
		if errors.Is(err, pending.ErrNotFound) {
			return identity.Account{}, ErrTokenNotFound
		}
		return identity.Account{}, err
	}

	if reg.ExpiredAt(time.Now().UTC()) {
		if delErr := s.pending.Delete(ctx, token); delErr != nil {
			s.logger.Warn("delete expired pending registration failed", "token", token, "error", delErr)
		}
		return identity.Account{}, ErrTokenExpired
	}

	account, err := s.ids.CreateAccount(ctx, reg.Email, reg.Password, true)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return identity.Account{}, ErrEmailConflict
		}
		return identity.Account{}, err
	}

	if err := s.profiles.PutProfile(ctx, profile.Profile{
		Email: reg.Email,
		Data:  profileData(reg),
	}); err != nil {
		return identity.Account{}, fmt.Errorf("write profile for %s: %w", reg.Email, err)
	}

	if weight, ok := weightValue(reg.UserData); ok {
		rec := profile.WeightRecord{
			Key:       WeightKey(account.ID, time.Now().UTC()),
			AccountID: account.ID,
			Weight:    weight,
		}
		if err := s.profiles.PutWeight(ctx, rec); err != nil {
			return identity.Account{}, fmt.Errorf("write initial weight for %s: %w", account.ID, err)
		}
	}

	if err := s.pending.Delete(ctx, token); err != nil {
		// Promotion already happened; the stale record is harmless and the
		// store's TTL backstop removes it eventually.
		s.logger.Warn("consume pending registration failed", "token", token, "error", err)
	}

	s.logger.Info("registration completed", "email", reg.Email, "account_id", account.ID)
	return account, nil
}

// WeightKey builds the composite weight-history key for an account and a
// calendar date. Dates are taken in UTC.
func WeightKey(accountID string, at time.Time) string {
	return accountID + "_" + at.UTC().Format("2006-01-02")
}

func profileData(reg pending.Registration) map[string]any {
	data := make(map[string]any, len(reg.UserData)+5)
	for k, v := range reg.UserData {
		data[k] = v
	}
	data["email"] = reg.Email
	data["is_admin"] = false
	data["last_preference_step"] = 7
	data["preferences_completed"] = true
	data["profile_image"] = nil
	return data
}

func weightValue(data map[string]any) (float64, bool) {
	switch v := data["weight"].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
