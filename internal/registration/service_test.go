package registration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mailgate/mailgate/internal/identity"
	"github.com/mailgate/mailgate/internal/logging"
	"github.com/mailgate/mailgate/internal/pending"
	"github.com/mailgate/mailgate/internal/profile"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	if m.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (m *captureMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("no mail sent")
	}
	return m.sent[len(m.sent)-1]
}

type fixture struct {
	svc      *Service
	pending  pending.Store
	ids      identity.Provider
	profiles profile.Store
	mailer   *captureMailer
}

func newFixture() fixture {
	m := &captureMailer{}
	store := pending.NewMemoryStore()
	ids := identity.NewMemoryProvider()
	profiles := profile.NewMemoryStore()
	svc := NewService(store, ids, profiles, m, logging.Discard(), Options{
		TokenTTL:      time.Hour,
		VerifyBaseURL: "https://app.test/verify",
	})
	return fixture{svc: svc, pending: store, ids: ids, profiles: profiles, mailer: m}
}

func TestIssueThenCompleteRoundtrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	token, err := f.svc.IssueVerification(ctx, IssueInput{
		Email:    "u@test.io",
		Password: "p1",
		UserData: map[string]any{"weight": 70.0, "name": "U"},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	mail := f.mailer.last(t)
	if mail.to != "u@test.io" {
		t.Fatalf("mail sent to %q", mail.to)
	}
	if !strings.Contains(mail.body, "https://app.test/verify?token="+token) {
		t.Fatalf("mail body missing verification link: %s", mail.body)
	}

	account, err := f.svc.CompleteRegistration(ctx, token)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if account.ID == "" {
		t.Fatalf("expected an account id")
	}
	if account.Email != "u@test.io" {
		t.Fatalf("expected account email u@test.io got %q", account.Email)
	}
	if !account.EmailVerified {
		t.Fatalf("account must be created pre-verified")
	}

	p, err := f.profiles.GetProfile(ctx, "u@test.io")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if w := p.Data["weight"]; w != 70.0 {
		t.Fatalf("expected profile weight 70 got %v", w)
	}
	if p.Data["is_admin"] != false {
		t.Fatalf("expected is_admin=false got %v", p.Data["is_admin"])
	}
	if p.Data["preferences_completed"] != true {
		t.Fatalf("expected preferences_completed=true")
	}
	if p.Data["last_preference_step"] != 7 {
		t.Fatalf("expected last_preference_step=7 got %v", p.Data["last_preference_step"])
	}

	rec, err := f.profiles.GetWeight(ctx, WeightKey(account.ID, time.Now().UTC()))
	if err != nil {
		t.Fatalf("get weight record: %v", err)
	}
	if rec.Weight != 70.0 {
		t.Fatalf("expected initial weight 70 got %v", rec.Weight)
	}
	if rec.AccountID != account.ID {
		t.Fatalf("weight record bound to %q, want %q", rec.AccountID, account.ID)
	}

	if _, err := f.pending.Get(ctx, token); err != pending.ErrNotFound {
		t.Fatalf("pending record must be consumed, got %v", err)
	}
}

func TestIssueRejectsInvalidInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []IssueInput{
		{Email: "", Password: "p1"},
		{Email: "not-an-address", Password: "p1"},
		{Email: "u@test.io", Password: ""},
	}
	for _, input := range cases {
		if _, err := f.svc.IssueVerification(ctx, input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("input %+v: expected ErrInvalidInput got %v", input, err)
		}
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("no mail may be sent for rejected input")
	}
}

func TestCompleteUnknownToken(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.CompleteRegistration(context.Background(), "never-issued"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound got %v", err)
	}
}

func TestCompleteExpiredTokenThenNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	token, err := NewToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	reg := pending.Registration{
		Email:     "late@test.io",
		Password:  "p1",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	if err := f.pending.Put(ctx, token, reg); err != nil {
		t.Fatalf("seed pending: %v", err)
	}

	if _, err := f.svc.CompleteRegistration(ctx, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired got %v", err)
	}

	// Expiry cleanup deleted the record, so the retry sees an absent token.
	if _, err := f.svc.CompleteRegistration(ctx, token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound after cleanup got %v", err)
	}

	if _, err := f.ids.FindByEmail(ctx, "late@test.io"); err == nil {
		t.Fatalf("no account may exist for an expired registration")
	}
}

func TestMailFailureRollsBackPendingRecord(t *testing.T) {
	f := newFixture()
	f.mailer.fail = true
	ctx := context.Background()

	_, err := f.svc.IssueVerification(ctx, IssueInput{Email: "u@test.io", Password: "p1"})
	if !errors.Is(err, ErrMailDelivery) {
		t.Fatalf("expected ErrMailDelivery got %v", err)
	}

	// The link in the failed mail is the only copy of the token; its pending
	// record must have been rolled back.
	body := f.mailer.last(t).body
	token := tokenFromLink(t, body)
	if _, err := f.pending.Get(ctx, token); err != pending.ErrNotFound {
		t.Fatalf("expected rolled-back pending record, got %v", err)
	}
}

func TestCompleteConflictRetainsPendingRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.IssueVerification(ctx, IssueInput{Email: "dup@test.io", Password: "p1"})
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	if _, err := f.svc.CompleteRegistration(ctx, first); err != nil {
		t.Fatalf("complete first: %v", err)
	}

	second, err := f.svc.IssueVerification(ctx, IssueInput{Email: "dup@test.io", Password: "p2"})
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}
	if _, err := f.svc.CompleteRegistration(ctx, second); !errors.Is(err, ErrEmailConflict) {
		t.Fatalf("expected ErrEmailConflict got %v", err)
	}

	// Conflict must not consume the record; it is left to expire.
	if _, err := f.pending.Get(ctx, second); err != nil {
		t.Fatalf("pending record must survive a conflict, got %v", err)
	}
}

func TestCompleteWithoutWeightSkipsWeightRecord(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	token, err := f.svc.IssueVerification(ctx, IssueInput{
		Email:    "noweight@test.io",
		Password: "p1",
		UserData: map[string]any{"name": "N"},
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	account, err := f.svc.CompleteRegistration(ctx, token)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	// A payload without a weight field still promotes cleanly; only the
	// weight-history entry is omitted.
	if _, err := f.profiles.GetProfile(ctx, "noweight@test.io"); err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if _, err := f.profiles.GetWeight(ctx, WeightKey(account.ID, time.Now().UTC())); err != profile.ErrNotFound {
		t.Fatalf("expected no weight record, got %v", err)
	}
	if _, err := f.pending.Get(ctx, token); err != pending.ErrNotFound {
		t.Fatalf("pending record must be consumed, got %v", err)
	}
}

func TestConcurrentCompletionsExactlyOneWins(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	token, err := f.svc.IssueVerification(ctx, IssueInput{Email: "race@test.io", Password: "p1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	const completers = 8
	results := make(chan error, completers)
	var wg sync.WaitGroup
	for i := 0; i < completers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CompleteRegistration(ctx, token)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts, notFounds int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrEmailConflict):
			conflicts++
		case errors.Is(err, ErrTokenNotFound):
			notFounds++
		default:
			t.Fatalf("unexpected completion error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful completion, got %d (conflicts=%d notFounds=%d)", wins, conflicts, notFounds)
	}

	account, err := f.ids.FindByEmail(ctx, "race@test.io")
	if err != nil {
		t.Fatalf("winner's account missing: %v", err)
	}
	if account.ID == "" {
		t.Fatalf("expected a fresh account id")
	}
}

func TestIssuedTokensAreDistinct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := f.svc.IssueVerification(ctx, IssueInput{Email: "a@x.com", Password: "p1"})
		if err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
		if seen[token] {
			t.Fatalf("token %q issued twice", token)
		}
		seen[token] = true
		if len(token) != 2*tokenBytes {
			t.Fatalf("expected %d hex chars, got %d", 2*tokenBytes, len(token))
		}
	}
}

func tokenFromLink(t *testing.T, body string) string {
	t.Helper()
	idx := strings.Index(body, "token=")
	if idx < 0 {
		t.Fatalf("no token in body: %s", body)
	}
	token := body[idx+len("token="):]
	if cut := strings.IndexByte(token, '"'); cut >= 0 {
		token = token[:cut]
	}
	return token
}
