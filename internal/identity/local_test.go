package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/config"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/session"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/auth"
)

type memAccounts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[uuid.UUID]*Account{}}
}

func (m *memAccounts) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == a.Email {
			return ErrEmailTaken
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAccounts) get(pred func(*Account) bool) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if pred(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrIdentityNotFound
}

func (m *memAccounts) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	return m.get(func(a *Account) bool { return a.ID == id })
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*Account, error) {
	return m.get(func(a *Account) bool { return a.Email == email })
}

func (m *memAccounts) GetByExternal(_ context.Context, provider, subject string) (*Account, error) {
	return m.get(func(a *Account) bool { return a.ExternalProvider == provider && a.ExternalSubject == subject })
}

func (m *memAccounts) mutate(id uuid.UUID, fn func(*Account)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return ErrIdentityNotFound
	}
	fn(a)
	return nil
}

func (m *memAccounts) ResetPending(_ context.Context, id uuid.UUID, hash, name string) error {
	return m.mutate(id, func(a *Account) { a.PasswordHash, a.FullName = hash, name })
}

func (m *memAccounts) MarkVerified(_ context.Context, id uuid.UUID) error {
	return m.mutate(id, func(a *Account) { a.EmailVerified = true })
}

func (m *memAccounts) UpdateMetadata(_ context.Context, id uuid.UUID, md domain.Metadata) error {
	return m.mutate(id, func(a *Account) { a.Metadata = md })
}

func (m *memAccounts) LinkExternal(_ context.Context, id uuid.UUID, provider, subject string) error {
	return m.mutate(id, func(a *Account) { a.ExternalProvider, a.ExternalSubject = provider, subject })
}

func (m *memAccounts) RecordLoginAttempt(_ context.Context, id uuid.UUID, success bool, maxFailed int, lockFor time.Duration) error {
	return m.mutate(id, func(a *Account) {
		if success {
			a.FailedLoginCount = 0
			a.LockedUntil = nil
			return
		}
		a.FailedLoginCount++
		if a.FailedLoginCount >= maxFailed {
			until := time.Now().Add(lockFor)
			a.LockedUntil = &until
		}
	})
}

type memChallenges struct {
	m map[string]Challenge
}

func (s *memChallenges) Save(_ context.Context, c *Challenge) error {
	s.m[c.ID] = *c
	return nil
}

func (s *memChallenges) Get(_ context.Context, id string) (*Challenge, error) {
	c, ok := s.m[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *memChallenges) Delete(_ context.Context, id string) error {
	delete(s.m, id)
	return nil
}

type memSessions struct {
	m map[string]session.Session
}

func (s *memSessions) Create(_ context.Context, x session.Session) error {
	s.m[x.ID] = x
	return nil
}

func (s *memSessions) Get(_ context.Context, id string) (*session.Session, error) {
	x, ok := s.m[id]
	if !ok {
		return nil, nil
	}
	return &x, nil
}

func (s *memSessions) Update(ctx context.Context, x session.Session) error {
	return s.Create(ctx, x)
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	delete(s.m, id)
	return nil
}

type captureNotifier struct {
	codes map[string]string
}

func (n *captureNotifier) SendCode(_ context.Context, email, code string) error {
	n.codes[email] = code
	return nil
}

type fixture struct {
	provider   *LocalProvider
	accounts   *memAccounts
	challenges *memChallenges
	sessions   *memSessions
	notifier   *captureNotifier
}

func newFixture() *fixture {
	f := &fixture{
		accounts:   newMemAccounts(),
		challenges: &memChallenges{m: map[string]Challenge{}},
		sessions:   &memSessions{m: map[string]session.Session{}},
		notifier:   &captureNotifier{codes: map[string]string{}},
	}
	tokens := auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "test",
	})
	f.provider = NewLocalProvider(f.accounts, f.challenges, f.sessions, tokens, f.notifier, config.SessionConfig{
		MaxFailedAttempts:    3,
		LockoutDuration:      15 * time.Minute,
		ChallengeTTL:         15 * time.Minute,
		ChallengeMaxAttempts: 2,
	}, zap.NewNop())
	return f
}

func (f *fixture) signUpVerified(t *testing.T, email string) *Session {
	t.Helper()
	ctx := context.Background()
	pending, err := f.provider.SignUp(ctx, email, "correct horse", Attributes{FullName: "Ann Lee"})
	require.NoError(t, err)
	s, err := f.provider.VerifyChallenge(ctx, pending.ID, f.notifier.codes[pending.Email])
	require.NoError(t, err)
	return s
}

func TestLocalProvider_SignUpVerifySignIn(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s := f.signUpVerified(t, "Ann@Example.com")
	assert.Equal(t, "ann@example.com", s.Identity.Email)
	assert.True(t, s.Identity.EmailVerified)
	assert.Equal(t, domain.Role(""), s.Identity.Metadata.Role)
	assert.Empty(t, f.challenges.m)

	info, err := f.provider.CurrentSession(ctx, s.Tokens.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, s.Identity.ID, info.Claims.IdentityID)

	// Cookie form: the raw session id.
	info, err = f.provider.CurrentSession(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, s.ID, info.SessionID)

	s2, err := f.provider.SignIn(ctx, "ann@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, s2.ID)

	require.NoError(t, f.provider.SignOut(ctx, SessionInfo{SessionID: s2.ID}))
	info, err = f.provider.CurrentSession(ctx, s2.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestLocalProvider_SignUpValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.provider.SignUp(ctx, "not-an-email", "correct horse", Attributes{})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = f.provider.SignUp(ctx, "a@example.com", "short", Attributes{})
	assert.ErrorIs(t, err, ErrWeakPassword)

	f.signUpVerified(t, "a@example.com")
	_, err = f.provider.SignUp(ctx, "a@example.com", "another pass", Attributes{})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLocalProvider_ChallengeAttempts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pending, err := f.provider.SignUp(ctx, "b@example.com", "correct horse", Attributes{})
	require.NoError(t, err)

	_, err = f.provider.VerifyChallenge(ctx, pending.ID, "000000x")
	assert.ErrorIs(t, err, ErrChallengeInvalid)
	assert.Equal(t, 1, f.challenges.m[pending.ID].Attempts)

	_, err = f.provider.VerifyChallenge(ctx, pending.ID, "000000x")
	assert.ErrorIs(t, err, ErrChallengeInvalid)

	// Attempts exhausted: even the right code is refused now.
	_, err = f.provider.VerifyChallenge(ctx, pending.ID, f.notifier.codes["b@example.com"])
	assert.ErrorIs(t, err, ErrChallengeInvalid)

	// Signing up again issues a fresh challenge for the unverified account.
	pending, err = f.provider.SignUp(ctx, "b@example.com", "new password", Attributes{})
	require.NoError(t, err)
	f.provider.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = f.provider.VerifyChallenge(ctx, pending.ID, f.notifier.codes["b@example.com"])
	assert.ErrorIs(t, err, ErrChallengeExpired)
}

func TestLocalProvider_Lockout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.signUpVerified(t, "c@example.com")

	for range 3 {
		_, err := f.provider.SignIn(ctx, "c@example.com", "wrong password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := f.provider.SignIn(ctx, "c@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrAccountLocked)

	_, err = f.provider.SignIn(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalProvider_UnverifiedSignIn(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.provider.SignUp(ctx, "d@example.com", "correct horse", Attributes{})
	require.NoError(t, err)

	_, err = f.provider.SignIn(ctx, "d@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestLocalProvider_RefreshCarriesNewRole(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	s := f.signUpVerified(t, "e@example.com")

	require.NoError(t, f.provider.UpdateMetadata(ctx, s.Identity.ID, domain.Metadata{Role: domain.RoleDoctor}))

	refreshed, err := f.provider.Refresh(ctx, s.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, s.ID, refreshed.ID)

	info, err := f.provider.CurrentSession(ctx, refreshed.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDoctor, info.Claims.Role)

	_, err = f.provider.Refresh(ctx, s.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, f.provider.SignOut(ctx, SessionInfo{SessionID: s.ID}))
	_, err = f.provider.Refresh(ctx, s.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestLocalProvider_SignInExternal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.provider.SignInExternal(ctx, ExternalIdentity{
		Provider: "google", Subject: "g-1", Email: "f@example.com", EmailVerified: true, FullName: "Fay",
	})
	require.NoError(t, err)
	assert.Equal(t, "Fay", s.Identity.FullName)

	again, err := f.provider.SignInExternal(ctx, ExternalIdentity{Provider: "google", Subject: "g-1", Email: "f@example.com"})
	require.NoError(t, err)
	assert.Equal(t, s.Identity.ID, again.Identity.ID)

	f.signUpVerified(t, "g@example.com")
	_, err = f.provider.SignInExternal(ctx, ExternalIdentity{Provider: "google", Subject: "g-2", Email: "g@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	linked, err := f.provider.SignInExternal(ctx, ExternalIdentity{Provider: "google", Subject: "g-2", Email: "g@example.com", EmailVerified: true})
	require.NoError(t, err)
	assert.Equal(t, "g@example.com", linked.Identity.Email)
}

func TestLocalProvider_CurrentSessionRejectsGarbage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, tok := range []string{"", "a.b.c", "unknown-session-id"} {
		info, err := f.provider.CurrentSession(ctx, tok)
		assert.NoError(t, err)
		assert.Nil(t, info)
	}
}
