package service

import (
	"context"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/access"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/identity"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProvider signs in whoever is in its identity map. Passwords are ignored
// unless signInErr is set.
type fakeProvider struct {
	*memIdentities
	signInErr error
	signedOut []identity.SessionInfo
}

func (p *fakeProvider) session(id uuid.UUID) (*identity.Session, error) {
	ident, err := p.GetIdentity(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return &identity.Session{ID: "sess-" + id.String(), Identity: ident, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (p *fakeProvider) byEmail(email string) (uuid.UUID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ident := range p.byID {
		if ident.Email == email {
			return id, true
		}
	}
	return uuid.Nil, false
}

func (p *fakeProvider) SignUp(_ context.Context, email, _ string, _ identity.Attributes) (*identity.PendingIdentity, error) {
	return &identity.PendingIdentity{ID: "pending-1", Email: email}, nil
}

func (p *fakeProvider) VerifyChallenge(_ context.Context, pendingID, code string) (*identity.Session, error) {
	if code != "123456" {
		return nil, identity.ErrChallengeInvalid
	}
	id, _ := p.byEmail(pendingID)
	return p.session(id)
}

func (p *fakeProvider) SignIn(_ context.Context, email, _ string) (*identity.Session, error) {
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	id, ok := p.byEmail(email)
	if !ok {
		return nil, identity.ErrInvalidCredentials
	}
	return p.session(id)
}

func (p *fakeProvider) SignInExternal(_ context.Context, ext identity.ExternalIdentity) (*identity.Session, error) {
	id, ok := p.byEmail(ext.Email)
	if !ok {
		return nil, identity.ErrInvalidCredentials
	}
	return p.session(id)
}

func (p *fakeProvider) CurrentSession(context.Context, string) (*identity.SessionInfo, error) {
	return nil, nil
}

func (p *fakeProvider) Refresh(context.Context, string) (*identity.Session, error) {
	return nil, identity.ErrInvalidCredentials
}

func (p *fakeProvider) SignOut(_ context.Context, info identity.SessionInfo) error {
	p.signedOut = append(p.signedOut, info)
	return nil
}

type authFixture struct {
	provider *fakeProvider
	profiles *memProfiles
	audits   *memAuditRepo
	flush    func()
	svc      *AuthService
}

func newAuthFixture(t *testing.T, ids ...domain.Identity) *authFixture {
	t.Helper()
	f := &authFixture{
		provider: &fakeProvider{memIdentities: newMemIdentities(ids...)},
		profiles: newMemProfiles(),
	}
	auditSvc, audits, flush := newTestAudit(t)
	f.audits, f.flush = audits, flush
	m := newTestMetrics()
	sync := NewRoleSynchronizer(f.provider, f.profiles, newMemRoleCache(), auditSvc, m, zap.NewNop())
	f.svc = NewAuthService(f.provider, sync, f.profiles, auditSvc, m, zap.NewNop())
	return f
}

func TestSignIn_NewUserGoesToOnboarding(t *testing.T) {
	ident := domain.Identity{ID: uuid.New(), Email: "new@example.com", FullName: "New Person"}
	f := newAuthFixture(t, ident)

	res, err := f.svc.SignIn(context.Background(), "new@example.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, domain.RolePatient, res.Role)
	assert.Equal(t, access.OnboardingPath, res.RedirectPath)
	assert.True(t, f.profiles.hasPatient(ident.ID))
	assert.Equal(t, domain.Role(""), f.provider.role(ident.ID))

	f.flush()
	entries := f.audits.all()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionLogin, entries[0].Action)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.SignInsTotal.WithLabelValues("password", "success")))
}

func TestSignIn_OnboardedDoctorGoesToDashboard(t *testing.T) {
	ident := domain.Identity{ID: uuid.New(), Email: "doc@example.com", Metadata: domain.Metadata{Role: domain.RoleDoctor}}
	f := newAuthFixture(t, ident)
	ctx := context.Background()

	require.NoError(t, f.profiles.EnsureDoctor(ctx, ident.ID))
	rec, err := f.profiles.GetDoctor(ctx, ident.ID)
	require.NoError(t, err)
	rec.Specialization = "Cardiology"
	require.NoError(t, f.profiles.SaveDoctor(ctx, rec))

	res, err := f.svc.SignInExternal(ctx, identity.ExternalIdentity{Provider: "google", Email: "doc@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDoctor, res.Role)
	assert.Equal(t, "/doctor/dashboard", res.RedirectPath)
	assert.False(t, f.profiles.hasPatient(ident.ID))
}

func TestSignIn_Failures(t *testing.T) {
	ident := domain.Identity{ID: uuid.New(), Email: "p@example.com"}
	f := newAuthFixture(t, ident)
	ctx := context.Background()

	_, err := f.svc.SignIn(ctx, "nobody@example.com", "pw")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.SignInsTotal.WithLabelValues("password", "invalid_credentials")))

	f.provider.signInErr = identity.ErrAccountLocked
	_, err = f.svc.SignIn(ctx, "p@example.com", "pw")
	assert.ErrorIs(t, err, identity.ErrAccountLocked)

	_, err = f.svc.VerifySignUp(ctx, "p@example.com", "000000")
	assert.ErrorIs(t, err, identity.ErrChallengeInvalid)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.SignInsTotal.WithLabelValues("verify", "bad_code")))
}

func TestSignIn_SyncFailureRevokesSession(t *testing.T) {
	ident := domain.Identity{ID: uuid.New(), Email: "p@example.com"}
	f := newAuthFixture(t, ident)
	f.profiles.failOn["UpsertProfile"] = errBoom

	_, err := f.svc.SignIn(context.Background(), "p@example.com", "pw")
	assert.ErrorIs(t, err, ErrPersistenceFailure)
	require.Len(t, f.provider.signedOut, 1)
	assert.Equal(t, "sess-"+ident.ID.String(), f.provider.signedOut[0].SessionID)
}

func TestSignUpThenVerify(t *testing.T) {
	ident := domain.Identity{ID: uuid.New(), Email: "fresh@example.com", FullName: "Fresh Start"}
	f := newAuthFixture(t, ident)
	ctx := context.Background()

	pending, err := f.svc.SignUp(ctx, "fresh@example.com", "Secr3t!pass", "Fresh Start")
	require.NoError(t, err)
	assert.Equal(t, "fresh@example.com", pending.Email)

	// The fake keys pending sign-ups by email.
	res, err := f.svc.VerifySignUp(ctx, "fresh@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, access.OnboardingPath, res.RedirectPath)

	p, err := f.profiles.GetProfile(ctx, ident.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh Start", p.FullName)
}

func TestSignOut_Audits(t *testing.T) {
	f := newAuthFixture(t)
	info := identity.SessionInfo{SessionID: "s-1", Claims: domain.Claims{IdentityID: uuid.New(), Role: domain.RolePatient}}

	require.NoError(t, f.svc.SignOut(context.Background(), info))
	require.Len(t, f.provider.signedOut, 1)

	f.flush()
	entries := f.audits.all()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionLogout, entries[0].Action)
}
