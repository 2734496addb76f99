package service

import (
	"context"
	"errors"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/access"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/identity"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdentityProvider is identity.Provider plus OAuth account linking.
type IdentityProvider interface {
	identity.Provider
	SignInExternal(ctx context.Context, ext identity.ExternalIdentity) (*identity.Session, error)
}

// SignInResult is a fresh session plus where the client should go next.
type SignInResult struct {
	Session      *identity.Session
	Role         domain.Role
	RedirectPath string
}

type AuthService struct {
	provider IdentityProvider
	sync     *RoleSynchronizer
	profiles profile.Repository
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewAuthService(
	provider IdentityProvider,
	sync *RoleSynchronizer,
	profiles profile.Repository,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		provider: provider,
		sync:     sync,
		profiles: profiles,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
	}
}

func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (*identity.PendingIdentity, error) {
	pending, err := s.provider.SignUp(ctx, email, password, identity.Attributes{FullName: fullName})
	if err != nil {
		return nil, err
	}
	s.log.Info("sign-up pending verification", zap.String("pending_id", pending.ID))
	return pending, nil
}

func (s *AuthService) VerifySignUp(ctx context.Context, pendingID, code string) (*SignInResult, error) {
	sess, err := s.provider.VerifyChallenge(ctx, pendingID, code)
	return s.complete(ctx, "verify", sess, err)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	sess, err := s.provider.SignIn(ctx, email, password)
	if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, identity.ErrAccountLocked) {
		s.log.Warn("failed sign-in attempt",
			zap.String("email", email),
			zap.String("ip", RequestMetaFrom(ctx).IPAddress),
			zap.Error(err),
		)
	}
	return s.complete(ctx, "password", sess, err)
}

func (s *AuthService) SignInExternal(ctx context.Context, ext identity.ExternalIdentity) (*SignInResult, error) {
	sess, err := s.provider.SignInExternal(ctx, ext)
	return s.complete(ctx, ext.Provider, sess, err)
}

// Refresh rotates the token pair. The profile is not re-synced.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*identity.Session, error) {
	return s.provider.Refresh(ctx, refreshToken)
}

func (s *AuthService) SignOut(ctx context.Context, info identity.SessionInfo) error {
	if err := s.provider.SignOut(ctx, info); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		IdentityID:   info.Claims.IdentityID,
		Role:         info.Claims.Role,
		Action:       domain.ActionLogout,
		ResourceType: "session",
		ResourceID:   info.Claims.IdentityID.String(),
	})
	return nil
}

// complete runs the post sign-in steps shared by every sign-in method: the
// profile is synced from the identity and the redirect is chosen.
func (s *AuthService) complete(ctx context.Context, method string, sess *identity.Session, err error) (*SignInResult, error) {
	if err != nil {
		s.countSignIn(method, signInOutcome(err))
		return nil, err
	}

	id := sess.Identity.ID
	role, err := s.sync.SyncProfileFromIdentity(ctx, id)
	if err != nil {
		// Do not leave a session behind that has no profile to route by.
		if signOutErr := s.provider.SignOut(ctx, identity.SessionInfo{SessionID: sess.ID}); signOutErr != nil {
			s.log.Warn("revoking session after failed sync", zap.Error(signOutErr))
		}
		s.countSignIn(method, "failure")
		return nil, err
	}

	redirect := role.DashboardPath()
	if !s.isOnboarded(ctx, id, role) {
		redirect = access.OnboardingPath
	}

	s.countSignIn(method, "success")
	s.auditSvc.LogAsync(ctx, AuditEntry{
		IdentityID:   id,
		Role:         role,
		Action:       domain.ActionLogin,
		ResourceType: "session",
		ResourceID:   id.String(),
	})

	return &SignInResult{Session: sess, Role: role, RedirectPath: redirect}, nil
}

// isOnboarded reports whether the role row carries the onboarding form's
// required field. Lookup failures count as not onboarded.
func (s *AuthService) isOnboarded(ctx context.Context, id uuid.UUID, role domain.Role) bool {
	if role == domain.RoleDoctor {
		d, err := s.profiles.GetDoctor(ctx, id)
		return err == nil && d.IsOnboarded()
	}
	p, err := s.profiles.GetPatient(ctx, id)
	return err == nil && p.IsOnboarded()
}

func (s *AuthService) countSignIn(method, outcome string) {
	if s.metrics != nil {
		s.metrics.SignInsTotal.WithLabelValues(method, outcome).Inc()
	}
}

func signInOutcome(err error) string {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, identity.ErrAccountLocked):
		return "locked"
	case errors.Is(err, identity.ErrEmailNotVerified):
		return "unverified"
	case errors.Is(err, identity.ErrChallengeInvalid), errors.Is(err, identity.ErrChallengeExpired):
		return "bad_code"
	}
	return "failure"
}
