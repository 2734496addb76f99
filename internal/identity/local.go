package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/config"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/session"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/auth"
)

const minPasswordLength = 8

// LocalProvider is the built-in identity provider: password accounts with
// emailed verification codes, JWT access tokens and Redis-backed sessions.
type LocalProvider struct {
	accounts   AccountStore
	challenges ChallengeStore
	sessions   session.Store
	tokens     *auth.JWTManager
	notifier   ChallengeNotifier
	cfg        config.SessionConfig
	log        *zap.Logger
	now        func() time.Time
}

var _ Provider = (*LocalProvider)(nil)

func NewLocalProvider(
	accounts AccountStore,
	challenges ChallengeStore,
	sessions session.Store,
	tokens *auth.JWTManager,
	notifier ChallengeNotifier,
	cfg config.SessionConfig,
	log *zap.Logger,
) *LocalProvider {
	return &LocalProvider{
		accounts:   accounts,
		challenges: challenges,
		sessions:   sessions,
		tokens:     tokens,
		notifier:   notifier,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string, attrs Attributes) (*PendingIdentity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	fullName := strings.TrimSpace(attrs.FullName)

	acc, err := p.accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrIdentityNotFound):
		acc = &Account{Email: email, PasswordHash: string(hash), FullName: fullName}
		if err := p.accounts.Create(ctx, acc); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("looking up account: %w", err)
	case acc.EmailVerified:
		return nil, ErrEmailTaken
	default:
		// An unfinished sign-up for this email: start over with the new credentials.
		if err := p.accounts.ResetPending(ctx, acc.ID, string(hash), fullName); err != nil {
			return nil, fmt.Errorf("resetting pending account: %w", err)
		}
	}

	return p.issueChallenge(ctx, acc.ID, email)
}

func (p *LocalProvider) issueChallenge(ctx context.Context, identityID uuid.UUID, email string) (*PendingIdentity, error) {
	id, err := session.GenerateID()
	if err != nil {
		return nil, err
	}
	code, err := newCode()
	if err != nil {
		return nil, err
	}

	ch := &Challenge{
		ID:         id,
		IdentityID: identityID,
		Email:      email,
		CodeHash:   hashCode(code),
		ExpiresAt:  p.now().Add(p.cfg.ChallengeTTL),
	}
	if err := p.challenges.Save(ctx, ch); err != nil {
		return nil, fmt.Errorf("saving challenge: %w", err)
	}
	if err := p.notifier.SendCode(ctx, email, code); err != nil {
		return nil, fmt.Errorf("sending verification code: %w", err)
	}

	return &PendingIdentity{ID: id, Email: email, ExpiresAt: ch.ExpiresAt}, nil
}

func (p *LocalProvider) VerifyChallenge(ctx context.Context, pendingID, code string) (*Session, error) {
	ch, err := p.challenges.Get(ctx, pendingID)
	if err != nil {
		return nil, fmt.Errorf("loading challenge: %w", err)
	}
	if ch == nil {
		return nil, ErrChallengeInvalid
	}

	if !p.now().Before(ch.ExpiresAt) {
		_ = p.challenges.Delete(ctx, ch.ID)
		return nil, ErrChallengeExpired
	}

	if !ch.Matches(strings.TrimSpace(code)) {
		ch.Attempts++
		if ch.Attempts >= p.cfg.ChallengeMaxAttempts {
			_ = p.challenges.Delete(ctx, ch.ID)
		} else if err := p.challenges.Save(ctx, ch); err != nil {
			p.log.Warn("failed to record challenge attempt", zap.Error(err))
		}
		return nil, ErrChallengeInvalid
	}

	if err := p.challenges.Delete(ctx, ch.ID); err != nil {
		p.log.Warn("failed to delete used challenge", zap.Error(err))
	}
	if err := p.accounts.MarkVerified(ctx, ch.IdentityID); err != nil {
		return nil, fmt.Errorf("marking account verified: %w", err)
	}

	acc, err := p.accounts.GetByID(ctx, ch.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return p.issueSession(ctx, acc)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	acc, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrIdentityNotFound) {
			return nil, fmt.Errorf("looking up account: %w", err)
		}
		// Burn comparable time so response latency does not reveal
		// whether the email is registered.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, ErrInvalidCredentials
	}

	if acc.IsLocked(p.now()) {
		return nil, ErrAccountLocked
	}

	if acc.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		if err := p.accounts.RecordLoginAttempt(ctx, acc.ID, false, p.cfg.MaxFailedAttempts, p.cfg.LockoutDuration); err != nil {
			p.log.Warn("failed to record sign-in attempt", zap.Error(err))
		}
		return nil, ErrInvalidCredentials
	}

	if !acc.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if err := p.accounts.RecordLoginAttempt(ctx, acc.ID, true, p.cfg.MaxFailedAttempts, p.cfg.LockoutDuration); err != nil {
		p.log.Warn("failed to record sign-in attempt", zap.Error(err))
	}

	return p.issueSession(ctx, acc)
}

// SignInExternal signs in an identity vouched for by an OAuth provider,
// creating or linking the account as needed.
func (p *LocalProvider) SignInExternal(ctx context.Context, ext ExternalIdentity) (*Session, error) {
	acc, err := p.accounts.GetByExternal(ctx, ext.Provider, ext.Subject)
	if err == nil {
		return p.issueSession(ctx, acc)
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return nil, fmt.Errorf("looking up external account: %w", err)
	}

	email, err := normalizeEmail(ext.Email)
	if err != nil {
		return nil, err
	}

	acc, err = p.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		// Only link when the provider has verified the address; otherwise
		// anyone could claim an existing account.
		if !ext.EmailVerified {
			return nil, ErrEmailTaken
		}
		if err := p.accounts.LinkExternal(ctx, acc.ID, ext.Provider, ext.Subject); err != nil {
			return nil, fmt.Errorf("linking external account: %w", err)
		}
		if !acc.EmailVerified {
			if err := p.accounts.MarkVerified(ctx, acc.ID); err != nil {
				return nil, fmt.Errorf("marking account verified: %w", err)
			}
			acc.EmailVerified = true
		}
	case errors.Is(err, ErrIdentityNotFound):
		acc = &Account{
			Email:            email,
			FullName:         strings.TrimSpace(ext.FullName),
			EmailVerified:    ext.EmailVerified,
			ExternalProvider: ext.Provider,
			ExternalSubject:  ext.Subject,
		}
		if err := p.accounts.Create(ctx, acc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	return p.issueSession(ctx, acc)
}

func (p *LocalProvider) issueSession(ctx context.Context, acc *Account) (*Session, error) {
	sid, err := session.GenerateID()
	if err != nil {
		return nil, err
	}

	claims := &domain.Claims{
		IdentityID: acc.ID,
		SessionID:  sid,
		Email:      acc.Email,
		Role:       acc.Metadata.Role,
	}
	pair, err := p.tokens.GenerateTokenPair(claims)
	if err != nil {
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	now := p.now()
	expiresAt := now.Add(p.tokens.RefreshTTL())
	if err := p.sessions.Create(ctx, session.Session{
		ID:         sid,
		IdentityID: acc.ID,
		Email:      acc.Email,
		Role:       acc.Metadata.Role,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &Session{ID: sid, Identity: acc.Identity(), Tokens: pair, ExpiresAt: expiresAt}, nil
}

// looksLikeJWT tells bearer tokens apart from opaque cookie session ids.
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

func (p *LocalProvider) CurrentSession(ctx context.Context, token string) (*SessionInfo, error) {
	if token == "" {
		return nil, nil
	}

	sid := token
	var claims *domain.Claims
	if looksLikeJWT(token) {
		c, err := p.tokens.ValidateAccessToken(token)
		if err != nil {
			return nil, nil
		}
		claims, sid = c, c.SessionID
	}

	s, err := p.sessions.Get(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if s == nil {
		return nil, nil
	}

	if claims == nil {
		claims = &domain.Claims{IdentityID: s.IdentityID, SessionID: s.ID, Email: s.Email, Role: s.Role}
	} else if claims.IdentityID != s.IdentityID {
		return nil, nil
	}

	return &SessionInfo{SessionID: s.ID, Claims: *claims}, nil
}

func (p *LocalProvider) GetIdentity(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	acc, err := p.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return acc.Identity(), nil
}

func (p *LocalProvider) UpdateMetadata(ctx context.Context, id uuid.UUID, md domain.Metadata) error {
	return p.accounts.UpdateMetadata(ctx, id, md)
}

// Refresh rotates the token pair of a live session and extends it.
func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := p.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	s, err := p.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if s == nil || s.IdentityID != claims.IdentityID {
		return nil, ErrSessionRevoked
	}

	acc, err := p.accounts.GetByID(ctx, claims.IdentityID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading account: %w", err)
	}

	fresh := &domain.Claims{
		IdentityID: acc.ID,
		SessionID:  s.ID,
		Email:      acc.Email,
		Role:       acc.Metadata.Role,
	}
	pair, err := p.tokens.GenerateTokenPair(fresh)
	if err != nil {
		return nil, fmt.Errorf("generating tokens: %w", err)
	}

	s.Role = acc.Metadata.Role
	s.ExpiresAt = p.now().Add(p.tokens.RefreshTTL())
	if err := p.sessions.Update(ctx, *s); err != nil {
		return nil, fmt.Errorf("extending session: %w", err)
	}

	return &Session{ID: s.ID, Identity: acc.Identity(), Tokens: pair, ExpiresAt: s.ExpiresAt}, nil
}

func (p *LocalProvider) SignOut(ctx context.Context, info SessionInfo) error {
	if err := p.sessions.Delete(ctx, info.SessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
