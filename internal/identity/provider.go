// Package identity authenticates people and owns their identity metadata.
package identity

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/google/uuid"
)

// Attributes are the optional details collected at sign-up.
type Attributes struct {
	FullName string
}

// PendingIdentity is a sign-up waiting for its emailed code.
type PendingIdentity struct {
	ID        string    `json:"pending_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session is the result of a completed sign-in.
type Session struct {
	ID        string
	Identity  *domain.Identity
	Tokens    *domain.TokenPair
	ExpiresAt time.Time
}

// SessionInfo describes the session behind a request.
type SessionInfo struct {
	SessionID string
	Claims    domain.Claims
}

// ExternalIdentity is what an OAuth provider vouches for.
type ExternalIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	FullName      string
}

type Provider interface {
	SignUp(ctx context.Context, email, password string, attrs Attributes) (*PendingIdentity, error)
	VerifyChallenge(ctx context.Context, pendingID, code string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// CurrentSession resolves a bearer token or session cookie value. An
	// absent, invalid or revoked token yields (nil, nil).
	CurrentSession(ctx context.Context, token string) (*SessionInfo, error)

	GetIdentity(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, md domain.Metadata) error

	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, info SessionInfo) error
}
