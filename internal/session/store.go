package session

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/google/uuid"
)

// Session is a signed-in browser or API client. Role is the identity's
// metadata role when the session was issued.
type Session struct {
	ID         string      `json:"id"`
	IdentityID uuid.UUID   `json:"identity_id"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

type Store interface {
	Create(ctx context.Context, s Session) error
	// Get returns (nil, nil) when the session does not exist or expired.
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}
