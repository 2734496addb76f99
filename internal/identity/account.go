package identity

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/google/uuid"
)

// Account is the stored form of an identity.
type Account struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Email         string          `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash  string          `gorm:"column:password_hash;type:varchar(255)"` // empty for OAuth-only accounts
	FullName      string          `gorm:"column:full_name;type:varchar(200)"`
	EmailVerified bool            `gorm:"column:email_verified;not null"`
	Metadata      domain.Metadata `gorm:"column:metadata;type:jsonb;serializer:json"`

	ExternalProvider string `gorm:"column:external_provider;type:varchar(30);index:idx_identities_external"`
	ExternalSubject  string `gorm:"column:external_subject;type:varchar(255);index:idx_identities_external"`

	FailedLoginCount int        `gorm:"column:failed_login_count;not null"`
	LockedUntil      *time.Time `gorm:"column:locked_until"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at"`
}

func (Account) TableName() string {
	return "auth.identities"
}

func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

func (a *Account) Identity() *domain.Identity {
	return &domain.Identity{
		ID:            a.ID,
		Email:         a.Email,
		FullName:      a.FullName,
		EmailVerified: a.EmailVerified,
		Metadata:      a.Metadata,
		CreatedAt:     a.CreatedAt,
	}
}

type AccountStore interface {
	// Create returns ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByExternal(ctx context.Context, provider, subject string) (*Account, error)

	// ResetPending replaces the credentials of an unverified account.
	ResetPending(ctx context.Context, id uuid.UUID, passwordHash, fullName string) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, md domain.Metadata) error
	LinkExternal(ctx context.Context, id uuid.UUID, provider, subject string) error

	// RecordLoginAttempt resets the failure counter on success. On failure it
	// increments it and locks the account for lockFor once maxFailed is reached.
	RecordLoginAttempt(ctx context.Context, id uuid.UUID, success bool, maxFailed int, lockFor time.Duration) error
}
