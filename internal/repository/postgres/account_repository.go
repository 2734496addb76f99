package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/identity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

var _ identity.AccountStore = (*AccountRepository)(nil)

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *identity.Account) error {
	err := r.db.WithContext(ctx).Create(a).Error
	if isUniqueViolation(err) {
		return identity.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*identity.Account, error) {
	var a identity.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, notFound(err, identity.ErrIdentityNotFound)
	}
	return &a, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*identity.Account, error) {
	var a identity.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, notFound(err, identity.ErrIdentityNotFound)
	}
	return &a, nil
}

func (r *AccountRepository) GetByExternal(ctx context.Context, provider, subject string) (*identity.Account, error) {
	var a identity.Account
	err := r.db.WithContext(ctx).
		Where("external_provider = ? AND external_subject = ?", provider, subject).
		First(&a).Error
	if err != nil {
		return nil, notFound(err, identity.ErrIdentityNotFound)
	}
	return &a, nil
}

func (r *AccountRepository) ResetPending(ctx context.Context, id uuid.UUID, passwordHash, fullName string) error {
	return affected(r.db.WithContext(ctx).
		Model(&identity.Account{}).
		Where("id = ? AND email_verified = ?", id, false).
		Updates(map[string]any{
			"password_hash":      passwordHash,
			"full_name":          fullName,
			"failed_login_count": 0,
			"locked_until":       nil,
		}), "resetting pending account", identity.ErrIdentityNotFound)
}

func (r *AccountRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return affected(r.db.WithContext(ctx).
		Model(&identity.Account{}).
		Where("id = ?", id).
		Update("email_verified", true), "marking account verified", identity.ErrIdentityNotFound)
}

func (r *AccountRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, md domain.Metadata) error {
	// A struct update runs the column's json serializer.
	return affected(r.db.WithContext(ctx).
		Model(&identity.Account{ID: id}).
		Select("metadata").
		Updates(&identity.Account{Metadata: md}), "updating metadata", identity.ErrIdentityNotFound)
}

func (r *AccountRepository) LinkExternal(ctx context.Context, id uuid.UUID, provider, subject string) error {
	return affected(r.db.WithContext(ctx).
		Model(&identity.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"external_provider": provider,
			"external_subject":  subject,
		}), "linking external account", identity.ErrIdentityNotFound)
}

func (r *AccountRepository) RecordLoginAttempt(ctx context.Context, id uuid.UUID, success bool, maxFailed int, lockFor time.Duration) error {
	now := time.Now().UTC()
	q := r.db.WithContext(ctx).Model(&identity.Account{}).Where("id = ?", id)

	if success {
		return affected(q.Updates(map[string]any{
			"failed_login_count": 0,
			"locked_until":       nil,
			"last_login_at":      now,
		}), "recording sign-in", identity.ErrIdentityNotFound)
	}

	// Reaching maxFailed locks the account and starts a fresh count.
	return affected(q.Updates(map[string]any{
		"failed_login_count": gorm.Expr("CASE WHEN failed_login_count + 1 >= ? THEN 0 ELSE failed_login_count + 1 END", maxFailed),
		"locked_until":       gorm.Expr("CASE WHEN failed_login_count + 1 >= ? THEN ? ELSE locked_until END", maxFailed, now.Add(lockFor)),
	}), "recording failed sign-in", identity.ErrIdentityNotFound)
}
