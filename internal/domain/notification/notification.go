package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotificationNotFound = errors.New("notification not found")

type Kind string

const (
	KindInfo    Kind = "info"
	KindAlert   Kind = "alert"
	KindSuccess Kind = "success"
)

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	UserID  uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Title   string    `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Message string    `gorm:"column:message;type:text" json:"message"`
	Kind    Kind      `gorm:"column:type;type:varchar(20);not null" json:"type"`
	IsRead  bool      `gorm:"column:is_read;not null;index" json:"is_read"`
}

func (Notification) TableName() string {
	return "public.notifications"
}

type Repository interface {
	Create(ctx context.Context, n *Notification) error

	// ListRecent returns the user's newest notifications first.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	// MarkRead returns ErrNotificationNotFound unless id belongs to userID.
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}
