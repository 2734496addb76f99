package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:idx_chats_user_session" json:"user_id"`
	SessionID string    `gorm:"column:session_id;type:varchar(64);not null;index:idx_chats_user_session" json:"session_id"`
	Sender    Sender    `gorm:"column:sender;type:varchar(10);not null" json:"sender"`
	Message   string    `gorm:"column:message;type:text;not null" json:"message"`
}

func (Message) TableName() string {
	return "public.chats"
}

type Repository interface {
	Save(ctx context.Context, m *Message) error

	// History returns up to limit of the latest messages of a session,
	// oldest first.
	History(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]*Message, error)
}
