package settings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSettingsNotFound   = errors.New("settings not found")
	ErrInvalidDetailLevel = errors.New("detail level must be concise or detailed")
	ErrInvalidTheme       = errors.New("theme must be light, dark or system")
)

type DetailLevel string

const (
	DetailConcise  DetailLevel = "concise"
	DetailDetailed DetailLevel = "detailed"
)

func (d DetailLevel) IsValid() bool {
	return d == DetailConcise || d == DetailDetailed
}

type Settings struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	AIEnabled          bool        `gorm:"column:ai_enabled;not null" json:"ai_enabled"`
	AIDetailLevel      DetailLevel `gorm:"column:ai_detail_level;type:varchar(20);not null" json:"ai_detail_level"`
	NotificationsPush  bool        `gorm:"column:notifications_push;not null" json:"notifications_push"`
	NotificationsEmail bool        `gorm:"column:notifications_email;not null" json:"notifications_email"`
	Theme              string      `gorm:"column:theme;type:varchar(20);not null" json:"theme"`
}

func (Settings) TableName() string {
	return "public.user_settings"
}

// Default is what a user gets before saving settings for the first time.
func Default(userID uuid.UUID) *Settings {
	return &Settings{
		UserID:             userID,
		AIEnabled:          true,
		AIDetailLevel:      DetailConcise,
		NotificationsPush:  true,
		NotificationsEmail: true,
		Theme:              "system",
	}
}

type UpdateCommand struct {
	AIEnabled          *bool
	AIDetailLevel      *DetailLevel
	NotificationsPush  *bool
	NotificationsEmail *bool
	Theme              *string
}

func (c *UpdateCommand) Validate() error {
	if c.AIDetailLevel != nil && !c.AIDetailLevel.IsValid() {
		return ErrInvalidDetailLevel
	}
	if c.Theme != nil {
		switch *c.Theme {
		case "light", "dark", "system":
		default:
			return ErrInvalidTheme
		}
	}
	return nil
}

func (c *UpdateCommand) Apply(s *Settings) {
	if c.AIEnabled != nil {
		s.AIEnabled = *c.AIEnabled
	}
	if c.AIDetailLevel != nil {
		s.AIDetailLevel = *c.AIDetailLevel
	}
	if c.NotificationsPush != nil {
		s.NotificationsPush = *c.NotificationsPush
	}
	if c.NotificationsEmail != nil {
		s.NotificationsEmail = *c.NotificationsEmail
	}
	if c.Theme != nil {
		s.Theme = *c.Theme
	}
}

type Repository interface {
	// Get returns ErrSettingsNotFound when the user never saved settings.
	Get(ctx context.Context, userID uuid.UUID) (*Settings, error)
	Upsert(ctx context.Context, s *Settings) error
}
