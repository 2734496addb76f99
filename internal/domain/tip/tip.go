package tip

import (
	"context"

	"github.com/google/uuid"
)

type DailyTip struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title    string    `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Content  string    `gorm:"column:content;type:text;not null" json:"content"`
	Category string    `gorm:"column:category;type:varchar(50)" json:"category"`
}

func (DailyTip) TableName() string {
	return "public.daily_tips"
}

// Fallback is served when no tips are stored.
var Fallback = DailyTip{
	Title:    "Hydration boosts brain function.",
	Content:  "Drinking water helps maintain focus and energy levels throughout the day. Aim for 8 glasses daily.",
	Category: "General",
}

type Repository interface {
	Count(ctx context.Context) (int64, error)

	// At returns the tip at offset in a stable order.
	At(ctx context.Context, offset int) (*DailyTip, error)
}
