package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/chat"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/report"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/settings"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/tip"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepository struct {
	db *gorm.DB
}

var _ report.Repository = (*ReportRepository)(nil)

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	if err := r.db.WithContext(ctx).Create(rep).Error; err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	var rep report.Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rep).Error; err != nil {
		return nil, notFound(err, report.ErrReportNotFound)
	}
	return &rep, nil
}

func (r *ReportRepository) ListRecent(ctx context.Context, patientID uuid.UUID, limit int) ([]*report.Report, error) {
	var out []*report.Report
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return out, nil
}

type ChatRepository struct {
	db *gorm.DB
}

var _ chat.Repository = (*ChatRepository)(nil)

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Save(ctx context.Context, m *chat.Message) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("saving chat message: %w", err)
	}
	return nil
}

func (r *ChatRepository) History(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]*chat.Message, error) {
	var out []*chat.Message
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}
	slices.Reverse(out)
	return out, nil
}

type NotificationRepository struct {
	db *gorm.DB
}

var _ notification.Repository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*notification.Notification, error) {
	var out []*notification.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return affected(r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true), "marking notification read", notification.ErrNotificationNotFound)
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("marking notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

type TipRepository struct {
	db *gorm.DB
}

var _ tip.Repository = (*TipRepository)(nil)

func NewTipRepository(db *gorm.DB) *TipRepository {
	return &TipRepository{db: db}
}

func (r *TipRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&tip.DailyTip{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting tips: %w", err)
	}
	return n, nil
}

func (r *TipRepository) At(ctx context.Context, offset int) (*tip.DailyTip, error) {
	var t tip.DailyTip
	if err := r.db.WithContext(ctx).Order("id").Offset(offset).Take(&t).Error; err != nil {
		return nil, fmt.Errorf("loading tip %d: %w", offset, err)
	}
	return &t, nil
}

type SettingsRepository struct {
	db *gorm.DB
}

var _ settings.Repository = (*SettingsRepository)(nil)

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context, userID uuid.UUID) (*settings.Settings, error) {
	var s settings.Settings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, notFound(err, settings.ErrSettingsNotFound)
	}
	return &s, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, s *settings.Settings) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(s).Error
	if err != nil {
		return fmt.Errorf("upserting settings: %w", err)
	}
	return nil
}

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	q := r.db.WithContext(ctx)
	if entry.Changes == "" {
		q = q.Omit("changes") // not valid jsonb
	}
	if err := q.Create(entry).Error; err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}
