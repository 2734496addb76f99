package service

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/notification"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const recentNotifications = 10

type NotificationService struct {
	repo notification.Repository
	log  *zap.Logger
}

func NewNotificationService(repo notification.Repository, log *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, log: log}
}

type NotificationFeed struct {
	Notifications []*notification.Notification `json:"notifications"`
	Unread        int64                        `json:"unread"`
}

func (s *NotificationService) Feed(ctx context.Context, caller *domain.Claims) (*NotificationFeed, error) {
	if caller == nil {
		return nil, ErrNotAuthenticated
	}
	items, err := s.repo.ListRecent(ctx, caller.IdentityID, recentNotifications)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, caller.IdentityID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*notification.Notification{}
	}
	return &NotificationFeed{Notifications: items, Unread: unread}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, caller *domain.Claims) (int64, error) {
	if caller == nil {
		return 0, ErrNotAuthenticated
	}
	return s.repo.CountUnread(ctx, caller.IdentityID)
}

// MarkRead marks one of the caller's notifications as read. Someone else's
// notification is reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, caller *domain.Claims, id uuid.UUID) error {
	if caller == nil {
		return ErrNotAuthenticated
	}
	return s.repo.MarkRead(ctx, caller.IdentityID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, caller *domain.Claims) (int64, error) {
	if caller == nil {
		return 0, ErrNotAuthenticated
	}
	n, err := s.repo.MarkAllRead(ctx, caller.IdentityID)
	if err != nil {
		return 0, err
	}
	s.log.Debug("notifications marked read", zap.String("identity_id", caller.IdentityID.String()), zap.Int64("count", n))
	return n, nil
}

// Notify stores a notification for userID. Failures are logged only.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, kind notification.Kind, title, message string) {
	n := &notification.Notification{UserID: userID, Kind: kind, Title: title, Message: message}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Warn("failed to create notification", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
