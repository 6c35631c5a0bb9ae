package service

import (
	"context"
	"fmt"

	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/repository"
	"github.com/google/uuid"
)

// NotificationService feeds the admin inbox. Notifications are informational
// copies; deposits and withdrawals stay authoritative.
type NotificationService struct {
	store QueryStore
}

func NewNotificationService(store QueryStore) *NotificationService {
	return &NotificationService{store: store}
}

type notice struct {
	Kind    string
	RefType string
	RefID   uuid.UUID
	UserID  uuid.UUID
	Amount  int64
	Message string
}

func (s *NotificationService) notify(ctx context.Context, qtx repository.Querier, n notice) error {
	_, err := qtx.InsertNotification(ctx, models.Notification{
		ID:        uuid.New(),
		Kind:      n.Kind,
		RefType:   n.RefType,
		RefID:     n.RefID,
		UserID:    n.UserID,
		Amount:    n.Amount,
		Message:   n.Message,
		CreatedAt: now(),
	})
	if err != nil {
		return fmt.Errorf("insert %s notification: %w", n.Kind, err)
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, unreadOnly bool, limit, offset int32) ([]models.Notification, error) {
	limit, offset = normalizePage(limit, offset)
	return s.store.Queries().ListNotifications(ctx, repository.ListNotificationsParams{
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	})
}

func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.store.Queries().MarkNotificationRead(ctx, id)
}
