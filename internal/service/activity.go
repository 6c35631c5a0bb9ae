package service

import (
	"context"
	"fmt"

	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/repository"
	"github.com/google/uuid"
)

// ActivityService tracks user-visible account actions.
type ActivityService struct {
	store QueryStore
}

func NewActivityService(store QueryStore) *ActivityService {
	return &ActivityService{store: store}
}

// Record appends an activity row in the caller's transaction.
func (s *ActivityService) Record(ctx context.Context, qtx repository.Querier, userID uuid.UUID, action, detail, ip string) error {
	_, err := qtx.InsertActivity(ctx, models.Activity{
		ID:        uuid.New(),
		UserID:    userID,
		Action:    action,
		Detail:    detail,
		IP:        ip,
		CreatedAt: now(),
	})
	if err != nil {
		return fmt.Errorf("record %s activity: %w", action, err)
	}
	return nil
}

// List returns a user's activity, newest first.
func (s *ActivityService) List(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.Activity, error) {
	limit, offset = normalizePage(limit, offset)
	return s.store.Queries().ListActivities(ctx, userID, limit, offset)
}

// ListForUser is the admin view of another user's activity.
func (s *ActivityService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.Activity, error) {
	if _, err := s.store.Queries().GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.List(ctx, userID, limit, offset)
}
