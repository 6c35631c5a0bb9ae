package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/repository"
	"github.com/google/uuid"
)

const threadPageSize int32 = 100

// SupportService is the user to back-office chat. Each user owns one thread.
type SupportService struct {
	store    QueryStore
	activity *ActivityService
}

func NewSupportService(store QueryStore) *SupportService {
	return &SupportService{
		store:    store,
		activity: NewActivityService(store),
	}
}

func normalizeBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", domain.Invalid("body", "is required")
	}
	if utf8.RuneCountInString(body) > domain.MaxSupportMessageLength {
		return "", domain.Invalid("body", "must be at most %d characters", domain.MaxSupportMessageLength)
	}
	return body, nil
}

// Send posts a user message to their own thread.
func (s *SupportService) Send(ctx context.Context, userID uuid.UUID, body, clientIP string) (models.SupportMessage, error) {
	body, err := normalizeBody(body)
	if err != nil {
		return models.SupportMessage{}, err
	}

	var msg models.SupportMessage
	err = s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		var err error
		msg, err = qtx.InsertSupportMessage(ctx, models.SupportMessage{
			ID:         uuid.New(),
			UserID:     userID,
			SenderRole: domain.RoleUser,
			SenderID:   userID,
			Body:       body,
			ReadByUser: true,
			CreatedAt:  now(),
		})
		if err != nil {
			return fmt.Errorf("insert support message: %w", err)
		}
		return s.activity.Record(ctx, qtx, userID, domain.ActivitySupportMessage, "", clientIP)
	})
	if err != nil {
		return models.SupportMessage{}, err
	}
	return msg, nil
}

// Thread returns the caller's conversation, oldest first, and marks replies as read.
func (s *SupportService) Thread(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.SupportMessage, error) {
	return s.readThread(ctx, userID, domain.RoleUser, limit, offset)
}

// Threads lists conversations for the admin inbox, most recent first.
func (s *SupportService) Threads(ctx context.Context, limit, offset int32) ([]models.SupportThread, error) {
	limit, offset = normalizePage(limit, offset)
	return s.store.Queries().ListSupportThreads(ctx, limit, offset)
}

// AdminThread returns a user's conversation and marks their messages read by staff.
func (s *SupportService) AdminThread(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.SupportMessage, error) {
	return s.readThread(ctx, userID, domain.RoleAdmin, limit, offset)
}

// Reply posts a staff message to a user's thread.
func (s *SupportService) Reply(ctx context.Context, adminID, userID uuid.UUID, body string) (models.SupportMessage, error) {
	body, err := normalizeBody(body)
	if err != nil {
		return models.SupportMessage{}, err
	}

	var msg models.SupportMessage
	err = s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		if _, err := qtx.GetUser(ctx, userID); err != nil {
			return err
		}
		var err error
		msg, err = qtx.InsertSupportMessage(ctx, models.SupportMessage{
			ID:          uuid.New(),
			UserID:      userID,
			SenderRole:  domain.RoleAdmin,
			SenderID:    adminID,
			Body:        body,
			ReadByAdmin: true,
			CreatedAt:   now(),
		})
		if err != nil {
			return fmt.Errorf("insert support reply: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.SupportMessage{}, err
	}
	return msg, nil
}

func (s *SupportService) readThread(ctx context.Context, userID uuid.UUID, readerRole string, limit, offset int32) ([]models.SupportMessage, error) {
	if limit <= 0 {
		limit = threadPageSize
	}
	limit, offset = normalizePage(limit, offset)

	var msgs []models.SupportMessage
	err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		if _, err := qtx.GetUser(ctx, userID); err != nil {
			return err
		}
		if _, err := qtx.MarkSupportMessagesRead(ctx, userID, readerRole); err != nil {
			return err
		}
		var err error
		msgs, err = qtx.ListSupportMessages(ctx, userID, limit, offset)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
