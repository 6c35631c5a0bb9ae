package service

import (
	"context"
	"fmt"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/observability"
)

// StatsService aggregates back-office totals.
type StatsService struct {
	store QueryStore
}

func NewStatsService(store QueryStore) *StatsService {
	return &StatsService{store: store}
}

func (s *StatsService) Get(ctx context.Context) (models.PlatformStats, error) {
	stats, err := s.store.Queries().GetPlatformStats(ctx)
	if err != nil {
		return models.PlatformStats{}, fmt.Errorf("get platform stats: %w", err)
	}
	observability.SetPendingQueueSize(domain.RefDeposit, stats.PendingDeposits)
	observability.SetPendingQueueSize(domain.RefWithdrawal, stats.PendingWithdrawals)
	return stats, nil
}
