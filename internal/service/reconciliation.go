package service

import (
	"context"
	"fmt"

	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/observability"
	"go.uber.org/zap"
)

const reconciliationScanLimit int32 = 500

// ReconciliationService verifies ledger integrity invariants.
type ReconciliationService struct {
	store QueryStore
	stats *StatsService
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(store QueryStore) *ReconciliationService {
	return &ReconciliationService{store: store, stats: NewStatsService(store)}
}

// Run checks that every user's balance equals the sum of their ledger entries
// and returns the users that diverge.
func (s *ReconciliationService) Run(ctx context.Context) ([]models.BalanceMismatch, error) {
	mismatches, err := s.store.Queries().GetBalanceMismatches(ctx, reconciliationScanLimit)
	if err != nil {
		return nil, fmt.Errorf("run balance mismatch query: %w", err)
	}

	// refresh the pending queue gauges on every pass
	if _, err := s.stats.Get(ctx); err != nil {
		zap.L().Warn("failed to refresh platform stats", zap.Error(err))
	}

	if len(mismatches) == 0 {
		zap.L().Info("Ledger Balanced")
		return mismatches, nil
	}

	for _, m := range mismatches {
		observability.IncrementLedgerImbalance("user")
		zap.L().Error("CRITICAL: balance diverges from ledger",
			zap.String("user_id", m.UserID.String()),
			zap.Int64("balance", m.Balance),
			zap.Int64("ledger_sum", m.LedgerSum),
		)
	}
	return mismatches, nil
}
