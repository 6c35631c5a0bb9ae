package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/ledger"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/observability"
	"github.com/ayo6706/profitwave/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvestmentService sells catalog plans and pays them out at maturity.
type InvestmentService struct {
	store    QueryStore
	activity *ActivityService
}

func NewInvestmentService(store QueryStore) *InvestmentService {
	return &InvestmentService{
		store:    store,
		activity: NewActivityService(store),
	}
}

type PurchaseRequest struct {
	UserID   uuid.UUID
	PlanID   string
	Amount   int64
	ClientIP string
}

// Plans lists the investment catalog.
func (s *InvestmentService) Plans() []domain.Plan {
	return domain.Plans()
}

// Purchase debits the principal and opens an active investment.
func (s *InvestmentService) Purchase(ctx context.Context, req PurchaseRequest) (models.Investment, error) {
	plan, ok := domain.PlanByID(strings.TrimSpace(req.PlanID))
	if !ok {
		return models.Investment{}, domain.Invalid("plan_id", "unknown plan %q", req.PlanID)
	}
	if !plan.Accepts(req.Amount) {
		upper := plan.MaxAmount
		if upper == 0 {
			upper = domain.MaxAmount
		}
		return models.Investment{}, domain.Invalid("amount", "must be between %s and %s for the %s plan",
			domain.NewMoney(plan.MinAmount), domain.NewMoney(upper), plan.Name)
	}

	startsAt := now()
	inv := models.Investment{
		ID:             uuid.New(),
		UserID:         req.UserID,
		PlanID:         plan.ID,
		Amount:         req.Amount,
		ExpectedReturn: plan.ExpectedReturn(req.Amount),
		Status:         domain.InvestmentActive,
		StartsAt:       startsAt,
		MaturesAt:      startsAt.Add(plan.Duration()),
	}
	err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		if _, err := ledger.Apply(ctx, qtx, ledger.InvestmentPurchase(inv)); err != nil {
			return err
		}
		var err error
		inv, err = qtx.InsertInvestment(ctx, inv)
		if err != nil {
			return fmt.Errorf("insert investment: %w", err)
		}
		return s.activity.Record(ctx, qtx, req.UserID, domain.ActivityInvestmentPurchased,
			fmt.Sprintf("%s: %s", plan.Name, domain.NewMoney(inv.Amount)), req.ClientIP)
	})
	if err != nil {
		return models.Investment{}, err
	}

	observability.IncrementLedgerPosting(domain.EntryInvestmentDebit)
	zap.L().Info("investment purchased",
		zap.String("investment_id", inv.ID.String()),
		zap.String("plan_id", inv.PlanID),
		zap.Int64("amount", inv.Amount),
	)
	return inv, nil
}

func (s *InvestmentService) ListMine(ctx context.Context, userID uuid.UUID, status string, limit, offset int32) ([]models.Investment, error) {
	switch status {
	case "", domain.InvestmentActive, domain.InvestmentMatured:
	default:
		return nil, domain.Invalid("status", "must be active or matured")
	}
	limit, offset = normalizePage(limit, offset)
	return s.store.Queries().ListInvestments(ctx, repository.ListRecordsParams{
		UserID: &userID,
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
}

// SettleMatured pays out up to batchSize investments due at or before asOf and
// returns how many were settled. Each investment settles in its own
// transaction; one that fails is rolled back, logged and skipped for the rest
// of the call. Storage outages and cancellation abort the call.
func (s *InvestmentService) SettleMatured(ctx context.Context, asOf time.Time, batchSize int32) (int, error) {
	settled := 0
	var skip []uuid.UUID
	for settled+len(skip) < int(batchSize) {
		inv, found, err := s.settleNext(ctx, asOf, skip)
		if err != nil {
			if !found || errors.Is(err, domain.ErrStorageUnavailable) || ctx.Err() != nil {
				return settled, err
			}
			skip = append(skip, inv.ID)
			observability.IncrementWorkerRun("maturity_settlement", "failed")
			zap.L().Error("investment settlement failed",
				zap.String("investment_id", inv.ID.String()),
				zap.String("user_id", inv.UserID.String()),
				zap.Error(err))
			continue
		}
		if !found {
			break
		}
		settled++
		observability.IncrementLedgerPosting(domain.EntryInvestmentPayout)
	}

	if settled > 0 {
		zap.L().Info("matured investments settled", zap.Int("count", settled), zap.Int("failed", len(skip)))
	}
	return settled, nil
}

// settleNext claims the earliest due investment not in skip and pays it out.
// found is false when nothing is due; on error inv is the row that failed.
func (s *InvestmentService) settleNext(ctx context.Context, asOf time.Time, skip []uuid.UUID) (inv models.Investment, found bool, err error) {
	err = s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		found = false
		due, err := qtx.ClaimMaturedInvestments(ctx, repository.ClaimMaturedParams{AsOf: asOf, Limit: 1, Skip: skip})
		if err != nil {
			return fmt.Errorf("claim matured investments: %w", err)
		}
		if len(due) == 0 {
			return nil
		}
		inv, found = due[0], true
		if _, err := ledger.Apply(ctx, qtx, ledger.InvestmentSettlement(inv, asOf)); err != nil {
			return fmt.Errorf("settle investment %s: %w", inv.ID, err)
		}
		return s.activity.Record(ctx, qtx, inv.UserID, domain.ActivityInvestmentMatured,
			domain.NewMoney(inv.ExpectedReturn).String(), "")
	})
	return inv, found, err
}
