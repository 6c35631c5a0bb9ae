package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/ledger"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/observability"
	"github.com/ayo6706/profitwave/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxReferenceLength = 100

// DepositService handles user deposit confirmations and admin decisions.
type DepositService struct {
	store      QueryStore
	minDeposit int64
	audit      *AuditService
	activity   *ActivityService
	notify     *NotificationService
}

func NewDepositService(store QueryStore, minDeposit int64) *DepositService {
	if minDeposit <= 0 {
		minDeposit = domain.DefaultMinDeposit
	}
	return &DepositService{
		store:      store,
		minDeposit: minDeposit,
		audit:      NewAuditService(),
		activity:   NewActivityService(store),
		notify:     NewNotificationService(store),
	}
}

// ConfirmDepositRequest is a user's claim that they paid through an operator channel.
type ConfirmDepositRequest struct {
	UserID     uuid.UUID
	Amount     int64
	Method     string
	PayerPhone string
	Reference  string
	ClientIP   string
}

func (r *ConfirmDepositRequest) normalize(minDeposit int64) error {
	r.Method = strings.TrimSpace(r.Method)
	r.PayerPhone = strings.TrimSpace(r.PayerPhone)
	r.Reference = strings.TrimSpace(r.Reference)

	if r.Amount < minDeposit {
		return domain.Invalid("amount", "must be at least %s", domain.NewMoney(minDeposit))
	}
	if r.Amount > domain.MaxAmount {
		return domain.Invalid("amount", "must be at most %s", domain.NewMoney(domain.MaxAmount))
	}
	if !domain.ValidMethod(r.Method) {
		return domain.Invalid("method", "must be one of mtn_momo, orange_money, bank")
	}
	if r.Method != domain.MethodBankTransfer && !validPhone(r.PayerPhone) {
		return domain.Invalid("payer_phone", "must be 8 to 15 digits")
	}
	if r.Reference == "" {
		return domain.Invalid("reference", "is required")
	}
	if len(r.Reference) > maxReferenceLength {
		return domain.Invalid("reference", "must be at most %d characters", maxReferenceLength)
	}
	return nil
}

// Confirm records a pending deposit. The balance is unchanged until an admin
// approves it. A reference the user already submitted returns the existing
// deposit with created=false.
func (s *DepositService) Confirm(ctx context.Context, req ConfirmDepositRequest) (models.Deposit, bool, error) {
	if err := req.normalize(s.minDeposit); err != nil {
		return models.Deposit{}, false, err
	}

	existing, err := s.store.Queries().GetDepositByReference(ctx, req.UserID, req.Reference)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return models.Deposit{}, false, fmt.Errorf("check deposit reference: %w", err)
	}

	var deposit models.Deposit
	err = s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		var err error
		deposit, err = qtx.InsertDeposit(ctx, models.Deposit{
			ID:         uuid.New(),
			UserID:     req.UserID,
			Amount:     req.Amount,
			Method:     req.Method,
			PayerPhone: req.PayerPhone,
			Reference:  req.Reference,
			Status:     domain.StatusPending,
			CreatedAt:  now(),
		})
		if err != nil {
			return fmt.Errorf("insert deposit: %w", err)
		}

		if err := s.notify.notify(ctx, qtx, notice{
			Kind:    domain.NotifyDepositConfirmed,
			RefType: domain.RefDeposit,
			RefID:   deposit.ID,
			UserID:  deposit.UserID,
			Amount:  deposit.Amount,
			Message: fmt.Sprintf("Deposit of %s via %s awaiting review (ref %s)", domain.NewMoney(deposit.Amount), deposit.Method, deposit.Reference),
		}); err != nil {
			return err
		}
		if err := s.audit.Write(ctx, qtx, domain.RefDeposit, deposit.ID, &req.UserID, "created", "", domain.StatusPending, nil); err != nil {
			return err
		}
		return s.activity.Record(ctx, qtx, req.UserID, domain.ActivityDepositConfirmed, deposit.Reference, req.ClientIP)
	})
	if errors.Is(err, domain.ErrConflict) {
		// a concurrent confirmation with the same reference won
		existing, getErr := s.store.Queries().GetDepositByReference(ctx, req.UserID, req.Reference)
		if getErr == nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return models.Deposit{}, false, err
	}

	zap.L().Info("deposit confirmed",
		zap.String("deposit_id", deposit.ID.String()),
		zap.String("user_id", deposit.UserID.String()),
		zap.Int64("amount", deposit.Amount),
	)
	return deposit, true, nil
}

// DecisionRequest is an admin approve/reject action on a pending record.
type DecisionRequest struct {
	ID       uuid.UUID
	AdminID  uuid.UUID
	Decision string
	Note     string
}

func (s *DepositService) Approve(ctx context.Context, adminID, id uuid.UUID, note string) (models.Deposit, error) {
	return s.Decide(ctx, DecisionRequest{ID: id, AdminID: adminID, Decision: domain.DecisionApprove, Note: note})
}

func (s *DepositService) Reject(ctx context.Context, adminID, id uuid.UUID, note string) (models.Deposit, error) {
	return s.Decide(ctx, DecisionRequest{ID: id, AdminID: adminID, Decision: domain.DecisionReject, Note: note})
}

// Decide applies an admin decision through the ledger. A record that already
// left pending fails with domain.ErrAlreadyProcessed and nothing changes.
func (s *DepositService) Decide(ctx context.Context, req DecisionRequest) (models.Deposit, error) {
	var (
		deposit models.Deposit
		posted  string
	)
	err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		current, err := qtx.GetDeposit(ctx, req.ID)
		if err != nil {
			return err
		}
		op, err := ledger.DepositDecision(current, req.Decision, &req.AdminID, strings.TrimSpace(req.Note), now())
		if err != nil {
			return err
		}
		res, err := ledger.Apply(ctx, qtx, op)
		if err != nil {
			return err
		}
		if res.Entry != nil {
			posted = res.Entry.Kind
		}

		kind, verb := domain.NotifyDepositApproved, "approved"
		if req.Decision == domain.DecisionReject {
			kind, verb = domain.NotifyDepositRejected, "rejected"
		}
		if err := s.notify.notify(ctx, qtx, notice{
			Kind:    kind,
			RefType: domain.RefDeposit,
			RefID:   current.ID,
			UserID:  current.UserID,
			Amount:  current.Amount,
			Message: fmt.Sprintf("Deposit of %s %s", domain.NewMoney(current.Amount), verb),
		}); err != nil {
			return err
		}

		deposit, err = qtx.GetDeposit(ctx, req.ID)
		return err
	})
	if err != nil {
		observability.IncrementDecision(domain.RefDeposit, req.Decision, decisionResult(err))
		return models.Deposit{}, err
	}

	observability.IncrementDecision(domain.RefDeposit, req.Decision, "ok")
	observability.IncrementLedgerPosting(posted)
	zap.L().Info("deposit decided",
		zap.String("deposit_id", deposit.ID.String()),
		zap.String("decision", req.Decision),
		zap.String("admin_id", req.AdminID.String()),
	)
	return deposit, nil
}

func (s *DepositService) Get(ctx context.Context, id uuid.UUID) (models.Deposit, error) {
	return s.store.Queries().GetDeposit(ctx, id)
}

// History returns the audit trail of a deposit.
func (s *DepositService) History(ctx context.Context, id uuid.UUID) ([]AuditEntry, error) {
	return s.audit.History(ctx, s.store.Queries(), domain.RefDeposit, id)
}

func (s *DepositService) ListMine(ctx context.Context, userID uuid.UUID, status string, limit, offset int32) ([]models.Deposit, error) {
	return s.List(ctx, repository.ListRecordsParams{UserID: &userID, Status: status, Limit: limit, Offset: offset})
}

func (s *DepositService) List(ctx context.Context, arg repository.ListRecordsParams) ([]models.Deposit, error) {
	if err := validateStatusFilter(arg.Status); err != nil {
		return nil, err
	}
	arg.Limit, arg.Offset = normalizePage(arg.Limit, arg.Offset)
	return s.store.Queries().ListDeposits(ctx, arg)
}

func validateStatusFilter(status string) error {
	switch status {
	case "", domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
		return nil
	default:
		return domain.Invalid("status", "must be pending, approved or rejected")
	}
}

func decisionResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
