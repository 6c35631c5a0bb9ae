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

const maxRequestKeyLength = 128

// WithdrawalService handles payout requests. Funds are reserved when the
// request is created, so pending withdrawals can never exceed the balance.
type WithdrawalService struct {
	store         QueryStore
	minWithdrawal int64
	audit         *AuditService
	activity      *ActivityService
	notify        *NotificationService
}

func NewWithdrawalService(store QueryStore, minWithdrawal int64) *WithdrawalService {
	if minWithdrawal <= 0 {
		minWithdrawal = domain.DefaultMinWithdrawal
	}
	return &WithdrawalService{
		store:         store,
		minWithdrawal: minWithdrawal,
		audit:         NewAuditService(),
		activity:      NewActivityService(store),
		notify:        NewNotificationService(store),
	}
}

// RequestWithdrawalRequest holds the parameters for creating a withdrawal.
type RequestWithdrawalRequest struct {
	UserID        uuid.UUID
	Amount        int64
	Method        string
	AccountName   string
	AccountNumber string
	RequestKey    string
	ClientIP      string
}

func (r *RequestWithdrawalRequest) normalize(minWithdrawal int64) error {
	r.Method = strings.TrimSpace(r.Method)
	r.AccountName = strings.TrimSpace(r.AccountName)
	r.AccountNumber = strings.TrimSpace(r.AccountNumber)
	r.RequestKey = strings.TrimSpace(r.RequestKey)

	if r.RequestKey == "" {
		return domain.Invalid("idempotency_key", "is required")
	}
	if len(r.RequestKey) > maxRequestKeyLength {
		return domain.Invalid("idempotency_key", "must be at most %d characters", maxRequestKeyLength)
	}
	if r.Amount < minWithdrawal {
		return domain.Invalid("amount", "must be at least %s", domain.NewMoney(minWithdrawal))
	}
	if r.Amount > domain.MaxAmount {
		return domain.Invalid("amount", "must be at most %s", domain.NewMoney(domain.MaxAmount))
	}
	if !domain.ValidMethod(r.Method) {
		return domain.Invalid("method", "must be one of mtn_momo, orange_money, bank")
	}
	if r.AccountName == "" {
		return domain.Invalid("account_name", "is required")
	}
	if r.AccountNumber == "" {
		return domain.Invalid("account_number", "is required")
	}
	if r.Method != domain.MethodBankTransfer && !validPhone(r.AccountNumber) {
		return domain.Invalid("account_number", "must be a mobile money number of 8 to 15 digits")
	}
	return nil
}

// Request debits the balance and creates a pending withdrawal in one
// transaction. An insufficient balance fails before any record exists. A
// repeated request key returns the original withdrawal with created=false.
func (s *WithdrawalService) Request(ctx context.Context, req RequestWithdrawalRequest) (models.Withdrawal, bool, error) {
	if err := req.normalize(s.minWithdrawal); err != nil {
		return models.Withdrawal{}, false, err
	}

	queries := s.store.Queries()
	existing, err := queries.GetWithdrawalByRequestKey(ctx, req.UserID, req.RequestKey)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return models.Withdrawal{}, false, fmt.Errorf("check withdrawal request key: %w", err)
	}

	user, err := queries.GetUser(ctx, req.UserID)
	if err != nil {
		return models.Withdrawal{}, false, err
	}
	if !user.ProfileCompleted {
		return models.Withdrawal{}, false, domain.Invalid("profile", "complete your profile before requesting a withdrawal")
	}

	withdrawal := models.Withdrawal{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Amount:        req.Amount,
		Method:        req.Method,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		RequestKey:    req.RequestKey,
		Status:        domain.StatusPending,
		CreatedAt:     now(),
	}
	var balance int64
	err = s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		res, err := ledger.Apply(ctx, qtx, ledger.WithdrawalReserve(withdrawal))
		if err != nil {
			return err
		}
		balance = res.Balance

		withdrawal, err = qtx.InsertWithdrawal(ctx, withdrawal)
		if err != nil {
			return fmt.Errorf("insert withdrawal: %w", err)
		}

		if err := s.audit.Write(ctx, qtx, domain.RefWithdrawal, withdrawal.ID, &req.UserID, "created", "", domain.StatusPending, map[string]any{
			"method":         withdrawal.Method,
			"account_name":   withdrawal.AccountName,
			"account_number": withdrawal.AccountNumber,
		}); err != nil {
			return err
		}
		if err := s.notify.notify(ctx, qtx, notice{
			Kind:    domain.NotifyWithdrawalRequested,
			RefType: domain.RefWithdrawal,
			RefID:   withdrawal.ID,
			UserID:  withdrawal.UserID,
			Amount:  withdrawal.Amount,
			Message: fmt.Sprintf("Withdrawal of %s to %s (%s) requested", domain.NewMoney(withdrawal.Amount), withdrawal.AccountNumber, withdrawal.Method),
		}); err != nil {
			return err
		}
		return s.activity.Record(ctx, qtx, req.UserID, domain.ActivityWithdrawalRequested, domain.NewMoney(withdrawal.Amount).String(), req.ClientIP)
	})
	if errors.Is(err, domain.ErrConflict) {
		// a concurrent request with the same key won
		existing, getErr := queries.GetWithdrawalByRequestKey(ctx, req.UserID, req.RequestKey)
		if getErr == nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return models.Withdrawal{}, false, err
	}

	observability.IncrementLedgerPosting(domain.EntryWithdrawalDebit)
	zap.L().Info("withdrawal requested",
		zap.String("withdrawal_id", withdrawal.ID.String()),
		zap.String("user_id", withdrawal.UserID.String()),
		zap.Int64("amount", withdrawal.Amount),
		zap.Int64("balance_after", balance),
	)
	return withdrawal, true, nil
}

func (s *WithdrawalService) Approve(ctx context.Context, adminID, id uuid.UUID, note string) (models.Withdrawal, error) {
	return s.Decide(ctx, DecisionRequest{ID: id, AdminID: adminID, Decision: domain.DecisionApprove, Note: note})
}

func (s *WithdrawalService) Reject(ctx context.Context, adminID, id uuid.UUID, note string) (models.Withdrawal, error) {
	return s.Decide(ctx, DecisionRequest{ID: id, AdminID: adminID, Decision: domain.DecisionReject, Note: note})
}

// Decide settles a pending withdrawal. Approval keeps the reserved debit;
// rejection refunds exactly the requested amount.
func (s *WithdrawalService) Decide(ctx context.Context, req DecisionRequest) (models.Withdrawal, error) {
	var (
		withdrawal models.Withdrawal
		posted     string
	)
	err := s.store.RunInTx(ctx, func(qtx repository.Querier) error {
		current, err := qtx.GetWithdrawal(ctx, req.ID)
		if err != nil {
			return err
		}
		op, err := ledger.WithdrawalDecision(current, req.Decision, &req.AdminID, strings.TrimSpace(req.Note), now())
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

		kind, verb := domain.NotifyWithdrawalApproved, "approved"
		if req.Decision == domain.DecisionReject {
			kind, verb = domain.NotifyWithdrawalRejected, "rejected and refunded"
		}
		if err := s.notify.notify(ctx, qtx, notice{
			Kind:    kind,
			RefType: domain.RefWithdrawal,
			RefID:   current.ID,
			UserID:  current.UserID,
			Amount:  current.Amount,
			Message: fmt.Sprintf("Withdrawal of %s %s", domain.NewMoney(current.Amount), verb),
		}); err != nil {
			return err
		}

		withdrawal, err = qtx.GetWithdrawal(ctx, req.ID)
		return err
	})
	if err != nil {
		observability.IncrementDecision(domain.RefWithdrawal, req.Decision, decisionResult(err))
		return models.Withdrawal{}, err
	}

	observability.IncrementDecision(domain.RefWithdrawal, req.Decision, "ok")
	observability.IncrementLedgerPosting(posted)
	zap.L().Info("withdrawal decided",
		zap.String("withdrawal_id", withdrawal.ID.String()),
		zap.String("decision", req.Decision),
		zap.String("admin_id", req.AdminID.String()),
	)
	return withdrawal, nil
}

func (s *WithdrawalService) Get(ctx context.Context, id uuid.UUID) (models.Withdrawal, error) {
	return s.store.Queries().GetWithdrawal(ctx, id)
}

// History returns the audit trail of a withdrawal.
func (s *WithdrawalService) History(ctx context.Context, id uuid.UUID) ([]AuditEntry, error) {
	return s.audit.History(ctx, s.store.Queries(), domain.RefWithdrawal, id)
}

func (s *WithdrawalService) ListMine(ctx context.Context, userID uuid.UUID, status string, limit, offset int32) ([]models.Withdrawal, error) {
	return s.List(ctx, repository.ListRecordsParams{UserID: &userID, Status: status, Limit: limit, Offset: offset})
}

func (s *WithdrawalService) List(ctx context.Context, arg repository.ListRecordsParams) ([]models.Withdrawal, error) {
	if err := validateStatusFilter(arg.Status); err != nil {
		return nil, err
	}
	arg.Limit, arg.Offset = normalizePage(arg.Limit, arg.Offset)
	return s.store.Queries().ListWithdrawals(ctx, arg)
}
