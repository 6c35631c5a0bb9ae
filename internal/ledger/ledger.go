// Package ledger is the only write path to user balances. Every mutation runs
// inside the caller's transaction and pairs the balance change with a ledger
// entry, an audit record and, when given, a status transition on the record
// that caused it.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/repository"
	"github.com/google/uuid"
)

// Transition is a status compare-and-swap on the causing record.
type Transition struct {
	From string
	To   string
}

// Op describes one balance operation.
type Op struct {
	UserID uuid.UUID
	// Amount is signed. Zero applies the transition alone.
	Amount  int64
	Kind    string
	RefType string
	RefID   uuid.UUID
	// Transition is nil for records created in the same transaction.
	Transition *Transition
	ActorID    *uuid.UUID
	Note       string
	At         time.Time
}

// entryCredits maps each entry kind to whether it adds to the balance.
var entryCredits = map[string]bool{
	domain.EntryDepositCredit:    true,
	domain.EntryWithdrawalRefund: true,
	domain.EntryInvestmentPayout: true,
	domain.EntryWithdrawalDebit:  false,
	domain.EntryInvestmentDebit:  false,
}

// Result reports what Apply wrote.
type Result struct {
	Entry   *models.LedgerEntry
	Balance int64
}

func (op Op) validate() error {
	if op.UserID == uuid.Nil {
		return domain.Invalid("user_id", "is required")
	}
	if op.RefID == uuid.Nil {
		return domain.Invalid("ref_id", "is required")
	}
	if _, ok := transitions[op.RefType]; !ok {
		return domain.Invalid("ref_type", "unknown record type %q", op.RefType)
	}
	if op.Amount != 0 && op.Kind == "" {
		return domain.Invalid("kind", "is required for a balance change")
	}
	if op.Amount == 0 && op.Transition == nil {
		return domain.Invalid("amount", "must be non-zero without a transition")
	}
	if op.Amount != 0 {
		credit, ok := entryCredits[op.Kind]
		if !ok {
			return domain.Invalid("kind", "unknown entry kind %q", op.Kind)
		}
		if credit != (op.Amount > 0) {
			return domain.Invalid("amount", "has the wrong sign for %s", op.Kind)
		}
	}
	return nil
}

// Apply runs op against q, which must be scoped to a transaction. On any error
// the caller's transaction must be rolled back; nothing Apply wrote is valid.
func Apply(ctx context.Context, q repository.Querier, op Op) (Result, error) {
	if err := op.validate(); err != nil {
		return Result{}, err
	}
	if op.At.IsZero() {
		op.At = time.Now().UTC()
	}

	if op.Transition != nil {
		if err := advance(ctx, q, op); err != nil {
			return Result{}, err
		}
	}

	var res Result
	if op.Amount != 0 {
		balance, err := q.AdjustUserBalance(ctx, op.UserID, op.Amount)
		if err != nil {
			return Result{}, err
		}
		entry, err := q.InsertLedgerEntry(ctx, models.LedgerEntry{
			ID:           uuid.New(),
			UserID:       op.UserID,
			Amount:       op.Amount,
			BalanceAfter: balance,
			Kind:         op.Kind,
			RefType:      op.RefType,
			RefID:        op.RefID,
			CreatedAt:    op.At,
		})
		if err != nil {
			return Result{}, err
		}
		res.Entry = &entry
		res.Balance = balance
	}

	if err := writeAudit(ctx, q, op, res); err != nil {
		return Result{}, err
	}
	return res, nil
}

func writeAudit(ctx context.Context, q repository.Querier, op Op, res Result) error {
	meta := map[string]any{"user_id": op.UserID, "amount": op.Amount}
	if res.Entry != nil {
		meta["kind"] = op.Kind
		meta["balance_after"] = res.Balance
	}
	if op.Note != "" {
		meta["note"] = op.Note
	}
	metadata, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	arg := repository.InsertAuditLogParams{
		EntityType: op.RefType,
		EntityID:   op.RefID,
		ActorID:    op.ActorID,
		Action:     op.Kind,
		Metadata:   metadata,
	}
	if op.Transition != nil {
		arg.PrevState = &op.Transition.From
		arg.NextState = &op.Transition.To
		if arg.Action == "" {
			arg.Action = op.Transition.To
		}
	}
	if _, err := q.InsertAuditLog(ctx, arg); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// DepositDecision maps an admin decision on a pending deposit to its ledger
// operation: approval credits the amount, rejection changes status only.
func DepositDecision(d models.Deposit, decision string, actor *uuid.UUID, note string, at time.Time) (Op, error) {
	op := Op{
		UserID:  d.UserID,
		RefType: domain.RefDeposit,
		RefID:   d.ID,
		ActorID: actor,
		Note:    note,
		At:      at,
	}
	switch decision {
	case domain.DecisionApprove:
		op.Amount = d.Amount
		op.Kind = domain.EntryDepositCredit
		op.Transition = &Transition{From: domain.StatusPending, To: domain.StatusApproved}
	case domain.DecisionReject:
		op.Transition = &Transition{From: domain.StatusPending, To: domain.StatusRejected}
	default:
		return Op{}, domain.Invalid("decision", "must be %q or %q", domain.DecisionApprove, domain.DecisionReject)
	}
	return op, nil
}

// WithdrawalDecision maps an admin decision on a pending withdrawal. Funds were
// reserved at request time, so approval changes status only and rejection
// refunds exactly the requested amount.
func WithdrawalDecision(w models.Withdrawal, decision string, actor *uuid.UUID, note string, at time.Time) (Op, error) {
	op := Op{
		UserID:  w.UserID,
		RefType: domain.RefWithdrawal,
		RefID:   w.ID,
		ActorID: actor,
		Note:    note,
		At:      at,
	}
	switch decision {
	case domain.DecisionApprove:
		op.Transition = &Transition{From: domain.StatusPending, To: domain.StatusApproved}
	case domain.DecisionReject:
		op.Amount = w.Amount
		op.Kind = domain.EntryWithdrawalRefund
		op.Transition = &Transition{From: domain.StatusPending, To: domain.StatusRejected}
	default:
		return Op{}, domain.Invalid("decision", "must be %q or %q", domain.DecisionApprove, domain.DecisionReject)
	}
	return op, nil
}

// WithdrawalReserve debits the requested amount for a withdrawal created in the
// same transaction.
func WithdrawalReserve(w models.Withdrawal) Op {
	return Op{
		UserID:  w.UserID,
		Amount:  -w.Amount,
		Kind:    domain.EntryWithdrawalDebit,
		RefType: domain.RefWithdrawal,
		RefID:   w.ID,
		ActorID: &w.UserID,
		At:      w.CreatedAt,
	}
}

// InvestmentPurchase debits the principal of a new investment.
func InvestmentPurchase(inv models.Investment) Op {
	return Op{
		UserID:  inv.UserID,
		Amount:  -inv.Amount,
		Kind:    domain.EntryInvestmentDebit,
		RefType: domain.RefInvestment,
		RefID:   inv.ID,
		ActorID: &inv.UserID,
		At:      inv.StartsAt,
	}
}

// InvestmentSettlement credits principal plus profit and marks the investment matured.
func InvestmentSettlement(inv models.Investment, at time.Time) Op {
	return Op{
		UserID:     inv.UserID,
		Amount:     inv.ExpectedReturn,
		Kind:       domain.EntryInvestmentPayout,
		RefType:    domain.RefInvestment,
		RefID:      inv.ID,
		Transition: &Transition{From: domain.InvestmentActive, To: domain.InvestmentMatured},
		At:         at,
	}
}

