package ledger

import (
	"context"
	"fmt"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/repository"
)

var transitions = map[string]map[string]map[string]struct{}{
	domain.RefDeposit: {
		domain.StatusPending: {
			domain.StatusApproved: {},
			domain.StatusRejected: {},
		},
	},
	domain.RefWithdrawal: {
		domain.StatusPending: {
			domain.StatusApproved: {},
			domain.StatusRejected: {},
		},
	},
	domain.RefInvestment: {
		domain.InvestmentActive: {
			domain.InvestmentMatured: {},
		},
	},
}

// CanTransition reports whether refType records may move from one status to another.
// Approved, rejected and matured are terminal.
func CanTransition(refType, from, to string) bool {
	next, ok := transitions[refType][from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// advance performs the compare-and-swap on the causing record.
func advance(ctx context.Context, q repository.Querier, op Op) error {
	t := op.Transition
	if !CanTransition(op.RefType, t.From, t.To) {
		return fmt.Errorf("invalid %s state transition: %s -> %s", op.RefType, t.From, t.To)
	}

	arg := repository.TransitionParams{
		ID:          op.RefID,
		From:        t.From,
		To:          t.To,
		Note:        op.Note,
		ProcessedBy: op.ActorID,
		At:          op.At,
	}
	var err error
	switch op.RefType {
	case domain.RefDeposit:
		_, err = q.TransitionDepositStatus(ctx, arg)
	case domain.RefWithdrawal:
		_, err = q.TransitionWithdrawalStatus(ctx, arg)
	case domain.RefInvestment:
		_, err = q.TransitionInvestmentStatus(ctx, arg)
	}
	return err
}
