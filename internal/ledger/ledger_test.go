package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/ayo6706/profitwave/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *repository.MemoryStore
	admin uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, ctx: context.Background(), store: repository.NewMemoryStore(), admin: uuid.New()}
}

func (f *fixture) user() models.User {
	f.t.Helper()
	id := uuid.New()
	u, _, err := f.store.Queries().UpsertUserBySubject(f.ctx, repository.UpsertUserParams{
		ID: id, Subject: "sub-" + id.String(), Role: domain.RoleUser,
	})
	require.NoError(f.t, err)
	return u
}

func (f *fixture) pendingDeposit(userID uuid.UUID, amount int64) models.Deposit {
	f.t.Helper()
	d, err := f.store.Queries().InsertDeposit(f.ctx, models.Deposit{
		ID: uuid.New(), UserID: userID, Amount: amount, Method: domain.MethodMTNMoMo,
		Reference: uuid.NewString(), Status: domain.StatusPending, CreatedAt: time.Now().UTC(),
	})
	require.NoError(f.t, err)
	return d
}

func (f *fixture) decideDeposit(d models.Deposit, decision string) error {
	op, err := DepositDecision(d, decision, &f.admin, "", time.Now().UTC())
	if err != nil {
		return err
	}
	return f.store.RunInTx(f.ctx, func(q repository.Querier) error {
		_, err := Apply(f.ctx, q, op)
		return err
	})
}

func (f *fixture) fund(userID uuid.UUID, amount int64) {
	f.t.Helper()
	require.NoError(f.t, f.decideDeposit(f.pendingDeposit(userID, amount), domain.DecisionApprove))
}

func (f *fixture) requestWithdrawal(userID uuid.UUID, amount int64) (models.Withdrawal, error) {
	w := models.Withdrawal{
		ID: uuid.New(), UserID: userID, Amount: amount, Method: domain.MethodOrangeMoney,
		AccountName: "Ada", AccountNumber: "690000000", RequestKey: uuid.NewString(),
		Status: domain.StatusPending, CreatedAt: time.Now().UTC(),
	}
	err := f.store.RunInTx(f.ctx, func(q repository.Querier) error {
		if _, err := Apply(f.ctx, q, WithdrawalReserve(w)); err != nil {
			return err
		}
		var err error
		w, err = q.InsertWithdrawal(f.ctx, w)
		return err
	})
	return w, err
}

func (f *fixture) decideWithdrawal(id uuid.UUID, decision string) error {
	w, err := f.store.Queries().GetWithdrawal(f.ctx, id)
	if err != nil {
		return err
	}
	op, err := WithdrawalDecision(w, decision, &f.admin, "", time.Now().UTC())
	if err != nil {
		return err
	}
	return f.store.RunInTx(f.ctx, func(q repository.Querier) error {
		_, err := Apply(f.ctx, q, op)
		return err
	})
}

func (f *fixture) balance(id uuid.UUID) int64 {
	f.t.Helper()
	u, err := f.store.Queries().GetUser(f.ctx, id)
	require.NoError(f.t, err)
	return u.Balance
}

func (f *fixture) ledgerSum(id uuid.UUID) int64 {
	f.t.Helper()
	entries, err := f.store.Queries().ListLedgerEntries(f.ctx, id, 0, 0)
	require.NoError(f.t, err)
	var sum int64
	for _, e := range entries {
		sum += e.Amount
	}
	return sum
}

func TestDepositConfirmThenApprove(t *testing.T) {
	f := newFixture(t)
	u := f.user()

	d := f.pendingDeposit(u.ID, 6_500)
	assert.Zero(t, f.balance(u.ID))

	require.NoError(t, f.decideDeposit(d, domain.DecisionApprove))
	assert.Equal(t, int64(6_500), f.balance(u.ID))

	got, err := f.store.Queries().GetDeposit(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
	require.NotNil(t, got.ProcessedBy)
	assert.Equal(t, f.admin, *got.ProcessedBy)

	err = f.decideDeposit(d, domain.DecisionApprove)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	err = f.decideDeposit(d, domain.DecisionReject)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.Equal(t, int64(6_500), f.balance(u.ID))
	assert.Equal(t, f.balance(u.ID), f.ledgerSum(u.ID))
}

func TestDepositRejectHasNoBalanceEffect(t *testing.T) {
	f := newFixture(t)
	u := f.user()
	d := f.pendingDeposit(u.ID, 20_000)

	require.NoError(t, f.decideDeposit(d, domain.DecisionReject))
	assert.Zero(t, f.balance(u.ID))

	got, err := f.store.Queries().GetDeposit(f.ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)

	logs, err := f.store.Queries().ListAuditLogs(f.ctx, domain.RefDeposit, d.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.StatusPending, logs[0].PrevState)
	assert.Equal(t, domain.StatusRejected, logs[0].NextState)
}

func TestWithdrawalRejectRefundsExactly(t *testing.T) {
	f := newFixture(t)
	u := f.user()
	f.fund(u.ID, 10_000)

	w, err := f.requestWithdrawal(u.ID, 9_500)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, w.Status)
	assert.Equal(t, int64(500), f.balance(u.ID))

	require.NoError(t, f.decideWithdrawal(w.ID, domain.DecisionReject))
	assert.Equal(t, int64(10_000), f.balance(u.ID))

	got, err := f.store.Queries().GetWithdrawal(f.ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)

	err = f.decideWithdrawal(w.ID, domain.DecisionApprove)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.Equal(t, int64(10_000), f.balance(u.ID))
	assert.Equal(t, f.balance(u.ID), f.ledgerSum(u.ID))
}

func TestWithdrawalApproveKeepsReservation(t *testing.T) {
	f := newFixture(t)
	u := f.user()
	f.fund(u.ID, 15_000)

	w, err := f.requestWithdrawal(u.ID, 10_000)
	require.NoError(t, err)
	require.NoError(t, f.decideWithdrawal(w.ID, domain.DecisionApprove))
	assert.Equal(t, int64(5_000), f.balance(u.ID))

	err = f.decideWithdrawal(w.ID, domain.DecisionReject)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.Equal(t, int64(5_000), f.balance(u.ID))
}

func TestOverBalanceWithdrawalWritesNothing(t *testing.T) {
	f := newFixture(t)
	u := f.user()
	f.fund(u.ID, 5_000)

	_, err := f.requestWithdrawal(u.ID, 9_500)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, int64(5_000), f.balance(u.ID))

	pending, err := f.store.Queries().ListWithdrawals(f.ctx, repository.ListRecordsParams{UserID: &u.ID})
	require.NoError(t, err)
	assert.Empty(t, pending)

	entries, err := f.store.Queries().ListLedgerEntries(f.ctx, u.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLedgerTokenGuardsRepeatPosting(t *testing.T) {
	f := newFixture(t)
	u := f.user()
	f.fund(u.ID, 50_000)

	inv := models.Investment{ID: uuid.New(), UserID: u.ID, Amount: 10_000, StartsAt: time.Now().UTC()}
	post := func() error {
		return f.store.RunInTx(f.ctx, func(q repository.Querier) error {
			_, err := Apply(f.ctx, q, InvestmentPurchase(inv))
			return err
		})
	}
	require.NoError(t, post())
	assert.ErrorIs(t, post(), domain.ErrAlreadyProcessed)
	assert.Equal(t, int64(40_000), f.balance(u.ID))
}

func TestInvestmentSettlement(t *testing.T) {
	f := newFixture(t)
	u := f.user()
	f.fund(u.ID, 50_000)

	now := time.Now().UTC()
	inv := models.Investment{
		ID: uuid.New(), UserID: u.ID, PlanID: "starter", Amount: 50_000, ExpectedReturn: 55_000,
		Status: domain.InvestmentActive, StartsAt: now.Add(-8 * 24 * time.Hour), MaturesAt: now.Add(-24 * time.Hour),
	}
	err := f.store.RunInTx(f.ctx, func(q repository.Querier) error {
		if _, err := Apply(f.ctx, q, InvestmentPurchase(inv)); err != nil {
			return err
		}
		_, err := q.InsertInvestment(f.ctx, inv)
		return err
	})
	require.NoError(t, err)
	assert.Zero(t, f.balance(u.ID))

	settle := func() error {
		return f.store.RunInTx(f.ctx, func(q repository.Querier) error {
			_, err := Apply(f.ctx, q, InvestmentSettlement(inv, now))
			return err
		})
	}
	require.NoError(t, settle())
	assert.Equal(t, int64(55_000), f.balance(u.ID))
	assert.ErrorIs(t, settle(), domain.ErrAlreadyProcessed)
	assert.Equal(t, int64(55_000), f.balance(u.ID))
}

func TestApplyValidation(t *testing.T) {
	ctx := context.Background()
	q := repository.NewMemoryStore().Queries()

	_, err := Apply(ctx, q, Op{RefID: uuid.New(), RefType: domain.RefDeposit, Amount: 1, Kind: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Apply(ctx, q, Op{UserID: uuid.New(), RefID: uuid.New(), RefType: "bonus", Amount: 1, Kind: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Apply(ctx, q, Op{UserID: uuid.New(), RefID: uuid.New(), RefType: domain.RefDeposit, Amount: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Apply(ctx, q, Op{UserID: uuid.New(), RefID: uuid.New(), RefType: domain.RefDeposit})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Apply(ctx, q, Op{UserID: uuid.New(), RefID: uuid.New(), RefType: domain.RefDeposit, Amount: -5, Kind: domain.EntryDepositCredit})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Apply(ctx, q, Op{UserID: uuid.New(), RefID: uuid.New(), RefType: domain.RefInvestment, Amount: 5, Kind: domain.EntryInvestmentDebit})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Apply(ctx, q, Op{UserID: uuid.New(), RefID: uuid.New(), RefType: domain.RefDeposit, Amount: 5, Kind: "bonus_credit"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = DepositDecision(models.Deposit{}, "escalate", nil, "", time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = WithdrawalDecision(models.Withdrawal{}, "", nil, "", time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(domain.RefDeposit, domain.StatusPending, domain.StatusApproved))
	assert.True(t, CanTransition(domain.RefWithdrawal, domain.StatusPending, domain.StatusRejected))
	assert.True(t, CanTransition(domain.RefInvestment, domain.InvestmentActive, domain.InvestmentMatured))
	assert.False(t, CanTransition(domain.RefDeposit, domain.StatusApproved, domain.StatusRejected))
	assert.False(t, CanTransition(domain.RefWithdrawal, domain.StatusRejected, domain.StatusPending))
	assert.False(t, CanTransition(domain.RefDeposit, domain.InvestmentActive, domain.InvestmentMatured))
}

func TestConcurrentDecisionsConserveBalance(t *testing.T) {
	f := newFixture(t)
	u := f.user()
	const b0 = int64(100_000)
	f.fund(u.ID, b0)

	deposits := make([]models.Deposit, 20)
	for i := range deposits {
		deposits[i] = f.pendingDeposit(u.ID, int64(1_000*(i+1)))
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		approvedD  int64
		reservedW  int64
		approvals  int
		withdrawns []uuid.UUID
	)
	for _, d := range deposits {
		for iter := 0; iter < 3; iter++ {
			wg.Add(1)
			go func(d models.Deposit) {
				defer wg.Done()
				if err := f.decideDeposit(d, domain.DecisionApprove); err == nil {
					mu.Lock()
					approvedD += d.Amount
					approvals++
					mu.Unlock()
				}
			}(d)
		}
	}
	for iter := 0; iter < 30; iter++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := f.requestWithdrawal(u.ID, 9_500)
			if err == nil {
				mu.Lock()
				reservedW += w.Amount
				withdrawns = append(withdrawns, w.ID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(deposits), approvals)
	assert.Equal(t, b0+approvedD-reservedW, f.balance(u.ID))
	assert.GreaterOrEqual(t, f.balance(u.ID), int64(0))

	// reject half of the withdrawals concurrently, twice each
	var refunded int64
	for i, id := range withdrawns {
		if i%2 == 1 {
			continue
		}
		for iter := 0; iter < 2; iter++ {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				if err := f.decideWithdrawal(id, domain.DecisionReject); err == nil {
					mu.Lock()
					refunded += 9_500
					mu.Unlock()
				}
			}(id)
		}
	}
	wg.Wait()

	assert.Equal(t, b0+approvedD-reservedW+refunded, f.balance(u.ID))
	assert.Equal(t, f.balance(u.ID), f.ledgerSum(u.ID))

	mismatches, err := f.store.Queries().GetBalanceMismatches(f.ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}
