package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.openly.dev/pointy"
)

// runStoreSuite exercises the Querier contract both backends must honour.
func runStoreSuite(t *testing.T, store Store) {
	ctx := context.Background()
	q := store.Queries()

	newUser := func(t *testing.T) models.User {
		t.Helper()
		id := uuid.New()
		u, created, err := q.UpsertUserBySubject(ctx, UpsertUserParams{
			ID:      id,
			Subject: "sub-" + id.String(),
			Email:   id.String()[:8] + "@example.com",
			Role:    domain.RoleUser,
		})
		require.NoError(t, err)
		require.True(t, created)
		return u
	}

	t.Run("upsert user is idempotent per subject", func(t *testing.T) {
		u := newUser(t)
		again, created, err := q.UpsertUserBySubject(ctx, UpsertUserParams{
			ID:      uuid.New(),
			Subject: u.Subject,
			Role:    domain.RoleAdmin,
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, u.ID, again.ID)
		assert.Equal(t, u.Email, again.Email)
		assert.Equal(t, domain.RoleAdmin, again.Role)

		bySubject, err := q.GetUserBySubject(ctx, u.Subject)
		require.NoError(t, err)
		assert.Equal(t, u.ID, bySubject.ID)
	})

	t.Run("missing rows map to not found", func(t *testing.T) {
		_, err := q.GetUser(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = q.GetDeposit(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = q.AdjustUserBalance(ctx, uuid.New(), 10)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, q.MarkNotificationRead(ctx, uuid.New()), domain.ErrNotFound)
	})

	t.Run("profile update keeps unset fields", func(t *testing.T) {
		u := newUser(t)
		_, err := q.UpdateUserProfile(ctx, UpdateUserProfileParams{ID: u.ID, FullName: pointy.String("Ada N."), Phone: pointy.String("237650000000")})
		require.NoError(t, err)

		updated, err := q.UpdateUserProfile(ctx, UpdateUserProfileParams{ID: u.ID, Country: pointy.String("CM"), ProfileCompleted: true})
		require.NoError(t, err)
		assert.Equal(t, "Ada N.", updated.FullName)
		assert.Equal(t, "237650000000", updated.Phone)
		assert.Equal(t, "CM", updated.Country)
		assert.True(t, updated.ProfileCompleted)
	})

	t.Run("balance never goes negative", func(t *testing.T) {
		u := newUser(t)
		bal, err := q.AdjustUserBalance(ctx, u.ID, 10_000)
		require.NoError(t, err)
		assert.Equal(t, int64(10_000), bal)

		_, err = q.AdjustUserBalance(ctx, u.ID, -10_001)
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

		bal, err = q.AdjustUserBalance(ctx, u.ID, -10_000)
		require.NoError(t, err)
		assert.Zero(t, bal)
	})

	t.Run("balance credit past the integer range is refused", func(t *testing.T) {
		u := newUser(t)
		_, err := q.AdjustUserBalance(ctx, u.ID, math.MaxInt64)
		require.NoError(t, err)

		_, err = q.AdjustUserBalance(ctx, u.ID, 1)
		assert.ErrorIs(t, err, domain.ErrBalanceLimit)

		got, err := q.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt64), got.Balance)
	})

	t.Run("user search treats like wildcards literally", func(t *testing.T) {
		tag := uuid.NewString()[:8]
		for _, local := range []string{"a_b" + tag, "axb" + tag, "a%b" + tag} {
			id := uuid.New()
			_, _, err := q.UpsertUserBySubject(ctx, UpsertUserParams{
				ID: id, Subject: "sub-" + id.String(), Email: local + "@example.com", Role: domain.RoleUser,
			})
			require.NoError(t, err)
		}

		got, err := q.ListUsers(ctx, ListUsersParams{Query: "a_b" + tag, Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a_b"+tag+"@example.com", got[0].Email)

		got, err = q.ListUsers(ctx, ListUsersParams{Query: "a%b" + tag, Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a%b"+tag+"@example.com", got[0].Email)
	})

	t.Run("deposit transition is compare and swap", func(t *testing.T) {
		u := newUser(t)
		now := time.Now().UTC().Truncate(time.Microsecond)
		d, err := q.InsertDeposit(ctx, models.Deposit{
			ID: uuid.New(), UserID: u.ID, Amount: 6_500, Method: domain.MethodMTNMoMo,
			Reference: "TX-" + u.ID.String()[:8], Status: domain.StatusPending, CreatedAt: now,
		})
		require.NoError(t, err)

		_, err = q.InsertDeposit(ctx, models.Deposit{
			ID: uuid.New(), UserID: u.ID, Amount: 1_000, Method: domain.MethodMTNMoMo,
			Reference: d.Reference, Status: domain.StatusPending, CreatedAt: now,
		})
		assert.ErrorIs(t, err, domain.ErrConflict)

		byRef, err := q.GetDepositByReference(ctx, u.ID, d.Reference)
		require.NoError(t, err)
		assert.Equal(t, d.ID, byRef.ID)

		admin := uuid.New()
		approved, err := q.TransitionDepositStatus(ctx, TransitionParams{
			ID: d.ID, From: domain.StatusPending, To: domain.StatusApproved, Note: "ok", ProcessedBy: &admin, At: now,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, approved.Status)
		require.NotNil(t, approved.ProcessedBy)
		assert.Equal(t, admin, *approved.ProcessedBy)
		require.NotNil(t, approved.ProcessedAt)

		_, err = q.TransitionDepositStatus(ctx, TransitionParams{
			ID: d.ID, From: domain.StatusPending, To: domain.StatusRejected, At: now,
		})
		assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

		_, err = q.TransitionDepositStatus(ctx, TransitionParams{ID: uuid.New(), From: domain.StatusPending, To: domain.StatusApproved, At: now})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("withdrawal request key is unique per user", func(t *testing.T) {
		u := newUser(t)
		now := time.Now().UTC()
		w := models.Withdrawal{
			ID: uuid.New(), UserID: u.ID, Amount: 9_500, Method: domain.MethodOrangeMoney,
			AccountName: "Ada", AccountNumber: "690000000", RequestKey: "key-1", Status: domain.StatusPending, CreatedAt: now,
		}
		_, err := q.InsertWithdrawal(ctx, w)
		require.NoError(t, err)

		dup := w
		dup.ID = uuid.New()
		_, err = q.InsertWithdrawal(ctx, dup)
		assert.ErrorIs(t, err, domain.ErrConflict)

		got, err := q.GetWithdrawalByRequestKey(ctx, u.ID, "key-1")
		require.NoError(t, err)
		assert.Equal(t, w.ID, got.ID)

		list, err := q.ListWithdrawals(ctx, ListRecordsParams{UserID: &u.ID, Status: domain.StatusPending, Limit: 10})
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("ledger token rejects a second posting", func(t *testing.T) {
		u := newUser(t)
		ref := uuid.New()
		e := models.LedgerEntry{
			ID: uuid.New(), UserID: u.ID, Amount: 100, BalanceAfter: 100,
			Kind: domain.EntryDepositCredit, RefType: domain.RefDeposit, RefID: ref, CreatedAt: time.Now().UTC(),
		}
		err := store.RunInTx(ctx, func(tx Querier) error {
			_, err := tx.InsertLedgerEntry(ctx, e)
			return err
		})
		require.NoError(t, err)

		err = store.RunInTx(ctx, func(tx Querier) error {
			e.ID = uuid.New()
			_, err := tx.InsertLedgerEntry(ctx, e)
			return err
		})
		assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

		entries, err := q.ListLedgerEntries(ctx, u.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("failed transaction leaves no trace", func(t *testing.T) {
		u := newUser(t)
		boom := errors.New("boom")
		err := store.RunInTx(ctx, func(tx Querier) error {
			if _, err := tx.AdjustUserBalance(ctx, u.ID, 5_000); err != nil {
				return err
			}
			if _, err := tx.InsertDeposit(ctx, models.Deposit{
				ID: uuid.New(), UserID: u.ID, Amount: 5_000, Method: domain.MethodBankTransfer,
				Reference: "rollback", Status: domain.StatusPending, CreatedAt: time.Now().UTC(),
			}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := q.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Zero(t, got.Balance)

		_, err = q.GetDepositByReference(ctx, u.ID, "rollback")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("claim matured investments", func(t *testing.T) {
		u := newUser(t)
		now := time.Now().UTC().Truncate(time.Second)
		due, err := q.InsertInvestment(ctx, models.Investment{
			ID: uuid.New(), UserID: u.ID, PlanID: "starter", Amount: 5_000, ExpectedReturn: 5_500,
			Status: domain.InvestmentActive, StartsAt: now.Add(-8 * 24 * time.Hour), MaturesAt: now.Add(-time.Hour),
		})
		require.NoError(t, err)
		_, err = q.InsertInvestment(ctx, models.Investment{
			ID: uuid.New(), UserID: u.ID, PlanID: "starter", Amount: 5_000, ExpectedReturn: 5_500,
			Status: domain.InvestmentActive, StartsAt: now, MaturesAt: now.Add(7 * 24 * time.Hour),
		})
		require.NoError(t, err)

		err = store.RunInTx(ctx, func(tx Querier) error {
			claimed, err := tx.ClaimMaturedInvestments(ctx, ClaimMaturedParams{AsOf: now, Limit: 100})
			if err != nil {
				return err
			}
			ids := make([]uuid.UUID, 0, len(claimed))
			for _, inv := range claimed {
				ids = append(ids, inv.ID)
			}
			assert.Contains(t, ids, due.ID)
			for _, inv := range claimed {
				assert.False(t, inv.MaturesAt.After(now))
			}

			settled, err := tx.TransitionInvestmentStatus(ctx, TransitionParams{
				ID: due.ID, From: domain.InvestmentActive, To: domain.InvestmentMatured, At: now,
			})
			if err != nil {
				return err
			}
			assert.NotNil(t, settled.SettledAt)
			return nil
		})
		require.NoError(t, err)

		mine, err := q.ListInvestments(ctx, ListRecordsParams{UserID: &u.ID})
		require.NoError(t, err)
		assert.Len(t, mine, 2)
	})

	t.Run("claim leaves out skipped investments", func(t *testing.T) {
		u := newUser(t)
		now := time.Now().UTC().Truncate(time.Second)
		first, err := q.InsertInvestment(ctx, models.Investment{
			ID: uuid.New(), UserID: u.ID, PlanID: "starter", Amount: 5_000, ExpectedReturn: 5_500,
			Status: domain.InvestmentActive, StartsAt: now.Add(-30 * 24 * time.Hour), MaturesAt: now.Add(-23 * 24 * time.Hour),
		})
		require.NoError(t, err)
		second, err := q.InsertInvestment(ctx, models.Investment{
			ID: uuid.New(), UserID: u.ID, PlanID: "starter", Amount: 5_000, ExpectedReturn: 5_500,
			Status: domain.InvestmentActive, StartsAt: now.Add(-29 * 24 * time.Hour), MaturesAt: now.Add(-22 * 24 * time.Hour),
		})
		require.NoError(t, err)
		asOf := now.Add(-22 * 24 * time.Hour)

		err = store.RunInTx(ctx, func(tx Querier) error {
			claimed, err := tx.ClaimMaturedInvestments(ctx, ClaimMaturedParams{AsOf: asOf, Limit: 1})
			require.NoError(t, err)
			require.Len(t, claimed, 1)
			assert.Equal(t, first.ID, claimed[0].ID)

			claimed, err = tx.ClaimMaturedInvestments(ctx, ClaimMaturedParams{AsOf: asOf, Limit: 1, Skip: []uuid.UUID{first.ID}})
			require.NoError(t, err)
			require.Len(t, claimed, 1)
			assert.Equal(t, second.ID, claimed[0].ID)

			claimed, err = tx.ClaimMaturedInvestments(ctx, ClaimMaturedParams{AsOf: asOf, Limit: 10, Skip: []uuid.UUID{first.ID, second.ID}})
			require.NoError(t, err)
			assert.Empty(t, claimed)
			return nil
		})
		require.NoError(t, err)

		for _, id := range []uuid.UUID{first.ID, second.ID} {
			_, err := q.TransitionInvestmentStatus(ctx, TransitionParams{ID: id, From: domain.InvestmentActive, To: domain.InvestmentMatured, At: now})
			require.NoError(t, err)
		}
	})

	t.Run("support read flags only touch the other side", func(t *testing.T) {
		u := newUser(t)
		now := time.Now().UTC()
		_, err := q.InsertSupportMessage(ctx, models.SupportMessage{
			ID: uuid.New(), UserID: u.ID, SenderRole: domain.RoleUser, SenderID: u.ID, Body: "hello", ReadByUser: true, CreatedAt: now,
		})
		require.NoError(t, err)
		_, err = q.InsertSupportMessage(ctx, models.SupportMessage{
			ID: uuid.New(), UserID: u.ID, SenderRole: domain.RoleAdmin, SenderID: uuid.New(), Body: "hi", ReadByAdmin: true, CreatedAt: now.Add(time.Second),
		})
		require.NoError(t, err)

		n, err := q.MarkSupportMessagesRead(ctx, u.ID, domain.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = q.MarkSupportMessagesRead(ctx, u.ID, domain.RoleUser)
		require.NoError(t, err)
		assert.Zero(t, n)

		msgs, err := q.ListSupportMessages(ctx, u.ID, 50, 0)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "hello", msgs[0].Body)

		_, err = q.MarkSupportMessagesRead(ctx, u.ID, "guest")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("idempotency keys reserve once", func(t *testing.T) {
		key := "idem-" + uuid.NewString()
		ok, err := q.ReserveIdempotencyKey(ctx, ReserveIdempotencyKeyParams{IdempotencyKey: key, RequestHash: "h", Method: "POST", Path: "/v1/withdrawals"})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = q.ReserveIdempotencyKey(ctx, ReserveIdempotencyKeyParams{IdempotencyKey: key, RequestHash: "h", Method: "POST", Path: "/v1/withdrawals"})
		require.NoError(t, err)
		assert.False(t, ok)

		rec, err := q.FinalizeIdempotencyKey(ctx, FinalizeIdempotencyKeyParams{
			IdempotencyKey: key, RequestHash: "h", ResponseStatus: 201, ResponseBody: []byte(`{"success":true}`), ContentType: "application/json",
		})
		require.NoError(t, err)
		assert.False(t, rec.InProgress)
		assert.Equal(t, 201, rec.ResponseStatus)

		_, err = q.FinalizeIdempotencyKey(ctx, FinalizeIdempotencyKeyParams{IdempotencyKey: key, RequestHash: "other"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("audit log round trip", func(t *testing.T) {
		entity := uuid.New()
		_, err := q.InsertAuditLog(ctx, InsertAuditLogParams{
			EntityType: domain.RefDeposit, EntityID: entity, Action: "approve",
			PrevState: pointy.String(domain.StatusPending), NextState: pointy.String(domain.StatusApproved),
			Metadata: []byte(`{"amount":6500}`),
		})
		require.NoError(t, err)

		logs, err := q.ListAuditLogs(ctx, domain.RefDeposit, entity)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, domain.StatusPending, logs[0].PrevState)
		assert.Equal(t, domain.StatusApproved, logs[0].NextState)
	})
}
