package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ledgerEntryColumns = `id, user_id, amount, balance_after, kind, ref_type, ref_id, created_at`

func scanLedgerEntry(row pgx.Row) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := row.Scan(&e.ID, &e.UserID, &e.Amount, &e.BalanceAfter, &e.Kind, &e.RefType, &e.RefID, &e.CreatedAt)
	return e, err
}

const insertLedgerEntry = `
INSERT INTO ledger_entries (id, user_id, amount, balance_after, kind, ref_type, ref_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + ledgerEntryColumns

func (q *Queries) InsertLedgerEntry(ctx context.Context, e models.LedgerEntry) (models.LedgerEntry, error) {
	out, err := scanLedgerEntry(q.db.QueryRow(ctx, insertLedgerEntry,
		e.ID, e.UserID, e.Amount, e.BalanceAfter, e.Kind, e.RefType, e.RefID, e.CreatedAt,
	))
	if err != nil {
		if isUniqueViolation(err, "ledger_entries_token_unique") {
			return models.LedgerEntry{}, fmt.Errorf("insert ledger entry %s/%s/%s: %w", e.Kind, e.RefType, e.RefID, domain.ErrAlreadyProcessed)
		}
		return models.LedgerEntry{}, wrapErr("insert ledger entry", err)
	}
	return out, nil
}

const listLedgerEntries = `
SELECT ` + ledgerEntryColumns + `
FROM ledger_entries
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

func (q *Queries) ListLedgerEntries(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listLedgerEntries, userID, limit, offset)
	return collect(rows, err, "list ledger entries", scanLedgerEntry)
}

const getBalanceMismatches = `
SELECT u.id, u.balance, COALESCE(SUM(e.amount), 0)::BIGINT AS ledger_sum
FROM users u
LEFT JOIN ledger_entries e ON e.user_id = u.id
GROUP BY u.id, u.balance
HAVING u.balance <> COALESCE(SUM(e.amount), 0)
ORDER BY u.id
LIMIT $1`

func (q *Queries) GetBalanceMismatches(ctx context.Context, limit int32) ([]models.BalanceMismatch, error) {
	rows, err := q.db.Query(ctx, getBalanceMismatches, limit)
	return collect(rows, err, "get balance mismatches", func(row pgx.Row) (models.BalanceMismatch, error) {
		var m models.BalanceMismatch
		err := row.Scan(&m.UserID, &m.Balance, &m.LedgerSum)
		return m, err
	})
}

const getPlatformStats = `
SELECT
    (SELECT COUNT(*) FROM users),
    (SELECT COALESCE(SUM(balance), 0)::BIGINT FROM users),
    (SELECT COUNT(*) FROM deposits WHERE status = 'pending'),
    (SELECT COALESCE(SUM(amount), 0)::BIGINT FROM deposits WHERE status = 'pending'),
    (SELECT COALESCE(SUM(amount), 0)::BIGINT FROM deposits WHERE status = 'approved'),
    (SELECT COUNT(*) FROM withdrawals WHERE status = 'pending'),
    (SELECT COALESCE(SUM(amount), 0)::BIGINT FROM withdrawals WHERE status = 'pending'),
    (SELECT COALESCE(SUM(amount), 0)::BIGINT FROM withdrawals WHERE status = 'approved'),
    (SELECT COUNT(*) FROM investments WHERE status = 'active'),
    (SELECT COALESCE(SUM(amount), 0)::BIGINT FROM investments WHERE status = 'active'),
    (SELECT COUNT(*) FROM notifications WHERE NOT read)`

func (q *Queries) GetPlatformStats(ctx context.Context) (models.PlatformStats, error) {
	var s models.PlatformStats
	err := q.db.QueryRow(ctx, getPlatformStats).Scan(
		&s.Users, &s.TotalBalances,
		&s.PendingDeposits, &s.PendingDepositSum, &s.ApprovedDepositSum,
		&s.PendingWithdrawals, &s.PendingWithdrawalSum, &s.ApprovedWithdrawalSum,
		&s.ActiveInvestments, &s.ActiveInvestedSum,
		&s.UnreadNotifications,
	)
	if err != nil {
		return models.PlatformStats{}, wrapErr("get platform stats", err)
	}
	return s, nil
}
