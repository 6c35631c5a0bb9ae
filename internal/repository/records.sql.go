package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const depositColumns = `id, user_id, amount, method, payer_phone, reference, status, note,
	processed_by, processed_at, created_at, updated_at`

func scanDeposit(row pgx.Row) (models.Deposit, error) {
	var d models.Deposit
	err := row.Scan(
		&d.ID, &d.UserID, &d.Amount, &d.Method, &d.PayerPhone, &d.Reference, &d.Status, &d.Note,
		&d.ProcessedBy, &d.ProcessedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

const insertDeposit = `
INSERT INTO deposits (id, user_id, amount, method, payer_phone, reference, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
RETURNING ` + depositColumns

func (q *Queries) InsertDeposit(ctx context.Context, d models.Deposit) (models.Deposit, error) {
	out, err := scanDeposit(q.db.QueryRow(ctx, insertDeposit,
		d.ID, d.UserID, d.Amount, d.Method, d.PayerPhone, d.Reference, d.Status, d.CreatedAt,
	))
	if err != nil {
		return models.Deposit{}, wrapErr("insert deposit", err)
	}
	return out, nil
}

func (q *Queries) GetDeposit(ctx context.Context, id uuid.UUID) (models.Deposit, error) {
	d, err := scanDeposit(q.db.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposits WHERE id = $1`, id))
	if err != nil {
		return models.Deposit{}, wrapErr("get deposit", err)
	}
	return d, nil
}

func (q *Queries) GetDepositByReference(ctx context.Context, userID uuid.UUID, reference string) (models.Deposit, error) {
	d, err := scanDeposit(q.db.QueryRow(ctx,
		`SELECT `+depositColumns+` FROM deposits WHERE user_id = $1 AND reference = $2`, userID, reference,
	))
	if err != nil {
		return models.Deposit{}, wrapErr("get deposit by reference", err)
	}
	return d, nil
}

const transitionDepositStatus = `
UPDATE deposits SET status = $3, note = $4, processed_by = $5, processed_at = $6, updated_at = $6
WHERE id = $1 AND status = $2
RETURNING ` + depositColumns

func (q *Queries) TransitionDepositStatus(ctx context.Context, arg TransitionParams) (models.Deposit, error) {
	d, err := scanDeposit(q.db.QueryRow(ctx, transitionDepositStatus,
		arg.ID, arg.From, arg.To, arg.Note, arg.ProcessedBy, arg.At,
	))
	if err == nil {
		return d, nil
	}
	if isNoRows(err) {
		return models.Deposit{}, q.transitionMiss(ctx, "deposits", arg.ID, "transition deposit")
	}
	return models.Deposit{}, wrapErr("transition deposit", err)
}

func (q *Queries) ListDeposits(ctx context.Context, arg ListRecordsParams) ([]models.Deposit, error) {
	b := filterRecords(psql.Select(depositColumns).From("deposits"), arg)
	rows, err := q.queryBuilt(ctx, page(b, arg.Limit, arg.Offset))
	return collect(rows, err, "list deposits", scanDeposit)
}

const withdrawalColumns = `id, user_id, amount, method, account_name, account_number, request_key, status, note,
	processed_by, processed_at, created_at, updated_at`

func scanWithdrawal(row pgx.Row) (models.Withdrawal, error) {
	var w models.Withdrawal
	err := row.Scan(
		&w.ID, &w.UserID, &w.Amount, &w.Method, &w.AccountName, &w.AccountNumber, &w.RequestKey, &w.Status, &w.Note,
		&w.ProcessedBy, &w.ProcessedAt, &w.CreatedAt, &w.UpdatedAt,
	)
	return w, err
}

const insertWithdrawal = `
INSERT INTO withdrawals (id, user_id, amount, method, account_name, account_number, request_key, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
RETURNING ` + withdrawalColumns

func (q *Queries) InsertWithdrawal(ctx context.Context, w models.Withdrawal) (models.Withdrawal, error) {
	out, err := scanWithdrawal(q.db.QueryRow(ctx, insertWithdrawal,
		w.ID, w.UserID, w.Amount, w.Method, w.AccountName, w.AccountNumber, w.RequestKey, w.Status, w.CreatedAt,
	))
	if err != nil {
		return models.Withdrawal{}, wrapErr("insert withdrawal", err)
	}
	return out, nil
}

func (q *Queries) GetWithdrawal(ctx context.Context, id uuid.UUID) (models.Withdrawal, error) {
	w, err := scanWithdrawal(q.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
	if err != nil {
		return models.Withdrawal{}, wrapErr("get withdrawal", err)
	}
	return w, nil
}

func (q *Queries) GetWithdrawalByRequestKey(ctx context.Context, userID uuid.UUID, requestKey string) (models.Withdrawal, error) {
	w, err := scanWithdrawal(q.db.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE user_id = $1 AND request_key = $2`, userID, requestKey,
	))
	if err != nil {
		return models.Withdrawal{}, wrapErr("get withdrawal by request key", err)
	}
	return w, nil
}

const transitionWithdrawalStatus = `
UPDATE withdrawals SET status = $3, note = $4, processed_by = $5, processed_at = $6, updated_at = $6
WHERE id = $1 AND status = $2
RETURNING ` + withdrawalColumns

func (q *Queries) TransitionWithdrawalStatus(ctx context.Context, arg TransitionParams) (models.Withdrawal, error) {
	w, err := scanWithdrawal(q.db.QueryRow(ctx, transitionWithdrawalStatus,
		arg.ID, arg.From, arg.To, arg.Note, arg.ProcessedBy, arg.At,
	))
	if err == nil {
		return w, nil
	}
	if isNoRows(err) {
		return models.Withdrawal{}, q.transitionMiss(ctx, "withdrawals", arg.ID, "transition withdrawal")
	}
	return models.Withdrawal{}, wrapErr("transition withdrawal", err)
}

func (q *Queries) ListWithdrawals(ctx context.Context, arg ListRecordsParams) ([]models.Withdrawal, error) {
	b := filterRecords(psql.Select(withdrawalColumns).From("withdrawals"), arg)
	rows, err := q.queryBuilt(ctx, page(b, arg.Limit, arg.Offset))
	return collect(rows, err, "list withdrawals", scanWithdrawal)
}

const investmentColumns = `id, user_id, plan_id, amount, expected_return, status, starts_at, matures_at, settled_at, created_at`

func scanInvestment(row pgx.Row) (models.Investment, error) {
	var inv models.Investment
	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.PlanID, &inv.Amount, &inv.ExpectedReturn, &inv.Status,
		&inv.StartsAt, &inv.MaturesAt, &inv.SettledAt, &inv.CreatedAt,
	)
	return inv, err
}

const insertInvestment = `
INSERT INTO investments (id, user_id, plan_id, amount, expected_return, status, starts_at, matures_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $7)
RETURNING ` + investmentColumns

func (q *Queries) InsertInvestment(ctx context.Context, inv models.Investment) (models.Investment, error) {
	out, err := scanInvestment(q.db.QueryRow(ctx, insertInvestment,
		inv.ID, inv.UserID, inv.PlanID, inv.Amount, inv.ExpectedReturn, inv.Status, inv.StartsAt, inv.MaturesAt,
	))
	if err != nil {
		return models.Investment{}, wrapErr("insert investment", err)
	}
	return out, nil
}

func (q *Queries) GetInvestment(ctx context.Context, id uuid.UUID) (models.Investment, error) {
	inv, err := scanInvestment(q.db.QueryRow(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id = $1`, id))
	if err != nil {
		return models.Investment{}, wrapErr("get investment", err)
	}
	return inv, nil
}

func (q *Queries) ListInvestments(ctx context.Context, arg ListRecordsParams) ([]models.Investment, error) {
	b := filterRecords(psql.Select(investmentColumns).From("investments"), arg)
	rows, err := q.queryBuilt(ctx, page(b, arg.Limit, arg.Offset))
	return collect(rows, err, "list investments", scanInvestment)
}

const claimMaturedInvestments = `
SELECT ` + investmentColumns + `
FROM investments
WHERE status = $3 AND matures_at <= $1 AND NOT (id = ANY($4::uuid[]))
ORDER BY matures_at, id
LIMIT $2
FOR UPDATE SKIP LOCKED`

func (q *Queries) ClaimMaturedInvestments(ctx context.Context, arg ClaimMaturedParams) ([]models.Investment, error) {
	skip := make([]string, 0, len(arg.Skip))
	for _, id := range arg.Skip {
		skip = append(skip, id.String())
	}
	rows, err := q.db.Query(ctx, claimMaturedInvestments, arg.AsOf, arg.Limit, domain.InvestmentActive, skip)
	return collect(rows, err, "claim matured investments", scanInvestment)
}

const transitionInvestmentStatus = `
UPDATE investments SET status = $3, settled_at = $4
WHERE id = $1 AND status = $2
RETURNING ` + investmentColumns

func (q *Queries) TransitionInvestmentStatus(ctx context.Context, arg TransitionParams) (models.Investment, error) {
	inv, err := scanInvestment(q.db.QueryRow(ctx, transitionInvestmentStatus, arg.ID, arg.From, arg.To, arg.At))
	if err == nil {
		return inv, nil
	}
	if isNoRows(err) {
		return models.Investment{}, q.transitionMiss(ctx, "investments", arg.ID, "transition investment")
	}
	return models.Investment{}, wrapErr("transition investment", err)
}

func filterRecords(b sq.SelectBuilder, arg ListRecordsParams) sq.SelectBuilder {
	if arg.UserID != nil {
		b = b.Where(sq.Eq{"user_id": *arg.UserID})
	}
	if arg.Status != "" {
		b = b.Where(sq.Eq{"status": arg.Status})
	}
	return b.OrderBy("created_at DESC", "id DESC")
}
