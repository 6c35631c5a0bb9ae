package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, subject, email, role, balance, full_name, phone, country, city,
	date_of_birth, referral_code, profile_completed, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Subject, &u.Email, &u.Role, &u.Balance, &u.FullName, &u.Phone, &u.Country, &u.City,
		&u.DateOfBirth, &u.ReferralCode, &u.ProfileCompleted, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// xmax = 0 holds only for a row inserted by this statement.
const upsertUserBySubject = `
INSERT INTO users (id, subject, email, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (subject) DO UPDATE SET
    email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE users.email END,
    role = EXCLUDED.role,
    updated_at = CASE WHEN users.email <> EXCLUDED.email OR users.role <> EXCLUDED.role THEN NOW() ELSE users.updated_at END
RETURNING ` + userColumns + `, (xmax = 0) AS inserted`

func (q *Queries) UpsertUserBySubject(ctx context.Context, arg UpsertUserParams) (models.User, bool, error) {
	var (
		u        models.User
		inserted bool
	)
	err := q.db.QueryRow(ctx, upsertUserBySubject, arg.ID, arg.Subject, arg.Email, arg.Role).Scan(
		&u.ID, &u.Subject, &u.Email, &u.Role, &u.Balance, &u.FullName, &u.Phone, &u.Country, &u.City,
		&u.DateOfBirth, &u.ReferralCode, &u.ProfileCompleted, &u.CreatedAt, &u.UpdatedAt, &inserted,
	)
	if err != nil {
		return models.User{}, false, wrapErr("upsert user", err)
	}
	return u, inserted, nil
}

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return models.User{}, wrapErr("get user", err)
	}
	return u, nil
}

func (q *Queries) GetUserBySubject(ctx context.Context, subject string) (models.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE subject = $1`, subject))
	if err != nil {
		return models.User{}, wrapErr("get user by subject", err)
	}
	return u, nil
}

const updateUserProfile = `
UPDATE users SET
    full_name = COALESCE($2, full_name),
    phone = COALESCE($3, phone),
    country = COALESCE($4, country),
    city = COALESCE($5, city),
    date_of_birth = COALESCE($6, date_of_birth),
    referral_code = COALESCE($7, referral_code),
    profile_completed = profile_completed OR $8,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (models.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, updateUserProfile,
		arg.ID, arg.FullName, arg.Phone, arg.Country, arg.City, arg.DateOfBirth, arg.ReferralCode, arg.ProfileCompleted,
	))
	if err != nil {
		return models.User{}, wrapErr("update user profile", err)
	}
	return u, nil
}

const adjustUserBalance = `
UPDATE users SET balance = balance + $2, updated_at = NOW()
WHERE id = $1 AND balance + $2 >= 0
RETURNING balance`

func (q *Queries) AdjustUserBalance(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	var balance int64
	err := q.db.QueryRow(ctx, adjustUserBalance, id, delta).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, wrapErr("adjust balance", err)
	}

	var exists bool
	if err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, wrapErr("adjust balance", err)
	}
	if !exists {
		return 0, fmt.Errorf("adjust balance: user %s: %w", id, domain.ErrNotFound)
	}
	return 0, fmt.Errorf("adjust balance by %d: %w", delta, domain.ErrInsufficientBalance)
}

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]models.User, error) {
	b := psql.Select(userColumns).From("users").OrderBy("created_at DESC", "id DESC")
	if arg.Query != "" {
		like := "%" + escapeLike(arg.Query) + "%"
		b = b.Where(sq.Or{
			sq.ILike{"email": like},
			sq.ILike{"full_name": like},
			sq.ILike{"phone": like},
		})
	}
	if arg.Role != "" {
		b = b.Where(sq.Eq{"role": arg.Role})
	}
	rows, err := q.queryBuilt(ctx, page(b, arg.Limit, arg.Offset))
	return collect(rows, err, "list users", scanUser)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes the LIKE metacharacters in s using the default backslash escape.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
