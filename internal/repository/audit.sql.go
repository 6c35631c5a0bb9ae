package repository

import (
	"context"

	"github.com/ayo6706/profitwave/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const insertAuditLog = `
INSERT INTO audit_log (entity_type, entity_id, actor_id, action, prev_state, next_state, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, insertAuditLog,
		arg.EntityType, arg.EntityID, arg.ActorID, arg.Action, arg.PrevState, arg.NextState, arg.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, wrapErr("insert audit log", err)
	}
	return id, nil
}

const listAuditLogs = `
SELECT id, entity_type, entity_id, actor_id, action, COALESCE(prev_state, ''), COALESCE(next_state, ''), metadata, created_at
FROM audit_log
WHERE entity_type = $1 AND entity_id = $2
ORDER BY id`

func (q *Queries) ListAuditLogs(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogs, entityType, entityID)
	return collect(rows, err, "list audit logs", func(row pgx.Row) (models.AuditLog, error) {
		var a models.AuditLog
		err := row.Scan(&a.ID, &a.EntityType, &a.EntityID, &a.ActorID, &a.Action, &a.PrevState, &a.NextState, &a.Metadata, &a.CreatedAt)
		return a, err
	})
}

const idempotencyKeyColumns = `idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress, created_at`

func scanIdempotencyKey(row pgx.Row) (models.IdempotencyKey, error) {
	var (
		k      models.IdempotencyKey
		status int32
	)
	err := row.Scan(&k.Key, &k.RequestHash, &k.Method, &k.Path, &status, &k.ResponseBody, &k.ContentType, &k.InProgress, &k.CreatedAt)
	k.ResponseStatus = int(status)
	return k, err
}

func (q *Queries) GetIdempotencyKey(ctx context.Context, key string) (models.IdempotencyKey, error) {
	k, err := scanIdempotencyKey(q.db.QueryRow(ctx,
		`SELECT `+idempotencyKeyColumns+` FROM idempotency_keys WHERE idempotency_key = $1`, key,
	))
	if err != nil {
		return models.IdempotencyKey{}, wrapErr("get idempotency key", err)
	}
	return k, nil
}

const reserveIdempotencyKey = `
INSERT INTO idempotency_keys (idempotency_key, request_hash, method, path)
VALUES ($1, $2, $3, $4)
ON CONFLICT (idempotency_key) DO NOTHING`

func (q *Queries) ReserveIdempotencyKey(ctx context.Context, arg ReserveIdempotencyKeyParams) (bool, error) {
	tag, err := q.db.Exec(ctx, reserveIdempotencyKey, arg.IdempotencyKey, arg.RequestHash, arg.Method, arg.Path)
	if err != nil {
		return false, wrapErr("reserve idempotency key", err)
	}
	return tag.RowsAffected() == 1, nil
}

const finalizeIdempotencyKey = `
UPDATE idempotency_keys
SET response_status = $1, response_body = $2, content_type = $3, in_progress = FALSE, updated_at = NOW()
WHERE idempotency_key = $4 AND request_hash = $5
RETURNING ` + idempotencyKeyColumns

func (q *Queries) FinalizeIdempotencyKey(ctx context.Context, arg FinalizeIdempotencyKeyParams) (models.IdempotencyKey, error) {
	k, err := scanIdempotencyKey(q.db.QueryRow(ctx, finalizeIdempotencyKey,
		arg.ResponseStatus, arg.ResponseBody, arg.ContentType, arg.IdempotencyKey, arg.RequestHash,
	))
	if err != nil {
		return models.IdempotencyKey{}, wrapErr("finalize idempotency key", err)
	}
	return k, nil
}

// ReleaseIdempotencyKey drops an in-progress reservation so the request can be retried.
func (q *Queries) ReleaseIdempotencyKey(ctx context.Context, key, requestHash string) error {
	_, err := q.db.Exec(ctx,
		`DELETE FROM idempotency_keys WHERE idempotency_key = $1 AND request_hash = $2 AND in_progress`,
		key, requestHash,
	)
	if err != nil {
		return wrapErr("release idempotency key", err)
	}
	return nil
}
