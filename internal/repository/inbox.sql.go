package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ayo6706/profitwave/internal/domain"
	"github.com/ayo6706/profitwave/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const notificationColumns = `id, kind, ref_type, ref_id, user_id, amount, message, read, created_at`

func scanNotification(row pgx.Row) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.Kind, &n.RefType, &n.RefID, &n.UserID, &n.Amount, &n.Message, &n.Read, &n.CreatedAt)
	return n, err
}

const insertNotification = `
INSERT INTO notifications (id, kind, ref_type, ref_id, user_id, amount, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + notificationColumns

func (q *Queries) InsertNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	out, err := scanNotification(q.db.QueryRow(ctx, insertNotification,
		n.ID, n.Kind, n.RefType, n.RefID, n.UserID, n.Amount, n.Message, n.CreatedAt,
	))
	if err != nil {
		return models.Notification{}, wrapErr("insert notification", err)
	}
	return out, nil
}

func (q *Queries) ListNotifications(ctx context.Context, arg ListNotificationsParams) ([]models.Notification, error) {
	b := psql.Select(notificationColumns).From("notifications").OrderBy("created_at DESC", "id DESC")
	if arg.UnreadOnly {
		b = b.Where(sq.Eq{"read": false})
	}
	rows, err := q.queryBuilt(ctx, page(b, arg.Limit, arg.Offset))
	return collect(rows, err, "list notifications", scanNotification)
}

func (q *Queries) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return wrapErr("mark notification read", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark notification read: %w", domain.ErrNotFound)
	}
	return nil
}

const supportMessageColumns = `id, user_id, sender_role, sender_id, body, read_by_user, read_by_admin, created_at`

func scanSupportMessage(row pgx.Row) (models.SupportMessage, error) {
	var m models.SupportMessage
	err := row.Scan(&m.ID, &m.UserID, &m.SenderRole, &m.SenderID, &m.Body, &m.ReadByUser, &m.ReadByAdmin, &m.CreatedAt)
	return m, err
}

const insertSupportMessage = `
INSERT INTO support_messages (id, user_id, sender_role, sender_id, body, read_by_user, read_by_admin, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + supportMessageColumns

func (q *Queries) InsertSupportMessage(ctx context.Context, m models.SupportMessage) (models.SupportMessage, error) {
	out, err := scanSupportMessage(q.db.QueryRow(ctx, insertSupportMessage,
		m.ID, m.UserID, m.SenderRole, m.SenderID, m.Body, m.ReadByUser, m.ReadByAdmin, m.CreatedAt,
	))
	if err != nil {
		return models.SupportMessage{}, wrapErr("insert support message", err)
	}
	return out, nil
}

// Threads read oldest first.
const listSupportMessages = `
SELECT ` + supportMessageColumns + `
FROM support_messages
WHERE user_id = $1
ORDER BY created_at, id
LIMIT $2 OFFSET $3`

func (q *Queries) ListSupportMessages(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.SupportMessage, error) {
	rows, err := q.db.Query(ctx, listSupportMessages, userID, limit, offset)
	return collect(rows, err, "list support messages", scanSupportMessage)
}

func (q *Queries) MarkSupportMessagesRead(ctx context.Context, userID uuid.UUID, readerRole string) (int64, error) {
	var query string
	switch readerRole {
	case domain.RoleUser:
		query = `UPDATE support_messages SET read_by_user = TRUE WHERE user_id = $1 AND sender_role = 'admin' AND NOT read_by_user`
	case domain.RoleAdmin:
		query = `UPDATE support_messages SET read_by_admin = TRUE WHERE user_id = $1 AND sender_role = 'user' AND NOT read_by_admin`
	default:
		return 0, domain.Invalid("reader_role", "unknown role %q", readerRole)
	}
	tag, err := q.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, wrapErr("mark support messages read", err)
	}
	return tag.RowsAffected(), nil
}

const listSupportThreads = `
SELECT t.user_id, u.email, u.full_name, last.body, last.created_at,
    (SELECT COUNT(*) FROM support_messages x
        WHERE x.user_id = t.user_id AND x.sender_role = 'user' AND NOT x.read_by_admin) AS unread
FROM (SELECT DISTINCT user_id FROM support_messages) t
JOIN users u ON u.id = t.user_id
JOIN LATERAL (
    SELECT body, created_at FROM support_messages s
    WHERE s.user_id = t.user_id
    ORDER BY s.created_at DESC, s.id DESC
    LIMIT 1
) last ON TRUE
ORDER BY last.created_at DESC, t.user_id
LIMIT $1 OFFSET $2`

func (q *Queries) ListSupportThreads(ctx context.Context, limit, offset int32) ([]models.SupportThread, error) {
	rows, err := q.db.Query(ctx, listSupportThreads, limit, offset)
	return collect(rows, err, "list support threads", func(row pgx.Row) (models.SupportThread, error) {
		var t models.SupportThread
		err := row.Scan(&t.UserID, &t.Email, &t.FullName, &t.LastMessage, &t.LastMessageAt, &t.UnreadCount)
		return t, err
	})
}

const activityColumns = `id, user_id, action, detail, ip, created_at`

func scanActivity(row pgx.Row) (models.Activity, error) {
	var a models.Activity
	err := row.Scan(&a.ID, &a.UserID, &a.Action, &a.Detail, &a.IP, &a.CreatedAt)
	return a, err
}

const insertActivity = `
INSERT INTO activities (id, user_id, action, detail, ip, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + activityColumns

func (q *Queries) InsertActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	out, err := scanActivity(q.db.QueryRow(ctx, insertActivity, a.ID, a.UserID, a.Action, a.Detail, a.IP, a.CreatedAt))
	if err != nil {
		return models.Activity{}, wrapErr("insert activity", err)
	}
	return out, nil
}

const listActivities = `
SELECT ` + activityColumns + `
FROM activities
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

func (q *Queries) ListActivities(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]models.Activity, error) {
	rows, err := q.db.Query(ctx, listActivities, userID, limit, offset)
	return collect(rows, err, "list activities", scanActivity)
}
