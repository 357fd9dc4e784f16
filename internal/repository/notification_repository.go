package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/financing-service/internal/domain"
)

// NotificationRepository is the durable notification store. It is the
// source of truth independent of connectivity: the realtime path is
// best-effort on top of it. Every mutating operation is scoped to the
// owning recipient.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error)
	// MarkRead flips is_read for a row owned by userID. Repeat calls
	// reach the same terminal state. Returns pgx.ErrNoRows when the row
	// is absent or owned by someone else.
	MarkRead(ctx context.Context, id, userID int64) (*domain.Notification, error)
	// MarkAllRead flips is_read on every row owned by userID.
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	// Delete removes an owned row. Deleting an absent row is a no-op;
	// the returned count lets callers distinguish if they care.
	Delete(ctx context.Context, id, userID int64) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository returns a Postgres-backed implementation.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_id, message, type, is_read, application_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		notification.UserID,
		notification.Message,
		notification.Type,
		notification.IsRead,
		notification.ApplicationID,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	const query = `
        SELECT id, user_id, message, type, is_read, application_id, created_at
        FROM notifications WHERE user_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Message,
			&n.Type,
			&n.IsRead,
			&n.ApplicationID,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID int64) (*domain.Notification, error) {
	const query = `
        UPDATE notifications SET is_read=TRUE
        WHERE id=$1 AND user_id=$2
        RETURNING id, user_id, message, type, is_read, application_id, created_at`

	var n domain.Notification
	if err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&n.ID,
		&n.UserID,
		&n.Message,
		&n.Type,
		&n.IsRead,
		&n.ApplicationID,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read=TRUE WHERE user_id=$1 AND is_read=FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *notificationRepository) Delete(ctx context.Context, id, userID int64) (int64, error) {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
