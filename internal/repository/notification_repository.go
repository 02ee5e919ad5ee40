package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/volve-hq/attendance-api/internal/models"
)

// NotificationRepository handles persistence for in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Insert stores one notification.
func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) error {
	const query = `INSERT INTO notifications (user_id, title, message)
VALUES ($1, $2, $3)
RETURNING id, is_read, created_at`
	if err := r.db.QueryRowxContext(ctx, query, n.UserID, n.Title, n.Message).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// InsertReminderOnce stores the daily check-in reminder at most once per
// (employee, day). The partial unique index on reminder rows turns the
// insert into an idempotent upsert; false means the reminder already exists.
func (r *NotificationRepository) InsertReminderOnce(ctx context.Context, userID int64, message string) (bool, error) {
	const query = `INSERT INTO notifications (user_id, title, message)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING
RETURNING id`
	var id int64
	err := r.db.QueryRowxContext(ctx, query, userID, models.TitleReminder, message).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert reminder: %w", err)
	}
	return true, nil
}

// ListByUser returns the employee's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	const query = `SELECT id, user_id, title, message, is_read, created_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`
	var rows []models.Notification
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return rows, nil
}

// MarkRead flags one notification as read, scoped to its owner.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	const query = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notification read rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkAllRead flags every notification for the employee as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	const query = `UPDATE notifications SET is_read = TRUE WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// HasReminderToday reports whether the reminder was already created for the
// employee's current day.
func (r *NotificationRepository) HasReminderToday(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT EXISTS (
SELECT 1 FROM notifications
WHERE user_id = $1 AND title = $2 AND created_at::date = CURRENT_DATE)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, models.TitleReminder); err != nil {
		return false, fmt.Errorf("reminder exists: %w", err)
	}
	return exists, nil
}
