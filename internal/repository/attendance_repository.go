package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/volve-hq/attendance-api/internal/models"
)

// AttendanceRepository handles persistence for the attendance ledger.
// Duplicate-phase rejection is pushed into the storage layer: check-in
// relies on the (user_id, date) uniqueness constraint and checkout on a
// conditional update, so racing writers never corrupt a record.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Insert atomically creates the day's record. It returns false without an
// error when a record for (user_id, date) already exists.
func (r *AttendanceRepository) Insert(ctx context.Context, record *models.Attendance) (bool, error) {
	const query = `INSERT INTO attendance (user_id, date, check_in, status, location_in, photo_in)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, date) DO NOTHING
RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		record.UserID, record.Date, record.CheckIn, record.Status, record.LocationIn, record.PhotoIn,
	).Scan(&record.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	return true, nil
}

// FindByUserAndDate returns the ledger row for one employee and date.
// sql.ErrNoRows is passed through for the caller to interpret.
func (r *AttendanceRepository) FindByUserAndDate(ctx context.Context, userID int64, date time.Time) (*models.Attendance, error) {
	const query = `SELECT id, user_id, date, check_in, check_out, status, location_in, location_out, photo_in, photo_out, total_hours
FROM attendance WHERE user_id = $1 AND date = $2 LIMIT 1`
	var record models.Attendance
	if err := r.db.GetContext(ctx, &record, query, userID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &record, nil
}

// CompleteCheckOut fills the checkout half of the record. The update is
// conditioned on check_out IS NULL so that only one of two concurrent
// checkout calls succeeds; it returns false when no row was updated.
func (r *AttendanceRepository) CompleteCheckOut(ctx context.Context, userID int64, date time.Time, checkOut string, locationOut, photoOut *string, totalHours float64) (bool, error) {
	const query = `UPDATE attendance
SET check_out = $3, location_out = $4, photo_out = $5, total_hours = $6
WHERE user_id = $1 AND date = $2 AND check_out IS NULL`
	res, err := r.db.ExecContext(ctx, query, userID, date, checkOut, locationOut, photoOut, totalHours)
	if err != nil {
		return false, fmt.Errorf("complete checkout: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete checkout rows affected: %w", err)
	}
	return affected > 0, nil
}

// HistoryByUser returns the employee's records newest first, bounded to limit.
func (r *AttendanceRepository) HistoryByUser(ctx context.Context, userID int64, limit int) ([]models.AttendanceRecord, error) {
	const query = `SELECT a.id, a.user_id, a.date, a.check_in, a.check_out, a.status, a.location_in, a.location_out, a.photo_in, a.photo_out, a.total_hours, u.name AS user_name
FROM attendance a
JOIN users u ON u.id = a.user_id
WHERE a.user_id = $1
ORDER BY a.date DESC
LIMIT $2`
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("attendance history: %w", err)
	}
	return rows, nil
}

// ListAll returns the company-wide feed for admins, newest first.
func (r *AttendanceRepository) ListAll(ctx context.Context, page, pageSize int) ([]models.AttendanceRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT a.id, a.user_id, a.date, a.check_in, a.check_out, a.status, a.location_in, a.location_out, a.photo_in, a.photo_out, a.total_hours, u.name AS user_name, u.division
FROM attendance a
JOIN users u ON u.id = a.user_id
ORDER BY a.date DESC, a.check_in DESC
LIMIT %d OFFSET %d`, pageSize, offset)

	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM attendance`); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}

// MonthlyStats aggregates one employee's rows for [monthStart, monthEnd).
// Every row counts toward present; late rows are counted a second time in
// the late column. NULL total_hours contribute zero.
func (r *AttendanceRepository) MonthlyStats(ctx context.Context, userID int64, monthStart, monthEnd time.Time) (*models.MonthlyAttendanceStats, error) {
	const query = `SELECT
COUNT(*) AS total_present,
COALESCE(SUM(CASE WHEN status = 'late' THEN 1 ELSE 0 END), 0) AS total_late,
COALESCE(SUM(total_hours), 0) AS total_hours
FROM attendance
WHERE user_id = $1 AND date >= $2 AND date < $3`
	var stats models.MonthlyAttendanceStats
	if err := r.db.GetContext(ctx, &stats, query, userID, monthStart, monthEnd); err != nil {
		return nil, fmt.Errorf("monthly attendance stats: %w", err)
	}
	return &stats, nil
}

// DailyStats counts company-wide presence and lateness for one date.
func (r *AttendanceRepository) DailyStats(ctx context.Context, date time.Time) (*models.DailyAttendanceStats, error) {
	const query = `SELECT
COUNT(*) AS present_today,
COALESCE(SUM(CASE WHEN status = 'late' THEN 1 ELSE 0 END), 0) AS late_today
FROM attendance
WHERE date = $1`
	var stats models.DailyAttendanceStats
	if err := r.db.GetContext(ctx, &stats, query, date); err != nil {
		return nil, fmt.Errorf("daily attendance stats: %w", err)
	}
	return &stats, nil
}

// HasRecord reports whether a ledger row exists for (user, date).
func (r *AttendanceRepository) HasRecord(ctx context.Context, userID int64, date time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM attendance WHERE user_id = $1 AND date = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, date); err != nil {
		return false, fmt.Errorf("attendance exists: %w", err)
	}
	return exists, nil
}
