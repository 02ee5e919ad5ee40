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

// LeaveRepository handles persistence for leave requests. The aggregation
// engine only ever reads this store; decisions are guarded by a conditional
// update so the pending -> approved|rejected transition stays one-way.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Insert stores a new pending request.
func (r *LeaveRepository) Insert(ctx context.Context, req *models.LeaveRequest) error {
	const query = `INSERT INTO leaves (user_id, type, reason, proof_file, start_date, end_date, status)
VALUES ($1, $2, $3, $4, $5, $6, 'pending')
RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query,
		req.UserID, req.Type, req.Reason, req.ProofFile, req.StartDate, req.EndDate,
	).Scan(&req.ID, &req.CreatedAt); err != nil {
		return fmt.Errorf("insert leave: %w", err)
	}
	req.Status = models.LeaveStatusPending
	return nil
}

// FindByID returns one request. sql.ErrNoRows is passed through.
func (r *LeaveRepository) FindByID(ctx context.Context, id int64) (*models.LeaveRequest, error) {
	const query = `SELECT id, user_id, type, reason, proof_file, start_date, end_date, status, approved_by, created_at
FROM leaves WHERE id = $1 LIMIT 1`
	var req models.LeaveRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find leave: %w", err)
	}
	return &req, nil
}

// ListByUser returns the employee's own requests, newest first.
func (r *LeaveRepository) ListByUser(ctx context.Context, userID int64) ([]models.LeaveRecord, error) {
	const query = `SELECT l.id, l.user_id, l.type, l.reason, l.proof_file, l.start_date, l.end_date, l.status, l.approved_by, l.created_at, u.name AS user_name
FROM leaves l
JOIN users u ON u.id = l.user_id
WHERE l.user_id = $1
ORDER BY l.created_at DESC`
	var rows []models.LeaveRecord
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list leaves by user: %w", err)
	}
	return rows, nil
}

// ListAll returns every request for admin review, newest first.
func (r *LeaveRepository) ListAll(ctx context.Context) ([]models.LeaveRecord, error) {
	const query = `SELECT l.id, l.user_id, l.type, l.reason, l.proof_file, l.start_date, l.end_date, l.status, l.approved_by, l.created_at, u.name AS user_name
FROM leaves l
JOIN users u ON u.id = l.user_id
ORDER BY l.created_at DESC`
	var rows []models.LeaveRecord
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list leaves: %w", err)
	}
	return rows, nil
}

// Decide finalises a pending request. The WHERE status = 'pending' clause
// makes the transition atomic; false means the row was missing or already
// decided.
func (r *LeaveRepository) Decide(ctx context.Context, id int64, status models.LeaveStatus, approverID int64) (bool, error) {
	const query = `UPDATE leaves SET status = $2, approved_by = $3 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, status, approverID)
	if err != nil {
		return false, fmt.Errorf("decide leave: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decide leave rows affected: %w", err)
	}
	return affected > 0, nil
}

// CountApprovedInMonth counts approved requests whose start_date falls in
// [monthStart, monthEnd). start_date is stored as YYYY-MM-DD text, so the
// comparison is lexicographic on the bound dates.
func (r *LeaveRepository) CountApprovedInMonth(ctx context.Context, userID int64, monthStart, monthEnd time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM leaves
WHERE user_id = $1 AND status = 'approved' AND start_date >= $2 AND start_date < $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID,
		monthStart.Format("2006-01-02"), monthEnd.Format("2006-01-02")); err != nil {
		return 0, fmt.Errorf("count approved leaves: %w", err)
	}
	return count, nil
}

// CountPending counts requests still awaiting a decision, company-wide.
func (r *LeaveRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM leaves WHERE status = 'pending'`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count pending leaves: %w", err)
	}
	return count, nil
}
