package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/volve-hq/attendance-api/internal/models"
	appErrors "github.com/volve-hq/attendance-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type leaveRepository interface {
	Insert(ctx context.Context, req *models.LeaveRequest) error
	FindByID(ctx context.Context, id int64) (*models.LeaveRequest, error)
	ListByUser(ctx context.Context, userID int64) ([]models.LeaveRecord, error)
	ListAll(ctx context.Context) ([]models.LeaveRecord, error)
	Decide(ctx context.Context, id int64, status models.LeaveStatus, approverID int64) (bool, error)
}

type leaveNotifier interface {
	NotifyLeaveDecision(userID int64, leave *models.LeaveRequest, approved bool)
}

// SubmitLeaveRequest is the payload for a new leave request.
type SubmitLeaveRequest struct {
	Type      string  `json:"type" validate:"required,oneof=sick vacation other"`
	Reason    *string `json:"reason" validate:"omitempty,max=500"`
	ProofFile *string `json:"proof_file"`
	StartDate string  `json:"start_date" validate:"required"`
	EndDate   string  `json:"end_date" validate:"required"`
}

// LeaveService runs the request/approval workflow. Decisions are final: a
// request leaves pending exactly once, enforced by a conditional update in
// the store.
type LeaveService struct {
	repo      leaveRepository
	notifier  leaveNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeaveService constructs the workflow service.
func NewLeaveService(repo leaveRepository, notifier leaveNotifier, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// Submit creates a pending request for the employee. The date range must be
// well-formed and non-inverted.
func (s *LeaveService) Submit(ctx context.Context, userID int64, req SubmitLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "end_date must not precede start_date")
	}

	leave := &models.LeaveRequest{
		UserID:    userID,
		Type:      models.LeaveType(req.Type),
		Reason:    req.Reason,
		ProofFile: req.ProofFile,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := s.repo.Insert(ctx, leave); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit leave request")
	}
	return leave, nil
}

// ListOwn returns the employee's own requests, newest first.
func (s *LeaveService) ListOwn(ctx context.Context, userID int64) ([]models.LeaveRecord, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave requests")
	}
	if rows == nil {
		rows = []models.LeaveRecord{}
	}
	return rows, nil
}

// ListAll returns every request for admin review.
func (s *LeaveService) ListAll(ctx context.Context) ([]models.LeaveRecord, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave requests")
	}
	if rows == nil {
		rows = []models.LeaveRecord{}
	}
	return rows, nil
}

// Decide finalises a pending request and notifies its owner. A request that
// was already decided, or that does not exist, yields ErrNotFound /
// ErrConflict respectively; losing a concurrent decision race behaves the
// same as finding the request already decided.
func (s *LeaveService) Decide(ctx context.Context, id, approverID int64, approve bool) (*models.LeaveRequest, error) {
	leave, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave request")
	}
	if leave.Status != models.LeaveStatusPending {
		return nil, appErrors.New(appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "leave request already decided")
	}

	status := models.LeaveStatusApproved
	if !approve {
		status = models.LeaveStatusRejected
	}
	updated, err := s.repo.Decide(ctx, id, status, approverID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decide leave request")
	}
	if !updated {
		return nil, appErrors.New(appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "leave request already decided")
	}

	leave.Status = status
	leave.ApprovedBy = &approverID
	if s.notifier != nil {
		s.notifier.NotifyLeaveDecision(leave.UserID, leave, approve)
	}
	return leave, nil
}
