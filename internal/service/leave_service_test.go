package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volve-hq/attendance-api/internal/models"
	appErrors "github.com/volve-hq/attendance-api/pkg/errors"
)

type fakeLeaveRepo struct {
	leave     *models.LeaveRequest
	findErr   error
	decided   bool
	decideErr error

	inserted  *models.LeaveRequest
	insertErr error
}

func (f *fakeLeaveRepo) Insert(_ context.Context, req *models.LeaveRequest) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	req.ID = 10
	req.Status = models.LeaveStatusPending
	f.inserted = req
	return nil
}

func (f *fakeLeaveRepo) FindByID(context.Context, int64) (*models.LeaveRequest, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.leave, nil
}

func (f *fakeLeaveRepo) ListByUser(context.Context, int64) ([]models.LeaveRecord, error) {
	return nil, nil
}

func (f *fakeLeaveRepo) ListAll(context.Context) ([]models.LeaveRecord, error) {
	return nil, nil
}

func (f *fakeLeaveRepo) Decide(context.Context, int64, models.LeaveStatus, int64) (bool, error) {
	return f.decided, f.decideErr
}

type fakeLeaveNotifier struct {
	decisions []bool
	userIDs   []int64
}

func (f *fakeLeaveNotifier) NotifyLeaveDecision(userID int64, _ *models.LeaveRequest, approved bool) {
	f.userIDs = append(f.userIDs, userID)
	f.decisions = append(f.decisions, approved)
}

func TestSubmitLeaveValid(t *testing.T) {
	repo := &fakeLeaveRepo{}
	svc := NewLeaveService(repo, nil, nil, nil)

	leave, err := svc.Submit(context.Background(), 7, SubmitLeaveRequest{
		Type:      "vacation",
		StartDate: "2026-02-10",
		EndDate:   "2026-02-12",
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusPending, leave.Status)
	assert.Equal(t, int64(7), leave.UserID)
	require.NotNil(t, repo.inserted)
}

func TestSubmitLeaveRejectsUnknownType(t *testing.T) {
	svc := NewLeaveService(&fakeLeaveRepo{}, nil, nil, nil)

	_, err := svc.Submit(context.Background(), 7, SubmitLeaveRequest{
		Type:      "sabbatical",
		StartDate: "2026-02-10",
		EndDate:   "2026-02-12",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmitLeaveRejectsMalformedDates(t *testing.T) {
	svc := NewLeaveService(&fakeLeaveRepo{}, nil, nil, nil)

	_, err := svc.Submit(context.Background(), 7, SubmitLeaveRequest{
		Type:      "sick",
		StartDate: "10-02-2026",
		EndDate:   "2026-02-12",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubmitLeaveRejectsInvertedRange(t *testing.T) {
	svc := NewLeaveService(&fakeLeaveRepo{}, nil, nil, nil)

	_, err := svc.Submit(context.Background(), 7, SubmitLeaveRequest{
		Type:      "sick",
		StartDate: "2026-02-12",
		EndDate:   "2026-02-10",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDecideApprovesAndNotifies(t *testing.T) {
	repo := &fakeLeaveRepo{
		leave: &models.LeaveRequest{
			ID:        10,
			UserID:    7,
			Status:    models.LeaveStatusPending,
			StartDate: "2026-02-10",
			EndDate:   "2026-02-12",
		},
		decided: true,
	}
	notifier := &fakeLeaveNotifier{}
	svc := NewLeaveService(repo, notifier, nil, nil)

	leave, err := svc.Decide(context.Background(), 10, 1, true)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusApproved, leave.Status)
	require.NotNil(t, leave.ApprovedBy)
	assert.Equal(t, int64(1), *leave.ApprovedBy)
	assert.Equal(t, []int64{7}, notifier.userIDs)
	assert.Equal(t, []bool{true}, notifier.decisions)
}

func TestDecideRejectNotifiesOwner(t *testing.T) {
	repo := &fakeLeaveRepo{
		leave:   &models.LeaveRequest{ID: 10, UserID: 7, Status: models.LeaveStatusPending},
		decided: true,
	}
	notifier := &fakeLeaveNotifier{}
	svc := NewLeaveService(repo, notifier, nil, nil)

	leave, err := svc.Decide(context.Background(), 10, 1, false)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusRejected, leave.Status)
	assert.Equal(t, []bool{false}, notifier.decisions)
}

func TestDecideMissingLeave(t *testing.T) {
	svc := NewLeaveService(&fakeLeaveRepo{findErr: sql.ErrNoRows}, nil, nil, nil)

	_, err := svc.Decide(context.Background(), 10, 1, true)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDecideAlreadyDecided(t *testing.T) {
	repo := &fakeLeaveRepo{
		leave: &models.LeaveRequest{ID: 10, UserID: 7, Status: models.LeaveStatusApproved},
	}
	notifier := &fakeLeaveNotifier{}
	svc := NewLeaveService(repo, notifier, nil, nil)

	_, err := svc.Decide(context.Background(), 10, 1, false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, notifier.decisions)
}

func TestDecideLosesRace(t *testing.T) {
	repo := &fakeLeaveRepo{
		leave:   &models.LeaveRequest{ID: 10, UserID: 7, Status: models.LeaveStatusPending},
		decided: false,
	}
	notifier := &fakeLeaveNotifier{}
	svc := NewLeaveService(repo, notifier, nil, nil)

	_, err := svc.Decide(context.Background(), 10, 1, true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, notifier.decisions, "losing the race must not notify")
}
