package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volve-hq/attendance-api/internal/models"
	appErrors "github.com/volve-hq/attendance-api/pkg/errors"
	"github.com/volve-hq/attendance-api/pkg/jobs"
)

type fakeNotificationRepo struct {
	mu       sync.Mutex
	inserted []models.Notification

	reminderCreated bool
	reminderExists  bool
	reminderErr     error
	reminderMsgs    []string

	markReadOK bool

	lastListLimit int
}

func (f *fakeNotificationRepo) Insert(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, *n)
	return nil
}

func (f *fakeNotificationRepo) InsertReminderOnce(_ context.Context, _ int64, message string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminderMsgs = append(f.reminderMsgs, message)
	return f.reminderCreated, f.reminderErr
}

func (f *fakeNotificationRepo) HasReminderToday(context.Context, int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reminderExists, nil
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, _ int64, limit int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastListLimit = limit
	return append([]models.Notification(nil), f.inserted...), nil
}

func (f *fakeNotificationRepo) MarkRead(context.Context, int64, int64) (bool, error) {
	return f.markReadOK, nil
}

func (f *fakeNotificationRepo) MarkAllRead(context.Context, int64) error {
	return nil
}

func (f *fakeNotificationRepo) insertedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

func newNotifications(repo *fakeNotificationRepo) *NotificationService {
	return NewNotificationService(repo, nil, "09:00", 1, 1)
}

func TestHandleJobPersistsNotification(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := newNotifications(repo)

	err := svc.handleJob(context.Background(), jobs.Job{
		ID:   "job-1",
		Type: jobTypeNotify,
		Payload: notifyPayload{
			UserID:  7,
			Title:   models.TitleLateCheckIn,
			Message: "Anda melakukan absen masuk setelah jam 09:00.",
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, repo.insertedCount())
	assert.Equal(t, models.TitleLateCheckIn, repo.inserted[0].Title)
}

func TestHandleJobIgnoresUnknownPayload(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := newNotifications(repo)

	err := svc.handleJob(context.Background(), jobs.Job{ID: "job-1", Payload: "garbage"})
	require.NoError(t, err)
	assert.Zero(t, repo.insertedCount())
}

func TestNotifyLateDeliversThroughQueue(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := newNotifications(repo)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.NotifyLate(7)

	require.Eventually(t, func() bool {
		return repo.insertedCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, models.TitleLateCheckIn, repo.inserted[0].Title)
	assert.Contains(t, repo.inserted[0].Message, "09:00")
}

func TestNotifyLeaveDecisionTitles(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := newNotifications(repo)
	svc.Start(context.Background())
	defer svc.Stop()

	leave := &models.LeaveRequest{StartDate: "2026-02-10", EndDate: "2026-02-12"}
	svc.NotifyLeaveDecision(7, leave, true)
	svc.NotifyLeaveDecision(7, leave, false)

	require.Eventually(t, func() bool {
		return repo.insertedCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	titles := []string{repo.inserted[0].Title, repo.inserted[1].Title}
	assert.Contains(t, titles, models.TitleLeaveApproved)
	assert.Contains(t, titles, models.TitleLeaveRejected)
}

func TestRemindCheckInReportsDedup(t *testing.T) {
	repo := &fakeNotificationRepo{reminderCreated: true}
	svc := newNotifications(repo)

	created, err := svc.RemindCheckIn(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, repo.reminderMsgs, 1)
	assert.True(t, strings.Contains(repo.reminderMsgs[0], "09:00"))

	repo.reminderCreated = false
	created, err = svc.RemindCheckIn(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRemindCheckInSkipsInsertWhenAlreadyReminded(t *testing.T) {
	repo := &fakeNotificationRepo{reminderExists: true, reminderCreated: true}
	svc := newNotifications(repo)

	created, err := svc.RemindCheckIn(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, repo.reminderMsgs, "no insert attempt once today's reminder exists")
}

func TestListCapsLimit(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := newNotifications(repo)

	_, err := svc.List(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastListLimit)

	_, err = svc.List(context.Background(), 7, 500)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastListLimit)

	_, err = svc.List(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, repo.lastListLimit)
}

func TestRemindCheckInWrapsError(t *testing.T) {
	repo := &fakeNotificationRepo{reminderErr: errors.New("boom")}
	svc := newNotifications(repo)

	_, err := svc.RemindCheckIn(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestMarkReadNotFound(t *testing.T) {
	repo := &fakeNotificationRepo{markReadOK: false}
	svc := newNotifications(repo)

	err := svc.MarkRead(context.Background(), 99, 7)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
