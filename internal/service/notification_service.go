package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/volve-hq/attendance-api/internal/models"
	appErrors "github.com/volve-hq/attendance-api/pkg/errors"
	"github.com/volve-hq/attendance-api/pkg/jobs"
)

const (
	jobTypeNotify = "notification.create"

	defaultNotificationLimit = 20
)

type notificationRepository interface {
	Insert(ctx context.Context, n *models.Notification) error
	InsertReminderOnce(ctx context.Context, userID int64, message string) (bool, error)
	HasReminderToday(ctx context.Context, userID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) (bool, error)
	MarkAllRead(ctx context.Context, userID int64) error
}

// notifyPayload is the queue payload for asynchronous notification writes.
type notifyPayload struct {
	UserID  int64
	Title   string
	Message string
}

// NotificationService writes and serves in-app notifications. Event-driven
// notifications (late check-in, leave decisions) are enqueued on an
// in-memory worker pool so the triggering request never waits on the extra
// insert; the daily reminder is written synchronously because its caller
// needs the dedup outcome.
type NotificationService struct {
	repo       notificationRepository
	logger     *zap.Logger
	lateCutoff string

	queue *jobs.Queue
}

// NewNotificationService constructs the service and its worker queue. Call
// Start before enqueueing and Stop on shutdown.
func NewNotificationService(repo notificationRepository, logger *zap.Logger, lateCutoff string, workers, retries int) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		repo:       repo,
		logger:     logger,
		lateCutoff: lateCutoff,
	}
	s.queue = jobs.NewQueue("notifications", s.handleJob, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(notifyPayload)
	if !ok {
		s.logger.Error("unexpected notification job payload", zap.String("job_id", job.ID))
		return nil
	}
	n := &models.Notification{
		UserID:  payload.UserID,
		Title:   payload.Title,
		Message: payload.Message,
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	return nil
}

func (s *NotificationService) enqueue(userID int64, title, message string) {
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: jobTypeNotify,
		Payload: notifyPayload{
			UserID:  userID,
			Title:   title,
			Message: message,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Error("failed to enqueue notification",
			zap.Int64("user_id", userID),
			zap.String("title", title),
			zap.Error(err))
	}
}

// NotifyLate records a late check-in notification for the employee.
func (s *NotificationService) NotifyLate(userID int64) {
	message := fmt.Sprintf("Anda melakukan absen masuk setelah jam %s.", s.lateCutoff)
	s.enqueue(userID, models.TitleLateCheckIn, message)
}

// NotifyLeaveDecision records the outcome of a leave request for its owner.
func (s *NotificationService) NotifyLeaveDecision(userID int64, leave *models.LeaveRequest, approved bool) {
	title := models.TitleLeaveApproved
	verdict := "disetujui"
	if !approved {
		title = models.TitleLeaveRejected
		verdict = "ditolak"
	}
	message := fmt.Sprintf("Pengajuan izin Anda (%s s/d %s) telah %s.", leave.StartDate, leave.EndDate, verdict)
	s.enqueue(userID, title, message)
}

// RemindCheckIn writes the daily check-in reminder at most once per
// employee per day. It reports whether a new reminder was created. An
// existence check runs first; the conditional insert remains the
// authoritative dedup under concurrent sweeps.
func (s *NotificationService) RemindCheckIn(ctx context.Context, userID int64) (bool, error) {
	exists, err := s.repo.HasReminderToday(ctx, userID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for reminder")
	}
	if exists {
		return false, nil
	}
	message := fmt.Sprintf("Anda belum melakukan absen masuk hari ini. Batas waktu absen adalah %s.", s.lateCutoff)
	created, err := s.repo.InsertReminderOnce(ctx, userID, message)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reminder")
	}
	return created, nil
}

// List returns the employee's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > defaultNotificationLimit {
		limit = defaultNotificationLimit
	}
	rows, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if rows == nil {
		rows = []models.Notification{}
	}
	return rows, nil
}

// MarkRead flags one notification as read; only the owner can do so.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	if !ok {
		return appErrors.ErrNotFound
	}
	return nil
}

// MarkAllRead flags the employee's entire inbox as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}
