package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/volve-hq/attendance-api/internal/models"
	appErrors "github.com/volve-hq/attendance-api/pkg/errors"
)

const snapshotCacheKey = "dashboard:company-snapshot"

type attendanceStatsRepository interface {
	MonthlyStats(ctx context.Context, userID int64, monthStart, monthEnd time.Time) (*models.MonthlyAttendanceStats, error)
	DailyStats(ctx context.Context, date time.Time) (*models.DailyAttendanceStats, error)
	HasRecord(ctx context.Context, userID int64, date time.Time) (bool, error)
}

type leaveStatsRepository interface {
	CountApprovedInMonth(ctx context.Context, userID int64, monthStart, monthEnd time.Time) (int, error)
	CountPending(ctx context.Context) (int, error)
}

type userDirectory interface {
	Count(ctx context.Context) (int, error)
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

type checkInReminder interface {
	RemindCheckIn(ctx context.Context, userID int64) (bool, error)
}

type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{})
}

// DashboardServiceConfig fixes the aggregation engine's time policy.
type DashboardServiceConfig struct {
	// ReminderCutoff is the wall-clock "HH:MM" at or after which an
	// employee without a ledger row gets the daily reminder.
	ReminderCutoff string
	// Location is the timezone cutoffs and month windows are computed in.
	Location *time.Location
}

// DashboardService derives aggregate views from the ledger and the leave
// store. It holds no state of its own; everything is recomputed from the
// source rows (the company snapshot may be served from cache).
type DashboardService struct {
	attendance attendanceStatsRepository
	leaves     leaveStatsRepository
	users      userDirectory
	reminder   checkInReminder
	cache      snapshotCache
	logger     *zap.Logger
	now        func() time.Time

	location       *time.Location
	reminderMinute int
}

// NewDashboardService constructs the aggregation service.
func NewDashboardService(
	attendance attendanceStatsRepository,
	leaves leaveStatsRepository,
	users userDirectory,
	reminder checkInReminder,
	cache snapshotCache,
	logger *zap.Logger,
	cfg DashboardServiceConfig,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	cutoff, err := parseWallClockMinute(cfg.ReminderCutoff)
	if err != nil {
		cutoff = 8*60 + 30
	}
	return &DashboardService{
		attendance:     attendance,
		leaves:         leaves,
		users:          users,
		reminder:       reminder,
		cache:          cache,
		logger:         logger,
		now:            time.Now,
		location:       loc,
		reminderMinute: cutoff,
	}
}

// UserSummary aggregates one calendar month for the employee: days present,
// days late, total worked hours and approved leaves. The month is given as
// "2006-01"; empty selects the current month. Reading the summary also
// evaluates the daily check-in reminder for the employee, so opening the
// dashboard is sufficient to receive it.
func (s *DashboardService) UserSummary(ctx context.Context, userID int64, month string) (*models.MonthlySummary, error) {
	monthStart, err := s.monthWindowStart(month)
	if err != nil {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "month must be YYYY-MM")
	}
	monthEnd := monthStart.AddDate(0, 1, 0)

	if err := s.EvaluateReminder(ctx, userID); err != nil {
		// The summary itself must still be served.
		s.logger.Warn("reminder evaluation failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	stats, err := s.attendance.MonthlyStats(ctx, userID, monthStart, monthEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	leaves, err := s.leaves.CountApprovedInMonth(ctx, userID, monthStart, monthEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count leaves")
	}

	return &models.MonthlySummary{
		Present: stats.Present,
		Late:    stats.Late,
		Hours:   stats.Hours,
		Leaves:  leaves,
	}, nil
}

// monthWindowStart resolves the first day of the requested "2006-01" month,
// falling back to the current month when empty.
func (s *DashboardService) monthWindowStart(month string) (time.Time, error) {
	if month == "" {
		nowLocal := s.now().In(s.location)
		return time.Date(nowLocal.Year(), nowLocal.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	parsed, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(parsed.Year(), parsed.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}

// EvaluateReminder creates the daily check-in reminder for one employee
// when the reminder cutoff has passed and no ledger row exists for today.
// The write is idempotent per (employee, day); evaluating repeatedly is
// safe and cheap.
func (s *DashboardService) EvaluateReminder(ctx context.Context, userID int64) error {
	if s.reminder == nil {
		return nil
	}
	nowLocal := s.now().In(s.location)
	if nowLocal.Hour()*60+nowLocal.Minute() < s.reminderMinute {
		return nil
	}
	hasRecord, err := s.attendance.HasRecord(ctx, userID, dateOf(nowLocal))
	if err != nil {
		return err
	}
	if hasRecord {
		return nil
	}
	created, err := s.reminder.RemindCheckIn(ctx, userID)
	if err != nil {
		return err
	}
	if created {
		s.logger.Info("check-in reminder created", zap.Int64("user_id", userID))
	}
	return nil
}

// SweepReminders evaluates the reminder for every active employee. It is
// wired to an optional ticker so reminders do not depend on employees
// opening their dashboard.
func (s *DashboardService) SweepReminders(ctx context.Context) error {
	ids, err := s.users.ListActiveIDs(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees for reminder sweep")
	}
	for _, id := range ids {
		if err := s.EvaluateReminder(ctx, id); err != nil {
			s.logger.Warn("reminder sweep failed for employee", zap.Int64("user_id", id), zap.Error(err))
		}
	}
	return nil
}

// CompanySnapshot aggregates today's company-wide counts. The second return
// value reports whether the payload came from cache.
func (s *DashboardService) CompanySnapshot(ctx context.Context) (*models.CompanySnapshot, bool, error) {
	if s.cache != nil {
		var cached models.CompanySnapshot
		if err := s.cache.Get(ctx, snapshotCacheKey, &cached); err == nil {
			return &cached, true, nil
		}
	}

	nowLocal := s.now().In(s.location)
	today := dateOf(nowLocal)

	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count employees")
	}
	daily, err := s.attendance.DailyStats(ctx, today)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	pending, err := s.leaves.CountPending(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending leaves")
	}

	snapshot := &models.CompanySnapshot{
		TotalEmployees: total,
		PresentToday:   daily.PresentToday,
		LateToday:      daily.LateToday,
		PendingLeaves:  pending,
	}
	if s.cache != nil {
		s.cache.Set(ctx, snapshotCacheKey, snapshot)
	}
	return snapshot, false, nil
}
