package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/volve-hq/attendance-api/internal/models"
	appErrors "github.com/volve-hq/attendance-api/pkg/errors"
)

const wallClockLayout = "15:04:05"

type attendanceRepository interface {
	Insert(ctx context.Context, record *models.Attendance) (bool, error)
	FindByUserAndDate(ctx context.Context, userID int64, date time.Time) (*models.Attendance, error)
	CompleteCheckOut(ctx context.Context, userID int64, date time.Time, checkOut string, locationOut, photoOut *string, totalHours float64) (bool, error)
	HistoryByUser(ctx context.Context, userID int64, limit int) ([]models.AttendanceRecord, error)
	ListAll(ctx context.Context, page, pageSize int) ([]models.AttendanceRecord, int, error)
}

type lateNotifier interface {
	NotifyLate(userID int64)
}

// AttendanceServiceConfig fixes the ledger's time policy.
type AttendanceServiceConfig struct {
	// LateCutoff is the wall-clock "HH:MM" boundary; checking in at or
	// after it classifies the day as late.
	LateCutoff string
	// Location is the timezone the cutoff is interpreted in.
	Location *time.Location
	// HistoryLimit bounds history reads; it is also the default.
	HistoryLimit int
}

// AttendanceService owns the per-employee-per-day attendance lifecycle:
// at most one check-in and one check-out per day, lateness classification
// at check-in, derived hours at checkout.
type AttendanceService struct {
	repo      attendanceRepository
	notifier  lateNotifier
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time

	location     *time.Location
	cutoffMinute int
	historyLimit int
}

// NewAttendanceService constructs the ledger service.
func NewAttendanceService(repo attendanceRepository, notifier lateNotifier, validate *validator.Validate, logger *zap.Logger, cfg AttendanceServiceConfig) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	cutoff, err := parseWallClockMinute(cfg.LateCutoff)
	if err != nil {
		cutoff = 9 * 60
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = 30
	}
	return &AttendanceService{
		repo:         repo,
		notifier:     notifier,
		validator:    validate,
		logger:       logger,
		now:          time.Now,
		location:     loc,
		cutoffMinute: cutoff,
		historyLimit: limit,
	}
}

// CheckInRequest carries the client-captured evidence for a check-in. The
// status field is only a hint; the classification authority is the server
// clock.
type CheckInRequest struct {
	Location *string `json:"location"`
	Photo    *string `json:"photo"`
	Status   string  `json:"status" validate:"omitempty,oneof=present late"`
}

// CheckOutRequest carries the client-captured evidence for a check-out.
type CheckOutRequest struct {
	Location *string `json:"location"`
	Photo    *string `json:"photo"`
}

// CheckIn creates today's ledger record. A duplicate call for the same day
// fails with ALREADY_CHECKED_IN regardless of whether checkout happened.
// Lateness is decided here from the injected clock, not trusted from the
// client; a divergent client hint is logged and ignored. The late
// notification is dispatched fire-and-forget and never fails the check-in.
func (s *AttendanceService) CheckIn(ctx context.Context, userID int64, req CheckInRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in payload")
	}

	nowLocal := s.now().In(s.location)
	status := models.AttendanceStatusPresent
	if nowLocal.Hour()*60+nowLocal.Minute() >= s.cutoffMinute {
		status = models.AttendanceStatusLate
	}
	if req.Status != "" && models.AttendanceStatus(req.Status) != status {
		s.logger.Warn("client-reported status differs from server clock, ignoring",
			zap.Int64("user_id", userID),
			zap.String("client_status", req.Status),
			zap.String("server_status", string(status)))
	}

	checkIn := nowLocal.Format(wallClockLayout)
	record := &models.Attendance{
		UserID:     userID,
		Date:       dateOf(nowLocal),
		CheckIn:    &checkIn,
		Status:     status,
		LocationIn: req.Location,
		PhotoIn:    req.Photo,
	}

	inserted, err := s.repo.Insert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-in")
	}
	if !inserted {
		return nil, appErrors.ErrAlreadyCheckedIn
	}

	if status == models.AttendanceStatusLate && s.notifier != nil {
		s.notifier.NotifyLate(userID)
	}

	return record, nil
}

// CheckOut completes today's record. It fails with NOT_CHECKED_IN when no
// record exists and ALREADY_CHECKED_OUT when checkout already happened; a
// concurrent double checkout is resolved by the storage layer, so the
// loser also receives ALREADY_CHECKED_OUT.
func (s *AttendanceService) CheckOut(ctx context.Context, userID int64, req CheckOutRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-out payload")
	}

	nowLocal := s.now().In(s.location)
	today := dateOf(nowLocal)

	record, err := s.repo.FindByUserAndDate(ctx, userID, today)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotCheckedIn
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if record.CheckOut != nil {
		return nil, appErrors.ErrAlreadyCheckedOut
	}
	if record.CheckIn == nil {
		return nil, appErrors.ErrNotCheckedIn
	}

	checkOut := nowLocal.Format(wallClockLayout)
	hours, err := workedHours(record.Date, *record.CheckIn, checkOut)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive worked hours")
	}

	updated, err := s.repo.CompleteCheckOut(ctx, userID, today, checkOut, req.Location, req.Photo, hours)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-out")
	}
	if !updated {
		return nil, appErrors.ErrAlreadyCheckedOut
	}

	record.CheckOut = &checkOut
	record.LocationOut = req.Location
	record.PhotoOut = req.Photo
	record.TotalHours = &hours
	return record, nil
}

// Today returns today's record, or nil when the employee has not checked
// in yet. Absence of a record is not an error.
func (s *AttendanceService) Today(ctx context.Context, userID int64) (*models.Attendance, error) {
	today := dateOf(s.now().In(s.location))
	record, err := s.repo.FindByUserAndDate(ctx, userID, today)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return record, nil
}

// History returns the employee's records newest first, bounded to the
// configured limit.
func (s *AttendanceService) History(ctx context.Context, userID int64, limit int) ([]models.AttendanceRecord, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	rows, err := s.repo.HistoryByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	return rows, nil
}

// ListAll returns the company-wide feed for admins.
func (s *AttendanceService) ListAll(ctx context.Context, page, pageSize int) ([]models.AttendanceRecord, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	rows, total, err := s.repo.ListAll(ctx, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return rows, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// workedHours derives the decimal hour span between two same-day wall-clock
// times, rounded to 2 decimal places. There is no cross-midnight handling:
// a checkout numerically earlier than check-in yields a negative value and
// is deliberately not rejected.
func workedHours(date time.Time, checkIn, checkOut string) (float64, error) {
	in, err := combineDateAndClock(date, checkIn)
	if err != nil {
		return 0, fmt.Errorf("parse check-in time: %w", err)
	}
	out, err := combineDateAndClock(date, checkOut)
	if err != nil {
		return 0, fmt.Errorf("parse check-out time: %w", err)
	}
	hours := out.Sub(in).Hours()
	return math.Round(hours*100) / 100, nil
}

func combineDateAndClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(wallClockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

// dateOf truncates a local timestamp to its calendar date.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseWallClockMinute(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid wall-clock value %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour*60 + minute, nil
}
