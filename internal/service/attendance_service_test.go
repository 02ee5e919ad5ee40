package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volve-hq/attendance-api/internal/models"
	appErrors "github.com/volve-hq/attendance-api/pkg/errors"
)

type fakeAttendanceRepo struct {
	inserted     bool
	insertErr    error
	insertCalls  int
	lastInserted *models.Attendance

	record  *models.Attendance
	findErr error

	completed    bool
	completeErr  error
	lastCheckOut string
	lastHours    float64

	history []models.AttendanceRecord
}

func (f *fakeAttendanceRepo) Insert(_ context.Context, record *models.Attendance) (bool, error) {
	f.insertCalls++
	f.lastInserted = record
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if f.inserted {
		record.ID = 1
	}
	return f.inserted, nil
}

func (f *fakeAttendanceRepo) FindByUserAndDate(context.Context, int64, time.Time) (*models.Attendance, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.record, nil
}

func (f *fakeAttendanceRepo) CompleteCheckOut(_ context.Context, _ int64, _ time.Time, checkOut string, _, _ *string, totalHours float64) (bool, error) {
	f.lastCheckOut = checkOut
	f.lastHours = totalHours
	return f.completed, f.completeErr
}

func (f *fakeAttendanceRepo) HistoryByUser(context.Context, int64, int) ([]models.AttendanceRecord, error) {
	return f.history, nil
}

func (f *fakeAttendanceRepo) ListAll(context.Context, int, int) ([]models.AttendanceRecord, int, error) {
	return f.history, len(f.history), nil
}

type fakeLateNotifier struct {
	notified []int64
}

func (f *fakeLateNotifier) NotifyLate(userID int64) {
	f.notified = append(f.notified, userID)
}

func newLedger(repo *fakeAttendanceRepo, notifier *fakeLateNotifier, at time.Time) *AttendanceService {
	svc := NewAttendanceService(repo, notifier, nil, nil, AttendanceServiceConfig{
		LateCutoff:   "09:00",
		Location:     time.UTC,
		HistoryLimit: 30,
	})
	svc.now = func() time.Time { return at }
	return svc
}

func TestCheckInBeforeCutoffIsPresent(t *testing.T) {
	repo := &fakeAttendanceRepo{inserted: true}
	notifier := &fakeLateNotifier{}
	svc := newLedger(repo, notifier, time.Date(2026, 2, 3, 8, 59, 0, 0, time.UTC))

	record, err := svc.CheckIn(context.Background(), 7, CheckInRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusPresent, record.Status)
	require.NotNil(t, record.CheckIn)
	assert.Equal(t, "08:59:00", *record.CheckIn)
	assert.Empty(t, notifier.notified)
}

func TestCheckInAtCutoffIsLate(t *testing.T) {
	repo := &fakeAttendanceRepo{inserted: true}
	notifier := &fakeLateNotifier{}
	svc := newLedger(repo, notifier, time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC))

	record, err := svc.CheckIn(context.Background(), 7, CheckInRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusLate, record.Status)
	assert.Equal(t, []int64{7}, notifier.notified)
}

func TestCheckInIgnoresClientStatus(t *testing.T) {
	repo := &fakeAttendanceRepo{inserted: true}
	svc := newLedger(repo, &fakeLateNotifier{}, time.Date(2026, 2, 3, 10, 15, 0, 0, time.UTC))

	record, err := svc.CheckIn(context.Background(), 7, CheckInRequest{Status: "present"})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusLate, record.Status)
}

func TestCheckInDuplicateRejected(t *testing.T) {
	repo := &fakeAttendanceRepo{inserted: false}
	notifier := &fakeLateNotifier{}
	svc := newLedger(repo, notifier, time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC))

	_, err := svc.CheckIn(context.Background(), 7, CheckInRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrAlreadyCheckedIn)
	assert.Empty(t, notifier.notified, "a rejected check-in must not notify")
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	repo := &fakeAttendanceRepo{findErr: sql.ErrNoRows}
	svc := newLedger(repo, nil, time.Date(2026, 2, 3, 17, 0, 0, 0, time.UTC))

	_, err := svc.CheckOut(context.Background(), 7, CheckOutRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotCheckedIn)
}

func TestCheckOutTwiceRejected(t *testing.T) {
	checkIn := "08:00:00"
	checkOut := "17:00:00"
	repo := &fakeAttendanceRepo{record: &models.Attendance{
		UserID:   7,
		Date:     time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		CheckIn:  &checkIn,
		CheckOut: &checkOut,
	}}
	svc := newLedger(repo, nil, time.Date(2026, 2, 3, 18, 0, 0, 0, time.UTC))

	_, err := svc.CheckOut(context.Background(), 7, CheckOutRequest{})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyCheckedOut)
}

func TestCheckOutLosesRace(t *testing.T) {
	checkIn := "08:00:00"
	repo := &fakeAttendanceRepo{
		record: &models.Attendance{
			UserID:  7,
			Date:    time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
			CheckIn: &checkIn,
		},
		completed: false,
	}
	svc := newLedger(repo, nil, time.Date(2026, 2, 3, 17, 0, 0, 0, time.UTC))

	_, err := svc.CheckOut(context.Background(), 7, CheckOutRequest{})
	assert.ErrorIs(t, err, appErrors.ErrAlreadyCheckedOut)
}

func TestCheckOutDerivesHours(t *testing.T) {
	checkIn := "08:00:00"
	repo := &fakeAttendanceRepo{
		record: &models.Attendance{
			UserID:  7,
			Date:    time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
			CheckIn: &checkIn,
		},
		completed: true,
	}
	svc := newLedger(repo, nil, time.Date(2026, 2, 3, 17, 30, 0, 0, time.UTC))

	record, err := svc.CheckOut(context.Background(), 7, CheckOutRequest{})
	require.NoError(t, err)
	require.NotNil(t, record.TotalHours)
	assert.InDelta(t, 9.5, *record.TotalHours, 0.0001)
	assert.Equal(t, "17:30:00", repo.lastCheckOut)
}

func TestWorkedHoursRoundsToTwoDecimals(t *testing.T) {
	date := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)

	hours, err := workedHours(date, "08:00:00", "16:20:10")
	require.NoError(t, err)
	assert.InDelta(t, 8.34, hours, 0.0001)
}

func TestWorkedHoursNegativePreserved(t *testing.T) {
	date := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)

	hours, err := workedHours(date, "17:00:00", "09:00:00")
	require.NoError(t, err)
	assert.InDelta(t, -8.0, hours, 0.0001)
}

func TestTodayReturnsNilWithoutRecord(t *testing.T) {
	repo := &fakeAttendanceRepo{findErr: sql.ErrNoRows}
	svc := newLedger(repo, nil, time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC))

	record, err := svc.Today(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestTodayPropagatesStorageError(t *testing.T) {
	repo := &fakeAttendanceRepo{findErr: errors.New("boom")}
	svc := newLedger(repo, nil, time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC))

	_, err := svc.Today(context.Background(), 7)
	assert.Error(t, err)
}

func TestHistoryClampsLimit(t *testing.T) {
	repo := &fakeAttendanceRepo{history: []models.AttendanceRecord{}}
	svc := newLedger(repo, nil, time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC))

	rows, err := svc.History(context.Background(), 7, 500)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
