package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volve-hq/attendance-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceInsertReturnsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	checkIn := "08:15:00"
	record := &models.Attendance{
		UserID:  7,
		Date:    time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		CheckIn: &checkIn,
		Status:  models.AttendanceStatusPresent,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs(record.UserID, record.Date, record.CheckIn, record.Status, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	inserted, err := repo.Insert(context.Background(), record)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(11), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceInsertConflictIsNotAnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	checkIn := "08:15:00"
	record := &models.Attendance{
		UserID:  7,
		Date:    time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		CheckIn: &checkIn,
		Status:  models.AttendanceStatusPresent,
	}

	// ON CONFLICT DO NOTHING yields zero rows from RETURNING.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs(record.UserID, record.Date, record.CheckIn, record.Status, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	inserted, err := repo.Insert(context.Background(), record)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceFindByUserAndDateNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance WHERE user_id = $1 AND date = $2")).
		WithArgs(int64(7), date).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUserAndDate(context.Background(), 7, date)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteCheckOutUpdatesOnce(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance")).
		WithArgs(int64(7), date, "17:30:00", nil, nil, 9.5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.CompleteCheckOut(context.Background(), 7, date, "17:30:00", nil, nil, 9.5)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteCheckOutAlreadyDone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance")).
		WithArgs(int64(7), date, "17:30:00", nil, nil, 9.5).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.CompleteCheckOut(context.Background(), 7, date, "17:30:00", nil, nil, 9.5)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryByUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	checkIn := "08:00:00"
	rows := sqlmock.NewRows([]string{"id", "user_id", "date", "check_in", "check_out", "status", "location_in", "location_out", "photo_in", "photo_out", "total_hours", "user_name"}).
		AddRow(int64(1), int64(7), time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), checkIn, nil, "present", nil, nil, nil, nil, nil, "Dewi")

	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON u.id = a.user_id")).
		WithArgs(int64(7), 30).
		WillReturnRows(rows)

	records, err := repo.HistoryByUser(context.Background(), 7, 30)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Dewi", records[0].UserName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	monthStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND date >= $2 AND date < $3")).
		WithArgs(int64(7), monthStart, monthEnd).
		WillReturnRows(sqlmock.NewRows([]string{"total_present", "total_late", "total_hours"}).AddRow(20, 3, 160.0))

	stats, err := repo.MonthlyStats(context.Background(), 7, monthStart, monthEnd)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.Present)
	assert.Equal(t, 3, stats.Late)
	assert.InDelta(t, 160.0, stats.Hours, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE date = $1")).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"present_today", "late_today"}).AddRow(42, 6))

	stats, err := repo.DailyStats(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, 42, stats.PresentToday)
	assert.Equal(t, 6, stats.LateToday)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasRecord(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(7), date).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasRecord(context.Background(), 7, date)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
