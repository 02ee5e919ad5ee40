package models

import "time"

// AttendanceStatus classifies a day's attendance. It is fixed at check-in
// and never changes afterwards.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLeave   AttendanceStatus = "leave"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusLate, AttendanceStatusAbsent, AttendanceStatusLeave:
		return true
	default:
		return false
	}
}

// Attendance is one employee's ledger row for a calendar date. Check-in and
// check-out are same-day wall-clock times ("15:04:05"); locations and photos
// are opaque references captured at the client.
type Attendance struct {
	ID          int64            `db:"id" json:"id"`
	UserID      int64            `db:"user_id" json:"user_id"`
	Date        time.Time        `db:"date" json:"date"`
	CheckIn     *string          `db:"check_in" json:"check_in,omitempty"`
	CheckOut    *string          `db:"check_out" json:"check_out,omitempty"`
	Status      AttendanceStatus `db:"status" json:"status"`
	LocationIn  *string          `db:"location_in" json:"location_in,omitempty"`
	LocationOut *string          `db:"location_out" json:"location_out,omitempty"`
	PhotoIn     *string          `db:"photo_in" json:"photo_in,omitempty"`
	PhotoOut    *string          `db:"photo_out" json:"photo_out,omitempty"`
	TotalHours  *float64         `db:"total_hours" json:"total_hours,omitempty"`
}

// AttendanceRecord extends the ledger row with employee metadata for
// history and admin views.
type AttendanceRecord struct {
	Attendance
	UserName string  `db:"user_name" json:"user_name"`
	Division *string `db:"division" json:"division,omitempty"`
}

// MonthlyAttendanceStats aggregates one employee's ledger rows for a month.
// Present counts every row regardless of status; lateness is a
// sub-classification of presence, not a separate population.
type MonthlyAttendanceStats struct {
	Present int     `db:"total_present"`
	Late    int     `db:"total_late"`
	Hours   float64 `db:"total_hours"`
}

// DailyAttendanceStats captures the company-wide counters for one date.
type DailyAttendanceStats struct {
	PresentToday int `db:"present_today"`
	LateToday    int `db:"late_today"`
}
