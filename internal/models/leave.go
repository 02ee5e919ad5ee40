package models

import "time"

// LeaveStatus follows a one-way transition: pending -> approved | rejected.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
)

// LeaveType enumerates supported request categories.
type LeaveType string

const (
	LeaveTypeSick     LeaveType = "sick"
	LeaveTypeVacation LeaveType = "vacation"
	LeaveTypeOther    LeaveType = "other"
)

// Valid reports whether the leave type is supported.
func (t LeaveType) Valid() bool {
	switch t {
	case LeaveTypeSick, LeaveTypeVacation, LeaveTypeOther:
		return true
	default:
		return false
	}
}

// LeaveRequest is an employee's absence request awaiting admin decision.
type LeaveRequest struct {
	ID         int64       `db:"id" json:"id"`
	UserID     int64       `db:"user_id" json:"user_id"`
	Type       LeaveType   `db:"type" json:"type"`
	Reason     *string     `db:"reason" json:"reason,omitempty"`
	ProofFile  *string     `db:"proof_file" json:"proof_file,omitempty"`
	StartDate  string      `db:"start_date" json:"start_date"`
	EndDate    string      `db:"end_date" json:"end_date"`
	Status     LeaveStatus `db:"status" json:"status"`
	ApprovedBy *int64      `db:"approved_by" json:"approved_by,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

// LeaveRecord extends the request with the requester's display name.
type LeaveRecord struct {
	LeaveRequest
	UserName string `db:"user_name" json:"user_name"`
}
