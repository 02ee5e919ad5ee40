package models

import "time"

// Fixed notification titles. TitleReminder doubles as the predicate of the
// partial unique index that makes the daily reminder idempotent, so the
// literal must stay in sync with the migration.
const (
	TitleLateCheckIn   = "Keterlambatan Tercatat"
	TitleReminder      = "Pengingat Absen"
	TitleLeaveApproved = "Izin Disetujui"
	TitleLeaveRejected = "Izin Ditolak"
)

// Notification is an in-app message for one employee. Rows are only ever
// created by the ledger, the leave workflow, or the reminder evaluation,
// and only mutated by marking read.
type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
