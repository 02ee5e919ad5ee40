package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleStaff UserRole = "staff"
)

// User represents an employee account stored in the users table.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	JobTitle     *string   `db:"job_title" json:"job_title,omitempty"`
	Division     *string   `db:"division" json:"division,omitempty"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	JoinDate     *string   `db:"join_date" json:"join_date,omitempty"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// EmployeeCode renders the public employee identifier, e.g. EMP-0001.
func (u *User) EmployeeCode() string {
	return fmt.Sprintf("EMP-%04d", u.ID)
}

// ParseEmployeeCode accepts "EMP-0001" or a bare numeric id.
func ParseEmployeeCode(code string) (int64, error) {
	trimmed := strings.TrimSpace(strings.ToUpper(code))
	trimmed = strings.TrimPrefix(trimmed, "EMP-")
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid employee code %q", code)
	}
	return id, nil
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
