package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// AttendanceRecord is a single attendance row for a member.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	MemberID  string           `db:"member_id" json:"member_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	CheckInAt *time.Time       `db:"check_in_time" json:"check_in_time,omitempty"`
}

// AttendanceFilter defines attendance query filters.
type AttendanceFilter struct {
	Status    *AttendanceStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	OrderDesc bool
}
