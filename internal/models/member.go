package models

import "time"

// MemberStatus captures the lifecycle state of a membership.
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// Member represents a gym member as stored in the members table.
type Member struct {
	ID             string         `db:"id" json:"id"`
	FullName       string         `db:"full_name" json:"full_name"`
	Email          *string        `db:"email" json:"email,omitempty"`
	MembershipPlan MembershipPlan `db:"membership_plan" json:"membership_plan"`
	JoinDate       time.Time      `db:"join_date" json:"join_date"`
	ExpirationDate time.Time      `db:"expiration_date" json:"expiration_date"`
	Status         MemberStatus   `db:"status" json:"status"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// MemberFilter scopes member queries.
type MemberFilter struct {
	Status         *MemberStatus
	ExpiresFrom    *time.Time
	ExpiresTo      *time.Time
	ExpiredBefore  *time.Time
	MembershipPlan *MembershipPlan
}
