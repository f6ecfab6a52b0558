package models

import "time"

// Payment is a recorded membership payment.
type Payment struct {
	ID          string         `db:"id" json:"id"`
	MemberID    string         `db:"member_id" json:"member_id"`
	Amount      float64        `db:"amount" json:"amount"`
	PaymentDate time.Time      `db:"payment_date" json:"payment_date"`
	Plan        MembershipPlan `db:"plan" json:"plan"`
}

// PaymentFilter scopes payment queries.
type PaymentFilter struct {
	MemberID string
	DateFrom *time.Time
	DateTo   *time.Time
}
