package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

// PaymentRepository exposes read queries over the payments table.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository instantiates the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// QueryPayments returns payments ordered by payment date.
func (r *PaymentRepository) QueryPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	var builder strings.Builder
	builder.WriteString("SELECT id, member_id, amount, payment_date, plan FROM payments WHERE 1=1")
	var args []interface{}
	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		builder.WriteString(fmt.Sprintf(" AND member_id = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		builder.WriteString(fmt.Sprintf(" AND payment_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		builder.WriteString(fmt.Sprintf(" AND payment_date <= $%d", len(args)))
	}
	builder.WriteString(" ORDER BY payment_date ASC")

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	return payments, nil
}
