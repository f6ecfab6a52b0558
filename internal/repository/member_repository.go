package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

const memberColumns = "id, full_name, email, membership_plan, join_date, expiration_date, status, created_at, updated_at"

// MemberRepository exposes read queries over the members table.
type MemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository instantiates the repository.
func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// QueryMembers returns members matching the filter ordered by join date.
func (r *MemberRepository) QueryMembers(ctx context.Context, filter models.MemberFilter) ([]models.Member, error) {
	var builder strings.Builder
	builder.WriteString("SELECT " + memberColumns + " FROM members WHERE 1=1")
	var args []interface{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		builder.WriteString(fmt.Sprintf(" AND status = $%d", len(args)))
	}
	if filter.MembershipPlan != nil {
		args = append(args, *filter.MembershipPlan)
		builder.WriteString(fmt.Sprintf(" AND membership_plan = $%d", len(args)))
	}
	if filter.ExpiresFrom != nil {
		args = append(args, *filter.ExpiresFrom)
		builder.WriteString(fmt.Sprintf(" AND expiration_date >= $%d", len(args)))
	}
	if filter.ExpiresTo != nil {
		args = append(args, *filter.ExpiresTo)
		builder.WriteString(fmt.Sprintf(" AND expiration_date <= $%d", len(args)))
	}
	if filter.ExpiredBefore != nil {
		args = append(args, *filter.ExpiredBefore)
		builder.WriteString(fmt.Sprintf(" AND expiration_date < $%d", len(args)))
	}
	builder.WriteString(" ORDER BY join_date ASC, id ASC")

	var members []models.Member
	if err := r.db.SelectContext(ctx, &members, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	return members, nil
}
