package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

// AttendanceRepository exposes read queries over the attendance table.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository instantiates the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// QueryAttendance returns attendance rows filtered by status and date range.
func (r *AttendanceRepository) QueryAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	var builder strings.Builder
	builder.WriteString("SELECT id, member_id, date, status, check_in_time FROM attendance WHERE 1=1")
	var args []interface{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		builder.WriteString(fmt.Sprintf(" AND status = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		builder.WriteString(fmt.Sprintf(" AND date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		builder.WriteString(fmt.Sprintf(" AND date <= $%d", len(args)))
	}
	if filter.OrderDesc {
		builder.WriteString(" ORDER BY date DESC")
	} else {
		builder.WriteString(" ORDER BY date ASC")
	}

	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	return records, nil
}
