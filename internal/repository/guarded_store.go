package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

type memberSource interface {
	QueryMembers(ctx context.Context, filter models.MemberFilter) ([]models.Member, error)
}

type attendanceSource interface {
	QueryAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
}

type paymentSource interface {
	QueryPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
}

// BreakerConfig tunes the circuit breaker guarding store reads.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// GuardedStore routes the three read queries through one circuit breaker so an
// unreachable store fails fast instead of holding every caller until its timeout.
type GuardedStore struct {
	members    memberSource
	attendance attendanceSource
	payments   paymentSource
	cb         *gobreaker.CircuitBreaker
}

// NewGuardedStore wraps the sources with a breaker built from cfg.
func NewGuardedStore(members memberSource, attendance attendanceSource, payments paymentSource, cfg BreakerConfig, logger *zap.Logger) *GuardedStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "insights-store",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &GuardedStore{members: members, attendance: attendance, payments: payments, cb: cb}
}

// countsAsHealthy keeps caller cancellations and per-function deadlines from
// tripping the breaker; only errors raised by the store itself count.
func countsAsHealthy(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// State reports the current breaker state.
func (s *GuardedStore) State() gobreaker.State {
	return s.cb.State()
}

// QueryMembers reads members through the breaker.
func (s *GuardedStore) QueryMembers(ctx context.Context, filter models.MemberFilter) ([]models.Member, error) {
	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.members.QueryMembers(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Member), nil
}

// QueryAttendance reads attendance through the breaker.
func (s *GuardedStore) QueryAttendance(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.attendance.QueryAttendance(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.AttendanceRecord), nil
}

// QueryPayments reads payments through the breaker.
func (s *GuardedStore) QueryPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	result, err := s.cb.Execute(func() (interface{}, error) {
		return s.payments.QueryPayments(ctx, filter)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Payment), nil
}
