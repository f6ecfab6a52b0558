package service

import (
	"math"
	"time"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

const (
	monthKeyLayout   = "2006-01"
	monthLabelLayout = "Jan 2006"
	daysPerMonth     = 30
)

// daysBetween counts calendar days from -> to in UTC. Join and expiry dates are
// stored as dates and scan as midnight, so wall-clock hours must not shave a day.
func daysBetween(from, to time.Time) int {
	return int(calendarDay(to).Sub(calendarDay(from)).Hours() / 24)
}

func calendarDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func daysAgo(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// monthRange returns [start, end) of the calendar month offset months after t.
func monthRange(t time.Time, offset int) (time.Time, time.Time) {
	start := startOfMonth(t).AddDate(0, offset, 0)
	return start, start.AddDate(0, 1, 0)
}

func monthKey(t time.Time) string {
	return t.Format(monthKeyLayout)
}

func monthLabel(t time.Time) string {
	return t.Format(monthLabelLayout)
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func isActive(member models.Member) bool {
	return member.Status == models.MemberStatusActive
}

// countPresentByMember counts Present records per member inside [from, to].
func countPresentByMember(records []models.AttendanceRecord, from, to time.Time) map[string]int {
	counts := make(map[string]int)
	for _, record := range records {
		if record.Status != models.AttendanceStatusPresent {
			continue
		}
		if record.Date.Before(from) || record.Date.After(to) {
			continue
		}
		counts[record.MemberID]++
	}
	return counts
}

// lastCheckInByMember returns the most recent Present date per member.
func lastCheckInByMember(records []models.AttendanceRecord) map[string]time.Time {
	latest := make(map[string]time.Time)
	for _, record := range records {
		if record.Status != models.AttendanceStatusPresent {
			continue
		}
		if current, ok := latest[record.MemberID]; !ok || record.Date.After(current) {
			latest[record.MemberID] = record.Date
		}
	}
	return latest
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

func clampFloat(value, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, value))
}
