package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
)

const maxRiskScore = 100

// ScoreRetentionRisks ranks active members by churn risk. Only members scoring
// above the retention threshold are kept, truncated to the configured limit.
func ScoreRetentionRisks(members []models.Member, attendance []models.AttendanceRecord, now time.Time, cfg InsightsEngineConfig) []dto.RetentionRisk {
	cfg = cfg.withDefaults()
	lastCheckIns := lastCheckInByMember(attendance)

	risks := make([]dto.RetentionRisk, 0)
	for _, member := range members {
		if !isActive(member) {
			continue
		}
		lastCheckIn, ok := lastCheckIns[member.ID]
		if !ok {
			lastCheckIn = member.JoinDate
		}
		sinceCheckIn := daysBetween(lastCheckIn, now)
		untilExpiration := daysBetween(now, member.ExpirationDate)
		tenure := daysBetween(member.JoinDate, now)

		score := 0
		factors := make([]string, 0, 3)
		if sinceCheckIn > cfg.InactivityDays {
			score += minInt(sinceCheckIn, cfg.InactivityCap)
			factors = append(factors, fmt.Sprintf("No check-ins for %d days", sinceCheckIn))
		}
		if untilExpiration > 0 && untilExpiration < cfg.ExpiringSoonDays {
			score += (cfg.ExpiringSoonDays - untilExpiration) * cfg.ExpiringSoonWeight
			factors = append(factors, fmt.Sprintf("Membership expires in %d days", untilExpiration))
		}
		if tenure < cfg.NewMemberDays && sinceCheckIn > cfg.NewMemberInactivityDays {
			score += cfg.NewMemberPenalty
			factors = append(factors, "New member with low engagement")
		}
		score = minInt(score, maxRiskScore)
		if score <= cfg.RetentionThreshold {
			continue
		}

		risks = append(risks, dto.RetentionRisk{
			MemberID:    member.ID,
			MemberName:  member.FullName,
			CurrentPlan: member.MembershipPlan,
			LastCheckIn: lastCheckIn,
			RiskScore:   score,
			RiskLevel:   riskLevel(score, cfg),
			RiskFactors: factors,
		})
	}

	sort.SliceStable(risks, func(i, j int) bool {
		if risks[i].RiskScore == risks[j].RiskScore {
			return risks[i].MemberID < risks[j].MemberID
		}
		return risks[i].RiskScore > risks[j].RiskScore
	})
	if len(risks) > cfg.RetentionLimit {
		risks = risks[:cfg.RetentionLimit]
	}
	return risks
}

func riskLevel(score int, cfg InsightsEngineConfig) dto.RiskLevel {
	switch {
	case score >= cfg.HighRiskScore:
		return dto.RiskLevelHigh
	case score >= cfg.MediumRiskScore:
		return dto.RiskLevelMedium
	default:
		return dto.RiskLevelLow
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
