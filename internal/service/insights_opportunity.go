package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
)

const maxUpgradeScore = 95

// upgradeRule promotes a member to the next tier when visit frequency or tenure
// passes the tier's threshold. A zero minTenureMonths disables the tenure path.
type upgradeRule struct {
	minFrequency    float64
	minTenureMonths float64
	frequencyWeight float64
	tenureWeight    float64
	usageReason     string
	tenureReason    string
}

var upgradeRules = map[models.MembershipPlan]upgradeRule{
	models.PlanBasic: {
		minFrequency:    12,
		minTenureMonths: 3,
		frequencyWeight: 5,
		tenureWeight:    3,
		usageReason:     "High gym usage",
		tenureReason:    "Loyal member",
	},
	models.PlanPro: {
		minFrequency:    20,
		minTenureMonths: 6,
		frequencyWeight: 3,
		tenureWeight:    2,
		usageReason:     "Very high gym usage",
		tenureReason:    "Long-term member",
	},
	models.PlanOneDayPass: {
		minFrequency:    3,
		frequencyWeight: 15,
		usageReason:     "Frequent day-pass visits",
	},
}

// ScoreRevenueOpportunities returns active members who qualify for the next plan
// tier, ordered by descending upgrade score.
func ScoreRevenueOpportunities(members []models.Member, attendance []models.AttendanceRecord, now time.Time, cfg InsightsEngineConfig) []dto.RevenueOpportunity {
	cfg = cfg.withDefaults()
	window := cfg.ActivityWindowDays
	visits := countPresentByMember(attendance, daysAgo(now, window), now)

	opportunities := make([]dto.RevenueOpportunity, 0)
	for _, member := range members {
		if !isActive(member) {
			continue
		}
		rule, ok := upgradeRules[member.MembershipPlan]
		if !ok {
			continue
		}
		suggested := member.MembershipPlan.NextTier()
		if suggested == member.MembershipPlan {
			continue
		}

		frequency := float64(visits[member.ID]) * daysPerMonth / float64(window)
		tenureMonths := float64(daysBetween(member.JoinDate, now)) / daysPerMonth

		var reason string
		switch {
		case frequency > rule.minFrequency:
			reason = fmt.Sprintf("%s: %d visits in the last %d days", rule.usageReason, visits[member.ID], window)
		case rule.minTenureMonths > 0 && tenureMonths > rule.minTenureMonths:
			reason = fmt.Sprintf("%s for %d months", rule.tenureReason, int(tenureMonths))
		default:
			continue
		}

		raw := math.Min(frequency*rule.frequencyWeight+tenureMonths*rule.tenureWeight, maxUpgradeScore)
		opportunities = append(opportunities, dto.RevenueOpportunity{
			MemberID:       member.ID,
			MemberName:     member.FullName,
			CurrentPlan:    member.MembershipPlan,
			SuggestedPlan:  suggested,
			CurrentPrice:   cfg.price(member.MembershipPlan),
			PotentialPrice: cfg.price(suggested),
			UpgradeReason:  reason,
			UpgradeScore:   int(math.Round(raw)),
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		if opportunities[i].UpgradeScore == opportunities[j].UpgradeScore {
			return opportunities[i].MemberID < opportunities[j].MemberID
		}
		return opportunities[i].UpgradeScore > opportunities[j].UpgradeScore
	})
	return opportunities
}
