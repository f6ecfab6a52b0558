package models

// MembershipPlan enumerates the membership tiers sold by the gym.
type MembershipPlan string

const (
	PlanBasic      MembershipPlan = "Basic"
	PlanPro        MembershipPlan = "Pro"
	PlanPremium    MembershipPlan = "Premium"
	PlanOneDayPass MembershipPlan = "One-Day-Pass"
)

// DefaultPlanPrices is the static price table for each tier.
var DefaultPlanPrices = map[MembershipPlan]float64{
	PlanBasic:      30,
	PlanPro:        50,
	PlanPremium:    80,
	PlanOneDayPass: 10,
}

// Plans returns every tier in display order.
func Plans() []MembershipPlan {
	return []MembershipPlan{PlanBasic, PlanPro, PlanPremium, PlanOneDayPass}
}

// Valid returns true when the plan is a supported tier.
func (p MembershipPlan) Valid() bool {
	_, ok := DefaultPlanPrices[p]
	return ok
}

// Price returns the list price of the plan, zero for unknown tiers.
func (p MembershipPlan) Price() float64 {
	return DefaultPlanPrices[p]
}

// NextTier returns the upgrade target. Premium is terminal and returns itself.
func (p MembershipPlan) NextTier() MembershipPlan {
	switch p {
	case PlanOneDayPass:
		return PlanBasic
	case PlanBasic:
		return PlanPro
	case PlanPro:
		return PlanPremium
	default:
		return p
	}
}

// IsSubscription reports whether the plan bills on a recurring basis.
func (p MembershipPlan) IsSubscription() bool {
	return p != PlanOneDayPass
}
