package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
)

const (
	offerLoyaltyUpgrade  = "Loyalty Upgrade"
	offerLoyaltyReward   = "Loyalty Reward"
	offerLastChance      = "Last Chance"
	offerPremiumTrial    = "Premium Trial"
	offerEarlyBird       = "Early Bird"
	offerRenewalDiscount = "Renewal Discount"

	lastChanceDays = 7
	earlyBirdDays  = 21
)

// GenerateRenewalOffers assigns one offer template to every active member whose
// membership expires inside the renewal window. Offers start as pending; later
// delivery states belong to the messaging side.
func GenerateRenewalOffers(members []models.Member, now time.Time, cfg InsightsEngineConfig) []dto.RenewalOffer {
	cfg = cfg.withDefaults()
	windowEnd := now.AddDate(0, 0, cfg.RenewalWindowDays)

	offers := make([]dto.RenewalOffer, 0)
	for _, member := range members {
		if !isActive(member) {
			continue
		}
		if !member.ExpirationDate.After(now) || member.ExpirationDate.After(windowEnd) {
			continue
		}
		daysLeft := daysBetween(now, member.ExpirationDate)
		loyal := daysBetween(member.JoinDate, now) > cfg.LoyalTenureDays
		offerType, description, discount := selectOffer(member.MembershipPlan, daysLeft, loyal)

		offers = append(offers, dto.RenewalOffer{
			MemberID:         member.ID,
			MemberName:       member.FullName,
			CurrentPlan:      member.MembershipPlan,
			RenewalDate:      member.ExpirationDate,
			DaysUntilRenewal: daysLeft,
			OfferType:        offerType,
			OfferDescription: description,
			DiscountPercent:  discount,
			Status:           dto.DeliveryStatusPending,
		})
	}

	sort.SliceStable(offers, func(i, j int) bool {
		if offers[i].RenewalDate.Equal(offers[j].RenewalDate) {
			return offers[i].MemberID < offers[j].MemberID
		}
		return offers[i].RenewalDate.Before(offers[j].RenewalDate)
	})
	return offers
}

func selectOffer(plan models.MembershipPlan, daysLeft int, loyal bool) (string, string, int) {
	if loyal {
		if plan == models.PlanPremium {
			return offerLoyaltyReward, "Renew Premium for 12 months and get one month free", 10
		}
		return offerLoyaltyUpgrade, fmt.Sprintf("Upgrade to %s for 3 months at your current %s price", plan.NextTier(), plan), 0
	}
	switch {
	case daysLeft <= lastChanceDays:
		return offerLastChance, fmt.Sprintf("Renew within %d days and save 15%%", lastChanceDays), 15
	case plan == models.PlanBasic:
		return offerPremiumTrial, "Renew Basic and try Premium free for 2 weeks", 0
	case daysLeft > earlyBirdDays:
		return offerEarlyBird, "Renew early and save 10% on your next term", 10
	default:
		return offerRenewalDiscount, "Renew now and save 5% on your next term", 5
	}
}
