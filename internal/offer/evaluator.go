package offer

import (
	"notes-portal/internal/model"
)

// check is one eligibility rule. It returns the rejection reason, or ""
// when the rule passes.
type check func(t Terms, rc model.RedemptionContext) model.RejectReason

// checks run in order; the first failure decides the reported reason.
var checks = []check{
	checkStatus,
	checkWindow,
	checkUser,
	checkApplicability,
	checkMinimum,
	checkLimit,
}

// Evaluate decides whether the terms admit a redemption in rc. It is a
// pure function of its inputs: rc.Now is the only notion of time used.
func Evaluate(t Terms, rc model.RedemptionContext) model.EligibilityResult {
	for _, c := range checks {
		if reason := c(t, rc); reason != "" {
			return model.Reject(t.Offer.ID, t.CodeValue(), reason)
		}
	}
	return model.Admit(t.Offer.ID, t.CodeValue(), Discount(t, rc.PurchaseAmount))
}

func checkStatus(t Terms, rc model.RedemptionContext) model.RejectReason {
	if t.EffectiveStatus(rc.Now) != model.StatusActive {
		return model.ReasonOfferInactive
	}
	return ""
}

func checkWindow(t Terms, rc model.RedemptionContext) model.RejectReason {
	if t.ActiveFrom != nil && rc.Now.Before(*t.ActiveFrom) {
		return model.ReasonOutsideWindow
	}
	if t.ActiveUntil != nil && rc.Now.After(*t.ActiveUntil) {
		return model.ReasonOutsideWindow
	}
	return ""
}

func checkUser(t Terms, rc model.RedemptionContext) model.RejectReason {
	switch t.Offer.UserEligibility {
	case model.EligibleNewUsers:
		if rc.UserClass != model.UserClassNew {
			return model.ReasonUserNotEligible
		}
	case model.EligibleExistingUsers:
		if rc.UserClass != model.UserClassExisting {
			return model.ReasonUserNotEligible
		}
	}
	return ""
}

// checkApplicability passes when the offer is unrestricted, or when the
// cart shares at least one category or course with a non-empty eligible set.
func checkApplicability(t Terms, rc model.RedemptionContext) model.RejectReason {
	categories, courses := t.Offer.EligibleCategories, t.Offer.EligibleCourses
	if len(categories) == 0 && len(courses) == 0 {
		return ""
	}
	if intersects(categories, rc.Categories) || intersects(courses, rc.Courses) {
		return ""
	}
	return model.ReasonNotApplicable
}

func checkMinimum(t Terms, rc model.RedemptionContext) model.RejectReason {
	if t.MinPurchaseAmount.Valid && rc.PurchaseAmount.LessThan(t.MinPurchaseAmount.Decimal) {
		return model.ReasonBelowMinimum
	}
	return ""
}

// checkLimit also rejects an offer whose balance is used up.
func checkLimit(t Terms, _ model.RedemptionContext) model.RejectReason {
	if !t.HasRemainingUses() || t.Offer.BalanceExhausted() {
		return model.ReasonLimitExceeded
	}
	return ""
}

func intersects(eligible, cart []string) bool {
	if len(eligible) == 0 || len(cart) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(eligible))
	for _, id := range eligible {
		set[id] = struct{}{}
	}
	for _, id := range cart {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
