package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind determines how DiscountValue is interpreted.
type Kind string

const (
	KindPercentage  Kind = "percentage"
	KindFixedAmount Kind = "fixed_amount"
	KindVoucher     Kind = "voucher"
)

// Valid reports whether k is a known offer kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPercentage, KindFixedAmount, KindVoucher:
		return true
	}
	return false
}

// Status is the administrative state of an offer or code.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// UserEligibility restricts an offer to a class of users.
type UserEligibility string

const (
	EligibleAll           UserEligibility = "all"
	EligibleNewUsers      UserEligibility = "new_users"
	EligibleExistingUsers UserEligibility = "existing_users"
)

// Valid reports whether e is a known eligibility value.
func (e UserEligibility) Valid() bool {
	switch e {
	case EligibleAll, EligibleNewUsers, EligibleExistingUsers:
		return true
	}
	return false
}

// UserClass describes the requesting user at redemption time.
type UserClass string

const (
	UserClassNew      UserClass = "new"
	UserClassExisting UserClass = "existing"
)

// AdditionalCode is an extra redeemable code attached to an offer. Any
// override left unset falls back to the offer's own value.
type AdditionalCode struct {
	Code              string              `json:"code"`
	ExpiresAt         *time.Time          `json:"expiresAt,omitempty"`
	Status            Status              `json:"status"`
	UsageCount        int                 `json:"usageCount"`
	DiscountValue     decimal.NullDecimal `json:"discountValue"`
	MinPurchaseAmount decimal.NullDecimal `json:"minPurchaseAmount"`
	TotalUsageLimit   *int                `json:"totalUsageLimit,omitempty"`
	StartDate         *time.Time          `json:"startDate,omitempty"`
}

// Offer is a promotional offer or voucher together with its redemption
// accounting.
type Offer struct {
	ID                 uuid.UUID           `json:"id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Kind               Kind                `json:"kind"`
	PromoCode          *string             `json:"promoCode,omitempty"`
	AdditionalCodes    []AdditionalCode    `json:"additionalCodes"`
	VoucherCode        *string             `json:"voucherCode,omitempty"`
	DiscountValue      decimal.Decimal     `json:"discountValue"`
	MaxDiscountCap     decimal.NullDecimal `json:"maxDiscountCap"`
	MinPurchaseAmount  decimal.NullDecimal `json:"minPurchaseAmount"`
	Balance            decimal.NullDecimal `json:"balance"`
	IsSingleUse        bool                `json:"isSingleUse"`
	EligibleCategories []string            `json:"eligibleCategories"`
	EligibleCourses    []string            `json:"eligibleCourses"`
	UserEligibility    UserEligibility     `json:"userEligibility"`
	ActiveFrom         *time.Time          `json:"activeFrom,omitempty"`
	ActiveUntil        *time.Time          `json:"activeUntil,omitempty"`
	Status             Status              `json:"status"`
	TotalUsageLimit    *int                `json:"totalUsageLimit,omitempty"`
	PerUserUsageLimit  *int                `json:"perUserUsageLimit,omitempty"`
	TotalUsageCount    int                 `json:"totalUsageCount"`
	PriorityOrder      int                 `json:"priorityOrder"`
	Version            int64               `json:"version"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// EffectiveStatus derives the status as of asOf. The stored Status is the
// administrative intent; an offer whose ActiveUntil has passed reads as
// inactive regardless of it.
func (o *Offer) EffectiveStatus(asOf time.Time) Status {
	if o.Status != StatusActive {
		return StatusInactive
	}
	if o.ActiveUntil != nil && asOf.After(*o.ActiveUntil) {
		return StatusInactive
	}
	return StatusActive
}

// InWindow reports whether asOf falls inside [ActiveFrom, ActiveUntil],
// treating a missing bound as unbounded.
func (o *Offer) InWindow(asOf time.Time) bool {
	return inWindow(o.ActiveFrom, o.ActiveUntil, asOf)
}

// IsListed reports whether the offer belongs in an active listing at asOf.
func (o *Offer) IsListed(asOf time.Time) bool {
	return o.EffectiveStatus(asOf) == StatusActive && o.InWindow(asOf)
}

// HasRemainingUses reports whether the global usage limit still admits a
// redemption.
func (o *Offer) HasRemainingUses() bool {
	return o.TotalUsageLimit == nil || o.TotalUsageCount < *o.TotalUsageLimit
}

// BalanceExhausted reports whether the offer carries a balance with
// nothing left on it.
func (o *Offer) BalanceExhausted() bool {
	return o.Balance.Valid && !o.Balance.Decimal.IsPositive()
}

// PromoKey returns the normalized promo code, or "" when none is set.
func (o *Offer) PromoKey() string {
	if o.PromoCode == nil {
		return ""
	}
	return NormalizeCode(*o.PromoCode)
}

// LookupKeys returns the normalized promo code followed by the normalized
// additional codes. Code lookup matches these case-insensitively, so no two
// offers may share one of them.
func (o *Offer) LookupKeys() []string {
	keys := make([]string, 0, len(o.AdditionalCodes)+1)
	if k := o.PromoKey(); k != "" {
		keys = append(keys, k)
	}
	for _, c := range o.AdditionalCodes {
		keys = append(keys, NormalizeCode(c.Code))
	}
	return keys
}

// CodeByValue returns the additional code matching code case-insensitively.
func (o *Offer) CodeByValue(code string) (*AdditionalCode, bool) {
	for i := range o.AdditionalCodes {
		if strings.EqualFold(o.AdditionalCodes[i].Code, code) {
			return &o.AdditionalCodes[i], true
		}
	}
	return nil, false
}

// EffectiveStatus derives the code's status as of asOf.
func (c *AdditionalCode) EffectiveStatus(asOf time.Time) Status {
	if c.Status != StatusActive {
		return StatusInactive
	}
	if c.ExpiresAt != nil && asOf.After(*c.ExpiresAt) {
		return StatusInactive
	}
	return StatusActive
}

// NormalizeCode returns the canonical form used for case-insensitive code
// comparison and indexing.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func inWindow(from, until *time.Time, asOf time.Time) bool {
	if from != nil && asOf.Before(*from) {
		return false
	}
	if until != nil && asOf.After(*until) {
		return false
	}
	return true
}
