package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferRequest represents the request payload for creating an offer.
type OfferRequest struct {
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Kind               Kind                `json:"kind"`
	PromoCode          string              `json:"promoCode"`
	AdditionalCodes    []AdditionalCode    `json:"additionalCodes"`
	VoucherCode        string              `json:"voucherCode"`
	DiscountValue      decimal.NullDecimal `json:"discountValue"`
	MaxDiscountCap     decimal.NullDecimal `json:"maxDiscountCap"`
	MinPurchaseAmount  decimal.NullDecimal `json:"minPurchaseAmount"`
	Balance            decimal.NullDecimal `json:"balance"`
	IsSingleUse        bool                `json:"isSingleUse"`
	EligibleCategories []string            `json:"eligibleCategories"`
	EligibleCourses    []string            `json:"eligibleCourses"`
	UserEligibility    UserEligibility     `json:"userEligibility"`
	ActiveFrom         *time.Time          `json:"activeFrom"`
	ActiveUntil        *time.Time          `json:"activeUntil"`
	Status             Status              `json:"status"`
	TotalUsageLimit    *int                `json:"totalUsageLimit"`
	PerUserUsageLimit  *int                `json:"perUserUsageLimit"`
	PriorityOrder      int                 `json:"priorityOrder"`
}

// NewOffer builds an offer from the request, applying defaults. Blank
// promo and voucher codes are stored as unset so they never collide.
func NewOffer(req *OfferRequest, id uuid.UUID, now time.Time) (*Offer, error) {
	if req == nil {
		return nil, NewValidationError("", "offer request is nil")
	}
	if !req.DiscountValue.Valid {
		return nil, NewValidationError("discountValue", "is required")
	}

	o := &Offer{
		ID:                 id,
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		Kind:               req.Kind,
		PromoCode:          optionalCode(req.PromoCode),
		AdditionalCodes:    prepareCodes(req.AdditionalCodes, nil),
		VoucherCode:        optionalCode(req.VoucherCode),
		DiscountValue:      req.DiscountValue.Decimal,
		MaxDiscountCap:     req.MaxDiscountCap,
		MinPurchaseAmount:  req.MinPurchaseAmount,
		Balance:            req.Balance,
		IsSingleUse:        req.IsSingleUse,
		EligibleCategories: normalizeSet(req.EligibleCategories),
		EligibleCourses:    normalizeSet(req.EligibleCourses),
		UserEligibility:    req.UserEligibility,
		ActiveFrom:         req.ActiveFrom,
		ActiveUntil:        req.ActiveUntil,
		Status:             req.Status,
		TotalUsageLimit:    req.TotalUsageLimit,
		PerUserUsageLimit:  req.PerUserUsageLimit,
		PriorityOrder:      req.PriorityOrder,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if o.UserEligibility == "" {
		o.UserEligibility = EligibleAll
	}
	if o.Status == "" {
		o.Status = StatusActive
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// OfferPatch carries a partial update. Absent fields are left untouched;
// an explicit null clears a nullable field. An empty string on PromoCode
// or VoucherCode is treated as null.
type OfferPatch struct {
	Title              Optional[string]           `json:"title"`
	Description        Optional[string]           `json:"description"`
	Kind               Optional[Kind]             `json:"kind"`
	PromoCode          Optional[string]           `json:"promoCode"`
	AdditionalCodes    Optional[[]AdditionalCode] `json:"additionalCodes"`
	VoucherCode        Optional[string]           `json:"voucherCode"`
	DiscountValue      Optional[decimal.Decimal]  `json:"discountValue"`
	MaxDiscountCap     Optional[decimal.Decimal]  `json:"maxDiscountCap"`
	MinPurchaseAmount  Optional[decimal.Decimal]  `json:"minPurchaseAmount"`
	Balance            Optional[decimal.Decimal]  `json:"balance"`
	IsSingleUse        Optional[bool]             `json:"isSingleUse"`
	EligibleCategories Optional[[]string]         `json:"eligibleCategories"`
	EligibleCourses    Optional[[]string]         `json:"eligibleCourses"`
	UserEligibility    Optional[UserEligibility]  `json:"userEligibility"`
	ActiveFrom         Optional[time.Time]        `json:"activeFrom"`
	ActiveUntil        Optional[time.Time]        `json:"activeUntil"`
	Status             Optional[Status]           `json:"status"`
	TotalUsageLimit    Optional[int]              `json:"totalUsageLimit"`
	PerUserUsageLimit  Optional[int]              `json:"perUserUsageLimit"`
	PriorityOrder      Optional[int]              `json:"priorityOrder"`
}

// ApplyPatch merges p into a copy of o and validates the result. Usage
// accounting is never taken from the patch: additional codes that keep
// their value keep their usage count.
func ApplyPatch(o *Offer, p *OfferPatch, now time.Time) (*Offer, error) {
	if p == nil {
		return nil, NewValidationError("", "offer patch is nil")
	}

	next := *o
	next.AdditionalCodes = append([]AdditionalCode(nil), o.AdditionalCodes...)

	if p.Kind.Set && (p.Kind.Null || p.Kind.Value != o.Kind) {
		return nil, NewValidationError("kind", "cannot be changed after creation")
	}
	if p.Title.Set {
		if p.Title.Null {
			return nil, NewValidationError("title", "cannot be null")
		}
		next.Title = strings.TrimSpace(p.Title.Value)
	}
	if p.Description.Set {
		next.Description = p.Description.Value
	}
	if p.PromoCode.Set {
		next.PromoCode = optionalCode(p.PromoCode.Value)
	}
	if p.VoucherCode.Set {
		next.VoucherCode = optionalCode(p.VoucherCode.Value)
	}
	if p.AdditionalCodes.Set {
		next.AdditionalCodes = prepareCodes(p.AdditionalCodes.Value, o.AdditionalCodes)
	}
	if p.DiscountValue.Set {
		if p.DiscountValue.Null {
			return nil, NewValidationError("discountValue", "is required")
		}
		next.DiscountValue = p.DiscountValue.Value
	}
	if p.MaxDiscountCap.Set {
		next.MaxDiscountCap = nullDecimal(p.MaxDiscountCap)
	}
	if p.MinPurchaseAmount.Set {
		next.MinPurchaseAmount = nullDecimal(p.MinPurchaseAmount)
	}
	if p.Balance.Set {
		next.Balance = nullDecimal(p.Balance)
	}
	if p.IsSingleUse.Set {
		next.IsSingleUse = p.IsSingleUse.Value
	}
	if p.EligibleCategories.Set {
		next.EligibleCategories = normalizeSet(p.EligibleCategories.Value)
	}
	if p.EligibleCourses.Set {
		next.EligibleCourses = normalizeSet(p.EligibleCourses.Value)
	}
	if p.UserEligibility.Set {
		next.UserEligibility = EligibleAll
		if !p.UserEligibility.Null {
			next.UserEligibility = p.UserEligibility.Value
		}
	}
	if p.ActiveFrom.Set {
		next.ActiveFrom = optionalTime(p.ActiveFrom)
	}
	if p.ActiveUntil.Set {
		next.ActiveUntil = optionalTime(p.ActiveUntil)
	}
	if p.Status.Set {
		if p.Status.Null {
			return nil, NewValidationError("status", "cannot be null")
		}
		next.Status = p.Status.Value
	}
	if p.TotalUsageLimit.Set {
		next.TotalUsageLimit = optionalInt(p.TotalUsageLimit)
	}
	if p.PerUserUsageLimit.Set {
		next.PerUserUsageLimit = optionalInt(p.PerUserUsageLimit)
	}
	if p.PriorityOrder.Set {
		next.PriorityOrder = p.PriorityOrder.Value
	}

	next.UpdatedAt = now

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return &next, nil
}

// Validate checks field-level constraints of an offer.
func (o *Offer) Validate() error {
	if o.Title == "" {
		return NewValidationError("title", "is required")
	}
	if !o.Kind.Valid() {
		return NewValidationError("kind", "must be one of percentage, fixed_amount, voucher")
	}
	if !o.DiscountValue.IsPositive() {
		return NewValidationError("discountValue", "must be greater than zero")
	}
	if o.Kind == KindPercentage && o.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return NewValidationError("discountValue", "percentage cannot exceed 100")
	}
	amounts := []struct {
		field string
		value decimal.NullDecimal
	}{
		{"discountValue", decimal.NewNullDecimal(o.DiscountValue)},
		{"maxDiscountCap", o.MaxDiscountCap},
		{"minPurchaseAmount", o.MinPurchaseAmount},
		{"balance", o.Balance},
	}
	for _, a := range amounts {
		if err := checkAmount(a.field, a.value); err != nil {
			return err
		}
	}
	if o.MaxDiscountCap.Valid && !o.MaxDiscountCap.Decimal.IsPositive() {
		return NewValidationError("maxDiscountCap", "must be greater than zero")
	}
	if o.MinPurchaseAmount.Valid && o.MinPurchaseAmount.Decimal.IsNegative() {
		return NewValidationError("minPurchaseAmount", "cannot be negative")
	}
	if o.Balance.Valid && o.Balance.Decimal.IsNegative() {
		return NewValidationError("balance", "cannot be negative")
	}
	if !o.UserEligibility.Valid() {
		return NewValidationError("userEligibility", "must be one of all, new_users, existing_users")
	}
	if !o.Status.Valid() {
		return NewValidationError("status", "must be active or inactive")
	}
	if o.ActiveFrom != nil && o.ActiveUntil != nil && o.ActiveUntil.Before(*o.ActiveFrom) {
		return NewValidationError("activeUntil", "must not be before activeFrom")
	}
	if o.TotalUsageLimit != nil {
		if *o.TotalUsageLimit < 1 {
			return NewValidationError("totalUsageLimit", "must be at least 1")
		}
		if o.TotalUsageCount > *o.TotalUsageLimit {
			return NewValidationError("totalUsageLimit", "cannot be below the current usage count %d", o.TotalUsageCount)
		}
	}
	if o.PerUserUsageLimit != nil && *o.PerUserUsageLimit < 1 {
		return NewValidationError("perUserUsageLimit", "must be at least 1")
	}

	seen := make(map[string]struct{}, len(o.AdditionalCodes))
	for i, c := range o.AdditionalCodes {
		key := NormalizeCode(c.Code)
		if key == "" {
			return NewValidationError("additionalCodes", "code at position %d is empty", i)
		}
		if _, dup := seen[key]; dup {
			return NewValidationError("additionalCodes", "code %q is listed more than once", c.Code)
		}
		if key == o.PromoKey() {
			return NewValidationError("additionalCodes", "code %q repeats the promo code", c.Code)
		}
		seen[key] = struct{}{}
		if !c.Status.Valid() {
			return NewValidationError("additionalCodes", "code %q has an invalid status", c.Code)
		}
		if c.DiscountValue.Valid && !c.DiscountValue.Decimal.IsPositive() {
			return NewValidationError("additionalCodes", "code %q discount must be greater than zero", c.Code)
		}
		if checkAmount("additionalCodes", c.DiscountValue) != nil || checkAmount("additionalCodes", c.MinPurchaseAmount) != nil {
			return NewValidationError("additionalCodes", "code %q amounts must have at most %d decimal places and fewer than %d integer digits", c.Code, amountScale, amountIntegerDigits)
		}
		if c.TotalUsageLimit != nil && (*c.TotalUsageLimit < 1 || c.UsageCount > *c.TotalUsageLimit) {
			return NewValidationError("additionalCodes", "code %q has an invalid usage limit", c.Code)
		}
	}
	return nil
}

// Stored amounts are fixed-point with two decimal places and ten integer
// digits; anything finer would be rounded by one store and kept by another.
const (
	amountScale         = 2
	amountIntegerDigits = 10
)

var amountLimit = decimal.New(1, amountIntegerDigits)

func checkAmount(field string, v decimal.NullDecimal) error {
	if !v.Valid {
		return nil
	}
	if !v.Decimal.Equal(v.Decimal.Round(amountScale)) {
		return NewValidationError(field, "must have at most %d decimal places", amountScale)
	}
	if v.Decimal.Abs().GreaterThanOrEqual(amountLimit) {
		return NewValidationError(field, "must have fewer than %d integer digits", amountIntegerDigits)
	}
	return nil
}

// prepareCodes normalises incoming additional codes, carrying usage counts
// over from existing codes with the same value.
func prepareCodes(in, existing []AdditionalCode) []AdditionalCode {
	out := make([]AdditionalCode, 0, len(in))
	for _, c := range in {
		c.Code = strings.TrimSpace(c.Code)
		if c.Status == "" {
			c.Status = StatusActive
		}
		c.UsageCount = 0
		for _, prev := range existing {
			if strings.EqualFold(prev.Code, c.Code) {
				c.UsageCount = prev.UsageCount
				break
			}
		}
		out = append(out, c)
	}
	return out
}

func optionalCode(code string) *string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	return &code
}

func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func nullDecimal(o Optional[decimal.Decimal]) decimal.NullDecimal {
	if o.Null {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(o.Value)
}

func optionalTime(o Optional[time.Time]) *time.Time {
	if o.Null {
		return nil
	}
	t := o.Value
	return &t
}

func optionalInt(o Optional[int]) *int {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}
