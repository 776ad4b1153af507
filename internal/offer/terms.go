// Package offer holds the pure decision logic for promotional offers:
// resolving a code to redeemable terms, evaluating eligibility and
// computing discounts. Nothing here performs I/O or reads the clock.
package offer

import (
	"strings"
	"time"

	"notes-portal/internal/model"

	"github.com/shopspring/decimal"
)

// Terms is the redeemable view of an offer. When redeemed through an
// additional code, the code's overrides replace the offer's values. Code
// is nil when the offer is addressed by ID, promo code or voucher code.
type Terms struct {
	Offer *model.Offer
	Code  *model.AdditionalCode

	DiscountValue     decimal.Decimal
	MinPurchaseAmount decimal.NullDecimal
	ActiveFrom        *time.Time
	ActiveUntil       *time.Time
}

// CodeValue returns the additional code redeemed, or "".
func (t Terms) CodeValue() string {
	if t.Code == nil {
		return ""
	}
	return t.Code.Code
}

// CodeKey returns the normalised additional code redeemed, or "".
func (t Terms) CodeKey() string {
	if t.Code == nil {
		return ""
	}
	return model.NormalizeCode(t.Code.Code)
}

// ForOffer returns the offer's own terms.
func ForOffer(o *model.Offer) Terms {
	return Terms{
		Offer:             o,
		DiscountValue:     o.DiscountValue,
		MinPurchaseAmount: o.MinPurchaseAmount,
		ActiveFrom:        o.ActiveFrom,
		ActiveUntil:       o.ActiveUntil,
	}
}

// ForCode returns the terms of o redeemed through the given additional
// code, applying its overrides.
func ForCode(o *model.Offer, c *model.AdditionalCode) Terms {
	t := ForOffer(o)
	t.Code = c
	if c.DiscountValue.Valid {
		t.DiscountValue = c.DiscountValue.Decimal
	}
	if c.MinPurchaseAmount.Valid {
		t.MinPurchaseAmount = c.MinPurchaseAmount
	}
	if c.StartDate != nil {
		t.ActiveFrom = c.StartDate
	}
	return t
}

// Resolve returns the terms addressed by code on o. Promo codes and
// additional codes match case-insensitively, voucher codes exactly. An
// empty code selects the offer's own terms.
func Resolve(o *model.Offer, code string) (Terms, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return ForOffer(o), true
	}
	if o.PromoCode != nil && strings.EqualFold(*o.PromoCode, code) {
		return ForOffer(o), true
	}
	if o.VoucherCode != nil && *o.VoucherCode == code {
		return ForOffer(o), true
	}
	if c, ok := o.CodeByValue(code); ok {
		return ForCode(o, c), true
	}
	return Terms{}, false
}

// EffectiveStatus is the offer's derived status, further narrowed by the
// redeemed code's own status and expiry.
func (t Terms) EffectiveStatus(asOf time.Time) model.Status {
	if t.Offer.EffectiveStatus(asOf) != model.StatusActive {
		return model.StatusInactive
	}
	if t.Code != nil {
		return t.Code.EffectiveStatus(asOf)
	}
	return model.StatusActive
}

// HasRemainingUses reports whether both the offer's global limit and the
// code's own limit still admit a redemption.
func (t Terms) HasRemainingUses() bool {
	if !t.Offer.HasRemainingUses() {
		return false
	}
	if t.Code != nil && t.Code.TotalUsageLimit != nil && t.Code.UsageCount >= *t.Code.TotalUsageLimit {
		return false
	}
	return true
}
