package offer

import (
	"notes-portal/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount computes the amount taken off purchaseAmount under t, rounded
// to two decimal places. It never exceeds the purchase amount.
func Discount(t Terms, purchaseAmount decimal.Decimal) decimal.Decimal {
	if !purchaseAmount.IsPositive() {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch t.Offer.Kind {
	case model.KindPercentage:
		d = purchaseAmount.Mul(t.DiscountValue).Div(hundred)
	case model.KindFixedAmount:
		d = t.DiscountValue
	case model.KindVoucher:
		d = t.DiscountValue
		if t.Offer.Balance.Valid {
			d = t.Offer.Balance.Decimal
		}
	}

	if t.Offer.MaxDiscountCap.Valid {
		d = decimal.Min(d, t.Offer.MaxDiscountCap.Decimal)
	}
	d = decimal.Min(d, purchaseAmount)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(2)
}
