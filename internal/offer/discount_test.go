package offer

import (
	"testing"

	"notes-portal/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestDiscount(t *testing.T) {
	tests := []struct {
		name     string
		offer    model.Offer
		amount   string
		expected string
	}{
		{
			name:     "Percentage",
			offer:    model.Offer{Kind: model.KindPercentage, DiscountValue: dec("15")},
			amount:   "250",
			expected: "37.5",
		},
		{
			name:     "Percentage capped",
			offer:    model.Offer{Kind: model.KindPercentage, DiscountValue: dec("50"), MaxDiscountCap: nullDec("100")},
			amount:   "1000",
			expected: "100",
		},
		{
			name:     "Percentage rounds to cents",
			offer:    model.Offer{Kind: model.KindPercentage, DiscountValue: dec("33")},
			amount:   "99.99",
			expected: "33",
		},
		{
			name:     "Fixed amount",
			offer:    model.Offer{Kind: model.KindFixedAmount, DiscountValue: dec("75")},
			amount:   "300",
			expected: "75",
		},
		{
			name:     "Fixed amount larger than purchase",
			offer:    model.Offer{Kind: model.KindFixedAmount, DiscountValue: dec("75")},
			amount:   "40",
			expected: "40",
		},
		{
			name:     "Voucher without balance",
			offer:    model.Offer{Kind: model.KindVoucher, DiscountValue: dec("200")},
			amount:   "500",
			expected: "200",
		},
		{
			name:     "Voucher with remaining balance",
			offer:    model.Offer{Kind: model.KindVoucher, DiscountValue: dec("500"), Balance: nullDec("120.50")},
			amount:   "300",
			expected: "120.5",
		},
		{
			name:     "Voucher balance larger than purchase",
			offer:    model.Offer{Kind: model.KindVoucher, DiscountValue: dec("500"), Balance: nullDec("450")},
			amount:   "300",
			expected: "300",
		},
		{
			name:     "Zero purchase",
			offer:    model.Offer{Kind: model.KindFixedAmount, DiscountValue: dec("75")},
			amount:   "0",
			expected: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := tt.offer
			o.ID = uuid.New()

			got := Discount(ForOffer(&o), decimal.RequireFromString(tt.amount))

			assertDecimal(t, tt.expected, got)
		})
	}
}

func TestDiscount_UsesCodeOverride(t *testing.T) {
	o := &model.Offer{
		ID:            uuid.New(),
		Kind:          model.KindPercentage,
		DiscountValue: dec("10"),
		AdditionalCodes: []model.AdditionalCode{
			{Code: "FINALS25", Status: model.StatusActive, DiscountValue: nullDec("25")},
		},
	}

	terms, ok := Resolve(o, "finals25")
	if !ok {
		t.Fatal("expected additional code to resolve")
	}

	assertDecimal(t, "50", Discount(terms, dec("200")))
	assertDecimal(t, "20", Discount(ForOffer(o), dec("200")))
}
