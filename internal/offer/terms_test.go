package offer

import (
	"testing"

	"notes-portal/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	o := &model.Offer{
		ID:            uuid.New(),
		Kind:          model.KindPercentage,
		DiscountValue: dec("10"),
		PromoCode:     strPtr("Notes10"),
		VoucherCode:   strPtr("VCH-001"),
		AdditionalCodes: []model.AdditionalCode{
			{Code: "Backbencher", Status: model.StatusActive},
		},
	}

	tests := []struct {
		name       string
		code       string
		found      bool
		additional bool
	}{
		{name: "Empty code selects offer", code: "", found: true},
		{name: "Promo code exact", code: "Notes10", found: true},
		{name: "Promo code case-insensitive", code: "NOTES10", found: true},
		{name: "Promo code trims spaces", code: "  notes10 ", found: true},
		{name: "Voucher code exact", code: "VCH-001", found: true},
		{name: "Voucher code is case-sensitive", code: "vch-001", found: false},
		{name: "Additional code", code: "BACKBENCHER", found: true, additional: true},
		{name: "Unknown code", code: "NOPE", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms, ok := Resolve(o, tt.code)

			assert.Equal(t, tt.found, ok)
			if !ok {
				return
			}
			assert.Equal(t, o, terms.Offer)
			if tt.additional {
				assert.NotNil(t, terms.Code)
				assert.Equal(t, "BACKBENCHER", terms.CodeKey())
			} else {
				assert.Nil(t, terms.Code)
				assert.Empty(t, terms.CodeKey())
			}
		})
	}
}

func TestTerms_HasRemainingUses(t *testing.T) {
	o := &model.Offer{TotalUsageLimit: intPtr(5), TotalUsageCount: 4}
	code := &model.AdditionalCode{Code: "X", Status: model.StatusActive, TotalUsageLimit: intPtr(2), UsageCount: 2}

	assert.True(t, ForOffer(o).HasRemainingUses())
	assert.False(t, ForCode(o, code).HasRemainingUses())

	code.UsageCount = 1
	assert.True(t, ForCode(o, code).HasRemainingUses())

	o.TotalUsageCount = 5
	assert.False(t, ForCode(o, code).HasRemainingUses())
}
