package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"notes-portal/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// repoFactory returns an empty repository for one subtest.
type repoFactory func(t *testing.T) OfferRepository

var baseTime = time.Now().UTC().Truncate(time.Millisecond)

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newOffer(title string, mutate func(o *model.Offer)) *model.Offer {
	o := &model.Offer{
		ID:                 uuid.New(),
		Title:              title,
		Kind:               model.KindPercentage,
		DiscountValue:      dec("20"),
		MinPurchaseAmount:  decimal.NewNullDecimal(dec("500")),
		EligibleCategories: []string{},
		EligibleCourses:    []string{},
		UserEligibility:    model.EligibleAll,
		Status:             model.StatusActive,
		AdditionalCodes:    []model.AdditionalCode{},
		Version:            1,
		CreatedAt:          baseTime,
		UpdatedAt:          baseTime,
	}
	if mutate != nil {
		mutate(o)
	}
	return o
}

func mustCreate(t *testing.T, repo OfferRepository, o *model.Offer) *model.Offer {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

func redeem(repo OfferRepository, id uuid.UUID, mutate func(u *model.RedemptionUpdate)) (*model.RedemptionResult, error) {
	u := model.RedemptionUpdate{OfferID: id, Now: baseTime}
	if mutate != nil {
		mutate(&u)
	}
	return repo.ApplyRedemption(context.Background(), u)
}

func assertLimitScope(t *testing.T, err error, scope model.LimitScope) {
	t.Helper()
	var limitErr *model.LimitExceededError
	require.True(t, errors.As(err, &limitErr), "expected LimitExceededError, got %v", err)
	assert.Equal(t, scope, limitErr.Scope)
}

func assertConflict(t *testing.T, err error, field string) {
	t.Helper()
	var conflict *model.ConflictError
	require.True(t, errors.As(err, &conflict), "expected ConflictError, got %v", err)
	assert.Equal(t, field, conflict.Field)
}

// runOfferRepositoryContract exercises behaviour every backend must share.
func runOfferRepositoryContract(t *testing.T, newRepo repoFactory) {
	ctx := context.Background()

	t.Run("Create and get", func(t *testing.T) {
		repo := newRepo(t)
		o := mustCreate(t, repo, newOffer("Semester pack", func(o *model.Offer) {
			o.PromoCode = strPtr("Sem20")
			o.MaxDiscountCap = decimal.NewNullDecimal(dec("150.50"))
			o.EligibleCourses = []string{"btech-cse", "bca"}
			o.ActiveUntil = timePtr(baseTime.Add(24 * time.Hour))
			o.TotalUsageLimit = intPtr(100)
			o.AdditionalCodes = []model.AdditionalCode{
				{Code: "Friend5", Status: model.StatusActive, DiscountValue: decimal.NewNullDecimal(dec("5"))},
			}
		}))

		got, err := repo.GetByID(ctx, o.ID)

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, o.Title, got.Title)
		assert.Equal(t, "Sem20", *got.PromoCode)
		assert.Nil(t, got.VoucherCode)
		assert.True(t, dec("20").Equal(got.DiscountValue))
		assert.True(t, dec("150.5").Equal(got.MaxDiscountCap.Decimal))
		assert.False(t, got.Balance.Valid)
		assert.ElementsMatch(t, []string{"btech-cse", "bca"}, got.EligibleCourses)
		assert.True(t, o.ActiveUntil.Equal(*got.ActiveUntil))
		assert.Equal(t, 100, *got.TotalUsageLimit)
		require.Len(t, got.AdditionalCodes, 1)
		assert.Equal(t, "Friend5", got.AdditionalCodes[0].Code)
		assert.True(t, dec("5").Equal(got.AdditionalCodes[0].DiscountValue.Decimal))
	})

	t.Run("Get missing returns nil", func(t *testing.T) {
		repo := newRepo(t)

		got, err := repo.GetByID(ctx, uuid.New())

		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Duplicate voucher code conflicts", func(t *testing.T) {
		repo := newRepo(t)
		mustCreate(t, repo, newOffer("First", func(o *model.Offer) { o.VoucherCode = strPtr("SAVE10") }))

		err := repo.Create(ctx, newOffer("Second", func(o *model.Offer) { o.VoucherCode = strPtr("SAVE10") }))

		assertConflict(t, err, "voucherCode")
	})

	t.Run("Unset codes never conflict", func(t *testing.T) {
		repo := newRepo(t)
		for i := 0; i < 5; i++ {
			mustCreate(t, repo, newOffer("No codes", nil))
		}
	})

	t.Run("Promo codes conflict case-insensitively", func(t *testing.T) {
		repo := newRepo(t)
		mustCreate(t, repo, newOffer("First", func(o *model.Offer) { o.PromoCode = strPtr("Spring") }))

		err := repo.Create(ctx, newOffer("Second", func(o *model.Offer) { o.PromoCode = strPtr("SPRING") }))

		assertConflict(t, err, "promoCode")
	})

	t.Run("Additional codes conflict across offers", func(t *testing.T) {
		repo := newRepo(t)
		mustCreate(t, repo, newOffer("First", func(o *model.Offer) {
			o.AdditionalCodes = []model.AdditionalCode{{Code: "shared", Status: model.StatusActive}}
		}))

		err := repo.Create(ctx, newOffer("Second", func(o *model.Offer) {
			o.AdditionalCodes = []model.AdditionalCode{{Code: "SHARED", Status: model.StatusActive}}
		}))

		assertConflict(t, err, "additionalCodes")
	})

	t.Run("Promo and additional codes conflict across offers", func(t *testing.T) {
		repo := newRepo(t)
		mustCreate(t, repo, newOffer("Promo holder", func(o *model.Offer) { o.PromoCode = strPtr("Spring") }))
		mustCreate(t, repo, newOffer("Code holder", func(o *model.Offer) {
			o.AdditionalCodes = []model.AdditionalCode{{Code: "Extra", Status: model.StatusActive}}
		}))

		err := repo.Create(ctx, newOffer("Shadowed code", func(o *model.Offer) {
			o.AdditionalCodes = []model.AdditionalCode{{Code: "spring", Status: model.StatusActive}}
		}))
		assertConflict(t, err, "additionalCodes")

		err = repo.Create(ctx, newOffer("Shadowing promo", func(o *model.Offer) { o.PromoCode = strPtr("EXTRA") }))
		assertConflict(t, err, "promoCode")

		o := mustCreate(t, repo, newOffer("Plain", nil))
		_, err = repo.Update(ctx, o.ID, &model.OfferPatch{
			AdditionalCodes: model.Some([]model.AdditionalCode{{Code: "SPRING", Status: model.StatusActive}}),
		}, baseTime)
		assertConflict(t, err, "additionalCodes")

		_, err = repo.Update(ctx, o.ID, &model.OfferPatch{PromoCode: model.Some("extra")}, baseTime)
		assertConflict(t, err, "promoCode")

		got, err := repo.FindByCode(ctx, "spring")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Promo holder", got.Title)
		got, err = repo.FindByCode(ctx, "extra")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Code holder", got.Title)
	})

	t.Run("Find by code", func(t *testing.T) {
		repo := newRepo(t)
		promo := mustCreate(t, repo, newOffer("Promo", func(o *model.Offer) { o.PromoCode = strPtr("Notes10") }))
		voucher := mustCreate(t, repo, newOffer("Voucher", func(o *model.Offer) { o.VoucherCode = strPtr("VCH-9") }))
		extra := mustCreate(t, repo, newOffer("Extra", func(o *model.Offer) {
			o.AdditionalCodes = []model.AdditionalCode{{Code: "Topper", Status: model.StatusActive}}
		}))

		tests := []struct {
			code     string
			expected *model.Offer
		}{
			{code: "notes10", expected: promo},
			{code: " NOTES10 ", expected: promo},
			{code: "VCH-9", expected: voucher},
			{code: "vch-9", expected: nil},
			{code: "TOPPER", expected: extra},
			{code: "unknown", expected: nil},
		}

		for _, tt := range tests {
			got, err := repo.FindByCode(ctx, tt.code)
			require.NoError(t, err, tt.code)
			if tt.expected == nil {
				assert.Nil(t, got, tt.code)
				continue
			}
			require.NotNil(t, got, tt.code)
			assert.Equal(t, tt.expected.ID, got.ID, tt.code)
		}
	})

	t.Run("Update merges fields", func(t *testing.T) {
		repo := newRepo(t)
		o := mustCreate(t, repo, newOffer("Original", func(o *model.Offer) {
			o.VoucherCode = strPtr("KEEP-OR-CLEAR")
			o.Description = "kept"
		}))

		later := baseTime.Add(time.Minute)
		got, err := repo.Update(ctx, o.ID, &model.OfferPatch{
			Title:       model.Some("Renamed"),
			VoucherCode: model.Some(""),
		}, later)

		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, "kept", got.Description)
		assert.Nil(t, got.VoucherCode)
		assert.Equal(t, o.Version+1, got.Version)

		stored, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", stored.Title)
		assert.Nil(t, stored.VoucherCode)
		assert.True(t, later.Equal(stored.UpdatedAt))
	})

	t.Run("Update conflicts and missing", func(t *testing.T) {
		repo := newRepo(t)
		mustCreate(t, repo, newOffer("Holder", func(o *model.Offer) { o.PromoCode = strPtr("TAKEN") }))
		o := mustCreate(t, repo, newOffer("Other", nil))

		_, err := repo.Update(ctx, o.ID, &model.OfferPatch{PromoCode: model.Some("taken")}, baseTime)
		assertConflict(t, err, "promoCode")

		_, err = repo.Update(ctx, uuid.New(), &model.OfferPatch{Title: model.Some("x")}, baseTime)
		assert.ErrorIs(t, err, model.ErrOfferNotFound)
	})

	t.Run("Update keeps code usage", func(t *testing.T) {
		repo := newRepo(t)
		o := mustCreate(t, repo, newOffer("Codes", func(o *model.Offer) {
			o.MinPurchaseAmount = decimal.NullDecimal{}
			o.AdditionalCodes = []model.AdditionalCode{{Code: "ONE", Status: model.StatusActive}}
		}))
		_, err := redeem(repo, o.ID, func(u *model.RedemptionUpdate) { u.CodeKey = "ONE" })
		require.NoError(t, err)

		got, err := repo.Update(ctx, o.ID, &model.OfferPatch{AdditionalCodes: model.Some([]model.AdditionalCode{
			{Code: "one"},
			{Code: "TWO"},
		})}, baseTime)

		require.NoError(t, err)
		require.Len(t, got.AdditionalCodes, 2)
		assert.Equal(t, 1, got.AdditionalCodes[0].UsageCount)
		assert.Equal(t, 1, got.TotalUsageCount)

		stored, err := repo.FindByCode(ctx, "two")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, o.ID, stored.ID)
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t)
		o := mustCreate(t, repo, newOffer("Doomed", nil))

		require.NoError(t, repo.Delete(ctx, o.ID))

		got, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, repo.Delete(ctx, o.ID), model.ErrOfferNotFound)
	})

	t.Run("Find active", func(t *testing.T) {
		repo := newRepo(t)
		low := mustCreate(t, repo, newOffer("Low priority", func(o *model.Offer) { o.PriorityOrder = 5 }))
		older := mustCreate(t, repo, newOffer("High older", func(o *model.Offer) {
			o.PriorityOrder = 1
			o.CreatedAt = baseTime.Add(-time.Hour)
		}))
		newer := mustCreate(t, repo, newOffer("High newer", func(o *model.Offer) { o.PriorityOrder = 1 }))
		mustCreate(t, repo, newOffer("Inactive", func(o *model.Offer) { o.Status = model.StatusInactive }))
		mustCreate(t, repo, newOffer("Expired", func(o *model.Offer) { o.ActiveUntil = timePtr(baseTime.Add(-time.Second)) }))
		mustCreate(t, repo, newOffer("Future", func(o *model.Offer) { o.ActiveFrom = timePtr(baseTime.Add(time.Hour)) }))

		got, err := repo.FindActive(ctx, baseTime)

		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, newer.ID, got[0].ID)
		assert.Equal(t, older.ID, got[1].ID)
		assert.Equal(t, low.ID, got[2].ID)
	})

	t.Run("Redemption respects the total limit", func(t *testing.T) {
		repo := newRepo(t)
		o := mustCreate(t, repo, newOffer("Limited", func(o *model.Offer) { o.TotalUsageLimit = intPtr(2) }))

		first, err := redeem(repo, o.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, first.NewUsageCount)

		second, err := redeem(repo, o.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, second.NewUsageCount)

		_, err = redeem(repo, o.ID, nil)
		assertLimitScope(t, err, model.ScopeTotal)

		stored, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.TotalUsageCount)
		assert.Equal(t, model.StatusActive, stored.Status)
	})

	t.Run("Single-use voucher deactivates", func(t *testing.T) {
		repo := newRepo(t)
		o := mustCreate(t, repo, newOffer("Voucher", func(o *model.Offer) {
			o.Kind = model.KindVoucher
			o.VoucherCode = strPtr("ONCE-ONLY")
			o.IsSingleUse = true
		}))

		result, err := redeem(repo, o.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, model.StatusInactive, result.Status)

		_, err = redeem(repo, o.ID, nil)
		var eligErr *model.EligibilityError
		require.ErrorAs(t, err, &eligErr)
		assert.Equal(t, model.ReasonOfferInactive, eligErr.Reason)
	})

	t.Run("Single-use percentage offer stays active", func(t *testing.T) {
		repo := newRepo(t)
		o := mustCreate(t, repo, newOffer("Once flagged", func(o *model.Offer) { o.IsSingleUse = true }))

		result, err := redeem(repo, o.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, model.StatusActive, result.Status)

		second, err := redeem(repo, o.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, second.NewUsageCount)
		assert.Equal(t, model.StatusActive, second.Status)
	})

	t.Run("Expired offer is not redeemable", func(t *testing.T) {
		repo := newRepo(t)
		o := mustCreate(t, repo, newOffer("Expired", func(o *model.Offer) {
			o.ActiveUntil = timePtr(baseTime.Add(-time.Minute))
		}))

		_, err := redeem(repo, o.ID, nil)

		var eligErr *model.EligibilityError
		require.ErrorAs(t, err, &eligErr)
		assert.Equal(t, model.ReasonOfferInactive, eligErr.Reason)
	})

	t.Run("Missing offer", func(t *testing.T) {
		repo := newRepo(t)

		_, err := redeem(repo, uuid.New(), nil)

		assert.ErrorIs(t, err, model.ErrOfferNotFound)
	})

	t.Run("Code limit", func(t *testing.T) {
		repo := newRepo(t)
		o := mustCreate(t, repo, newOffer("Code limited", func(o *model.Offer) {
			o.AdditionalCodes = []model.AdditionalCode{
				{Code: "Solo", Status: model.StatusActive, TotalUsageLimit: intPtr(1)},
			}
		}))

		result, err := redeem(repo, o.ID, func(u *model.RedemptionUpdate) { u.CodeKey = "SOLO" })
		require.NoError(t, err)
		assert.Equal(t, "Solo", result.Code)
		require.NotNil(t, result.CodeUsageCount)
		assert.Equal(t, 1, *result.CodeUsageCount)

		_, err = redeem(repo, o.ID, func(u *model.RedemptionUpdate) { u.CodeKey = "SOLO" })
		assertLimitScope(t, err, model.ScopeCode)

		stored, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.TotalUsageCount)
	})

	t.Run("Per-user limit", func(t *testing.T) {
		repo := newRepo(t)
		o := mustCreate(t, repo, newOffer("Once per user", func(o *model.Offer) { o.PerUserUsageLimit = intPtr(1) }))

		result, err := redeem(repo, o.ID, func(u *model.RedemptionUpdate) { u.UserID = "alice" })
		require.NoError(t, err)
		require.NotNil(t, result.UserUsageCount)
		assert.Equal(t, 1, *result.UserUsageCount)

		_, err = redeem(repo, o.ID, func(u *model.RedemptionUpdate) { u.UserID = "alice" })
		assertLimitScope(t, err, model.ScopeUser)

		_, err = redeem(repo, o.ID, func(u *model.RedemptionUpdate) { u.UserID = "bob" })
		require.NoError(t, err)

		stored, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.TotalUsageCount)
	})

	t.Run("Voucher balance", func(t *testing.T) {
		repo := newRepo(t)
		o := mustCreate(t, repo, newOffer("Gift card", func(o *model.Offer) {
			o.Kind = model.KindVoucher
			o.DiscountValue = dec("100")
			o.MinPurchaseAmount = decimal.NullDecimal{}
			o.Balance = decimal.NewNullDecimal(dec("100"))
		}))

		result, err := redeem(repo, o.ID, func(u *model.RedemptionUpdate) { u.Amount = dec("60") })
		require.NoError(t, err)
		require.True(t, result.Balance.Valid)
		assert.True(t, dec("40").Equal(result.Balance.Decimal), "balance %s", result.Balance.Decimal)

		_, err = redeem(repo, o.ID, func(u *model.RedemptionUpdate) { u.Amount = dec("60") })
		assertLimitScope(t, err, model.ScopeBalance)

		stored, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.TotalUsageCount)
		assert.True(t, dec("40").Equal(stored.Balance.Decimal))
	})

	t.Run("Exhausted balance is refused", func(t *testing.T) {
		repo := newRepo(t)
		o := mustCreate(t, repo, newOffer("Spent card", func(o *model.Offer) {
			o.Kind = model.KindVoucher
			o.DiscountValue = dec("50")
			o.MinPurchaseAmount = decimal.NullDecimal{}
			o.Balance = decimal.NewNullDecimal(decimal.Zero)
		}))

		_, err := redeem(repo, o.ID, func(u *model.RedemptionUpdate) { u.Amount = decimal.Zero })
		assertLimitScope(t, err, model.ScopeBalance)

		stored, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.TotalUsageCount)
		assert.True(t, stored.Balance.Decimal.IsZero())
	})

	t.Run("Concurrent redemptions never exceed the limit", func(t *testing.T) {
		repo := newRepo(t)
		const limit, extra = 10, 6
		o := mustCreate(t, repo, newOffer("Flash sale", func(o *model.Offer) { o.TotalUsageLimit = intPtr(limit) }))

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			exceeded  int
			other     []error
		)
		start := make(chan struct{})
		for i := 0; i < limit+extra; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := redeem(repo, o.ID, nil)

				mu.Lock()
				defer mu.Unlock()
				var limitErr *model.LimitExceededError
				switch {
				case err == nil:
					succeeded++
				case errors.As(err, &limitErr):
					exceeded++
				default:
					other = append(other, err)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Empty(t, other)
		assert.Equal(t, limit, succeeded)
		assert.Equal(t, extra, exceeded)

		stored, err := repo.GetByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, limit, stored.TotalUsageCount)
	})
}
