package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"notes-portal/internal/clock"
	"notes-portal/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOfferRepository is a mock implementation of OfferRepository.
type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) Create(ctx context.Context, offer *model.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *MockOfferRepository) Update(ctx context.Context, id uuid.UUID, patch *model.OfferPatch, now time.Time) (*model.Offer, error) {
	args := m.Called(ctx, id, patch, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockOfferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockOfferRepository) FindByCode(ctx context.Context, code string) (*model.Offer, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Offer), args.Error(1)
}

func (m *MockOfferRepository) FindActive(ctx context.Context, asOf time.Time) ([]model.Offer, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Offer), args.Error(1)
}

func (m *MockOfferRepository) ApplyRedemption(ctx context.Context, u model.RedemptionUpdate) (*model.RedemptionResult, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RedemptionResult), args.Error(1)
}

// MockRedeemer is a mock implementation of Redeemer.
type MockRedeemer struct {
	mock.Mock
}

func (m *MockRedeemer) Redeem(ctx context.Context, req model.RedeemRequest) (*model.RedemptionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RedemptionResult), args.Error(1)
}

// MockListingCache is a mock implementation of ListingCache that always
// delegates to the loader.
type MockListingCache struct {
	mock.Mock
}

func (m *MockListingCache) Load(ctx context.Context, asOf time.Time, load func(ctx context.Context, asOf time.Time) ([]model.Offer, error)) ([]model.Offer, error) {
	m.Called(ctx, asOf)
	return load(ctx, asOf)
}

func (m *MockListingCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var now = time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestOffer() *model.Offer {
	promo := "LOVE20"
	return &model.Offer{
		ID:                uuid.New(),
		Title:             "Valentine's notes",
		Kind:              model.KindPercentage,
		PromoCode:         &promo,
		DiscountValue:     dec("20"),
		MinPurchaseAmount: decimal.NewNullDecimal(dec("500")),
		UserEligibility:   model.EligibleAll,
		Status:            model.StatusActive,
		TotalUsageLimit:   intPtr(2),
		Version:           1,
		CreatedAt:         now.Add(-24 * time.Hour),
		UpdatedAt:         now.Add(-24 * time.Hour),
	}
}

type fixture struct {
	repo     *MockOfferRepository
	redeemer *MockRedeemer
	listing  *MockListingCache
	service  OfferService
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockOfferRepository),
		redeemer: new(MockRedeemer),
		listing:  new(MockListingCache),
	}
	f.service = NewOfferService(f.repo, f.redeemer, f.listing, clock.NewFixed(now), zerolog.Nop())
	return f
}

func TestOfferService_Create_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := &model.OfferRequest{
		Title:         "  Exam season  ",
		Kind:          model.KindFixedAmount,
		VoucherCode:   "SAVE10",
		PromoCode:     "   ",
		DiscountValue: decimal.NewNullDecimal(dec("100")),
	}

	f.repo.On("Create", ctx, mock.AnythingOfType("*model.Offer")).Return(nil)
	f.listing.On("Invalidate", ctx).Return(nil)

	o, err := f.service.Create(ctx, req)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, o.ID)
	assert.Equal(t, "Exam season", o.Title)
	assert.Nil(t, o.PromoCode)
	require.NotNil(t, o.VoucherCode)
	assert.Equal(t, "SAVE10", *o.VoucherCode)
	assert.Equal(t, model.StatusActive, o.Status)
	assert.Equal(t, now, o.CreatedAt)
	f.repo.AssertExpectations(t)
	f.listing.AssertExpectations(t)
}

func TestOfferService_Create_ValidationError(t *testing.T) {
	f := newFixture()

	_, err := f.service.Create(context.Background(), &model.OfferRequest{Title: "No value", Kind: model.KindPercentage})

	var validationErr *model.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "discountValue", validationErr.Field)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.listing.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestOfferService_Create_Conflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	conflict := &model.ConflictError{Field: "voucherCode", Value: "SAVE10"}
	f.repo.On("Create", ctx, mock.AnythingOfType("*model.Offer")).Return(conflict)

	_, err := f.service.Create(ctx, &model.OfferRequest{
		Title:         "Dup",
		Kind:          model.KindFixedAmount,
		VoucherCode:   "SAVE10",
		DiscountValue: decimal.NewNullDecimal(dec("10")),
	})

	assert.Same(t, conflict, err)
	f.listing.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestOfferService_Update(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o := newTestOffer()
	patch := &model.OfferPatch{Title: model.Some("Renamed")}
	updated := *o
	updated.Title = "Renamed"
	updated.Version = 2

	f.repo.On("Update", ctx, o.ID, patch, now).Return(&updated, nil)
	f.listing.On("Invalidate", ctx).Return(errors.New("redis down"))

	result, err := f.service.Update(ctx, o.ID, patch)

	// A failed invalidation does not fail the write.
	require.NoError(t, err)
	assert.Equal(t, "Renamed", result.Title)
	f.repo.AssertExpectations(t)
	f.listing.AssertExpectations(t)
}

func TestOfferService_Delete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := uuid.New()

	f.repo.On("Delete", ctx, id).Return(model.ErrOfferNotFound).Once()
	assert.ErrorIs(t, f.service.Delete(ctx, id), model.ErrOfferNotFound)

	f.repo.On("Delete", ctx, id).Return(nil).Once()
	f.listing.On("Invalidate", ctx).Return(nil)
	assert.NoError(t, f.service.Delete(ctx, id))

	f.listing.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestOfferService_GetByID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o := newTestOffer()
	missing := uuid.New()
	f.repo.On("GetByID", ctx, o.ID).Return(o, nil)
	f.repo.On("GetByID", ctx, missing).Return(nil, nil)

	got, err := f.service.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o, got)

	_, err = f.service.GetByID(ctx, missing)
	assert.ErrorIs(t, err, model.ErrOfferNotFound)
}

func TestOfferService_Evaluate(t *testing.T) {
	o := newTestOffer()

	tests := []struct {
		name     string
		lookup   model.OfferLookup
		setup    func(m *MockOfferRepository)
		amount   string
		admitted bool
		reason   model.RejectReason
		discount string
		err      error
	}{
		{
			name:   "Below minimum by ID",
			lookup: model.OfferLookup{ID: &o.ID},
			setup: func(m *MockOfferRepository) {
				m.On("GetByID", mock.Anything, o.ID).Return(o, nil)
			},
			amount: "300",
			reason: model.ReasonBelowMinimum,
		},
		{
			name:   "Admitted by promo code",
			lookup: model.OfferLookup{Code: " love20 "},
			setup: func(m *MockOfferRepository) {
				m.On("FindByCode", mock.Anything, "love20").Return(o, nil)
			},
			amount:   "600",
			admitted: true,
			discount: "120",
		},
		{
			name:   "Unknown code",
			lookup: model.OfferLookup{Code: "NOPE"},
			setup: func(m *MockOfferRepository) {
				m.On("FindByCode", mock.Anything, "NOPE").Return(nil, nil)
			},
			amount: "600",
			err:    model.ErrOfferNotFound,
		},
		{
			name:   "ID with a code it does not carry",
			lookup: model.OfferLookup{ID: &o.ID, Code: "OTHER"},
			setup: func(m *MockOfferRepository) {
				m.On("GetByID", mock.Anything, o.ID).Return(o, nil)
			},
			amount: "600",
			err:    model.ErrOfferNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f.repo)

			result, err := f.service.Evaluate(context.Background(), tt.lookup, model.RedemptionContext{
				PurchaseAmount: dec(tt.amount),
			})

			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.admitted, result.Admitted)
			assert.Equal(t, tt.reason, result.Reason)
			if tt.discount != "" {
				assert.True(t, dec(tt.discount).Equal(result.Discount), "discount %s", result.Discount)
			}
		})
	}
}

func TestOfferService_Evaluate_InvalidLookup(t *testing.T) {
	f := newFixture()

	_, err := f.service.Evaluate(context.Background(), model.OfferLookup{}, model.RedemptionContext{})

	var validationErr *model.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestOfferService_Evaluate_UsesPinnedTime(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o := newTestOffer()
	until := now.Add(time.Hour)
	o.ActiveUntil = &until
	f.repo.On("GetByID", ctx, o.ID).Return(o, nil)

	rc := model.RedemptionContext{Now: now.Add(2 * time.Hour), PurchaseAmount: dec("600")}
	result, err := f.service.Evaluate(ctx, model.OfferLookup{ID: &o.ID}, rc)

	require.NoError(t, err)
	assert.False(t, result.Admitted)
	assert.Equal(t, model.ReasonOfferInactive, result.Reason)
}

func TestOfferService_Checkout(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o := newTestOffer()
	redemption := &model.RedemptionResult{OfferID: o.ID, NewUsageCount: 1, Status: model.StatusActive}

	f.repo.On("FindByCode", ctx, "LOVE20").Return(o, nil)
	f.redeemer.On("Redeem", ctx, mock.MatchedBy(func(req model.RedeemRequest) bool {
		return req.OfferID == o.ID && req.Code == "LOVE20" && req.UserID == "u-1" && req.Amount.Equal(dec("120"))
	})).Return(redemption, nil)
	f.listing.On("Invalidate", ctx).Return(nil)

	result, err := f.service.Checkout(ctx, model.OfferLookup{Code: "LOVE20"}, model.RedemptionContext{
		UserID:         "u-1",
		PurchaseAmount: dec("600"),
	})

	require.NoError(t, err)
	assert.True(t, result.Eligibility.Admitted)
	assert.Same(t, redemption, result.Redemption)
	f.redeemer.AssertExpectations(t)
}

func TestOfferService_Checkout_Rejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	o := newTestOffer()
	f.repo.On("GetByID", ctx, o.ID).Return(o, nil)

	result, err := f.service.Checkout(ctx, model.OfferLookup{ID: &o.ID}, model.RedemptionContext{PurchaseAmount: dec("300")})

	var eligibilityErr *model.EligibilityError
	require.True(t, errors.As(err, &eligibilityErr))
	assert.Equal(t, model.ReasonBelowMinimum, eligibilityErr.Reason)
	require.NotNil(t, result)
	assert.Nil(t, result.Redemption)
	f.redeemer.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything)
}

func TestOfferService_Redeem(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := model.RedeemRequest{OfferID: uuid.New()}
	limitErr := &model.LimitExceededError{Scope: model.ScopeTotal}

	f.redeemer.On("Redeem", ctx, req).Return(&model.RedemptionResult{OfferID: req.OfferID, NewUsageCount: 2}, nil).Once()
	f.redeemer.On("Redeem", ctx, req).Return(nil, limitErr).Once()
	f.listing.On("Invalidate", ctx).Return(nil)

	result, err := f.service.Redeem(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, result.NewUsageCount)

	_, err = f.service.Redeem(ctx, req)
	assert.Same(t, limitErr, err)

	f.listing.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestOfferService_ListActive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	offers := []model.Offer{*newTestOffer()}
	f.listing.On("Load", ctx, now).Return()
	f.repo.On("FindActive", ctx, now).Return(offers, nil)

	result, err := f.service.ListActive(ctx, time.Time{})

	require.NoError(t, err)
	assert.Equal(t, offers, result)
	f.listing.AssertExpectations(t)
}

func TestOfferService_ListActive_WithoutCache(t *testing.T) {
	repo := new(MockOfferRepository)
	svc := NewOfferService(repo, new(MockRedeemer), nil, clock.NewFixed(now), zerolog.Nop())
	ctx := context.Background()

	asOf := now.Add(-time.Hour)
	repo.On("FindActive", ctx, asOf).Return(nil, errors.New("timeout"))

	_, err := svc.ListActive(ctx, asOf)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list active offers")
}
