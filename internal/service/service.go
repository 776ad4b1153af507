package service

import (
	"context"
	"time"

	"notes-portal/internal/model"

	"github.com/google/uuid"
)

// OfferService defines operations for offer management, evaluation and
// redemption.
type OfferService interface {
	// Create validates the request and stores a new offer.
	Create(ctx context.Context, req *model.OfferRequest) (*model.Offer, error)

	// Update merges a partial update into an existing offer.
	Update(ctx context.Context, id uuid.UUID, patch *model.OfferPatch) (*model.Offer, error)

	// Delete removes an offer and its redemption accounting.
	Delete(ctx context.Context, id uuid.UUID) error

	// GetByID retrieves a single offer by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error)

	// Evaluate decides whether the offer addressed by lookup admits a
	// redemption in rc. It never changes the offer.
	Evaluate(ctx context.Context, lookup model.OfferLookup, rc model.RedemptionContext) (*model.EligibilityResult, error)

	// Redeem consumes one use of an offer.
	Redeem(ctx context.Context, req model.RedeemRequest) (*model.RedemptionResult, error)

	// Checkout evaluates and, when admitted, redeems in one call.
	Checkout(ctx context.Context, lookup model.OfferLookup, rc model.RedemptionContext) (*model.CheckoutResult, error)

	// ListActive returns the offers listed as active at asOf, ordered by
	// priority and then recency.
	ListActive(ctx context.Context, asOf time.Time) ([]model.Offer, error)
}

// Redeemer applies a redemption to the store.
type Redeemer interface {
	Redeem(ctx context.Context, req model.RedeemRequest) (*model.RedemptionResult, error)
}

// ListingCache caches active listings between writes.
type ListingCache interface {
	Load(ctx context.Context, asOf time.Time, load func(ctx context.Context, asOf time.Time) ([]model.Offer, error)) ([]model.Offer, error)
	Invalidate(ctx context.Context) error
}
