package repository

import (
	"context"
	"time"

	"notes-portal/internal/model"

	"github.com/google/uuid"
)

// OfferRepository defines the interface for offer record storage. Both the
// PostgreSQL and the MongoDB backends implement it with identical
// semantics.
type OfferRepository interface {
	// Create inserts a new offer. Returns *model.ConflictError when one of
	// its codes is already used by another offer.
	Create(ctx context.Context, offer *model.Offer) error

	// Update merges patch into the stored offer and returns the result.
	// Returns model.ErrOfferNotFound when no offer has the given ID.
	Update(ctx context.Context, id uuid.UUID, patch *model.OfferPatch, now time.Time) (*model.Offer, error)

	// Delete removes an offer together with its codes and usage records.
	Delete(ctx context.Context, id uuid.UUID) error

	// GetByID retrieves an offer by ID. Returns nil, nil when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error)

	// FindByCode retrieves the offer owning code, checking promo codes,
	// voucher codes and additional codes in that order. Returns nil, nil
	// when no offer matches.
	FindByCode(ctx context.Context, code string) (*model.Offer, error)

	// FindActive returns offers that are active and inside their window at
	// asOf, ordered by priority ascending then most recently created.
	FindActive(ctx context.Context, asOf time.Time) ([]model.Offer, error)

	// ApplyRedemption atomically consumes one use. The write only happens
	// if the offer is still active, unexpired and under every limit that
	// applies; otherwise nothing changes and the error names the cause:
	// model.ErrOfferNotFound, *model.EligibilityError or
	// *model.LimitExceededError.
	ApplyRedemption(ctx context.Context, u model.RedemptionUpdate) (*model.RedemptionResult, error)
}
