package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notes-portal/internal/clock"
	"notes-portal/internal/model"
	"notes-portal/internal/offer"
	"notes-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// offerService implements OfferService.
type offerService struct {
	offerRepo repository.OfferRepository
	redeemer  Redeemer
	listing   ListingCache
	clock     clock.Clock
	logger    zerolog.Logger
}

// NewOfferService creates a new offer service. listing may be nil, in which
// case every listing is read from the store.
func NewOfferService(
	offerRepo repository.OfferRepository,
	redeemer Redeemer,
	listing ListingCache,
	clk clock.Clock,
	logger zerolog.Logger,
) OfferService {
	return &offerService{
		offerRepo: offerRepo,
		redeemer:  redeemer,
		listing:   listing,
		clock:     clk,
		logger:    logger.With().Str("service", "offer").Logger(),
	}
}

// Create validates the request and stores a new offer.
func (s *offerService) Create(ctx context.Context, req *model.OfferRequest) (*model.Offer, error) {
	o, err := model.NewOffer(req, uuid.New(), s.clock.Now())
	if err != nil {
		s.logger.Warn().Err(err).Msg("invalid offer request")
		return nil, err
	}

	if err := s.offerRepo.Create(ctx, o); err != nil {
		s.logger.Warn().Err(err).Str("title", o.Title).Msg("failed to create offer")
		return nil, err
	}

	s.invalidate(ctx)

	s.logger.Info().
		Str("offer_id", o.ID.String()).
		Str("kind", string(o.Kind)).
		Int("additional_codes", len(o.AdditionalCodes)).
		Msg("offer created")

	return o, nil
}

// Update merges a partial update into an existing offer.
func (s *offerService) Update(ctx context.Context, id uuid.UUID, patch *model.OfferPatch) (*model.Offer, error) {
	if patch == nil {
		return nil, model.NewValidationError("", "offer patch is nil")
	}

	o, err := s.offerRepo.Update(ctx, id, patch, s.clock.Now())
	if err != nil {
		s.logger.Warn().Err(err).Str("offer_id", id.String()).Msg("failed to update offer")
		return nil, err
	}

	s.invalidate(ctx)

	s.logger.Info().
		Str("offer_id", id.String()).
		Int64("version", o.Version).
		Msg("offer updated")

	return o, nil
}

// Delete removes an offer.
func (s *offerService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.offerRepo.Delete(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("offer_id", id.String()).Msg("failed to delete offer")
		return err
	}

	s.invalidate(ctx)

	s.logger.Info().Str("offer_id", id.String()).Msg("offer deleted")
	return nil
}

// GetByID retrieves a single offer by ID.
func (s *offerService) GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	o, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("offer_id", id.String()).Msg("failed to get offer by ID")
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	if o == nil {
		s.logger.Debug().Str("offer_id", id.String()).Msg("offer not found")
		return nil, model.ErrOfferNotFound
	}

	return o, nil
}

// Evaluate resolves the lookup to redeemable terms and runs the
// eligibility checks. A zero rc.Now is taken from the clock.
func (s *offerService) Evaluate(ctx context.Context, lookup model.OfferLookup, rc model.RedemptionContext) (*model.EligibilityResult, error) {
	if rc.PurchaseAmount.IsNegative() {
		return nil, model.NewValidationError("purchaseAmount", "cannot be negative")
	}
	if rc.Now.IsZero() {
		rc.Now = s.clock.Now()
	}

	terms, err := s.resolve(ctx, lookup)
	if err != nil {
		return nil, err
	}

	result := offer.Evaluate(terms, rc)

	event := s.logger.Debug().
		Str("offer_id", result.OfferID.String()).
		Str("code", result.Code).
		Bool("admitted", result.Admitted)
	if !result.Admitted {
		event = event.Str("reason", string(result.Reason))
	}
	event.Msg("offer evaluated")

	return &result, nil
}

// Redeem consumes one use of an offer.
func (s *offerService) Redeem(ctx context.Context, req model.RedeemRequest) (*model.RedemptionResult, error) {
	result, err := s.redeemer.Redeem(ctx, req)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return result, nil
}

// Checkout evaluates the lookup and redeems the offer when admitted. The
// computed discount is what gets deducted from a voucher balance.
func (s *offerService) Checkout(ctx context.Context, lookup model.OfferLookup, rc model.RedemptionContext) (*model.CheckoutResult, error) {
	eligibility, err := s.Evaluate(ctx, lookup, rc)
	if err != nil {
		return nil, err
	}
	if !eligibility.Admitted {
		return &model.CheckoutResult{Eligibility: *eligibility}, eligibility.Err()
	}

	code := eligibility.Code
	if code == "" {
		code = lookup.Code
	}

	redemption, err := s.Redeem(ctx, model.RedeemRequest{
		OfferID: eligibility.OfferID,
		Code:    code,
		UserID:  rc.UserID,
		Amount:  eligibility.Discount,
	})
	if err != nil {
		return nil, err
	}

	return &model.CheckoutResult{Eligibility: *eligibility, Redemption: redemption}, nil
}

// ListActive returns the active listing at asOf. A zero asOf means now.
func (s *offerService) ListActive(ctx context.Context, asOf time.Time) ([]model.Offer, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	var (
		offers []model.Offer
		err    error
	)
	if s.listing != nil {
		offers, err = s.listing.Load(ctx, asOf, s.offerRepo.FindActive)
	} else {
		offers, err = s.offerRepo.FindActive(ctx, asOf)
	}
	if err != nil {
		s.logger.Error().Err(err).Time("as_of", asOf).Msg("failed to list active offers")
		return nil, fmt.Errorf("failed to list active offers: %w", err)
	}

	s.logger.Debug().Int("count", len(offers)).Time("as_of", asOf).Msg("listed active offers")

	return offers, nil
}

// resolve finds the offer addressed by lookup and the terms its code
// selects.
func (s *offerService) resolve(ctx context.Context, lookup model.OfferLookup) (offer.Terms, error) {
	code := strings.TrimSpace(lookup.Code)

	var (
		o   *model.Offer
		err error
	)
	switch {
	case lookup.ID != nil:
		o, err = s.offerRepo.GetByID(ctx, *lookup.ID)
	case code != "":
		o, err = s.offerRepo.FindByCode(ctx, code)
	default:
		return offer.Terms{}, model.NewValidationError("offerId", "offerId or code is required")
	}
	if err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to look up offer")
		return offer.Terms{}, fmt.Errorf("failed to look up offer: %w", err)
	}
	if o == nil {
		return offer.Terms{}, model.ErrOfferNotFound
	}

	terms, ok := offer.Resolve(o, code)
	if !ok {
		return offer.Terms{}, model.ErrOfferNotFound
	}
	return terms, nil
}

// invalidate drops cached listings after a write. Failures are logged; the
// TTL bounds how long a stale listing can be served.
func (s *offerService) invalidate(ctx context.Context) {
	if s.listing == nil {
		return
	}
	if err := s.listing.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("listing cache not invalidated")
	}
}
