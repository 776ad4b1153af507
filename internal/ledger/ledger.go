// Package ledger applies admitted redemptions to the offer store.
package ledger

import (
	"context"
	"time"

	"notes-portal/internal/clock"
	"notes-portal/internal/model"
	"notes-portal/internal/offer"
	"notes-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Ledger consumes offer uses. The pre-checks give precise reasons for the
// common cases; the store's conditional update is what keeps counters
// within their limits under concurrency.
type Ledger struct {
	repo   repository.OfferRepository
	clock  clock.Clock
	logger zerolog.Logger
}

// New creates a ledger over repo.
func New(repo repository.OfferRepository, clk clock.Clock, logger zerolog.Logger) *Ledger {
	return &Ledger{
		repo:   repo,
		clock:  clk,
		logger: logger.With().Str("component", "ledger").Logger(),
	}
}

// Redeem re-reads the offer, re-checks that it can still be used and asks
// the store to apply one redemption. A failed redemption leaves the record
// untouched.
func (l *Ledger) Redeem(ctx context.Context, req model.RedeemRequest) (*model.RedemptionResult, error) {
	if req.OfferID == uuid.Nil {
		return nil, model.NewValidationError("offerId", "is required")
	}
	if req.Amount.IsNegative() {
		return nil, model.NewValidationError("amount", "cannot be negative")
	}

	o, err := l.repo.GetByID(ctx, req.OfferID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, model.ErrOfferNotFound
	}

	terms, ok := offer.Resolve(o, req.Code)
	if !ok {
		l.logger.Debug().
			Str("offer_id", req.OfferID.String()).
			Str("code", req.Code).
			Msg("code does not belong to offer")
		return nil, model.ErrOfferNotFound
	}

	now := l.clock.Now()
	if err := precheck(terms, now); err != nil {
		l.logger.Debug().
			Str("offer_id", req.OfferID.String()).
			Str("code", terms.CodeValue()).
			Err(err).
			Msg("redemption refused")
		return nil, err
	}

	result, err := l.repo.ApplyRedemption(ctx, model.RedemptionUpdate{
		OfferID: o.ID,
		CodeKey: terms.CodeKey(),
		UserID:  req.UserID,
		Amount:  req.Amount,
		Now:     now,
	})
	if err != nil {
		l.logger.Warn().
			Str("offer_id", req.OfferID.String()).
			Str("code", terms.CodeValue()).
			Str("user_id", req.UserID).
			Err(err).
			Msg("redemption failed")
		return nil, err
	}

	l.logger.Info().
		Str("offer_id", result.OfferID.String()).
		Str("code", result.Code).
		Int("usage_count", result.NewUsageCount).
		Str("status", string(result.Status)).
		Msg("offer redeemed")

	return result, nil
}

func precheck(t offer.Terms, now time.Time) error {
	if t.EffectiveStatus(now) != model.StatusActive {
		return &model.EligibilityError{Reason: model.ReasonOfferInactive}
	}
	if t.ActiveFrom != nil && now.Before(*t.ActiveFrom) {
		return &model.EligibilityError{Reason: model.ReasonOutsideWindow}
	}
	if !t.Offer.HasRemainingUses() {
		return &model.LimitExceededError{Scope: model.ScopeTotal}
	}
	if !t.HasRemainingUses() {
		return &model.LimitExceededError{Scope: model.ScopeCode}
	}
	if t.Offer.BalanceExhausted() {
		return &model.LimitExceededError{Scope: model.ScopeBalance}
	}
	return nil
}
