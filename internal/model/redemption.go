package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferLookup identifies an offer either by ID or by one of its codes.
type OfferLookup struct {
	ID   *uuid.UUID `json:"offerId,omitempty"`
	Code string     `json:"code,omitempty"`
}

// RedemptionContext is everything the evaluator needs besides the offer.
// Now is pinned by the caller so evaluation stays deterministic.
type RedemptionContext struct {
	Now            time.Time       `json:"now"`
	UserID         string          `json:"userId"`
	UserClass      UserClass       `json:"userClass"`
	Categories     []string        `json:"categories"`
	Courses        []string        `json:"courses"`
	PurchaseAmount decimal.Decimal `json:"purchaseAmount"`
}

// EvaluateRequest is the body of an evaluation or checkout call: an offer
// lookup plus the redemption context.
type EvaluateRequest struct {
	OfferLookup
	RedemptionContext
}

// EligibilityResult is the outcome of an evaluation.
type EligibilityResult struct {
	Admitted bool            `json:"admitted"`
	Reason   RejectReason    `json:"reason,omitempty"`
	Message  string          `json:"message,omitempty"`
	OfferID  uuid.UUID       `json:"offerId"`
	Code     string          `json:"code,omitempty"`
	Discount decimal.Decimal `json:"discount"`
}

// Admit returns an admitting result.
func Admit(offerID uuid.UUID, code string, discount decimal.Decimal) EligibilityResult {
	return EligibilityResult{Admitted: true, OfferID: offerID, Code: code, Discount: discount}
}

// Reject returns a rejecting result for reason.
func Reject(offerID uuid.UUID, code string, reason RejectReason) EligibilityResult {
	return EligibilityResult{
		OfferID:  offerID,
		Code:     code,
		Reason:   reason,
		Message:  reason.Message(),
		Discount: decimal.Zero,
	}
}

// Err converts a rejecting result into an EligibilityError, or nil when
// admitted.
func (r EligibilityResult) Err() error {
	if r.Admitted {
		return nil
	}
	return &EligibilityError{Reason: r.Reason}
}

// RedeemRequest asks the ledger to consume one use of an offer. Code names
// the additional code redeemed, if any; Amount is deducted from a voucher
// balance when the offer carries one.
type RedeemRequest struct {
	OfferID uuid.UUID       `json:"offerId"`
	Code    string          `json:"code,omitempty"`
	UserID  string          `json:"userId,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
}

// RedemptionUpdate is the conditional write the ledger hands to the store.
// CodeKey is the normalised additional code, empty when none. Amount is
// deducted from the balance when positive and the offer has one.
type RedemptionUpdate struct {
	OfferID uuid.UUID
	CodeKey string
	UserID  string
	Amount  decimal.Decimal
	Now     time.Time
}

// RedemptionResult reports the state after a successful redemption.
type RedemptionResult struct {
	OfferID        uuid.UUID           `json:"offerId"`
	Code           string              `json:"code,omitempty"`
	NewUsageCount  int                 `json:"newUsageCount"`
	CodeUsageCount *int                `json:"codeUsageCount,omitempty"`
	UserUsageCount *int                `json:"userUsageCount,omitempty"`
	Status         Status              `json:"status"`
	Balance        decimal.NullDecimal `json:"balance"`
	RedeemedAt     time.Time           `json:"redeemedAt"`
}

// CheckoutResult combines an admitted evaluation with the redemption it
// triggered.
type CheckoutResult struct {
	Eligibility EligibilityResult `json:"eligibility"`
	Redemption  *RedemptionResult `json:"redemption"`
}
