package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-portal/internal/database"
	"notes-portal/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoUpdateRetries = 5

// mongoOfferRepository implements OfferRepository on MongoDB. Each offer is
// one document with its additional codes embedded; per-user usage lives in
// a separate collection.
type mongoOfferRepository struct {
	offers  *mongo.Collection
	usage   *mongo.Collection
	retries int
	logger  zerolog.Logger
}

// NewMongoOfferRepository creates a new MongoDB-backed offer repository.
// retries bounds the optimistic concurrency loop of Update.
func NewMongoOfferRepository(db *mongo.Database, retries int, logger zerolog.Logger) OfferRepository {
	if retries < 1 {
		retries = defaultMongoUpdateRetries
	}
	return &mongoOfferRepository{
		offers:  db.Collection(database.OffersCollection),
		usage:   db.Collection(database.UserUsageCollection),
		retries: retries,
		logger:  logger.With().Str("repository", "mongo-offer").Logger(),
	}
}

type codeDocument struct {
	Code              string                `bson:"code"`
	CodeKey           string                `bson:"code_key"`
	Status            string                `bson:"status"`
	ExpiresAt         *time.Time            `bson:"expires_at"`
	StartDate         *time.Time            `bson:"start_date"`
	DiscountValue     *primitive.Decimal128 `bson:"discount_value"`
	MinPurchaseAmount *primitive.Decimal128 `bson:"min_purchase_amount"`
	TotalUsageLimit   *int                  `bson:"total_usage_limit"`
	UsageCount        int                   `bson:"usage_count"`
}

type offerDocument struct {
	ID                 string                `bson:"_id"`
	Title              string                `bson:"title"`
	Description        string                `bson:"description"`
	Kind               string                `bson:"kind"`
	PromoCode          *string               `bson:"promo_code"`
	PromoCodeKey       *string               `bson:"promo_code_key"`
	LookupKeys         []string              `bson:"lookup_keys,omitempty"`
	VoucherCode        *string               `bson:"voucher_code"`
	AdditionalCodes    []codeDocument        `bson:"additional_codes"`
	DiscountValue      primitive.Decimal128  `bson:"discount_value"`
	MaxDiscountCap     *primitive.Decimal128 `bson:"max_discount_cap"`
	MinPurchaseAmount  *primitive.Decimal128 `bson:"min_purchase_amount"`
	Balance            *primitive.Decimal128 `bson:"balance"`
	IsSingleUse        bool                  `bson:"is_single_use"`
	EligibleCategories []string              `bson:"eligible_categories"`
	EligibleCourses    []string              `bson:"eligible_courses"`
	UserEligibility    string                `bson:"user_eligibility"`
	ActiveFrom         *time.Time            `bson:"active_from"`
	ActiveUntil        *time.Time            `bson:"active_until"`
	Status             string                `bson:"status"`
	TotalUsageLimit    *int                  `bson:"total_usage_limit"`
	PerUserUsageLimit  *int                  `bson:"per_user_usage_limit"`
	TotalUsageCount    int                   `bson:"total_usage_count"`
	PriorityOrder      int                   `bson:"priority_order"`
	Version            int64                 `bson:"version"`
	CreatedAt          time.Time             `bson:"created_at"`
	UpdatedAt          time.Time             `bson:"updated_at"`
}

// Create inserts a new offer document.
func (r *mongoOfferRepository) Create(ctx context.Context, offer *model.Offer) error {
	doc, err := toOfferDocument(offer)
	if err != nil {
		return err
	}

	if _, err := r.offers.InsertOne(ctx, doc); err != nil {
		if conflict := conflictFromMongo(err, offer); conflict != nil {
			r.logger.Debug().Str("offer_id", offer.ID.String()).Str("field", conflict.Field).Msg("duplicate offer code")
			return conflict
		}
		r.logger.Error().Err(err).Str("offer_id", offer.ID.String()).Msg("failed to create offer")
		return fmt.Errorf("failed to create offer: %w", err)
	}

	r.logger.Debug().Str("offer_id", offer.ID.String()).Msg("offer created successfully")

	return nil
}

// Update merges patch with a compare-and-swap on the version field,
// re-reading and retrying when a concurrent write got there first.
func (r *mongoOfferRepository) Update(ctx context.Context, id uuid.UUID, patch *model.OfferPatch, now time.Time) (*model.Offer, error) {
	for attempt := 1; attempt <= r.retries; attempt++ {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, model.ErrOfferNotFound
		}

		next, err := model.ApplyPatch(current, patch, now)
		if err != nil {
			return nil, err
		}
		next.Version = current.Version + 1

		doc, err := toOfferDocument(next)
		if err != nil {
			return nil, err
		}

		res, err := r.offers.ReplaceOne(ctx, bson.M{"_id": id.String(), "version": current.Version}, doc)
		if err != nil {
			if conflict := conflictFromMongo(err, next); conflict != nil {
				return nil, conflict
			}
			r.logger.Error().Err(err).Str("offer_id", id.String()).Msg("failed to update offer")
			return nil, fmt.Errorf("failed to update offer: %w", err)
		}
		if res.MatchedCount == 1 {
			r.logger.Debug().
				Str("offer_id", id.String()).
				Int64("version", next.Version).
				Int("attempt", attempt).
				Msg("offer updated successfully")
			return next, nil
		}

		r.logger.Debug().
			Str("offer_id", id.String()).
			Int64("version", current.Version).
			Int("attempt", attempt).
			Msg("offer version changed, retrying update")
	}

	r.logger.Warn().Str("offer_id", id.String()).Int("retries", r.retries).Msg("offer update gave up after concurrent modifications")

	return nil, model.ErrVersionConflict
}

// Delete removes an offer and its per-user usage records.
func (r *mongoOfferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.offers.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		r.logger.Error().Err(err).Str("offer_id", id.String()).Msg("failed to delete offer")
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrOfferNotFound
	}

	if _, err := r.usage.DeleteMany(ctx, bson.M{"offer_id": id.String()}); err != nil {
		r.logger.Warn().Err(err).Str("offer_id", id.String()).Msg("failed to delete offer usage records")
	}

	r.logger.Debug().Str("offer_id", id.String()).Msg("offer deleted")

	return nil
}

// GetByID retrieves an offer by its ID.
func (r *mongoOfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

// FindByCode resolves a code to its offer, trying promo codes, voucher
// codes and additional codes in that order.
func (r *mongoOfferRepository) FindByCode(ctx context.Context, code string) (*model.Offer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	key := model.NormalizeCode(code)

	filters := []bson.M{
		{"promo_code_key": key},
		{"voucher_code": code},
		{"additional_codes.code_key": key},
	}
	for _, filter := range filters {
		o, err := r.findOne(ctx, filter)
		if err != nil || o != nil {
			return o, err
		}
	}
	return nil, nil
}

// FindActive returns offers listed at asOf, re-checking the window.
func (r *mongoOfferRepository) FindActive(ctx context.Context, asOf time.Time) ([]model.Offer, error) {
	filter := bson.M{
		"status": string(model.StatusActive),
		"$and": bson.A{
			bson.M{"$or": bson.A{bson.M{"active_from": nil}, bson.M{"active_from": bson.M{"$lte": asOf}}}},
			bson.M{"$or": bson.A{bson.M{"active_until": nil}, bson.M{"active_until": bson.M{"$gte": asOf}}}},
		},
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "priority_order", Value: 1},
		{Key: "created_at", Value: -1},
	})

	cursor, err := r.offers.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error().Err(err).Time("as_of", asOf).Msg("failed to query active offers")
		return nil, fmt.Errorf("failed to query active offers: %w", err)
	}
	defer cursor.Close(ctx)

	offers := []model.Offer{}
	for cursor.Next(ctx) {
		var doc offerDocument
		if err := cursor.Decode(&doc); err != nil {
			r.logger.Error().Err(err).Msg("failed to decode offer document")
			return nil, fmt.Errorf("failed to decode offer: %w", err)
		}
		o, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		offers = append(offers, *o)
	}

	if err := cursor.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating offer documents")
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}

// ApplyRedemption consumes one use with a single conditional
// FindOneAndUpdate on the offer document. The per-user counter lives in
// another collection, so it is claimed first and released again if the
// offer update is refused.
func (r *mongoOfferRepository) ApplyRedemption(ctx context.Context, u model.RedemptionUpdate) (*model.RedemptionResult, error) {
	snapshot, err := r.GetByID(ctx, u.OfferID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, model.ErrOfferNotFound
	}

	var userCount *int
	if u.UserID != "" {
		count, err := r.claimUserUse(ctx, u, snapshot.PerUserUsageLimit)
		if err != nil {
			return nil, err
		}
		if snapshot.PerUserUsageLimit != nil {
			userCount = &count
		}
	}

	filter, update, err := redemptionStatements(snapshot, u)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc offerDocument
	err = r.offers.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if u.UserID != "" {
			r.releaseUserUse(ctx, u)
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.classifyMiss(ctx, u)
		}
		r.logger.Error().Err(err).Str("offer_id", u.OfferID.String()).Msg("failed to apply redemption")
		return nil, fmt.Errorf("failed to apply redemption: %w", err)
	}

	updated, err := doc.toModel()
	if err != nil {
		return nil, err
	}

	result := &model.RedemptionResult{
		OfferID:        u.OfferID,
		NewUsageCount:  updated.TotalUsageCount,
		UserUsageCount: userCount,
		Status:         updated.Status,
		Balance:        updated.Balance,
		RedeemedAt:     u.Now,
	}
	if u.CodeKey != "" {
		if c, ok := updated.CodeByValue(u.CodeKey); ok {
			count := c.UsageCount
			result.Code = c.Code
			result.CodeUsageCount = &count
		}
	}

	r.logger.Debug().
		Str("offer_id", u.OfferID.String()).
		Str("code", result.Code).
		Int("usage_count", result.NewUsageCount).
		Msg("redemption applied")

	return result, nil
}

// redemptionStatements builds the conditional filter and update for one
// redemption. The filter holds every limit, so a document that no longer
// qualifies is simply not matched. Values that only change through Update
// are pinned to the snapshot; Update bumps the version in the same write,
// so a stale snapshot fails the match rather than applying old rules.
func redemptionStatements(snapshot *model.Offer, u model.RedemptionUpdate) (bson.M, bson.M, error) {
	conditions := bson.A{
		bson.M{"$or": bson.A{bson.M{"active_until": nil}, bson.M{"active_until": bson.M{"$gte": u.Now}}}},
		bson.M{"$or": bson.A{
			bson.M{"total_usage_limit": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$total_usage_count", "$total_usage_limit"}}},
		}},
	}

	inc := bson.M{"total_usage_count": 1, "version": 1}
	set := bson.M{"updated_at": u.Now}

	filter := bson.M{
		"_id":           u.OfferID.String(),
		"status":        string(model.StatusActive),
		"kind":          string(snapshot.Kind),
		"is_single_use": snapshot.IsSingleUse,
	}
	if snapshot.IsSingleUse && snapshot.Kind == model.KindVoucher {
		set["status"] = string(model.StatusInactive)
	}

	if snapshot.Balance.Valid {
		zero, err := toDecimal128(decimal.Zero)
		if err != nil {
			return nil, nil, err
		}
		conditions = append(conditions, bson.M{"balance": bson.M{"$gt": zero}})
	}
	if snapshot.Balance.Valid && u.Amount.IsPositive() {
		amount, err := toDecimal128(u.Amount)
		if err != nil {
			return nil, nil, err
		}
		negated, err := toDecimal128(u.Amount.Neg())
		if err != nil {
			return nil, nil, err
		}
		conditions = append(conditions, bson.M{"balance": bson.M{"$gte": amount}})
		inc["balance"] = negated
	}

	if u.CodeKey != "" {
		c, ok := snapshot.CodeByValue(u.CodeKey)
		if !ok {
			return nil, nil, model.ErrOfferNotFound
		}
		match := bson.M{
			"code_key": u.CodeKey,
			"status":   string(model.StatusActive),
			"$or":      bson.A{bson.M{"expires_at": nil}, bson.M{"expires_at": bson.M{"$gte": u.Now}}},
		}
		if c.TotalUsageLimit != nil {
			match["total_usage_limit"] = *c.TotalUsageLimit
			match["usage_count"] = bson.M{"$lt": *c.TotalUsageLimit}
		} else {
			match["total_usage_limit"] = nil
		}
		filter["additional_codes"] = bson.M{"$elemMatch": match}
		inc["additional_codes.$.usage_count"] = 1
	}

	filter["$and"] = conditions
	return filter, bson.M{"$inc": inc, "$set": set}, nil
}

// claimUserUse increments the user's counter, refusing when the limit is
// already reached. An exhausted counter fails the filter, the upsert then
// collides with the unique (offer_id, user_id) index.
func (r *mongoOfferRepository) claimUserUse(ctx context.Context, u model.RedemptionUpdate, limit *int) (int, error) {
	filter := bson.M{"offer_id": u.OfferID.String(), "user_id": u.UserID}
	if limit != nil {
		filter["usage_count"] = bson.M{"$lt": *limit}
	}
	update := bson.M{
		"$inc": bson.M{"usage_count": 1},
		"$set": bson.M{"updated_at": u.Now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var usage struct {
		UsageCount int `bson:"usage_count"`
	}
	err := r.usage.FindOneAndUpdate(ctx, filter, update, opts).Decode(&usage)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Debug().
				Str("offer_id", u.OfferID.String()).
				Str("user_id", u.UserID).
				Msg("per-user limit reached")
			return 0, &model.LimitExceededError{Scope: model.ScopeUser}
		}
		r.logger.Error().Err(err).Str("offer_id", u.OfferID.String()).Msg("failed to record user usage")
		return 0, fmt.Errorf("failed to record user usage: %w", err)
	}
	return usage.UsageCount, nil
}

func (r *mongoOfferRepository) releaseUserUse(ctx context.Context, u model.RedemptionUpdate) {
	filter := bson.M{"offer_id": u.OfferID.String(), "user_id": u.UserID, "usage_count": bson.M{"$gt": 0}}
	if _, err := r.usage.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"usage_count": -1}}); err != nil {
		r.logger.Error().
			Err(err).
			Str("offer_id", u.OfferID.String()).
			Str("user_id", u.UserID).
			Msg("failed to release user usage")
	}
}

func (r *mongoOfferRepository) classifyMiss(ctx context.Context, u model.RedemptionUpdate) error {
	current, err := r.GetByID(ctx, u.OfferID)
	if err != nil {
		return err
	}
	if current != nil && u.CodeKey != "" {
		if err := classifyRedemptionMiss(current, u); !errors.Is(err, model.ErrVersionConflict) {
			return err
		}
		c, ok := current.CodeByValue(u.CodeKey)
		if !ok {
			return model.ErrOfferNotFound
		}
		if c.EffectiveStatus(u.Now) != model.StatusActive {
			return &model.EligibilityError{Reason: model.ReasonOfferInactive}
		}
		if c.TotalUsageLimit != nil && c.UsageCount >= *c.TotalUsageLimit {
			return &model.LimitExceededError{Scope: model.ScopeCode}
		}
		return model.ErrVersionConflict
	}
	return classifyRedemptionMiss(current, u)
}

func (r *mongoOfferRepository) findOne(ctx context.Context, filter bson.M) (*model.Offer, error) {
	var doc offerDocument
	err := r.offers.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query offer")
		return nil, fmt.Errorf("failed to query offer: %w", err)
	}
	return doc.toModel()
}

// conflictFromMongo maps a duplicate key error on one of the code indexes
// to a ConflictError. Other errors return nil.
func conflictFromMongo(err error, offer *model.Offer) *model.ConflictError {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "promo_code_key_unique"):
		return &model.ConflictError{Field: "promoCode", Value: deref(offer.PromoCode)}
	case strings.Contains(msg, "voucher_code_unique"):
		return &model.ConflictError{Field: "voucherCode", Value: deref(offer.VoucherCode)}
	case strings.Contains(msg, "additional_code_key_unique"):
		return &model.ConflictError{Field: "additionalCodes", Value: conflictingCode(msg, offer)}
	case strings.Contains(msg, database.MongoLookupKeyIndex):
		if promo := offer.PromoKey(); promo != "" && strings.Contains(msg, `"`+promo+`"`) {
			return &model.ConflictError{Field: "promoCode", Value: deref(offer.PromoCode)}
		}
		return &model.ConflictError{Field: "additionalCodes", Value: conflictingCode(msg, offer)}
	}
	return &model.ConflictError{Field: "code"}
}

func toOfferDocument(o *model.Offer) (*offerDocument, error) {
	discount, err := toDecimal128(o.DiscountValue)
	if err != nil {
		return nil, err
	}
	maxCap, err := toNullDecimal128(o.MaxDiscountCap)
	if err != nil {
		return nil, err
	}
	minPurchase, err := toNullDecimal128(o.MinPurchaseAmount)
	if err != nil {
		return nil, err
	}
	balance, err := toNullDecimal128(o.Balance)
	if err != nil {
		return nil, err
	}

	doc := &offerDocument{
		ID:                 o.ID.String(),
		Title:              o.Title,
		Description:        o.Description,
		Kind:               string(o.Kind),
		PromoCode:          o.PromoCode,
		VoucherCode:        o.VoucherCode,
		AdditionalCodes:    make([]codeDocument, 0, len(o.AdditionalCodes)),
		DiscountValue:      discount,
		MaxDiscountCap:     maxCap,
		MinPurchaseAmount:  minPurchase,
		Balance:            balance,
		IsSingleUse:        o.IsSingleUse,
		EligibleCategories: nonNil(o.EligibleCategories),
		EligibleCourses:    nonNil(o.EligibleCourses),
		UserEligibility:    string(o.UserEligibility),
		ActiveFrom:         o.ActiveFrom,
		ActiveUntil:        o.ActiveUntil,
		Status:             string(o.Status),
		TotalUsageLimit:    o.TotalUsageLimit,
		PerUserUsageLimit:  o.PerUserUsageLimit,
		TotalUsageCount:    o.TotalUsageCount,
		PriorityOrder:      o.PriorityOrder,
		Version:            o.Version,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		LookupKeys:         o.LookupKeys(),
	}
	if o.PromoCode != nil {
		key := model.NormalizeCode(*o.PromoCode)
		doc.PromoCodeKey = &key
	}

	for _, c := range o.AdditionalCodes {
		codeDiscount, err := toNullDecimal128(c.DiscountValue)
		if err != nil {
			return nil, err
		}
		codeMin, err := toNullDecimal128(c.MinPurchaseAmount)
		if err != nil {
			return nil, err
		}
		doc.AdditionalCodes = append(doc.AdditionalCodes, codeDocument{
			Code:              c.Code,
			CodeKey:           model.NormalizeCode(c.Code),
			Status:            string(c.Status),
			ExpiresAt:         c.ExpiresAt,
			StartDate:         c.StartDate,
			DiscountValue:     codeDiscount,
			MinPurchaseAmount: codeMin,
			TotalUsageLimit:   c.TotalUsageLimit,
			UsageCount:        c.UsageCount,
		})
	}

	return doc, nil
}

func (d *offerDocument) toModel() (*model.Offer, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse offer id %q: %w", d.ID, err)
	}
	discount, err := fromDecimal128(d.DiscountValue)
	if err != nil {
		return nil, err
	}
	maxCap, err := fromNullDecimal128(d.MaxDiscountCap)
	if err != nil {
		return nil, err
	}
	minPurchase, err := fromNullDecimal128(d.MinPurchaseAmount)
	if err != nil {
		return nil, err
	}
	balance, err := fromNullDecimal128(d.Balance)
	if err != nil {
		return nil, err
	}

	o := &model.Offer{
		ID:                 id,
		Title:              d.Title,
		Description:        d.Description,
		Kind:               model.Kind(d.Kind),
		PromoCode:          d.PromoCode,
		VoucherCode:        d.VoucherCode,
		AdditionalCodes:    make([]model.AdditionalCode, 0, len(d.AdditionalCodes)),
		DiscountValue:      discount,
		MaxDiscountCap:     maxCap,
		MinPurchaseAmount:  minPurchase,
		Balance:            balance,
		IsSingleUse:        d.IsSingleUse,
		EligibleCategories: nonNil(d.EligibleCategories),
		EligibleCourses:    nonNil(d.EligibleCourses),
		UserEligibility:    model.UserEligibility(d.UserEligibility),
		ActiveFrom:         utcPtr(d.ActiveFrom),
		ActiveUntil:        utcPtr(d.ActiveUntil),
		Status:             model.Status(d.Status),
		TotalUsageLimit:    d.TotalUsageLimit,
		PerUserUsageLimit:  d.PerUserUsageLimit,
		TotalUsageCount:    d.TotalUsageCount,
		PriorityOrder:      d.PriorityOrder,
		Version:            d.Version,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}

	for _, c := range d.AdditionalCodes {
		codeDiscount, err := fromNullDecimal128(c.DiscountValue)
		if err != nil {
			return nil, err
		}
		codeMin, err := fromNullDecimal128(c.MinPurchaseAmount)
		if err != nil {
			return nil, err
		}
		o.AdditionalCodes = append(o.AdditionalCodes, model.AdditionalCode{
			Code:              c.Code,
			ExpiresAt:         utcPtr(c.ExpiresAt),
			Status:            model.Status(c.Status),
			UsageCount:        c.UsageCount,
			DiscountValue:     codeDiscount,
			MinPurchaseAmount: codeMin,
			TotalUsageLimit:   c.TotalUsageLimit,
			StartDate:         utcPtr(c.StartDate),
		})
	}

	return o, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to convert %s to decimal128: %w", d, err)
	}
	return v, nil
}

func toNullDecimal128(d decimal.NullDecimal) (*primitive.Decimal128, error) {
	if !d.Valid {
		return nil, nil
	}
	v, err := toDecimal128(d.Decimal)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to convert decimal128 %s: %w", v, err)
	}
	return d, nil
}

func fromNullDecimal128(v *primitive.Decimal128) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := fromDecimal128(*v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
