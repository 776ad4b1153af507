package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"notes-portal/internal/database"
	"notes-portal/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const pgUniqueViolation = "23505"

const offerColumns = `
	id, title, description, kind, promo_code, voucher_code,
	discount_value, max_discount_cap, min_purchase_amount, balance,
	is_single_use, eligible_categories, eligible_courses, user_eligibility,
	active_from, active_until, status, total_usage_limit, per_user_usage_limit,
	total_usage_count, priority_order, version, created_at, updated_at`

const codeColumns = `
	offer_id, code, status, expires_at, start_date,
	discount_value, min_purchase_amount, total_usage_limit, usage_count`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// offerRepository implements the OfferRepository interface using PostgreSQL.
type offerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOfferRepository creates a new PostgreSQL-backed offer repository.
func NewOfferRepository(pool *pgxpool.Pool, logger zerolog.Logger) OfferRepository {
	return &offerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "offer").Logger(),
	}
}

// Create inserts a new offer and its additional codes in one transaction.
func (r *offerRepository) Create(ctx context.Context, offer *model.Offer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.checkLookupKeys(ctx, tx, offer); err != nil {
		return err
	}

	query := `
		INSERT INTO offers (` + offerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err = tx.Exec(ctx, query,
		offer.ID, offer.Title, offer.Description, offer.Kind, offer.PromoCode, offer.VoucherCode,
		offer.DiscountValue, offer.MaxDiscountCap, offer.MinPurchaseAmount, offer.Balance,
		offer.IsSingleUse, nonNil(offer.EligibleCategories), nonNil(offer.EligibleCourses), offer.UserEligibility,
		offer.ActiveFrom, offer.ActiveUntil, offer.Status, offer.TotalUsageLimit, offer.PerUserUsageLimit,
		offer.TotalUsageCount, offer.PriorityOrder, offer.Version, offer.CreatedAt, offer.UpdatedAt,
	)
	if err != nil {
		if conflict := conflictFromPg(err, offer); conflict != nil {
			r.logger.Debug().Str("offer_id", offer.ID.String()).Str("field", conflict.Field).Msg("duplicate offer code")
			return conflict
		}
		r.logger.Error().Err(err).Str("offer_id", offer.ID.String()).Msg("failed to create offer")
		return fmt.Errorf("failed to create offer: %w", err)
	}

	if err := r.insertCodes(ctx, tx, offer); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("offer_id", offer.ID.String()).Msg("failed to commit offer")
		return fmt.Errorf("failed to commit offer: %w", err)
	}

	r.logger.Debug().Str("offer_id", offer.ID.String()).Msg("offer created successfully")

	return nil
}

// Update locks the offer row, merges the patch and rewrites the record.
func (r *offerRepository) Update(ctx context.Context, id uuid.UUID, patch *model.OfferPatch, now time.Time) (*model.Offer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := r.getOne(ctx, tx, `SELECT `+offerColumns+` FROM offers WHERE id = $1 FOR UPDATE`, id)
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

	if patch.PromoCode.Set || patch.AdditionalCodes.Set {
		if err := r.checkLookupKeys(ctx, tx, next); err != nil {
			return nil, err
		}
	}

	query := `
		UPDATE offers SET
			title = $2, description = $3, promo_code = $4, voucher_code = $5,
			discount_value = $6, max_discount_cap = $7, min_purchase_amount = $8, balance = $9,
			is_single_use = $10, eligible_categories = $11, eligible_courses = $12,
			user_eligibility = $13, active_from = $14, active_until = $15, status = $16,
			total_usage_limit = $17, per_user_usage_limit = $18, priority_order = $19,
			version = $20, updated_at = $21
		WHERE id = $1
	`

	_, err = tx.Exec(ctx, query,
		id, next.Title, next.Description, next.PromoCode, next.VoucherCode,
		next.DiscountValue, next.MaxDiscountCap, next.MinPurchaseAmount, next.Balance,
		next.IsSingleUse, nonNil(next.EligibleCategories), nonNil(next.EligibleCourses),
		next.UserEligibility, next.ActiveFrom, next.ActiveUntil, next.Status,
		next.TotalUsageLimit, next.PerUserUsageLimit, next.PriorityOrder,
		next.Version, next.UpdatedAt,
	)
	if err != nil {
		if conflict := conflictFromPg(err, next); conflict != nil {
			return nil, conflict
		}
		r.logger.Error().Err(err).Str("offer_id", id.String()).Msg("failed to update offer")
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	if patch.AdditionalCodes.Set {
		if _, err := tx.Exec(ctx, `DELETE FROM offer_codes WHERE offer_id = $1`, id); err != nil {
			r.logger.Error().Err(err).Str("offer_id", id.String()).Msg("failed to clear offer codes")
			return nil, fmt.Errorf("failed to clear offer codes: %w", err)
		}
		if err := r.insertCodes(ctx, tx, next); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("offer_id", id.String()).Msg("failed to commit offer update")
		return nil, fmt.Errorf("failed to commit offer update: %w", err)
	}

	r.logger.Debug().
		Str("offer_id", id.String()).
		Int64("version", next.Version).
		Msg("offer updated successfully")

	return next, nil
}

// Delete removes an offer; codes and usage rows cascade.
func (r *offerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("offer_id", id.String()).Msg("failed to delete offer")
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOfferNotFound
	}

	r.logger.Debug().Str("offer_id", id.String()).Msg("offer deleted")

	return nil
}

// GetByID retrieves an offer by its ID.
func (r *offerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	return r.getOne(ctx, r.pool, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
}

// FindByCode resolves a code to its offer. Promo and additional codes match
// case-insensitively, voucher codes exactly.
func (r *offerRepository) FindByCode(ctx context.Context, code string) (*model.Offer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE id = (
			SELECT id FROM (
				SELECT id, 0 AS rank FROM offers
				WHERE promo_code IS NOT NULL AND LOWER(promo_code) = LOWER($1)
				UNION ALL
				SELECT id, 1 FROM offers WHERE voucher_code = $1
				UNION ALL
				SELECT offer_id, 2 FROM offer_codes WHERE code_key = $2
			) matches
			ORDER BY rank
			LIMIT 1
		)
	`

	return r.getOne(ctx, r.pool, query, code, model.NormalizeCode(code))
}

// FindActive returns offers listed at asOf. The window is re-checked here
// so offers whose end date passed never show up even while their stored
// status is still active.
func (r *offerRepository) FindActive(ctx context.Context, asOf time.Time) ([]model.Offer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE status = 'active'
			AND (active_from IS NULL OR active_from <= $1)
			AND (active_until IS NULL OR active_until >= $1)
		ORDER BY priority_order ASC, created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		r.logger.Error().Err(err).Time("as_of", asOf).Msg("failed to query active offers")
		return nil, fmt.Errorf("failed to query active offers: %w", err)
	}
	defer rows.Close()

	offers := []model.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan offer row")
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, *o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating offer rows")
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	if err := r.attachCodes(ctx, r.pool, offers); err != nil {
		return nil, err
	}

	return offers, nil
}

// ApplyRedemption performs the conditional increments in one transaction.
// Row locks are always taken in the order offers, offer_codes,
// offer_user_usage, matching Update.
func (r *offerRepository) ApplyRedemption(ctx context.Context, u model.RedemptionUpdate) (*model.RedemptionResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	offerQuery := `
		UPDATE offers SET
			total_usage_count = total_usage_count + 1,
			balance = CASE
				WHEN balance IS NOT NULL AND $3::numeric > 0 THEN balance - $3::numeric
				ELSE balance
			END,
			status = CASE WHEN is_single_use AND kind = 'voucher' THEN 'inactive' ELSE status END,
			version = version + 1,
			updated_at = $2
		WHERE id = $1
			AND status = 'active'
			AND (active_until IS NULL OR active_until >= $2)
			AND (total_usage_limit IS NULL OR total_usage_count < total_usage_limit)
			AND (balance IS NULL OR (balance > 0 AND ($3::numeric <= 0 OR balance >= $3::numeric)))
		RETURNING total_usage_count, status, balance, per_user_usage_limit
	`

	result := &model.RedemptionResult{OfferID: u.OfferID, RedeemedAt: u.Now}
	var perUserLimit *int
	err = tx.QueryRow(ctx, offerQuery, u.OfferID, u.Now, u.Amount).
		Scan(&result.NewUsageCount, &result.Status, &result.Balance, &perUserLimit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = tx.Rollback(ctx)
			return nil, r.classifyOfferMiss(ctx, u)
		}
		r.logger.Error().Err(err).Str("offer_id", u.OfferID.String()).Msg("failed to apply redemption")
		return nil, fmt.Errorf("failed to apply redemption: %w", err)
	}

	if u.CodeKey != "" {
		codeQuery := `
			UPDATE offer_codes SET usage_count = usage_count + 1
			WHERE offer_id = $1 AND code_key = $2
				AND status = 'active'
				AND (expires_at IS NULL OR expires_at >= $3)
				AND (total_usage_limit IS NULL OR usage_count < total_usage_limit)
			RETURNING code, usage_count
		`

		var codeCount int
		err = tx.QueryRow(ctx, codeQuery, u.OfferID, u.CodeKey, u.Now).Scan(&result.Code, &codeCount)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, r.classifyCodeMiss(ctx, tx, u)
			}
			r.logger.Error().Err(err).Str("offer_id", u.OfferID.String()).Msg("failed to apply code redemption")
			return nil, fmt.Errorf("failed to apply code redemption: %w", err)
		}
		result.CodeUsageCount = &codeCount
	}

	if u.UserID != "" {
		userQuery := `
			INSERT INTO offer_user_usage (offer_id, user_id, usage_count, updated_at)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (offer_id, user_id) DO UPDATE SET
				usage_count = offer_user_usage.usage_count + 1,
				updated_at = EXCLUDED.updated_at
			WHERE $4::integer IS NULL OR offer_user_usage.usage_count < $4::integer
			RETURNING usage_count
		`

		var userCount int
		err = tx.QueryRow(ctx, userQuery, u.OfferID, u.UserID, u.Now, perUserLimit).Scan(&userCount)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				r.logger.Debug().
					Str("offer_id", u.OfferID.String()).
					Str("user_id", u.UserID).
					Msg("per-user limit reached")
				return nil, &model.LimitExceededError{Scope: model.ScopeUser}
			}
			r.logger.Error().Err(err).Str("offer_id", u.OfferID.String()).Msg("failed to record user usage")
			return nil, fmt.Errorf("failed to record user usage: %w", err)
		}
		if perUserLimit != nil {
			result.UserUsageCount = &userCount
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("offer_id", u.OfferID.String()).Msg("failed to commit redemption")
		return nil, fmt.Errorf("failed to commit redemption: %w", err)
	}

	r.logger.Debug().
		Str("offer_id", u.OfferID.String()).
		Str("code", result.Code).
		Int("usage_count", result.NewUsageCount).
		Msg("redemption applied")

	return result, nil
}

// classifyOfferMiss explains why the conditional offer update matched no
// row, from a fresh read after the transaction was abandoned.
func (r *offerRepository) classifyOfferMiss(ctx context.Context, u model.RedemptionUpdate) error {
	current, err := r.GetByID(ctx, u.OfferID)
	if err != nil {
		return err
	}
	return classifyRedemptionMiss(current, u)
}

func (r *offerRepository) classifyCodeMiss(ctx context.Context, tx pgx.Tx, u model.RedemptionUpdate) error {
	query := `SELECT ` + codeColumns + ` FROM offer_codes WHERE offer_id = $1 AND code_key = $2`

	c, _, err := scanCode(tx.QueryRow(ctx, query, u.OfferID, u.CodeKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrOfferNotFound
		}
		return fmt.Errorf("failed to query offer code: %w", err)
	}
	if c.EffectiveStatus(u.Now) != model.StatusActive {
		return &model.EligibilityError{Reason: model.ReasonOfferInactive}
	}
	return &model.LimitExceededError{Scope: model.ScopeCode}
}

// classifyRedemptionMiss maps the current state of an offer to the error
// a failed conditional redemption reports. When the offer would now pass,
// it was changed between the attempt and the read.
func classifyRedemptionMiss(current *model.Offer, u model.RedemptionUpdate) error {
	switch {
	case current == nil:
		return model.ErrOfferNotFound
	case current.EffectiveStatus(u.Now) != model.StatusActive:
		return &model.EligibilityError{Reason: model.ReasonOfferInactive}
	case !current.HasRemainingUses():
		return &model.LimitExceededError{Scope: model.ScopeTotal}
	case current.BalanceExhausted():
		return &model.LimitExceededError{Scope: model.ScopeBalance}
	case current.Balance.Valid && u.Amount.IsPositive() && current.Balance.Decimal.LessThan(u.Amount):
		return &model.LimitExceededError{Scope: model.ScopeBalance}
	}
	return model.ErrVersionConflict
}

func (r *offerRepository) getOne(ctx context.Context, q querier, query string, args ...any) (*model.Offer, error) {
	o, err := scanOffer(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query offer")
		return nil, fmt.Errorf("failed to query offer: %w", err)
	}

	offers := []model.Offer{*o}
	if err := r.attachCodes(ctx, q, offers); err != nil {
		return nil, err
	}
	return &offers[0], nil
}

// attachCodes loads the additional codes of all offers with one query.
func (r *offerRepository) attachCodes(ctx context.Context, q querier, offers []model.Offer) error {
	if len(offers) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(offers))
	index := make(map[uuid.UUID]int, len(offers))
	for i := range offers {
		ids[i] = offers[i].ID
		index[offers[i].ID] = i
		offers[i].AdditionalCodes = []model.AdditionalCode{}
	}

	query := `
		SELECT ` + codeColumns + `
		FROM offer_codes
		WHERE offer_id = ANY($1)
		ORDER BY offer_id, position
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query offer codes")
		return fmt.Errorf("failed to query offer codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, offerID, err := scanCode(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan offer code row")
			return fmt.Errorf("failed to scan offer code: %w", err)
		}
		if i, ok := index[offerID]; ok {
			offers[i].AdditionalCodes = append(offers[i].AdditionalCodes, *c)
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating offer code rows")
		return fmt.Errorf("error iterating offer codes: %w", err)
	}

	return nil
}

func (r *offerRepository) insertCodes(ctx context.Context, tx pgx.Tx, offer *model.Offer) error {
	if len(offer.AdditionalCodes) == 0 {
		return nil
	}

	query := `
		INSERT INTO offer_codes (offer_id, position, code, code_key, status, expires_at, start_date,
			discount_value, min_purchase_amount, total_usage_limit, usage_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	batch := &pgx.Batch{}
	for i, c := range offer.AdditionalCodes {
		batch.Queue(query, offer.ID, i, c.Code, model.NormalizeCode(c.Code), c.Status, c.ExpiresAt, c.StartDate,
			c.DiscountValue, c.MinPurchaseAmount, c.TotalUsageLimit, c.UsageCount)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range offer.AdditionalCodes {
		if _, err := results.Exec(); err != nil {
			if conflict := conflictFromPg(err, offer); conflict != nil {
				return conflict
			}
			r.logger.Error().
				Err(err).
				Str("offer_id", offer.ID.String()).
				Str("code", offer.AdditionalCodes[i].Code).
				Msg("failed to create offer code")
			return fmt.Errorf("failed to create offer code: %w", err)
		}
	}

	return nil
}

// checkLookupKeys refuses a promo code that equals another offer's
// additional code, and the reverse. The unique indexes cover each table on
// its own, so the keys are first serialized with transaction advisory
// locks, taken in sorted order.
func (r *offerRepository) checkLookupKeys(ctx context.Context, tx pgx.Tx, offer *model.Offer) error {
	keys := offer.LookupKeys()
	if len(keys) == 0 {
		return nil
	}

	locked := append([]string(nil), keys...)
	sort.Strings(locked)
	for _, k := range locked {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('offer_code:' || $1))`, k); err != nil {
			return fmt.Errorf("failed to lock offer code: %w", err)
		}
	}

	if promo := offer.PromoKey(); promo != "" {
		var taken bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM offer_codes WHERE code_key = $1 AND offer_id <> $2)`,
			promo, offer.ID,
		).Scan(&taken)
		if err != nil {
			return fmt.Errorf("failed to check promo code: %w", err)
		}
		if taken {
			r.logger.Debug().Str("offer_id", offer.ID.String()).Str("code", promo).Msg("promo code taken by an additional code")
			return &model.ConflictError{Field: "promoCode", Value: deref(offer.PromoCode)}
		}
	}

	if len(offer.AdditionalCodes) == 0 {
		return nil
	}

	var clash string
	err := tx.QueryRow(ctx,
		`SELECT UPPER(promo_code) FROM offers WHERE UPPER(promo_code) = ANY($1) AND id <> $2 LIMIT 1`,
		keys, offer.ID,
	).Scan(&clash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check additional codes: %w", err)
	}

	r.logger.Debug().Str("offer_id", offer.ID.String()).Str("code", clash).Msg("additional code taken by a promo code")
	return &model.ConflictError{Field: "additionalCodes", Value: codeForKey(offer, clash)}
}

// codeForKey returns the additional code of offer whose normalized form is key.
func codeForKey(offer *model.Offer, key string) string {
	for _, c := range offer.AdditionalCodes {
		if model.NormalizeCode(c.Code) == key {
			return c.Code
		}
	}
	return ""
}

func scanOffer(row pgx.Row) (*model.Offer, error) {
	var o model.Offer
	err := row.Scan(
		&o.ID, &o.Title, &o.Description, &o.Kind, &o.PromoCode, &o.VoucherCode,
		&o.DiscountValue, &o.MaxDiscountCap, &o.MinPurchaseAmount, &o.Balance,
		&o.IsSingleUse, &o.EligibleCategories, &o.EligibleCourses, &o.UserEligibility,
		&o.ActiveFrom, &o.ActiveUntil, &o.Status, &o.TotalUsageLimit, &o.PerUserUsageLimit,
		&o.TotalUsageCount, &o.PriorityOrder, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanCode(row pgx.Row) (*model.AdditionalCode, uuid.UUID, error) {
	var (
		c       model.AdditionalCode
		offerID uuid.UUID
	)
	err := row.Scan(
		&offerID, &c.Code, &c.Status, &c.ExpiresAt, &c.StartDate,
		&c.DiscountValue, &c.MinPurchaseAmount, &c.TotalUsageLimit, &c.UsageCount,
	)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return &c, offerID, nil
}

// conflictFromPg maps a unique violation on one of the code indexes to a
// ConflictError naming the field. Other errors return nil.
func conflictFromPg(err error, offer *model.Offer) *model.ConflictError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}

	switch pgErr.ConstraintName {
	case database.OffersPromoCodeIndex:
		return &model.ConflictError{Field: "promoCode", Value: deref(offer.PromoCode)}
	case database.OffersVoucherCodeIndex:
		return &model.ConflictError{Field: "voucherCode", Value: deref(offer.VoucherCode)}
	case database.OfferCodesCodeKeyIndex:
		return &model.ConflictError{Field: "additionalCodes", Value: conflictingCode(pgErr.Detail, offer)}
	}
	return &model.ConflictError{Field: "code"}
}

// conflictingCode picks the additional code named in a unique violation
// detail such as `Key (code_key)=(ABC) already exists.`
func conflictingCode(detail string, offer *model.Offer) string {
	for _, c := range offer.AdditionalCodes {
		key := model.NormalizeCode(c.Code)
		if strings.Contains(detail, "("+key+")") || strings.Contains(detail, `"`+key+`"`) {
			return c.Code
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
