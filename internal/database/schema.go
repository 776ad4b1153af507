package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Constraint and index names surfaced to the repository when a write
// violates them.
const (
	OffersPromoCodeIndex      = "offers_promo_code_key"
	OffersVoucherCodeIndex    = "offers_voucher_code_key"
	OfferCodesCodeKeyIndex    = "offer_codes_code_key"
	OffersUsageLimitCheck     = "offers_usage_within_limit"
	OfferCodesUsageLimitCheck = "offer_codes_usage_within_limit"
)

// schema is idempotent; every statement can be re-run against an existing
// database.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS offers (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL CHECK (kind IN ('percentage', 'fixed_amount', 'voucher')),
		promo_code TEXT,
		voucher_code TEXT,
		discount_value NUMERIC(12, 2) NOT NULL CHECK (discount_value > 0),
		max_discount_cap NUMERIC(12, 2),
		min_purchase_amount NUMERIC(12, 2),
		balance NUMERIC(12, 2) CHECK (balance >= 0),
		is_single_use BOOLEAN NOT NULL DEFAULT FALSE,
		eligible_categories TEXT[] NOT NULL DEFAULT '{}',
		eligible_courses TEXT[] NOT NULL DEFAULT '{}',
		user_eligibility TEXT NOT NULL DEFAULT 'all',
		active_from TIMESTAMPTZ,
		active_until TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
		total_usage_limit INTEGER CHECK (total_usage_limit >= 1),
		per_user_usage_limit INTEGER CHECK (per_user_usage_limit >= 1),
		total_usage_count INTEGER NOT NULL DEFAULT 0,
		priority_order INTEGER NOT NULL DEFAULT 0,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT ` + OffersUsageLimitCheck + ` CHECK (total_usage_limit IS NULL OR total_usage_count <= total_usage_limit)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + OffersPromoCodeIndex + `
		ON offers (LOWER(promo_code)) WHERE promo_code IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + OffersVoucherCodeIndex + `
		ON offers (voucher_code) WHERE voucher_code IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS idx_offers_listing
		ON offers (priority_order, created_at DESC) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS offer_codes (
		offer_id UUID NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		code TEXT NOT NULL,
		code_key TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
		expires_at TIMESTAMPTZ,
		start_date TIMESTAMPTZ,
		discount_value NUMERIC(12, 2),
		min_purchase_amount NUMERIC(12, 2),
		total_usage_limit INTEGER,
		usage_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (offer_id, position),
		CONSTRAINT ` + OfferCodesUsageLimitCheck + ` CHECK (total_usage_limit IS NULL OR usage_count <= total_usage_limit)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + OfferCodesCodeKeyIndex + ` ON offer_codes (code_key)`,
	`CREATE TABLE IF NOT EXISTS offer_user_usage (
		offer_id UUID NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		usage_count INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (offer_id, user_id)
	)`,
}

// Migrate creates the offer tables and indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			logger.Error().Err(err).Int("statement", i).Msg("schema migration failed")
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}

	logger.Info().Int("statements", len(schema)).Msg("database schema is up to date")

	return nil
}
