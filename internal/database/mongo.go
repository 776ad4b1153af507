package database

import (
	"context"
	"fmt"

	"notes-portal/internal/config"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB collection names used by the document store backend.
const (
	OffersCollection    = "offers"
	UserUsageCollection = "offer_user_usage"
)

// MongoLookupKeyIndex keeps promo codes and additional codes of different
// offers apart. Both are matched case-insensitively by code lookup.
const MongoLookupKeyIndex = "lookup_key_unique"

// NewMongoClient connects to MongoDB and verifies the primary is reachable.
func NewMongoClient(ctx context.Context, cfg config.MongoConfig, logger zerolog.Logger) (*mongo.Client, error) {
	logger.Info().
		Str("database", cfg.Database).
		Dur("connect_timeout", cfg.ConnectTimeout).
		Msg("connecting to mongodb")

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
		opts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info().Msg("mongodb connection established")

	return client, nil
}

// EnsureMongoIndexes creates the unique code indexes and the listing index.
// Unset codes are excluded by partial filters so any number of offers may
// leave them empty.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database, logger zerolog.Logger) error {
	offerIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "promo_code_key", Value: 1}},
			Options: options.Index().
				SetName("promo_code_key_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"promo_code_key": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "voucher_code", Value: 1}},
			Options: options.Index().
				SetName("voucher_code_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"voucher_code": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "additional_codes.code_key", Value: 1}},
			Options: options.Index().
				SetName("additional_code_key_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"additional_codes.code_key": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "lookup_keys", Value: 1}},
			Options: options.Index().
				SetName(MongoLookupKeyIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"lookup_keys": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "priority_order", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("listing"),
		},
	}

	if _, err := db.Collection(OffersCollection).Indexes().CreateMany(ctx, offerIndexes); err != nil {
		logger.Error().Err(err).Str("collection", OffersCollection).Msg("failed to create indexes")
		return fmt.Errorf("failed to create %s indexes: %w", OffersCollection, err)
	}

	usageIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "offer_id", Value: 1},
			{Key: "user_id", Value: 1},
		},
		Options: options.Index().SetName("offer_user_unique").SetUnique(true),
	}

	if _, err := db.Collection(UserUsageCollection).Indexes().CreateOne(ctx, usageIndex); err != nil {
		logger.Error().Err(err).Str("collection", UserUsageCollection).Msg("failed to create indexes")
		return fmt.Errorf("failed to create %s indexes: %w", UserUsageCollection, err)
	}

	logger.Info().Str("database", db.Name()).Msg("mongodb indexes are up to date")

	return nil
}
