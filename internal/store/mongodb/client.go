package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Index names used to tell duplicate key violations apart.
const (
	indexNameUnique       = "organization_name_unique"
	indexEmailUnique      = "admin_email_unique"
	indexCollectionUnique = "collection_name_unique"
)

// ClientConfig holds configuration for the MongoDB client.
type ClientConfig struct {
	// URI is the MongoDB connection string, e.g. mongodb://localhost:27017
	URI string

	// Database is the database holding the master collection and all tenant collections.
	Database string

	// Collection is the master collection name.
	// Default: organizations
	Collection string

	// ConnectTimeout is the maximum time to wait for the initial connection (in seconds).
	// Default: 10
	ConnectTimeout int32

	// MaxPoolSize is the maximum number of connections in the client pool.
	// Default: 20
	MaxPoolSize uint64
}

// Validate checks that the client configuration is valid.
func (c *ClientConfig) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("mongodb uri is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *ClientConfig) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "organizations"
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10
	}
	if c.MaxPoolSize == 0 {
		c.MaxPoolSize = 20
	}
}

// Connect creates a MongoDB client, pings the primary and ensures the unique
// indexes on the master collection exist.
func Connect(ctx context.Context, cfg *ClientConfig) (*mongo.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("client config is required")
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second).
		SetMaxPoolSize(cfg.MaxPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	if err = EnsureIndexes(ctx, client.Database(cfg.Database).Collection(cfg.Collection)); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return client, nil
}

// EnsureIndexes creates the unique indexes on the master collection.
// Creating an index that already exists with the same definition is a no-op.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organization_name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(indexNameUnique),
		},
		{
			Keys:    bson.D{{Key: "admin_email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(indexEmailUnique),
		},
		{
			Keys:    bson.D{{Key: "collection_name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(indexCollectionUnique),
		},
	}

	names, err := coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
	}

	log.Info().Strs("indexes", names).Str("collection", coll.Name()).Msg("Ensured master collection indexes")

	return nil
}
