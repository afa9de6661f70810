package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/orgservice/internal/store"
	memorystore "github.com/wolfeidau/orgservice/internal/store/memory"
	mongostore "github.com/wolfeidau/orgservice/internal/store/mongodb"
	postgresstore "github.com/wolfeidau/orgservice/internal/store/postgres"
)

type MongoStoreFlags struct {
	URL            string `help:"MongoDB connection string" env:"MONGODB_URL"`
	Database       string `help:"MongoDB database holding the master and tenant collections" default:"master_db" env:"DATABASE_NAME"`
	Collection     string `help:"master collection name" default:"organizations" env:"ORGSERVICE_MONGODB_COLLECTION"`
	MaxPoolSize    uint64 `help:"maximum number of connections in the client pool" default:"20"`
	ConnectTimeout int32  `help:"connect timeout in seconds" default:"10"`
}

func (s *MongoStoreFlags) Validate() error {
	if s.URL == "" {
		return errors.New("MongoDB connection string is required (--mongodb-url or MONGODB_URL)")
	}
	if s.Database == "" {
		return errors.New("MongoDB database name is required (--mongodb-database or DATABASE_NAME)")
	}
	return nil
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns         int32         `help:"maximum number of connections in pool" default:"20"`
	MinConns         int32         `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime  time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime  time.Duration `help:"maximum connection idle time" default:"30m"`
	StatementTimeout time.Duration `help:"statement timeout applied to every connection" default:"30s" env:"ORGSERVICE_POSTGRES_STATEMENT_TIMEOUT"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"ORGSERVICE_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

// openStore connects the configured store, retrying with exponential backoff
// while the database comes up.
func (c *ServeCmd) openStore(ctx context.Context) (store.OrganizationStore, error) {
	log := zerolog.Ctx(ctx)

	var connect backoff.Operation[store.OrganizationStore]

	switch c.StoreType {
	case "mongodb":
		if err := c.MongoStore.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate mongodb flags: %w", err)
		}
		connect = c.connectMongo(ctx)

	case "postgres":
		if err := c.PostgresStore.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate postgres flags: %w", err)
		}
		connect = c.connectPostgres(ctx)

	default:
		log.Info().Msg("Using in-memory organization store")
		return memorystore.NewOrganizationStore(), nil
	}

	st, err := backoff.Retry(ctx, connect,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(c.ConnectTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Str("store", c.StoreType).Dur("retry_in", next).Msg("Store connection failed, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s store: %w", c.StoreType, err)
	}

	log.Info().Str("store", c.StoreType).Msg("Connected organization store")

	return st, nil
}

func (c *ServeCmd) connectMongo(ctx context.Context) backoff.Operation[store.OrganizationStore] {
	return func() (store.OrganizationStore, error) {
		cfg := &mongostore.ClientConfig{
			URI:            c.MongoStore.URL,
			Database:       c.MongoStore.Database,
			Collection:     c.MongoStore.Collection,
			ConnectTimeout: c.MongoStore.ConnectTimeout,
			MaxPoolSize:    c.MongoStore.MaxPoolSize,
		}

		client, err := mongostore.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}

		return mongostore.NewOrganizationStore(client, cfg.Database, cfg.Collection), nil
	}
}

func (c *ServeCmd) connectPostgres(ctx context.Context) backoff.Operation[store.OrganizationStore] {
	return func() (store.OrganizationStore, error) {
		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:       c.PostgresStore.ConnString,
			MaxConns:         c.PostgresStore.MaxConns,
			MinConns:         c.PostgresStore.MinConns,
			MaxConnLifetime:  c.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime:  c.PostgresStore.MaxConnIdleTime,
			StatementTimeout: c.PostgresStore.StatementTimeout,
			AutoMigrate:      c.PostgresStore.AutoMigrate,
		})
		if err != nil {
			return nil, err
		}

		return postgresstore.NewOrganizationStore(pool), nil
	}
}
