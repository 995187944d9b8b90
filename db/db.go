// Package db manages the MongoDB client lifecycle: connect and ping at
// startup, hand out the database handle, and disconnect on shutdown. The
// process must not serve requests without a reachable store, so a failed
// connect is fatal to the caller.
package db

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/user/weather-api-go/apperror"
	"github.com/user/weather-api-go/config"
)

const connectTimeout = 10 * time.Second

// Client wraps the mongo client and the application database handle.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger
}

// Connect establishes the MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, cfg config.MongoConfig, logger zerolog.Logger) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to connect to MongoDB", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		// The handle exists even when the server is unreachable; tear it down
		// before reporting the failure.
		_ = client.Disconnect(context.Background())
		return nil, apperror.NewDatabaseError("failed to ping MongoDB", err)
	}

	logger.Info().Str("database", cfg.Database).Msg("connected to MongoDB")

	return &Client{
		client: client,
		db:     client.Database(cfg.Database),
		logger: logger,
	}, nil
}

// Database returns the application database handle.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Close disconnects the underlying client.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		c.logger.Error().Err(err).Msg("failed to disconnect from MongoDB")
		return err
	}
	return nil
}
