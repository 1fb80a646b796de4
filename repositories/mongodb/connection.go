package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/userauth-api/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const usersCollection = "users"

// DB wraps a connected client and the database holding the users collection
type DB struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *zap.Logger
}

// Connect dials MongoDB and verifies the primary is reachable
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURI()).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		client:   client,
		database: client.Database(cfg.DatabaseName()),
		logger:   logger,
	}, nil
}

// Users returns the users collection
func (db *DB) Users() *mongo.Collection {
	return db.database.Collection(usersCollection)
}

// HealthCheck pings the primary
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close disconnects the client
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}
