package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/config"
)

// Collection names. Feed stock keeps the legacy inventory collection.
const (
	CollFeedStock        = "feedinventories"
	CollFeedUsage        = "feedusages"
	CollEggProduction    = "eggproductions"
	CollSalesOrders      = "salesorders"
	CollTasks            = "taskschedulings"
	CollFinancialRecords = "financialrecords"
	CollMigrations       = "schema_migrations"
)

// Store owns the MongoDB client shared by every repository.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	useTx  bool
	logger *zap.Logger
}

// Connect dials MongoDB and pings it, retrying with a fixed delay. With
// cfg.ConnectAttempts at zero it retries until ctx is cancelled.
func Connect(ctx context.Context, cfg config.MongoDBConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 1; cfg.ConnectAttempts == 0 || attempt <= cfg.ConnectAttempts; attempt++ {
		client, err := dial(ctx, cfg.URI)
		if err == nil {
			logger.Info("connected to mongodb", zap.String("database", cfg.DBName), zap.Int("attempt", attempt))
			return &Store{
				client: client,
				db:     client.Database(cfg.DBName),
				useTx:  cfg.UseTransactions,
				logger: logger,
			}, nil
		}
		lastErr = err
		logger.Warn("mongodb connection failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", cfg.RetryDelay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("mongodb connect aborted: %w", ctx.Err())
		case <-time.After(cfg.RetryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to mongodb after %d attempts: %w", cfg.ConnectAttempts, lastErr)
}

func dial(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// Database exposes the underlying database handle.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// Health reports "connected" when the primary answers a ping.
func (s *Store) Health(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return "disconnected"
	}
	return "connected"
}

// WithTransaction runs fn inside a multi-document transaction. fn may be
// retried on transient errors so it must reload the state it works on.
// When transactions are disabled fn runs directly.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.useTx {
		return fn(ctx)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
