// Package database provides support for access to the document store.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

// ErrUnavailable is returned when the document store can't be reached.
var ErrUnavailable = errors.New("store unavailable")

// Config is the required properties to use the database.
type Config struct {
	URI                    string
	Name                   string
	MaxPoolSize            uint64
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

// DB represents a handle to the logical database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open configures the client for the document store. The driver connects
// lazily, so a store that is down at startup surfaces as ErrUnavailable on
// the first operation instead of failing the service.
func Open(cfg Config) (*DB, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout)

	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db := DB{
		client: client,
		db:     client.Database(cfg.Name),
	}

	return &db, nil
}

// Collection returns a handle for the named collection.
func (db *DB) Collection(name string) *mongo.Collection {
	return db.db.Collection(name)
}

// Close disconnects the client from the store.
func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// StatusCheck returns nil if it can successfully talk to the database. It
// returns a non-nil error otherwise.
func (db *DB) StatusCheck(ctx context.Context) error {
	if err := db.client.Ping(ctx, readpref.Primary()); err != nil {
		return Wrap(err)
	}
	return nil
}

// Wrap marks errors that mean the store could not be reached with
// ErrUnavailable so callers can decide to reject or degrade.
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	if IsUnavailable(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return err
}

// IsUnavailable reports whether the error means the store can't be reached.
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) || errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}

	var sse topology.ServerSelectionError
	if errors.As(err, &sse) {
		return true
	}

	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
