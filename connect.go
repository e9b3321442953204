package mango

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	dbMu     sync.RWMutex
	globalDB *mongo.Database
)

// SetupOptions configures Setup. Zero values fall back to localhost:27017.
type SetupOptions struct {
	Host string
	Port int
}

// Setup establishes the process-wide database handle used by all models.
// It takes a database name and optionally a host/port, and returns
// ErrAlreadySetup when a handle is already bound. Use Connect for an
// explicit connection URI or to rebind.
func Setup(ctx context.Context, dbName string, opts ...SetupOptions) (*mongo.Database, error) {
	dbMu.RLock()
	configured := globalDB != nil
	dbMu.RUnlock()
	if configured {
		return nil, ErrAlreadySetup
	}

	host, port := "localhost", 27017
	if len(opts) > 0 {
		if opts[0].Host != "" {
			host = opts[0].Host
		}
		if opts[0].Port != 0 {
			port = opts[0].Port
		}
	}

	return Connect(ctx, fmt.Sprintf("mongodb://%s:%d", host, port), dbName)
}

// Connect establishes a connection to MongoDB and returns the database handle.
// It also stores the database reference globally for use by Save/Find/Enforce
// and the CLI.
func Connect(ctx context.Context, uri string, dbName string) (*mongo.Database, error) {
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mango: failed to connect: %w", err)
	}

	// Ping to verify connection; release the pool if the server is unreachable
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mango: failed to ping: %w", err)
	}

	db := client.Database(dbName)

	dbMu.Lock()
	globalDB = db
	dbMu.Unlock()

	return db, nil
}

// DB returns the globally stored database reference.
// Returns nil if neither Setup nor Connect has been called.
func DB() *mongo.Database {
	dbMu.RLock()
	defer dbMu.RUnlock()
	return globalDB
}
