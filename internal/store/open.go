package store

import (
	"context"
	"fmt"
)

// Options selects and configures a backend.
type Options struct {
	Backend string // memory, file, sqlite, redis or firestore

	DataDir    string
	SQLitePath string
	RedisURL   string

	GCPProjectID        string
	FirestoreDatabase   string
	FirestoreCollection string
	CredentialsFile     string
}

// Open constructs the backend named by opts.Backend. An empty backend
// selects the in-memory store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(opts.DataDir)
	case "sqlite":
		return NewSQLiteStore(opts.SQLitePath)
	case "redis":
		return NewRedisStore(ctx, opts.RedisURL)
	case "firestore":
		if opts.GCPProjectID == "" {
			return nil, fmt.Errorf("firestore backend requires GCP_PROJECT_ID")
		}
		return NewFirestoreStore(ctx, opts.GCPProjectID, opts.FirestoreDatabase, opts.FirestoreCollection, opts.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// Describe returns a short human-readable location for log lines.
func (o Options) Describe() string {
	switch o.Backend {
	case "file":
		return "file store (dir: " + o.DataDir + ")"
	case "sqlite":
		return "sqlite store (path: " + o.SQLitePath + ")"
	case "redis":
		return "redis store"
	case "firestore":
		db := o.FirestoreDatabase
		if db == "" {
			db = "(default)"
		}
		return fmt.Sprintf("firestore store (project: %s, database: %s, collection: %s)", o.GCPProjectID, db, o.FirestoreCollection)
	default:
		return "in-memory store"
	}
}
