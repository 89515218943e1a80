package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for durable records. Concrete
// drivers (sqlite) implement this and expose sub-repositories so callers
// only see the slice of the schema they need.
type Store interface {
	Users() Users

	// KV returns the driver's own expiring key-value table. Deployments can
	// swap it for another ExpiringKV (redis, memory) without touching Users.
	KV() ExpiringKV

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during sign-in. Lookup is exact and
	// case-sensitive.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the service via ULID).
	// A duplicate username yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error
}

// ExpiringKV is a string key-value store where every entry carries a TTL.
// Set overwrites unconditionally (last write wins). Get reports ErrNotFound
// for keys that are absent or past their TTL.
type ExpiringKV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Purger is implemented by ExpiringKV drivers that keep expired entries
// around until something removes them. Redis expires keys on its own and
// does not implement it.
type Purger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
