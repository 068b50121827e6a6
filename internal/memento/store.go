package memento

import (
	"context"
	"fmt"
	"time"

	"github.com/conduit-lang/metamodel/internal/config"
)

// Store keeps serialized mementos by key.
type Store interface {
	// Get retrieves a memento
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a memento; a zero ttl uses the store's default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a memento
	Delete(ctx context.Context, key string) error

	// Exists checks if a memento is present
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases the store's resources
	Close() error
}

// Options holds configuration common to the store backends
type Options struct {
	// DefaultTTL bounds how long mementos are kept; zero keeps them forever
	DefaultTTL time.Duration
	// Prefix is prepended to all keys
	Prefix string
}

// DefaultOptions returns the default store options
func DefaultOptions() Options {
	return Options{
		DefaultTTL: 24 * time.Hour,
		Prefix:     "memento:",
	}
}

// ErrNotFound is returned when no memento is stored under a key
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	return "memento not found: " + e.Key
}

// IsNotFound checks if an error is a missing memento
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}

// Open returns the store selected by cfg.
func Open(cfg config.MementoConfig) (Store, error) {
	opts := Options{DefaultTTL: cfg.TTL, Prefix: cfg.Prefix}
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStoreWithOptions(opts), nil
	case "redis":
		return NewRedisStoreWithConfig(RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Options:  opts,
		})
	default:
		return nil, fmt.Errorf("unknown memento backend %q", cfg.Backend)
	}
}
