package memento

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements an in-memory memento store with TTL support
type MemoryStore struct {
	data   sync.Map
	opts   Options
	cancel context.CancelFunc
}

// entry represents a memento held in memory
type entry struct {
	value      []byte
	expiration time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}

// NewMemoryStore creates a memory store with default options
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithOptions(DefaultOptions())
}

// NewMemoryStoreWithOptions creates a memory store and starts its sweeper
func NewMemoryStoreWithOptions(opts Options) *MemoryStore {
	ctx, cancel := context.WithCancel(context.Background())
	ms := &MemoryStore{
		opts:   opts,
		cancel: cancel,
	}

	go ms.sweep(ctx, time.Minute)

	return ms
}

// Get retrieves a memento
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullKey := m.opts.Prefix + key
	value, ok := m.data.Load(fullKey)
	if !ok {
		return nil, ErrNotFound{Key: key}
	}

	e := value.(entry)
	if e.expired(time.Now()) {
		m.data.Delete(fullKey)
		return nil, ErrNotFound{Key: key}
	}

	// callers may not mutate the stored bytes
	return append([]byte(nil), e.value...), nil
}

// Set stores a memento
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if ttl == 0 {
		ttl = m.opts.DefaultTTL
	}

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiration = time.Now().Add(ttl)
	}

	m.data.Store(m.opts.Prefix+key, e)
	return nil
}

// Delete removes a memento
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.data.Delete(m.opts.Prefix + key)
	return nil
}

// Exists checks if a memento is present
func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)
	if IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Close stops the background sweeper
func (m *MemoryStore) Close() error {
	if m.cancel != nil {
		m.cancel()
	}
	return nil
}

// sweep periodically removes expired mementos
func (m *MemoryStore) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.data.Range(func(key, value any) bool {
				if value.(entry).expired(now) {
					m.data.Delete(key)
				}
				return true
			})
		}
	}
}
