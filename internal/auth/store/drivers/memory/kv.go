// Package memory provides an in-process ExpiringKV for single-node
// deployments and tests. Entries do not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/store"
)

type entry struct {
	value     string
	expiresAt time.Time
}

type KV struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

var (
	_ store.ExpiringKV = (*KV)(nil)
	_ store.Purger     = (*KV)(nil)
)

func NewKV() *KV {
	return &KV{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for expiry. Intended for tests.
func (kv *KV) WithClock(now func() time.Time) *KV {
	kv.now = now
	return kv
}

func (kv *KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.entries[key] = entry{value: value, expiresAt: kv.now().Add(ttl)}
	return nil
}

func (kv *KV) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	kv.mu.RLock()
	defer kv.mu.RUnlock()

	e, ok := kv.entries[key]
	if !ok || !kv.now().Before(e.expiresAt) {
		return "", store.ErrNotFound
	}
	return e.value, nil
}

func (kv *KV) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	delete(kv.entries, key)
	return nil
}

func (kv *KV) DeleteExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	now := kv.now()
	var n int64
	for k, e := range kv.entries {
		if !now.Before(e.expiresAt) {
			delete(kv.entries, k)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds.
func (kv *KV) Ping(context.Context) error { return nil }
