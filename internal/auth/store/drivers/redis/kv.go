// Package redis implements store.ExpiringKV on Redis. Expiry is enforced by
// the server, so there is nothing to purge.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/store"
	goredis "github.com/redis/go-redis/v9"
)

type KV struct {
	client goredis.UniversalClient
	prefix string
}

var _ store.ExpiringKV = (*KV)(nil)

// NewKV connects to the Redis server at url (redis://[user:pass@]host:port/db)
// and returns a KV that prefixes every key with prefix.
func NewKV(url, prefix string) (*KV, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewKVFromClient(goredis.NewClient(opts), prefix), nil
}

// NewKVFromClient wraps an existing client. Closing the KV closes the client.
func NewKVFromClient(client goredis.UniversalClient, prefix string) *KV {
	return &KV{client: client, prefix: prefix}
}

// Set writes value with a TTL in a single SET ... PX command, so there is no
// window where the key exists without an expiry.
func (kv *KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return kv.client.Set(ctx, kv.prefix+key, value, ttl).Err()
}

func (kv *KV) Get(ctx context.Context, key string) (string, error) {
	v, err := kv.client.Get(ctx, kv.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (kv *KV) Delete(ctx context.Context, key string) error {
	return kv.client.Del(ctx, kv.prefix+key).Err()
}

func (kv *KV) Ping(ctx context.Context) error {
	return kv.client.Ping(ctx).Err()
}

func (kv *KV) Close() error {
	return kv.client.Close()
}
