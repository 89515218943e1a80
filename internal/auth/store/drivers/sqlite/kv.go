package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/store"
)

const (
	setKVQuery = `INSERT INTO kv_entries (key, value, expires_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`

	getKVQuery = `SELECT value FROM kv_entries WHERE key = ? AND expires_at > ?`

	deleteKVQuery = `DELETE FROM kv_entries WHERE key = ?`

	deleteExpiredKVQuery = `DELETE FROM kv_entries WHERE expires_at <= ?`
)

// kvRepo keeps expiring entries in the kv_entries table. Expiry is checked on
// read; rows past their deadline linger until DeleteExpired removes them.
type kvRepo struct {
	db  dbtx
	now func() time.Time
}

var (
	_ store.ExpiringKV = (*kvRepo)(nil)
	_ store.Purger     = (*kvRepo)(nil)
)

func (r *kvRepo) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	expiresAt := r.now().Add(ttl).UnixMilli()
	_, err := r.db.ExecContext(ctx, setKVQuery, key, value, expiresAt)
	return err
}

func (r *kvRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, getKVQuery, key, r.now().UnixMilli()).Scan(&value)
	if err != nil {
		return "", mapNotFound(err)
	}
	return value, nil
}

func (r *kvRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, deleteKVQuery, key)
	return err
}

// DeleteExpired removes every row whose deadline has passed and reports how
// many went.
func (r *kvRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredKVQuery, r.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
