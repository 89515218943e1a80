package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/domain"
)

const (
	getUserByIDQuery = `SELECT id, username, password_hash, created_at, updated_at
FROM users WHERE id = ?`

	getUserByUsernameQuery = `SELECT id, username, password_hash, created_at, updated_at
FROM users WHERE username = ?`

	createUserQuery = `INSERT INTO users (id, username, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`
)

type usersRepo struct {
	db  dbtx
	now func() time.Time
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, getUserByIDQuery, id)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getOne(ctx, getUserByUsernameQuery, username)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	updatedAt := u.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := r.db.ExecContext(ctx, createUserQuery,
		u.ID,
		u.Username,
		u.PasswordHash,
		createdAt.UTC(),
		updatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *usersRepo) getOne(ctx context.Context, query string, arg string) (domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}
