package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

// UserRepo implements ports.UserRepository with pgx.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByTokenHash returns the owner of an API token.
func (r *UserRepo) GetByTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	var u domain.User
	err := r.db.Pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.name, u.role, u.created_at
		FROM api_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1 AND (t.expires_at IS NULL OR t.expires_at > now())
	`, hash).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err, "token")
	}
	return &u, nil
}

// Create stores a user and its first API token atomically.
func (r *UserRepo) Create(ctx context.Context, u *domain.User, tokenHash string) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (email, name, role) VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, u.Email, u.Name, u.Role).Scan(&u.ID, &u.CreatedAt)
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Email, domain.ErrConflict)
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO api_tokens (token_hash, user_id) VALUES ($1, $2)`, tokenHash, u.ID)
		return err
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
