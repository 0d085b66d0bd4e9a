package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// TokenRepo tracks revocable token records in the auth_tokens table, keyed
// by the token's signature fragment. Existence of a row is necessary for a
// token to be considered valid.
type TokenRepo struct {
	db *sqlx.DB
}

func NewTokenRepo(db *sqlx.DB) *TokenRepo { return &TokenRepo{db: db} }

// Save records a freshly issued token. Re-issuing an identical token is a
// no-op rather than an error.
func (r *TokenRepo) Save(ctx context.Context, signature string, userID int64) error {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx,
		`INSERT INTO auth_tokens (signature, user_id) VALUES ($1, $2) ON CONFLICT (signature) DO NOTHING`,
		signature, userID)
	return err
}

// Exists reports whether a revocation-tracking record is present for the
// signature.
func (r *TokenRepo) Exists(ctx context.Context, signature string) (bool, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	var userID int64
	err = conn.GetContext(ctx, &userID,
		`SELECT user_id FROM auth_tokens WHERE signature = $1`, signature)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes the record for the signature. Deleting an unknown
// signature is not an error.
func (r *TokenRepo) Delete(ctx context.Context, signature string) error {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, `DELETE FROM auth_tokens WHERE signature = $1`, signature)
	return err
}
