package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/pizzafoundry/pizza-service/internal/user/entity"
)

// UserRepo provides data access for the users and user_roles tables.
// Every method checks out its own connection and releases it on all paths;
// multi-statement units run inside a transaction on that connection.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts the user row and its role assignments in one transaction.
// The assigned id is written back into u.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		u.Name, u.Email, u.PasswordHash).Scan(&u.ID); err != nil {
		return err
	}
	for _, role := range u.Roles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, $3)`,
			u.ID, role.Role, role.ObjectID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByEmail returns the full user row including the credential hash, with
// roles attached, or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var u entity.User
	if err := conn.GetContext(ctx, &u,
		`SELECT id, name, email, password_hash FROM users WHERE email = $1`, email); err != nil {
		return nil, err
	}
	if u.Roles, err = loadRoles(ctx, conn, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns the user with roles attached, or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var u entity.User
	if err := conn.GetContext(ctx, &u,
		`SELECT id, name, email, password_hash FROM users WHERE id = $1`, id); err != nil {
		return nil, err
	}
	if u.Roles, err = loadRoles(ctx, conn, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update applies the non-empty fields to the user row. A credential change
// also removes the user's outstanding token records in the same transaction
// so previously issued tokens stop validating immediately.
func (r *UserRepo) Update(ctx context.Context, id int64, name, email, passwordHash string) error {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sets []string
	var args []any
	if name != "" {
		args = append(args, name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if email != "" {
		args = append(args, email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}
	if passwordHash != "" {
		args = append(args, passwordHash)
		sets = append(sets, fmt.Sprintf("password_hash = $%d", len(args)))
	}
	if len(sets) > 0 {
		args = append(args, id)
		q := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sql.ErrNoRows
		}
	}
	if passwordHash != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes the user, its role assignments and any outstanding token
// records in one transaction. Returns sql.ErrNoRows for an unknown id.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// List returns up to limit users ordered by id, optionally filtered by a
// LIKE pattern on name, with roles attached. The caller requests one row
// beyond the page size to detect further results.
func (r *UserRepo) List(ctx context.Context, limit, offset int, namePattern string) ([]entity.User, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var users []entity.User
	if namePattern == "" {
		err = conn.SelectContext(ctx, &users,
			`SELECT id, name, email FROM users ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		err = conn.SelectContext(ctx, &users,
			`SELECT id, name, email FROM users WHERE name LIKE $1 ORDER BY id LIMIT $2 OFFSET $3`,
			namePattern, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Roles, err = loadRoles(ctx, conn, users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func loadRoles(ctx context.Context, conn *sqlx.Conn, userID int64) ([]entity.Role, error) {
	var roles []entity.Role
	if err := conn.SelectContext(ctx, &roles,
		`SELECT role, object_id FROM user_roles WHERE user_id = $1 ORDER BY id`, userID); err != nil {
		return nil, err
	}
	return roles, nil
}
