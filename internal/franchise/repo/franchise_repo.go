package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/pizzafoundry/pizza-service/internal/franchise/entity"
	userentity "github.com/pizzafoundry/pizza-service/internal/user/entity"
)

// ErrUnknownAdmin is returned when a submitted admin email does not resolve
// to an existing user. Nothing is persisted in that case.
var ErrUnknownAdmin = errors.New("unknown user for franchise admin")

// FranchiseRepo provides data access for the franchises, franchise_admins
// and stores tables. Every method checks out its own connection; dependent
// writes run inside one transaction so partial rows are never left behind.
type FranchiseRepo struct {
	db *sqlx.DB
}

func NewFranchiseRepo(db *sqlx.DB) *FranchiseRepo { return &FranchiseRepo{db: db} }

// Create resolves each admin entry by email, then inserts the franchise,
// its admin associations and the scoped franchisee roles as a single unit.
// The resolved admin ids and names are written back into f.
func (r *FranchiseRepo) Create(ctx context.Context, f *entity.Franchise) error {
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

	// resolve before any insert so an unknown email persists nothing
	for i := range f.Admins {
		err := tx.QueryRowxContext(ctx,
			`SELECT id, name FROM users WHERE email = $1`, f.Admins[i].Email).
			Scan(&f.Admins[i].ID, &f.Admins[i].Name)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnknownAdmin
		}
		if err != nil {
			return err
		}
	}

	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO franchises (name) VALUES ($1) RETURNING id`, f.Name).Scan(&f.ID); err != nil {
		return err
	}
	for _, a := range f.Admins {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO franchise_admins (franchise_id, user_id) VALUES ($1, $2)`, f.ID, a.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, $3)`,
			a.ID, userentity.RoleFranchisee, f.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID returns a franchise with admins and stores attached, or
// sql.ErrNoRows.
func (r *FranchiseRepo) GetByID(ctx context.Context, id int64) (*entity.Franchise, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var f entity.Franchise
	if err := conn.GetContext(ctx, &f, `SELECT id, name FROM franchises WHERE id = $1`, id); err != nil {
		return nil, err
	}
	if err := hydrate(ctx, conn, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListForUser returns all franchises the user administers, each with its
// nested admins and stores.
func (r *FranchiseRepo) ListForUser(ctx context.Context, userID int64) ([]entity.Franchise, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var franchises []entity.Franchise
	if err := conn.SelectContext(ctx, &franchises,
		`SELECT f.id, f.name FROM franchises f
		   JOIN franchise_admins fa ON fa.franchise_id = f.id
		  WHERE fa.user_id = $1 ORDER BY f.id`, userID); err != nil {
		return nil, err
	}
	for i := range franchises {
		if err := hydrate(ctx, conn, &franchises[i]); err != nil {
			return nil, err
		}
	}
	return franchises, nil
}

// ListAll returns every franchise with nested admins and stores.
func (r *FranchiseRepo) ListAll(ctx context.Context) ([]entity.Franchise, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var franchises []entity.Franchise
	if err := conn.SelectContext(ctx, &franchises,
		`SELECT id, name FROM franchises ORDER BY id`); err != nil {
		return nil, err
	}
	for i := range franchises {
		if err := hydrate(ctx, conn, &franchises[i]); err != nil {
			return nil, err
		}
	}
	return franchises, nil
}

// Delete cascades in one transaction: stores, then the franchisee roles
// scoped to this franchise, then admin associations, then the franchise
// row. Historical orders are retained. Returns sql.ErrNoRows for an unknown
// id.
func (r *FranchiseRepo) Delete(ctx context.Context, id int64) error {
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

	if _, err := tx.ExecContext(ctx, `DELETE FROM stores WHERE franchise_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_roles WHERE role = $1 AND object_id = $2`, userentity.RoleFranchisee, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM franchise_admins WHERE franchise_id = $1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM franchises WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// CreateStore inserts a store under the franchise. Returns sql.ErrNoRows
// when the franchise does not exist.
func (r *FranchiseRepo) CreateStore(ctx context.Context, franchiseID int64, st *entity.Store) error {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	var one int
	if err := conn.GetContext(ctx, &one, `SELECT 1 FROM franchises WHERE id = $1`, franchiseID); err != nil {
		return err
	}
	st.FranchiseID = franchiseID
	return conn.QueryRowxContext(ctx,
		`INSERT INTO stores (franchise_id, name) VALUES ($1, $2) RETURNING id`,
		franchiseID, st.Name).Scan(&st.ID)
}

// DeleteStore removes a store scoped to its parent franchise. Returns
// sql.ErrNoRows when no such store exists under that franchise.
func (r *FranchiseRepo) DeleteStore(ctx context.Context, franchiseID, storeID int64) error {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx,
		`DELETE FROM stores WHERE id = $1 AND franchise_id = $2`, storeID, franchiseID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func hydrate(ctx context.Context, conn *sqlx.Conn, f *entity.Franchise) error {
	if err := conn.SelectContext(ctx, &f.Admins,
		`SELECT u.id, u.name, u.email FROM franchise_admins fa
		   JOIN users u ON u.id = fa.user_id
		  WHERE fa.franchise_id = $1 ORDER BY fa.id`, f.ID); err != nil {
		return err
	}
	if f.Stores == nil {
		f.Stores = []entity.Store{}
	}
	return conn.SelectContext(ctx, &f.Stores,
		`SELECT id, name, revenue FROM stores WHERE franchise_id = $1 ORDER BY id`, f.ID)
}
