package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/pizzafoundry/pizza-service/internal/order/entity"
)

// ErrUnknownStore is returned when an order references a store that does
// not exist under the given franchise.
var ErrUnknownStore = errors.New("unknown franchise or store")

// OrderRepo provides data access for the menu_items, orders and
// order_items tables.
type OrderRepo struct {
	db *sqlx.DB
}

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// AddMenuItem inserts a catalog item and writes the assigned id back.
func (r *OrderRepo) AddMenuItem(ctx context.Context, item *entity.MenuItem) error {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.QueryRowxContext(ctx,
		`INSERT INTO menu_items (title, description, image, price) VALUES ($1, $2, $3, $4) RETURNING id`,
		item.Title, item.Description, item.Image, item.Price).Scan(&item.ID)
}

// GetMenu returns all catalog items in insertion order.
func (r *OrderRepo) GetMenu(ctx context.Context) ([]entity.MenuItem, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var menu []entity.MenuItem
	if err := conn.SelectContext(ctx, &menu,
		`SELECT id, title, description, image, price FROM menu_items ORDER BY id`); err != nil {
		return nil, err
	}
	return menu, nil
}

// AddOrder inserts the order header and its items and bumps the store's
// accumulated revenue, all in one transaction. The referenced store must
// exist under the referenced franchise or ErrUnknownStore is returned and
// nothing persists.
func (r *OrderRepo) AddOrder(ctx context.Context, dinerID int64, o *entity.Order) error {
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

	var one int
	err = tx.QueryRowxContext(ctx,
		`SELECT 1 FROM stores WHERE id = $1 AND franchise_id = $2`, o.StoreID, o.FranchiseID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnknownStore
	}
	if err != nil {
		return err
	}

	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO orders (diner_id, franchise_id, store_id, reference) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		dinerID, o.FranchiseID, o.StoreID, o.Reference).Scan(&o.ID, &o.Date); err != nil {
		return err
	}
	for i := range o.Items {
		if err := tx.QueryRowxContext(ctx,
			`INSERT INTO order_items (order_id, menu_id, description, price) VALUES ($1, $2, $3, $4) RETURNING id`,
			o.ID, o.Items[i].MenuID, o.Items[i].Description, o.Items[i].Price).Scan(&o.Items[i].ID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE stores SET revenue = revenue + $1 WHERE id = $2`, o.Total(), o.StoreID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListForDiner returns one page of the diner's own orders, oldest first,
// with items attached.
func (r *OrderRepo) ListForDiner(ctx context.Context, dinerID int64, limit, offset int) ([]entity.Order, error) {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var orders []entity.Order
	if err := conn.SelectContext(ctx, &orders,
		`SELECT id, franchise_id, store_id, reference, created_at FROM orders
		  WHERE diner_id = $1 ORDER BY id LIMIT $2 OFFSET $3`, dinerID, limit, offset); err != nil {
		return nil, err
	}
	for i := range orders {
		if err := conn.SelectContext(ctx, &orders[i].Items,
			`SELECT id, menu_id, description, price FROM order_items WHERE order_id = $1 ORDER BY id`,
			orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}
