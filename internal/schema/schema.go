package schema

import (
	"context"
	"database/sql"
	"os"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pizzafoundry/pizza-service/internal/user/entity"
)

type Config struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// ConfigFromEnv reads the seed admin account from environment variables.
func ConfigFromEnv() Config {
	cfg := Config{
		AdminName:     "admin",
		AdminEmail:    "admin@pizza.dev",
		AdminPassword: "admin",
	}
	if v := os.Getenv("DEFAULT_ADMIN_EMAIL"); v != "" {
		cfg.AdminEmail = v
	}
	if v := os.Getenv("DEFAULT_ADMIN_PASSWORD"); v != "" {
		cfg.AdminPassword = v
	}
	return cfg
}

// createStatements run in dependency order: parents before children.
var createStatements = []string{
	`CREATE TABLE users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL
	)`,
	`CREATE TABLE user_roles (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		role TEXT NOT NULL,
		object_id BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX idx_user_roles_user_id ON user_roles (user_id)`,
	`CREATE TABLE auth_tokens (
		signature TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX idx_auth_tokens_user_id ON auth_tokens (user_id)`,
	`CREATE TABLE menu_items (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		price NUMERIC(12,4) NOT NULL DEFAULT 0 CHECK (price >= 0)
	)`,
	`CREATE TABLE franchises (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE franchise_admins (
		id BIGSERIAL PRIMARY KEY,
		franchise_id BIGINT NOT NULL REFERENCES franchises(id),
		user_id BIGINT NOT NULL REFERENCES users(id)
	)`,
	`CREATE TABLE stores (
		id BIGSERIAL PRIMARY KEY,
		franchise_id BIGINT NOT NULL REFERENCES franchises(id),
		name TEXT NOT NULL,
		revenue NUMERIC(12,4) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE orders (
		id BIGSERIAL PRIMARY KEY,
		diner_id BIGINT NOT NULL REFERENCES users(id),
		franchise_id BIGINT NOT NULL,
		store_id BIGINT NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX idx_orders_diner_id ON orders (diner_id)`,
	`CREATE TABLE order_items (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id),
		menu_id BIGINT NOT NULL,
		description TEXT NOT NULL,
		price NUMERIC(12,4) NOT NULL
	)`,
}

type seedMenuItem struct {
	title, description, image string
	price                     float64
}

var seedMenu = []seedMenuItem{
	{"Veggie", "A garden of delight", "pizza1.png", 0.0038},
	{"Pepperoni", "Spicy treat", "pizza2.png", 0.0042},
	{"Margarita", "Essential classic", "pizza3.png", 0.0014},
}

// Ensure checks whether the schema exists and, if absent, creates all
// tables and seeds the default menu and global admin. Idempotent; safe to
// call on every process start. The caller treats an error as fatal.
func Ensure(ctx context.Context, db *sqlx.DB, cfg Config, logger *zap.SugaredLogger) error {
	conn, err := db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	// to_regclass returns NULL when the relation does not exist
	var tbl sql.NullString
	if err := conn.QueryRowxContext(ctx, `SELECT to_regclass('public.users')`).Scan(&tbl); err != nil {
		return err
	}
	if tbl.Valid {
		logger.Debug("schema already present, skipping bootstrap")
		return nil
	}

	logger.Info("creating schema and seeding baseline data")
	for _, ddl := range createStatements {
		if _, err := conn.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	var adminID int64
	if err := conn.QueryRowxContext(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		cfg.AdminName, cfg.AdminEmail, string(hash)).Scan(&adminID); err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, 0)`,
		adminID, entity.RoleAdmin); err != nil {
		return err
	}

	for _, item := range seedMenu {
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO menu_items (title, description, image, price) VALUES ($1, $2, $3, $4)`,
			item.title, item.description, item.image, item.price); err != nil {
			return err
		}
	}
	return nil
}
