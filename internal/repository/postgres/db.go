package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and applies the schema migration.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated")
	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price DOUBLE PRECISION NOT NULL DEFAULT 0,
			discount_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
			rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			stock INT NOT NULL DEFAULT 0,
			brand TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			thumbnail TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			total DOUBLE PRECISION NOT NULL DEFAULT 0,
			original_total DOUBLE PRECISION NOT NULL DEFAULT 0,
			savings DOUBLE PRECISION NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'placed',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id SERIAL PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			product_id TEXT NOT NULL,
			title TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL DEFAULT 0,
			discount_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
			quantity INT NOT NULL DEFAULT 1
		);
	`)
	return err
}
