package repository

import (
	"context"
	"fmt"
)

var usersSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		roles         TEXT[] NOT NULL DEFAULT ARRAY['USER'],
		primary_role  TEXT NOT NULL DEFAULT 'USER',
		enabled       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

var linksSchema = []string{
	`CREATE TABLE IF NOT EXISTS links (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL,
		original_url TEXT NOT NULL,
		short_code   VARCHAR(16) NOT NULL UNIQUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at   TIMESTAMPTZ NOT NULL,
		click_count  BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_links_user_id ON links (user_id)`,
}

// MigrateUsers создаёт таблицы auth сервиса
func MigrateUsers(ctx context.Context, db *PostgresDB) error {
	return migrate(ctx, db, usersSchema)
}

// MigrateLinks создаёт таблицы URL сервиса
func MigrateLinks(ctx context.Context, db *PostgresDB) error {
	return migrate(ctx, db, linksSchema)
}

func migrate(ctx context.Context, db *PostgresDB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}
