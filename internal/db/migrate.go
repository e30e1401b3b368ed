package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Cascades live in the schema on purpose: deleting a user removes its cases
// and, transitively, their comments in one atomic statement. The application
// never loops over children.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS support_cases (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Open'
			CONSTRAINT support_cases_status_check CHECK (status IN ('Open', 'InProgress', 'Closed')),
		file_path TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		case_id BIGINT NOT NULL REFERENCES support_cases (id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		display_name TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS support_cases_user_id_idx ON support_cases (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS comments_case_id_idx ON comments (case_id, created_at)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
