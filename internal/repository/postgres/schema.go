package postgres

import (
	"context"
	"fmt"
)

// the unique name constraint is what makes admission atomic
var schema = []string{
	`CREATE TABLE IF NOT EXISTS participants (
		id          uuid PRIMARY KEY,
		name        text NOT NULL UNIQUE,
		last_status timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS participants_last_status_idx ON participants (last_status)`,
	`CREATE TABLE IF NOT EXISTS messages (
		seq        bigserial PRIMARY KEY,
		id         uuid NOT NULL UNIQUE,
		from_name  text NOT NULL,
		to_name    text NOT NULL,
		text       text NOT NULL,
		type       text NOT NULL,
		time_label text NOT NULL
	)`,
}

func EnsureSchema(ctx context.Context, q querier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema (statement %d): %w", i, err)
		}
	}
	return nil
}
