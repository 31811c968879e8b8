package store

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS local_items (
        server_id        TEXT NOT NULL,
        id               TEXT NOT NULL,
        item_id          TEXT NOT NULL,
        item_type        TEXT NOT NULL DEFAULT '',
        item_json        TEXT NOT NULL,
        local_path       TEXT,
        local_path_parts TEXT,
        sync_job_item_id TEXT,
        sync_status      TEXT NOT NULL,
        created_at       TEXT NOT NULL,
        updated_at       TEXT NOT NULL,
        PRIMARY KEY (server_id, id)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_local_items_status
        ON local_items (server_id, sync_status)`,
	`CREATE TABLE IF NOT EXISTS user_actions (
        id             TEXT PRIMARY KEY,
        server_id      TEXT NOT NULL,
        user_id        TEXT,
        item_id        TEXT NOT NULL,
        type           TEXT NOT NULL,
        date           INTEGER NOT NULL,
        position_ticks INTEGER NOT NULL DEFAULT 0
    )`,
	`CREATE INDEX IF NOT EXISTS idx_user_actions_server
        ON user_actions (server_id)`,
}

func (s *Store) applySchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
