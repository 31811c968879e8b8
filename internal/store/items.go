package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const itemColumns = "server_id, id, item_id, item_type, item_json, local_path, local_path_parts, sync_job_item_id, sync_status, created_at, updated_at"

// SaveItem upserts a local item record. The latest write wins.
func (s *Store) SaveItem(ctx context.Context, item *LocalItem) error {
	if item == nil {
		return errors.New("item is nil")
	}
	if item.ServerID == "" || item.ID == "" {
		return errors.New("item requires server id and id")
	}
	if item.Status == "" {
		item.Status = StatusQueued
	}

	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	itemJSON, err := json.Marshal(item.Item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}
	var pathParts any
	if len(item.LocalPathParts) > 0 {
		raw, err := json.Marshal(item.LocalPathParts)
		if err != nil {
			return fmt.Errorf("marshal path parts: %w", err)
		}
		pathParts = string(raw)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO local_items (`+itemColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (server_id, id) DO UPDATE SET
             item_id = excluded.item_id,
             item_type = excluded.item_type,
             item_json = excluded.item_json,
             local_path = excluded.local_path,
             local_path_parts = excluded.local_path_parts,
             sync_job_item_id = excluded.sync_job_item_id,
             sync_status = excluded.sync_status,
             updated_at = excluded.updated_at`,
		item.ServerID,
		item.ID,
		item.ItemID,
		item.Item.Type,
		string(itemJSON),
		nullableString(item.LocalPath),
		pathParts,
		nullableString(item.SyncJobItemID),
		item.Status,
		item.CreatedAt.Format(time.RFC3339Nano),
		item.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save item: %w", err)
	}
	return nil
}

// GetItem fetches one local item, or nil when absent.
func (s *Store) GetItem(ctx context.Context, serverID, id string) (*LocalItem, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM local_items WHERE server_id = ? AND id = ?`,
		serverID, id,
	)
	item, err := scanLocalItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes one local item record.
func (s *Store) RemoveItem(ctx context.Context, serverID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM local_items WHERE server_id = ? AND id = ?`, serverID, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ItemsForServer returns every local item for a server ordered by creation time.
func (s *Store) ItemsForServer(ctx context.Context, serverID string) ([]*LocalItem, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+itemColumns+` FROM local_items WHERE server_id = ? ORDER BY created_at`,
		serverID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*LocalItem
	for rows.Next() {
		item, err := scanLocalItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ItemsByStatus returns a server's items matching any of the given statuses.
func (s *Store) ItemsByStatus(ctx context.Context, serverID string, statuses ...SyncStatus) ([]*LocalItem, error) {
	if len(statuses) == 0 {
		return s.ItemsForServer(ctx, serverID)
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, 0, len(statuses)+1)
	args = append(args, serverID)
	for _, status := range statuses {
		args = append(args, status)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+itemColumns+` FROM local_items WHERE server_id = ? AND sync_status IN (`+placeholders+`) ORDER BY created_at`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()

	var items []*LocalItem
	for rows.Next() {
		item, err := scanLocalItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DistinctItemTypes returns the distinct item types present for a server.
// Backs virtual view synthesis.
func (s *Store) DistinctItemTypes(ctx context.Context, serverID string) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT DISTINCT item_type FROM local_items WHERE server_id = ? AND item_type != ''`,
		serverID,
	)
	if err != nil {
		return nil, fmt.Errorf("distinct item types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var itemType string
		if err := rows.Scan(&itemType); err != nil {
			return nil, err
		}
		types = append(types, itemType)
	}
	return types, rows.Err()
}

// ClearItems removes every local item for a server.
func (s *Store) ClearItems(ctx context.Context, serverID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM local_items WHERE server_id = ?`, serverID)
	if err != nil {
		return 0, fmt.Errorf("clear items: %w", err)
	}
	return res.RowsAffected()
}

// ItemStats returns a count of a server's items grouped by status.
func (s *Store) ItemStats(ctx context.Context, serverID string) (map[SyncStatus]int, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT sync_status, COUNT(1) FROM local_items WHERE server_id = ? GROUP BY sync_status`,
		serverID,
	)
	if err != nil {
		return nil, fmt.Errorf("item stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[SyncStatus]int)
	for rows.Next() {
		var status SyncStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func scanLocalItem(scanner interface{ Scan(dest ...any) error }) (*LocalItem, error) {
	var (
		serverID      string
		id            string
		itemID        string
		itemType      string
		itemJSON      string
		localPath     sql.NullString
		pathPartsRaw  sql.NullString
		syncJobItemID sql.NullString
		statusStr     string
		createdRaw    string
		updatedRaw    string
	)

	if err := scanner.Scan(
		&serverID,
		&id,
		&itemID,
		&itemType,
		&itemJSON,
		&localPath,
		&pathPartsRaw,
		&syncJobItemID,
		&statusStr,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &LocalItem{
		ServerID:      serverID,
		ID:            id,
		ItemID:        itemID,
		LocalPath:     localPath.String,
		SyncJobItemID: syncJobItemID.String,
		Status:        SyncStatus(statusStr),
	}
	if err := json.Unmarshal([]byte(itemJSON), &item.Item); err != nil {
		return nil, fmt.Errorf("unmarshal item %s/%s: %w", serverID, id, err)
	}
	if pathPartsRaw.Valid && pathPartsRaw.String != "" {
		if err := json.Unmarshal([]byte(pathPartsRaw.String), &item.LocalPathParts); err != nil {
			return nil, fmt.Errorf("unmarshal path parts %s/%s: %w", serverID, id, err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
