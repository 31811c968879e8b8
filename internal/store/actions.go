package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const actionColumns = "id, server_id, user_id, item_id, type, date, position_ticks"

// SaveAction upserts a pending user action.
func (s *Store) SaveAction(ctx context.Context, action *UserAction) error {
	if action == nil {
		return errors.New("action is nil")
	}
	if action.ID == "" {
		return errors.New("action requires an id")
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO user_actions (`+actionColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET
             server_id = excluded.server_id,
             user_id = excluded.user_id,
             item_id = excluded.item_id,
             type = excluded.type,
             date = excluded.date,
             position_ticks = excluded.position_ticks`,
		action.ID,
		action.ServerID,
		nullableString(action.UserID),
		action.ItemID,
		action.Type,
		action.Date,
		action.PositionTicks,
	)
	if err != nil {
		return fmt.Errorf("save action: %w", err)
	}
	return nil
}

// GetAction fetches one pending action, or nil when absent.
func (s *Store) GetAction(ctx context.Context, id string) (*UserAction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM user_actions WHERE id = ?`, id)
	action, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get action: %w", err)
	}
	return action, nil
}

// ActionsForServer returns every pending action for a server ordered by date.
func (s *Store) ActionsForServer(ctx context.Context, serverID string) ([]*UserAction, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+actionColumns+` FROM user_actions WHERE server_id = ? ORDER BY date`,
		serverID,
	)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var actions []*UserAction
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

// RemoveAction deletes one pending action.
func (s *Store) RemoveAction(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_actions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete action: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearActions removes every pending action for a server.
func (s *Store) ClearActions(ctx context.Context, serverID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_actions WHERE server_id = ?`, serverID)
	if err != nil {
		return 0, fmt.Errorf("clear actions: %w", err)
	}
	return res.RowsAffected()
}

func scanAction(scanner interface{ Scan(dest ...any) error }) (*UserAction, error) {
	var (
		action UserAction
		userID sql.NullString
	)
	if err := scanner.Scan(
		&action.ID,
		&action.ServerID,
		&userID,
		&action.ItemID,
		&action.Type,
		&action.Date,
		&action.PositionTicks,
	); err != nil {
		return nil, err
	}
	action.UserID = userID.String
	return &action, nil
}
