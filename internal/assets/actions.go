package assets

import (
	"context"

	"github.com/google/uuid"

	"satchel/internal/logging"
	"satchel/internal/store"
)

// RecordUserAction assigns the action an id and persists it for later
// upload.
func (m *Manager) RecordUserAction(ctx context.Context, action *store.UserAction) error {
	action.ID = uuid.NewString()
	return m.store.SaveAction(ctx, action)
}

// UserActions returns the pending actions for a server, oldest first.
func (m *Manager) UserActions(ctx context.Context, serverID string) ([]*store.UserAction, error) {
	return m.store.ActionsForServer(ctx, serverID)
}

// DeleteUserAction removes one pending action.
func (m *Manager) DeleteUserAction(ctx context.Context, action *store.UserAction) error {
	_, err := m.store.RemoveAction(ctx, action.ID)
	return err
}

// DeleteUserActions removes a batch of pending actions. Failures are
// logged and do not stop the rest of the batch.
func (m *Manager) DeleteUserActions(ctx context.Context, actions []*store.UserAction) error {
	var firstErr error
	for _, action := range actions {
		if err := m.DeleteUserAction(ctx, action); err != nil {
			m.logger.Warn("failed to delete user action",
				logging.String("action_id", action.ID),
				logging.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
