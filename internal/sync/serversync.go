package sync

import (
	"context"
	"fmt"
	"log/slog"

	"satchel/internal/config"
	"satchel/internal/connection"
	"satchel/internal/logging"
)

// ServerSync validates the saved session for one server and, when
// signed in, runs a media sync pass against it.
type ServerSync struct {
	conn   connection.Manager
	media  *MediaSync
	logger *slog.Logger
}

// NewServerSync builds a per-server sync runner.
func NewServerSync(conn connection.Manager, mediaSync *MediaSync, logger *slog.Logger) *ServerSync {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ServerSync{
		conn:   conn,
		media:  mediaSync,
		logger: logging.NewComponentLogger(logger, "serversync"),
	}
}

// Sync syncs one saved server. Servers without a stored session are
// skipped silently; an unreachable or signed-out session is an error.
func (s *ServerSync) Sync(ctx context.Context, server config.Server, opts Options) error {
	if server.AccessToken == "" {
		s.logger.Info("skipping server, no saved session",
			logging.String("server_id", server.ID))
		return nil
	}

	// Background sync must not touch session state: no access-time
	// bump, no websocket, no capability report.
	result, err := s.conn.Connect(ctx, server, connection.Options{})
	if err != nil {
		return fmt.Errorf("connect to %s: %w", server.ID, err)
	}
	if result.State != connection.StateSignedIn {
		return fmt.Errorf("server %s not signed in: %s", server.ID, result.State)
	}

	client, err := s.conn.APIClient(server.ID)
	if err != nil {
		return err
	}
	return s.media.Sync(ctx, client, opts)
}
