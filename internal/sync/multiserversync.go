package sync

import (
	"context"
	"log/slog"
	"sync/atomic"

	"satchel/internal/logging"
)

// MultiServerSync syncs every saved server in sequence. One failing
// server never blocks the others. Each instance allows a single pass at
// a time; overlapping calls return without doing anything.
type MultiServerSync struct {
	servers *ServerSync
	logger  *slog.Logger
	running atomic.Bool
}

// NewMultiServerSync builds the all-servers sync runner.
func NewMultiServerSync(serverSync *ServerSync, logger *slog.Logger) *MultiServerSync {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &MultiServerSync{
		servers: serverSync,
		logger:  logging.NewComponentLogger(logger, "multisync"),
	}
}

// Sync runs one pass over every saved server. Returns the number of
// servers that synced successfully.
func (m *MultiServerSync) Sync(ctx context.Context, opts Options) (int, error) {
	if !m.running.CompareAndSwap(false, true) {
		m.logger.Info("sync already running, skipping")
		return 0, nil
	}
	defer m.running.Store(false)

	synced := 0
	for _, server := range m.servers.conn.SavedServers() {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := m.servers.Sync(ctx, server, opts); err != nil {
			m.logger.Error("server sync failed",
				logging.String("server_id", server.ID),
				logging.Error(err))
			continue
		}
		synced++
	}
	return synced, nil
}
