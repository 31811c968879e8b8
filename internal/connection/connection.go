// Package connection tracks saved servers and hands out authenticated
// API clients for them.
package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"satchel/internal/api"
	"satchel/internal/assets"
	"satchel/internal/config"
	"satchel/internal/logging"
)

// State is the outcome of a connection attempt.
type State string

const (
	StateSignedIn    State = "SignedIn"
	StateSignedOut   State = "SignedOut"
	StateUnavailable State = "ServerUnavailable"
)

// Options restricts what a connection attempt does. Background sync
// passes the zero value: no side effects beyond validating the session.
type Options struct {
	UpdateDateLastAccessed          bool
	EnableWebSocket                 bool
	ReportCapabilities              bool
	EnableAutomaticBitrateDetection bool
}

// Result describes a finished connection attempt.
type Result struct {
	State  State
	Server config.Server
}

// Manager enumerates saved servers and produces API clients for them.
type Manager interface {
	SavedServers() []config.Server
	Connect(ctx context.Context, server config.Server, opts Options) (*Result, error)
	APIClient(serverID string) (api.Client, error)
}

// ConfigManager is a Manager backed by the static server list in the
// configuration file. Clients are local-aware facades, built once per
// server and reused.
type ConfigManager struct {
	cfg    *config.Config
	assets *assets.Manager
	logger *slog.Logger

	// newClient builds the plain client for a server. Overridable so
	// tests can substitute a fake.
	newClient func(server config.Server) api.Client

	mu      sync.Mutex
	clients map[string]api.Client
}

// NewConfigManager builds a connection manager over the configured
// servers.
func NewConfigManager(cfg *config.Config, assetManager *assets.Manager, logger *slog.Logger) *ConfigManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	manager := &ConfigManager{
		cfg:     cfg,
		assets:  assetManager,
		logger:  logging.NewComponentLogger(logger, "connection"),
		clients: make(map[string]api.Client),
	}
	manager.newClient = func(server config.Server) api.Client {
		return api.NewHTTPClient(cfg, server, logger)
	}
	return manager
}

// SavedServers returns every configured server.
func (m *ConfigManager) SavedServers() []config.Server {
	servers := make([]config.Server, len(m.cfg.Servers))
	copy(servers, m.cfg.Servers)
	return servers
}

// Connect validates the saved session for a server. A server without a
// token is signed out; an unreachable server is unavailable.
func (m *ConfigManager) Connect(ctx context.Context, server config.Server, opts Options) (*Result, error) {
	if server.AccessToken == "" {
		return &Result{State: StateSignedOut, Server: server}, nil
	}

	client, err := m.APIClient(server.ID)
	if err != nil {
		return nil, err
	}

	// A cheap authenticated read proves the session is still valid.
	if _, err := client.GetUserViews(ctx, server.UserID); err != nil {
		m.logger.Warn("server connection failed",
			logging.String("server_id", server.ID),
			logging.Error(err))
		return &Result{State: StateUnavailable, Server: server}, nil
	}

	return &Result{State: StateSignedIn, Server: server}, nil
}

// APIClient returns the local-aware client for a saved server.
func (m *ConfigManager) APIClient(serverID string) (api.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, ok := m.clients[serverID]; ok {
		return client, nil
	}

	server := m.cfg.ServerByID(serverID)
	if server == nil {
		return nil, fmt.Errorf("unknown server %s", serverID)
	}

	client := api.NewFacade(m.newClient(*server), m.assets, m.logger)
	m.clients[serverID] = client
	return client, nil
}

// SetClientFactory overrides how plain clients are built. Intended for
// tests.
func (m *ConfigManager) SetClientFactory(factory func(server config.Server) api.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.newClient = factory
	m.clients = make(map[string]api.Client)
}

var _ Manager = (*ConfigManager)(nil)
