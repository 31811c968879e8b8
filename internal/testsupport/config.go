package testsupport

import (
	"path/filepath"
	"testing"

	"satchel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test
// and a single registered server. It defaults common fields and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Client.DeviceID = "test-device"
	cfgVal.Client.DeviceName = "test"
	cfgVal.Servers = []config.Server{
		{
			ID:          "server-1",
			Name:        "Test Server",
			Address:     "http://127.0.0.1:8096",
			AccessToken: "token-1",
			UserID:      "user-1",
		},
	}

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithServer appends an extra server entry to the test config.
func WithServer(server config.Server) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Servers = append(b.cfg.Servers, server)
	}
}

// WithoutServers clears the registered server list.
func WithoutServers() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Servers = nil
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
