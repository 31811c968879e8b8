package connection_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"

	"satchel/internal/api"
	"satchel/internal/assets"
	"satchel/internal/config"
	"satchel/internal/connection"
	"satchel/internal/filerepo"
	"satchel/internal/logging"
	"satchel/internal/testsupport"
	"satchel/internal/transfer"
)

type failingViewsClient struct {
	*testsupport.FakeAPIClient
}

func (f *failingViewsClient) GetUserViews(ctx context.Context, userID string) (*api.QueryResult, error) {
	return nil, errors.New("connection refused")
}

func newManager(t *testing.T, cfg *config.Config) *connection.ConfigManager {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	repo := filerepo.New(afero.NewMemMapFs(), "/data")
	transfers := transfer.NewHTTPManager(repo, logging.NewNop())
	assetManager := assets.NewManager(st, repo, transfers, logging.NewNop())
	return connection.NewConfigManager(cfg, assetManager, logging.NewNop())
}

func TestSavedServers(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithServer(config.Server{
		ID:      "server-2",
		Name:    "Second",
		Address: "http://127.0.0.1:8097",
	}))
	manager := newManager(t, cfg)

	servers := manager.SavedServers()
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(servers))
	}
}

func TestConnectWithoutTokenIsSignedOut(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Servers[0].AccessToken = ""
	manager := newManager(t, cfg)

	result, err := manager.Connect(context.Background(), cfg.Servers[0], connection.Options{})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if result.State != connection.StateSignedOut {
		t.Fatalf("expected signed out, got %s", result.State)
	}
}

func TestConnectSignedIn(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := newManager(t, cfg)
	manager.SetClientFactory(func(server config.Server) api.Client {
		return testsupport.NewFakeAPIClient(server.ID)
	})

	result, err := manager.Connect(context.Background(), cfg.Servers[0], connection.Options{})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if result.State != connection.StateSignedIn {
		t.Fatalf("expected signed in, got %s", result.State)
	}
}

func TestConnectUnreachableServer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := newManager(t, cfg)
	manager.SetClientFactory(func(server config.Server) api.Client {
		return &failingViewsClient{testsupport.NewFakeAPIClient(server.ID)}
	})

	result, err := manager.Connect(context.Background(), cfg.Servers[0], connection.Options{})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if result.State != connection.StateUnavailable {
		t.Fatalf("expected unavailable, got %s", result.State)
	}
}

func TestAPIClientCachedPerServer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := newManager(t, cfg)

	first, err := manager.APIClient("server-1")
	if err != nil {
		t.Fatalf("APIClient failed: %v", err)
	}
	second, err := manager.APIClient("server-1")
	if err != nil {
		t.Fatalf("APIClient failed: %v", err)
	}
	if first != second {
		t.Fatal("expected cached client instance")
	}

	if _, err := manager.APIClient("nope"); err == nil {
		t.Fatal("expected error for unknown server")
	}
}
