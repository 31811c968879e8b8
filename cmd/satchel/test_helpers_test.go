package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"satchel/internal/config"
	"satchel/internal/store"
	"satchel/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)

	configPath := filepath.Join(homeDir, ".config", "satchel", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

// seedStore opens the item store, hands it to fn, and closes it again so
// the CLI invocation under test can take the data-directory lock.
func (env *cliTestEnv) seedStore(t *testing.T, fn func(st *store.Store)) {
	t.Helper()
	st, err := store.Open(env.cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	fn(st)
	if err := st.Close(); err != nil {
		t.Fatalf("store.Close: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	cmd.SetContext(context.Background())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var builder strings.Builder
	fmt.Fprintf(&builder, "[paths]\ndata_dir = %q\nlog_dir = %q\n\n", cfg.Paths.DataDir, cfg.Paths.LogDir)
	fmt.Fprintf(&builder, "[client]\ndevice_id = %q\n", cfg.Client.DeviceID)
	for _, server := range cfg.Servers {
		fmt.Fprintf(&builder, "\n[[server]]\nid = %q\nname = %q\naddress = %q\naccess_token = %q\nuser_id = %q\n",
			server.ID, server.Name, server.Address, server.AccessToken, server.UserID)
	}
	if err := os.WriteFile(path, []byte(builder.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
