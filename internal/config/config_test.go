package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ListenAddr() != "127.0.0.1:37778" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Store.Driver = %q, want sqlite", cfg.Store.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9000
store:
  driver: memory
clock:
  timezone: Europe/Berlin
schedule:
  daily: "30 0 * * *"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("Store.Driver = %q", cfg.Store.Driver)
	}
	if cfg.Schedule.Daily != "30 0 * * *" || !cfg.Schedule.Enabled {
		t.Errorf("Schedule = %+v", cfg.Schedule)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("Location = %v, %v", loc, err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FIBDAY_SERVER_PORT", "4242")
	t.Setenv("FIBDAY_STORE_DRIVER", "redis")
	t.Setenv("FIBDAY_STORE_REDIS_PREFIX", "habits")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 4242 {
		t.Errorf("Server.Port = %d, want 4242", cfg.Server.Port)
	}
	if cfg.Store.Driver != "redis" || cfg.Store.Redis.Prefix != "habits" {
		t.Errorf("Store = %+v", cfg.Store)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load of missing explicit file succeeded")
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = "etcd"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted driver etcd")
	}

	cfg = Default()
	cfg.Clock.Timezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted bogus timezone")
	}
}
