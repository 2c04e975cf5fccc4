package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  postgres:
    connection-string: "host=localhost user=pythia dbname=events"
forecast:
  horizon-days: 21
  validation-strategy: recalibration
  refresh-cron: "30 2 * * *"
  cache-ttl: 10m
http:
  listen-addr: 127.0.0.1
  port: 9090
`)

	provider := NewYAMLProvider(path)
	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Database.Postgres == nil {
		t.Fatal("expected a postgres section")
	}
	if cfg.Database.Postgres.ConnectionString != "host=localhost user=pythia dbname=events" {
		t.Errorf("unexpected connection string: %s", cfg.Database.Postgres.ConnectionString)
	}
	if cfg.Database.SQLite != nil {
		t.Error("sqlite section should be absent")
	}
	if cfg.Forecast.HorizonDays != 21 {
		t.Errorf("expected horizon 21, got %d", cfg.Forecast.HorizonDays)
	}
	if cfg.Forecast.ValidationStrategy != "recalibration" {
		t.Errorf("unexpected strategy: %s", cfg.Forecast.ValidationStrategy)
	}
	if cfg.Forecast.RefreshCron != "30 2 * * *" {
		t.Errorf("unexpected refresh cron: %s", cfg.Forecast.RefreshCron)
	}
	if cfg.Forecast.CacheTTL != 10*time.Minute {
		t.Errorf("expected 10m cache TTL, got %v", cfg.Forecast.CacheTTL)
	}
	if cfg.HTTP.ListenAddr != "127.0.0.1" || cfg.HTTP.Port != 9090 {
		t.Errorf("unexpected http config: %+v", cfg.HTTP)
	}
}

func TestLoadConfigSQLite(t *testing.T) {
	path := writeConfig(t, `
database:
  sqlite:
    path: /var/lib/pythia/events.db
`)

	cfg, err := NewYAMLProvider(path).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Database.SQLite == nil || cfg.Database.SQLite.Path != "/var/lib/pythia/events.db" {
		t.Errorf("unexpected sqlite config: %+v", cfg.Database.SQLite)
	}
}

func TestLoadConfigDefaultsOmitted(t *testing.T) {
	path := writeConfig(t, `
database:
  sqlite:
    path: events.db
`)

	cfg, err := NewYAMLProvider(path).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Forecast.HorizonDays != 0 {
		t.Errorf("omitted horizon should be zero for the app to default, got %d", cfg.Forecast.HorizonDays)
	}
	if cfg.Forecast.CacheTTL != 0 {
		t.Errorf("omitted TTL should be zero, got %v", cfg.Forecast.CacheTTL)
	}
}

func TestLoadConfigBadTTL(t *testing.T) {
	path := writeConfig(t, `
forecast:
  cache-ttl: soon
`)

	if _, err := NewYAMLProvider(path).LoadConfig(); err == nil {
		t.Error("expected an error for an unparseable cache-ttl")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := NewYAMLProvider("/does/not/exist.yaml").LoadConfig(); err == nil {
		t.Error("expected an error for a missing file")
	}
}
