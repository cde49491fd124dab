package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dropDatabas3/gatehouse/internal/config"
)

func TestLoadDefaultsWithMemoryDriver(t *testing.T) {
	t.Setenv("GATEHOUSE_STORAGE_DRIVER", "memory")
	t.Setenv("GATEHOUSE_ENV", "")
	t.Setenv("GATEHOUSE_LOG_LEVEL", "")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.Env != "dev" {
		t.Errorf("expected default env dev, got %q", cfg.App.Env)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default level info, got %q", cfg.Log.Level)
	}
}

func TestLoadRequiresDSNForPostgres(t *testing.T) {
	t.Setenv("GATEHOUSE_STORAGE_DRIVER", "")
	t.Setenv("GATEHOUSE_DSN", "")
	if _, err := config.Load(""); err == nil {
		t.Fatal("expected error for postgres driver without dsn")
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  app_env: prod
log:
  level: warn
storage:
  driver: postgres
  dsn: postgres://file-dsn/db
  postgres:
    max_open_conns: 4
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GATEHOUSE_DSN", "postgres://env-dsn/db")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.Env != "prod" || cfg.Log.Level != "warn" {
		t.Errorf("yaml values not applied: %+v", cfg)
	}
	// El env pisa al YAML.
	if cfg.Storage.DSN != "postgres://env-dsn/db" {
		t.Errorf("env override not applied, got %q", cfg.Storage.DSN)
	}
	if cfg.Storage.Postgres.MaxOpenConns != 4 {
		t.Errorf("expected max_open_conns 4, got %d", cfg.Storage.Postgres.MaxOpenConns)
	}
}
