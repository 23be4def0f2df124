package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("VPAY_SERVER_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://x")

	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Database.DSN != "postgres://x" || cfg.Database.Driver != "postgres" {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.Recommendation.WindowDays != 30 || cfg.Scheduler.RankInterval != 5*time.Minute {
		t.Fatalf("defaults = %+v %+v", cfg.Recommendation, cfg.Scheduler)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vpay.yaml")
	yaml := "database:\n  driver: sqlite\n  dsn: file::memory:\nrecommendation:\n  window_days: 45\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, loader, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Recommendation.WindowDays != 45 || cfg.Database.Driver != "sqlite" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if loader == nil {
		t.Fatalf("expected a loader")
	}
}
