package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
storage:
  type: minio
jwt:
  secret: short
`)
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Server.Port != "8000" {
		t.Errorf("port = %q, want 8000", cfg.Server.Port)
	}
	if cfg.JWT.ExpireTime != 24*time.Hour {
		t.Errorf("jwt expiry = %v, want 24h", cfg.JWT.ExpireTime)
	}
	if cfg.OTPExpiry() != 5*time.Minute {
		t.Errorf("otp expiry = %v, want 5m", cfg.OTPExpiry())
	}
	if cfg.OTPMaxAttempts() != 5 {
		t.Errorf("otp max attempts = %d, want 5", cfg.OTPMaxAttempts())
	}
	if cfg.Leaderboard.DefaultLimit != 50 || cfg.Leaderboard.MaxLimit != 100 {
		t.Errorf("leaderboard limits = %+v", cfg.Leaderboard)
	}
}

func TestLoadConfigReleaseRequiresLongSecret(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
storage:
  type: minio
jwt:
  secret: too-short
`)
	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected error for short secret in release mode")
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{
		Database:    DatabaseConfig{Driver: "oracle"},
		Leaderboard: LeaderboardConfig{DefaultLimit: 50, MaxLimit: 100},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestIsAdminPhone(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{AdminPhones: []string{"+919999999999"}}}
	if !cfg.IsAdminPhone("+919999999999") {
		t.Error("configured phone should be admin")
	}
	if cfg.IsAdminPhone("+919876543210") {
		t.Error("other phone should not be admin")
	}
}
