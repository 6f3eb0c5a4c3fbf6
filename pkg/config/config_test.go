package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigSuccess(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	content := `{
		"database": {
			"host": "localhost",
			"user": "test-user",
			"password": "test-pass",
			"dbname": "testdb",
			"port": 5433,
			"sslmode": "disable"
		},
		"smtp": {
			"host": "smtp.example.com",
			"user": "alerts",
			"password": "secret",
			"from": "alerts@example.com"
		},
		"checker": {
			"item_delay_seconds": 2
		}
	}`

	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	if err := LoadConfig(configPath); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if AppConfig.Database.Host != "localhost" {
		t.Errorf("expected host to be localhost, got %q", AppConfig.Database.Host)
	}
	if AppConfig.Database.Port != 5433 {
		t.Errorf("expected port to be 5433, got %d", AppConfig.Database.Port)
	}
	if AppConfig.SMTP.Host != "smtp.example.com" {
		t.Errorf("expected smtp host to be smtp.example.com, got %q", AppConfig.SMTP.Host)
	}
	if AppConfig.SMTP.Port != 587 {
		t.Errorf("expected smtp port default 587, got %d", AppConfig.SMTP.Port)
	}
	if AppConfig.Checker.ItemDelaySeconds != 2 {
		t.Errorf("expected item delay 2, got %d", AppConfig.Checker.ItemDelaySeconds)
	}
	if AppConfig.Checker.DefaultFrequencyHours != 24 {
		t.Errorf("expected default frequency 24, got %d", AppConfig.Checker.DefaultFrequencyHours)
	}
	if AppConfig.Checker.NotifyThreshold != 5.00 {
		t.Errorf("expected notify threshold 5.00, got %v", AppConfig.Checker.NotifyThreshold)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	content := `{"database": {"host": "localhost", "port": 5432}, "smtp": {"host": "smtp.example.com"}}`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("SMTP_PASSWORD", "from-env")

	if err := LoadConfig(configPath); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if AppConfig.Database.Host != "db.internal" {
		t.Errorf("expected env override for host, got %q", AppConfig.Database.Host)
	}
	if AppConfig.Database.Port != 6543 {
		t.Errorf("expected env override for port, got %d", AppConfig.Database.Port)
	}
	if AppConfig.SMTP.Password != "from-env" {
		t.Errorf("expected env override for smtp password, got %q", AppConfig.SMTP.Password)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	original := AppConfig
	t.Cleanup(func() {
		AppConfig = original
	})

	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error when loading a missing config file")
	}
}
