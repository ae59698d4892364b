package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"basic_config": {
			"server_address": ":8000",
			"mongo_uri": "mongodb://localhost:27017/",
			"database_name": "ecommerce_chatbot_db",
			"oracle_provider": "gemini",
			"oracle_timeout_seconds": 20,
			"data_dir": "data"
		},
		"providers": {
			"gemini": {"model": "gemini-2.0-flash"}
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.BasicConfig.ServerAddress != ":8000" {
		t.Fatalf("unexpected server address %q", cfg.BasicConfig.ServerAddress)
	}
	if cfg.BasicConfig.OracleTimeoutSeconds != 20 {
		t.Fatalf("unexpected timeout %d", cfg.BasicConfig.OracleTimeoutSeconds)
	}
	if cfg.Providers["gemini"].Model != "gemini-2.0-flash" {
		t.Fatalf("provider config not loaded: %#v", cfg.Providers)
	}
	if cfg.BasicConfig.DataDir != filepath.Join(dir, "data") {
		t.Fatalf("relative data_dir not resolved against the config: %q", cfg.BasicConfig.DataDir)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected decode error")
	}
}
