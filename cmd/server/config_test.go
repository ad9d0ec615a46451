package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  address: \":9090\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("address = %s", cfg.Server.Address)
	}
	if cfg.Monitor.PollInterval != 30*time.Second {
		t.Errorf("poll interval = %s, want default 30s", cfg.Monitor.PollInterval)
	}
	if cfg.Monitor.RetryInterval != 60*time.Second {
		t.Errorf("retry interval = %s, want default 60s", cfg.Monitor.RetryInterval)
	}
	if cfg.Database.Path != "data/logguard.db" {
		t.Errorf("db path = %s", cfg.Database.Path)
	}
	if cfg.App.Graylog.URL != "http://localhost:9000" {
		t.Errorf("seed graylog URL = %s", cfg.App.Graylog.URL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %s", cfg.Logging.Level)
	}
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":8081"
  token_ttl: 1h
monitor:
  query: "level:<4"
  poll_interval: 10s
  auto_start: true
  rate_limit:
    enabled: true
    max_per_minute: 5
smtp:
  host: smtp.example.com
  port: 587
  from: alerts@example.com
app:
  graylog:
    url: http://graylog:9000
    api_token: tok
  ai:
    url: http://openwebui:3000
    model: llama3.1
    language: italian
  notifications:
    telegram:
      enabled: true
      bot_token: "123:abc"
      chat_id: "-100"
    rules:
      - id: r1
        name: disk
        enabled: true
        match_string: "sda"
        email:
          enabled: true
          recipients: [ops@example.com]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.TokenTTL != time.Hour {
		t.Errorf("token ttl = %s", cfg.Server.TokenTTL)
	}
	if !cfg.Monitor.AutoStart || cfg.Monitor.Query != "level:<4" {
		t.Errorf("monitor = %+v", cfg.Monitor)
	}
	if cfg.SMTP == nil || cfg.SMTP.Host != "smtp.example.com" {
		t.Errorf("smtp = %+v", cfg.SMTP)
	}
	if cfg.App.Graylog.APIToken != "tok" {
		t.Errorf("graylog token = %q", cfg.App.Graylog.APIToken)
	}
	if cfg.App.AI.Language != "italian" {
		t.Errorf("language = %q", cfg.App.AI.Language)
	}
	if !cfg.App.Notifications.Telegram.Enabled {
		t.Error("telegram channel should be enabled")
	}
	if len(cfg.App.Notifications.Rules) != 1 || cfg.App.Notifications.Rules[0].MatchString != "sda" {
		t.Errorf("rules = %+v", cfg.App.Notifications.Rules)
	}
}

func TestLoadConfigInvalidRule(t *testing.T) {
	path := writeConfig(t, `
app:
  graylog:
    url: http://graylog:9000
  notifications:
    rules:
      - id: r1
        name: broken
        match_string: ""
        telegram:
          enabled: false
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("rule without match string should fail validation")
	}
}

func TestLoadConfigInvalidSMTP(t *testing.T) {
	path := writeConfig(t, "smtp:\n  host: relay.example.com\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("smtp without port and from should fail validation")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/does/not/exist.yaml"); err == nil {
		t.Fatal("missing file should error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOGGUARD_JWT_SECRET", "env-secret")
	t.Setenv("LOGGUARD_API_KEY", "env-key")

	cfg := DefaultConfig()
	if cfg.Server.JWTSecret != "env-secret" {
		t.Errorf("jwt secret = %q", cfg.Server.JWTSecret)
	}
	if cfg.Server.APIKey != "env-key" {
		t.Errorf("api key = %q", cfg.Server.APIKey)
	}
}

func TestWatchConfigReload(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: info\n")

	reloaded := make(chan *Config, 1)
	stop, err := watchConfig(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("watchConfig() error = %v", err)
	}
	defer stop()

	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Logging.Level != "debug" {
			t.Errorf("reloaded level = %s", cfg.Logging.Level)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("config change not observed")
	}
}
