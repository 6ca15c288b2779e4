package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected the default config to validate, got %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("Expected default addr 0.0.0.0:8080, got %s", cfg.Addr())
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("Expected 24h session TTL, got %s", cfg.SessionTTL())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "router.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 9090
  allowed_origins:
    - http://localhost:3000
escalation:
  extra_keywords:
    - ombudsman
faqs:
  - question: "Do you ship to Canada?"
    answer: "Yes, shipping to Canada takes 7-10 business days."
    keywords: ["canada", "international"]
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Expected to write the temp config, got %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.Host != "127.0.0.1" {
		t.Fatalf("Expected file values to apply, got %s", cfg.Addr())
	}
	if len(cfg.Escalation.ExtraKeywords) != 1 || cfg.Escalation.ExtraKeywords[0] != "ombudsman" {
		t.Fatalf("Expected the extra escalation keyword, got %v", cfg.Escalation.ExtraKeywords)
	}
	if len(cfg.FAQs) != 1 || cfg.FAQs[0].Question == "" {
		t.Fatalf("Expected one FAQ entry, got %v", cfg.FAQs)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Expected a missing file to fall back to defaults, got %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("Expected the default port, got %d", cfg.Server.Port)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "router.yaml")
	content := "server:\n  port: 9090\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Expected to write the temp config, got %v", err)
	}

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("Expected the environment to win, got %d", cfg.Server.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("Expected log level warn, got %s", cfg.LogLevel)
	}
}

func TestExpandEnvVarsInFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "router.yaml")
	content := "server:\n  port: 8080\nstorage:\n  redis_addr: ${TEST_REDIS_ADDR}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Expected to write the temp config, got %v", err)
	}

	t.Setenv("TEST_REDIS_ADDR", "redis.internal:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}
	if cfg.Storage.RedisAddr != "redis.internal:6379" {
		t.Fatalf("Expected ${VAR} expansion, got %q", cfg.Storage.RedisAddr)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected validation to reject port 0")
	}
}

func TestValidateRejectsFAQWithoutKeywords(t *testing.T) {
	cfg := Default()
	cfg.FAQs = []FAQEntry{{Question: "q", Answer: "a"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected validation to reject an FAQ entry without keywords")
	}
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected validation to reject an unknown log level")
	}
}
