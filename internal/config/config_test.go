package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{"PORT", "OVN_OPTIONS_SCHEMA", "OVN_OPTIONS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.SchemaFile != "" {
		t.Fatalf("expected embedded schema by default, got %s", cfg.SchemaFile)
	}
	if len(cfg.Options) != 0 {
		t.Fatalf("expected no option overrides, got %v", cfg.Options)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("unexpected log level: %s", cfg.LogLevel)
	}
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("OVN_OPTIONS", "source=cloud:bionic-rocky; ovn-bridge-mappings=physnet1:br-provider")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.Options["source"] != "cloud:bionic-rocky" || cfg.Options["ovn-bridge-mappings"] != "physnet1:br-provider" {
		t.Fatalf("unexpected options: %v", cfg.Options)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug log level, got %s", cfg.LogLevel)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("OVN_OPTIONS", "source=ppa:from/env;interface-bridge-mappings=eth1:br-ex")

	path := writeConfig(t, `
port: "9100"
schema_file: /etc/ovn/options.yaml
options:
  source: cloud:bionic-rocky
shutdown_grace_period: 3s
enable_request_logging: false
rate_limit:
  rps: 5
  burst: 10
`)

	port := "9200"
	cfg, err := Load(&CLIOverrides{
		ConfigFile: path,
		Port:       &port,
		Options:    map[string]string{"ovn-bridge-mappings": "physnet1:br-ex"},
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9200" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.SchemaFile != "/etc/ovn/options.yaml" {
		t.Fatalf("unexpected schema file: %s", cfg.SchemaFile)
	}
	want := map[string]string{
		"source":                    "cloud:bionic-rocky",
		"interface-bridge-mappings": "eth1:br-ex",
		"ovn-bridge-mappings":       "physnet1:br-ex",
	}
	for k, v := range want {
		if cfg.Options[k] != v {
			t.Fatalf("expected %s=%q, got %q", k, v, cfg.Options[k])
		}
	}
	if cfg.ShutdownGracePeriod != 3*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging to be disabled")
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 10 {
		t.Fatalf("unexpected rate limit: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadRejectsInvalidInput(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, "idle_timeout: soon\n")
		if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
			t.Fatalf("expected error for invalid duration")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "missing.yaml")
		if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		clearEnv(t)
		level := "chatty"
		if _, err := Load(&CLIOverrides{LogLevel: &level}); err == nil || !strings.Contains(err.Error(), "log level") {
			t.Fatalf("expected log level error, got %v", err)
		}
	})

	t.Run("bad env options", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OVN_OPTIONS", "source")
		if _, err := Load(nil); err == nil {
			t.Fatalf("expected error for malformed OVN_OPTIONS")
		}
	})
}

func TestParseAssignments(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := ParseAssignments([]string{"source=deb http://example.com/ubuntu bionic main|ABCD1234", " ", "ovn-bridge-mappings="})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["source"] != "deb http://example.com/ubuntu bionic main|ABCD1234" {
			t.Fatalf("unexpected source: %q", got["source"])
		}
		if v, ok := got["ovn-bridge-mappings"]; !ok || v != "" {
			t.Fatalf("expected empty assignment to be kept, got %q (%v)", v, ok)
		}
	})

	t.Run("value with equals", func(t *testing.T) {
		got, err := ParseAssignments([]string{"source=a=b"})
		if err != nil || got["source"] != "a=b" {
			t.Fatalf("unexpected result %v (%v)", got, err)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := ParseAssignments([]string{"=x"}); err == nil {
			t.Fatalf("expected error for missing name")
		}
		if _, err := ParseAssignments([]string{"source"}); err == nil {
			t.Fatalf("expected error for missing value separator")
		}
	})
}
