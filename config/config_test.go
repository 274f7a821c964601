package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalConfig = `cryptobridge:
  name: "TestBridge"
  version: "1.0"
exchanges:
  bitstamp:
    enabled: true
    api_key: "file-key"
    secret: "file-secret"
    uid: "42"
  gemini:
    enabled: true
    sandbox: true
    refresh_interval: 5m
`

// writeTempConfig writes content to a config file in a temp dir and returns
// its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"BITSTAMP_API_KEY", "BITSTAMP_SECRET", "BITSTAMP_UID", "GEMINI_API_KEY", "GEMINI_SECRET", "APP_ENV"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	clearCredentialEnv(t)

	cfg, err := LoadConfig(writeTempConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Cryptobridge.Name != "TestBridge" {
		t.Errorf("unexpected name: %s", cfg.Cryptobridge.Name)
	}
	if cfg.Exchanges.Bitstamp.UID != "42" || cfg.Exchanges.Bitstamp.APIKey != "file-key" {
		t.Errorf("unexpected bitstamp credentials: %+v", cfg.Exchanges.Bitstamp)
	}
	if cfg.Exchanges.Gemini.RefreshInterval != 5*time.Minute {
		t.Errorf("gemini refresh = %v", cfg.Exchanges.Gemini.RefreshInterval)
	}
	if cfg.Exchanges.Bitstamp.RefreshInterval != time.Hour {
		t.Errorf("bitstamp refresh default = %v", cfg.Exchanges.Bitstamp.RefreshInterval)
	}
	if cfg.Runtime.Timeout != 10*time.Second || cfg.Logging.Level != "info" {
		t.Errorf("defaults not applied: %+v %+v", cfg.Runtime, cfg.Logging)
	}
	if cfg.Metrics.Prometheus.Addr == "" || cfg.Metrics.CloudWatch.Namespace != "Cryptobridge" {
		t.Errorf("metric defaults not applied: %+v", cfg.Metrics)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("BITSTAMP_API_KEY", " env-key ")
	t.Setenv("GEMINI_SECRET", "env-secret")

	cfg, err := LoadConfig(writeTempConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Exchanges.Bitstamp.APIKey != "env-key" {
		t.Errorf("bitstamp key = %q", cfg.Exchanges.Bitstamp.APIKey)
	}
	if cfg.Exchanges.Bitstamp.Secret != "file-secret" {
		t.Errorf("unset env var must keep file value, got %q", cfg.Exchanges.Bitstamp.Secret)
	}
	if cfg.Exchanges.Gemini.Secret != "env-secret" {
		t.Errorf("gemini secret = %q", cfg.Exchanges.Gemini.Secret)
	}
}

func TestValidateConfig(t *testing.T) {
	clearCredentialEnv(t)

	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"missing name", "cryptobridge:\n  version: \"1\"\nexchanges:\n  gemini:\n    enabled: true\n", "cryptobridge.name"},
		{"no exchange", "cryptobridge:\n  name: x\n  version: \"1\"\n", "at least one exchange"},
		{"bad base url", "cryptobridge:\n  name: x\n  version: \"1\"\nexchanges:\n  bitstamp:\n    enabled: true\n    base_url: \"not a url\"\n", "base_url"},
		{"negative burst", "cryptobridge:\n  name: x\n  version: \"1\"\nruntime:\n  rate_limit:\n    burst_size: -1\nexchanges:\n  gemini:\n    enabled: true\n", "burst_size"},
		{"prometheus without addr", "cryptobridge:\n  name: x\n  version: \"1\"\nmetrics:\n  prometheus:\n    enabled: true\n    addr: \"\"\nexchanges:\n  gemini:\n    enabled: true\n", "metrics.prometheus.addr"},
	}
	for _, c := range cases {
		_, err := LoadConfig(writeTempConfig(t, c.content))
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: expected error containing %q, got %v", c.name, c.want, err)
		}
	}
}

func TestSandboxRejectedInProduction(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("APP_ENV", "prod")

	_, err := LoadConfig(writeTempConfig(t, minimalConfig))
	if err == nil || !strings.Contains(err.Error(), "sandbox") {
		t.Fatalf("expected sandbox error, got %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestResolveConfigPath(t *testing.T) {
	cases := []struct {
		env  string
		path string
		want string
	}{
		{"", "", DefaultConfigPath},
		{"", "custom.yml", "custom.yml"},
		{"prod", DefaultConfigPath, "config.production.yml"},
		{"staging", "", "config.staging.yml"},
		{"production", "custom.yml", "custom.yml"},
	}
	for _, c := range cases {
		t.Setenv("APP_ENV", c.env)
		if got := ResolveConfigPath(c.path); got != c.want {
			t.Errorf("APP_ENV=%q path=%q: got %q want %q", c.env, c.path, got, c.want)
		}
	}
}

func TestIsProductionLike(t *testing.T) {
	t.Setenv("APP_ENV", "stag")
	if !IsProductionLike(AppEnvironment()) {
		t.Fatalf("staging alias should be production-like")
	}
	t.Setenv("APP_ENV", "")
	if IsProductionLike(AppEnvironment()) {
		t.Fatalf("development should not be production-like")
	}
}
