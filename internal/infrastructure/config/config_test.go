package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validSecret = "config-test-secret-0123456789abcdef"

// writeConfig drops YAML content into a temp file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/test.db
api:
  port: 9090
logging:
  level: debug
security:
  jwt:
    secret: "`+validSecret+`"
    access_token_ttl: 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want /tmp/test.db", cfg.Database.Path)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Security.JWT.AccessTokenTTL != 30 {
		t.Errorf("AccessTokenTTL = %d, want 30", cfg.Security.JWT.AccessTokenTTL)
	}

	// Unset values fall back to defaults.
	if cfg.Security.JWT.RefreshTokenTTL != defaultRefreshTTLMinutes {
		t.Errorf("RefreshTokenTTL = %d, want default %d", cfg.Security.JWT.RefreshTokenTTL, defaultRefreshTTLMinutes)
	}
	if cfg.Security.JWT.Issuer != "ratewise-core" {
		t.Errorf("Issuer = %q, want ratewise-core", cfg.Security.JWT.Issuer)
	}
	if cfg.Security.Revocation.SweepInterval != defaultSweepMinutes {
		t.Errorf("SweepInterval = %d, want default %d", cfg.Security.Revocation.SweepInterval, defaultSweepMinutes)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load() of missing file should fail")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/test.db
`)

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "secret") {
		t.Errorf("Load() without secret error = %v, want secret validation failure", err)
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	path := writeConfig(t, `
security:
  jwt:
    secret: "too-short"
`)

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "32") {
		t.Errorf("Load() with short secret error = %v, want length validation failure", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
api:
  port: 8080
security:
  jwt:
    secret: "`+validSecret+`"
`)

	t.Setenv("RATEWISE_API_PORT", "9999")
	t.Setenv("RATEWISE_DATABASE_PATH", "/override/db.sqlite")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Port != 9999 {
		t.Errorf("API.Port = %d, want env override 9999", cfg.API.Port)
	}
	if cfg.Database.Path != "/override/db.sqlite" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
}

func TestLoad_SecretFromEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/test.db
`)

	t.Setenv("RATEWISE_JWT_SECRET", validSecret)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Security.JWT.Secret != validSecret {
		t.Error("JWT secret should come from the environment")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.API.Port = 0 }, "api.port"},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"zero access ttl", func(c *Config) { c.Security.JWT.AccessTokenTTL = 0 }, "access_token_ttl"},
		{"zero refresh ttl", func(c *Config) { c.Security.JWT.RefreshTokenTTL = 0 }, "refresh_token_ttl"},
		{"zero sweep interval", func(c *Config) { c.Security.Revocation.SweepInterval = 0 }, "sweep_interval"},
		{"empty issuer", func(c *Config) { c.Security.JWT.Issuer = "" }, "issuer"},
		{"empty audience", func(c *Config) { c.Security.JWT.Audience = "" }, "audience"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.JWT.Secret = validSecret
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.GetAccessTokenTTL(); got != 15*time.Minute {
		t.Errorf("GetAccessTokenTTL() = %v, want 15m", got)
	}
	if got := cfg.GetRefreshTokenTTL(); got != 7*24*time.Hour {
		t.Errorf("GetRefreshTokenTTL() = %v, want 168h", got)
	}
	if got := cfg.GetSweepInterval(); got != time.Hour {
		t.Errorf("GetSweepInterval() = %v, want 1h", got)
	}
}
