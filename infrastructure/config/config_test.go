package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(FileEnvVar, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, AuthNone, cfg.AuthMode)
	assert.Equal(t, 10*time.Second, cfg.PersistTimeout)
	assert.False(t, cfg.Domain.RequireUniqueVibeNames)
	assert.Equal(t, 100, cfg.DomainRules().MaxLinksPerIdea)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ideas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: sqlite
data_dir: /var/lib/ideas
persist_timeout: 3s
log_level: debug
domain:
  require_unique_vibe_names: true
  max_links_per_idea: 7
`), 0o600))

	t.Setenv(FileEnvVar, path)
	t.Setenv("IDEAS_LOG_LEVEL", "warn")
	t.Setenv("IDEAS_DOMAIN_MAX_LINKS_PER_IDEA", "9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "/var/lib/ideas", cfg.DataDir)
	assert.Equal(t, 3*time.Second, cfg.PersistTimeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Domain.RequireUniqueVibeNames)
	assert.Equal(t, 9, cfg.Domain.MaxLinksPerIdea)
}

func TestLoadRejectsUnknownFileKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ideas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bakend: file\n"), 0o600))
	t.Setenv(FileEnvVar, path)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.Backend = "redis" }, true},
		{"dynamodb without table", func(c *Config) { c.Backend = BackendDynamoDB; c.TableName = "" }, true},
		{"jwt without secret", func(c *Config) { c.AuthMode = AuthJWT }, true},
		{"jwt with secret", func(c *Config) { c.AuthMode = AuthJWT; c.JWTSecret = "s" }, false},
		{"supabase without key", func(c *Config) { c.AuthMode = AuthSupabase; c.SupabaseURL = "https://x" }, true},
		{"no auth in production", func(c *Config) { c.Environment = "production" }, true},
		{"zero timeout", func(c *Config) { c.PersistTimeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
