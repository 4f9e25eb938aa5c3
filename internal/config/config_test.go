package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"
  allowed_origins:
    - "https://crm.example.com"

import:
  catalog_path: "./catalog.yaml"
  country_prefix: "52"
  max_upload_mb: 5

storage:
  local_root: "./imports"
  s3_region: "us-west-2"
  aws_profile: "leads"
  http_max_retries: 5
  http_timeout_seconds: 45

log:
  level: "debug"
  redact_pii: false
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"https://crm.example.com"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "./catalog.yaml", cfg.Import.CatalogPath)
	assert.Equal(t, "52", cfg.Import.CountryPrefix)
	assert.Equal(t, int64(5<<20), cfg.Import.MaxUploadBytes())

	assert.Equal(t, "./imports", cfg.Storage.LocalRoot)
	assert.Equal(t, "us-west-2", cfg.Storage.S3Region)
	assert.Equal(t, "leads", cfg.Storage.AWSProfile)
	assert.Equal(t, 5, cfg.Storage.HTTPMaxRetries)
	assert.Equal(t, 45, cfg.Storage.HTTPTimeoutSeconds)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Redact())
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("server:\n  port: 0\n"), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.NotEmpty(t, cfg.Server.AllowedOrigins)
	assert.Equal(t, "", cfg.Import.CatalogPath)
	assert.Equal(t, "57", cfg.Import.CountryPrefix)
	assert.Equal(t, 10, cfg.Import.MaxUploadMB)
	assert.Equal(t, "us-east-1", cfg.Storage.S3Region)
	assert.Equal(t, 3, cfg.Storage.HTTPMaxRetries)
	assert.Equal(t, 30, cfg.Storage.HTTPTimeoutSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Redact())
}

func TestLoadFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
import:
  country_prefix: "57"
log:
  level: "info"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv("LEAD_COUNTRY_PREFIX", "52")
	t.Setenv("LEAD_CATALOG_PATH", "/etc/leads/catalog.yaml")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("PORT", "9191")
	t.Setenv("AWS_REGION", "sa-east-1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "52", cfg.Import.CountryPrefix)
	assert.Equal(t, "/etc/leads/catalog.yaml", cfg.Import.CatalogPath)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "sa-east-1", cfg.Storage.S3Region)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoadFromEnv_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unclosed"), 0644))
	_, err := LoadFromEnv(configPath)
	assert.Error(t, err)
}

func TestGetAWSProfile(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	t.Setenv("AWS_PROFILE_OVERRIDE", "")
	cfg := StorageConfig{AWSProfile: "leads"}
	assert.Equal(t, "leads", cfg.GetAWSProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "iam")
	assert.Equal(t, "", cfg.GetAWSProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "")
	t.Setenv("ECS_CONTAINER_METADATA_URI", "http://169.254.170.2/v4")
	assert.Equal(t, "", cfg.GetAWSProfile())
}

func TestServerAddr(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	t.Setenv("SERVER_HOST", "")
	cfg := ServerConfig{Host: "127.0.0.1", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
}

func TestHTTPTimeout(t *testing.T) {
	cfg := StorageConfig{HTTPTimeoutSeconds: 45}
	assert.Equal(t, 45*1000000000, int(cfg.HTTPTimeout().Nanoseconds()))
}
