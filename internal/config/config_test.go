package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ADDR", "APP_ENV", "LOG_LEVEL", "DB_DSN", "DB_NAME", "DB_TIMEOUT",
		"STORAGE_BUCKET", "STORAGE_REGION", "STORAGE_ENDPOINT", "STORAGE_ACCESS_KEY_ID",
		"STORAGE_SECRET_ACCESS_KEY", "STORAGE_SESSION_TOKEN", "STORAGE_CREDENTIALS_FILE",
		"STORAGE_PUBLIC_BASE_URL", "STORAGE_USE_PATH_STYLE", "STORAGE_LEGACY_JPG_NAMES",
		"UPLOAD_MAX_BYTES", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "TRUST_PROXY_HEADERS", "ENABLE_HSTS",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BUCKET", "bookstore-assets")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 5*time.Second, cfg.DBTimeout)
	assert.Equal(t, "bookstore-assets", cfg.Storage.Bucket)
	assert.Equal(t, "us-east-1", cfg.Storage.Region)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxImageBytes)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.False(t, cfg.Storage.LegacyJPGNames)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BUCKET", "covers")
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DSN", "mongodb://localhost:27017/books-collection")
	t.Setenv("DB_TIMEOUT", "750ms")
	t.Setenv("STORAGE_ENDPOINT", "http://localhost:9000")
	t.Setenv("STORAGE_USE_PATH_STYLE", "true")
	t.Setenv("STORAGE_LEGACY_JPG_NAMES", "1")
	t.Setenv("STORAGE_ACCESS_KEY_ID", "minio")
	t.Setenv("STORAGE_SECRET_ACCESS_KEY", "minio123")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://books.example.com")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "mongodb://localhost:27017/books-collection", cfg.DatabaseDSN)
	assert.Equal(t, 750*time.Millisecond, cfg.DBTimeout)
	assert.True(t, cfg.Storage.UsePathStyle)
	assert.True(t, cfg.Storage.LegacyJPGNames)
	assert.Equal(t, int64(1024), cfg.MaxImageBytes)
	assert.Equal(t, []string{"http://localhost:5173", "https://books.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestFromEnv_MissingBucket(t *testing.T) {
	clearEnv(t)

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_BUCKET is required")
}

func TestFromEnv_ReportsEveryInvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BUCKET", "covers")
	t.Setenv("DB_TIMEOUT", "soon")
	t.Setenv("UPLOAD_MAX_BYTES", "big")
	t.Setenv("STORAGE_ACCESS_KEY_ID", "only-half")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_TIMEOUT")
	assert.Contains(t, err.Error(), "UPLOAD_MAX_BYTES")
	assert.Contains(t, err.Error(), "must be set together")
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	clearEnv(t)
	tmp := t.TempDir()
	p := filepath.Join(tmp, ".env")

	if err := os.WriteFile(p, []byte("DB_DSN=from_file\nSTORAGE_BUCKET=from_file\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("DB_DSN", "from_env")
	// godotenv only fills unset variables, so drop the empty placeholder.
	_ = os.Unsetenv("STORAGE_BUCKET")

	cwd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	LoadEnvFiles()

	assert.Equal(t, "from_env", os.Getenv("DB_DSN"))
	assert.Equal(t, "from_file", os.Getenv("STORAGE_BUCKET"))
}
