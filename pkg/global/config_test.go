package global

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.Port)
	assert.Equal(t, "roots_to_farm", cfg.MongoDatabase)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 168*time.Hour, cfg.JWTExpire)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins())
	assert.Empty(t, cfg.Brokers())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("RATE_LIMIT_MAX=7\nKAFKA_BROKERS=a:9092, b:9092\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("RATE_LIMIT_MAX")
		os.Unsetenv("KAFKA_BROKERS")
	})

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.RateLimitMax)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers())
}

func TestLoadConfigMissingEnvFileIsNotFatal(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestSuccessResponseKeysByResource(t *testing.T) {
	body := SuccessResponse("cart", 42)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 42, body["cart"])

	fields := SuccessFields(map[string]interface{}{"products": []int{1}, "total": 1})
	assert.Equal(t, true, fields["success"])
	assert.Equal(t, 1, fields["total"])
}
