package config_test

import (
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/internal/config"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := config.FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultAddr, cfg.Addr)
	assert.Equal(t, config.StoreFile, cfg.Store)
	assert.Equal(t, config.DefaultSessionDir, cfg.SessionDir)
	assert.Equal(t, config.DefaultSessionTTL, cfg.SessionTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, config.DefaultPIIPatterns, cfg.PIIPatterns)
	assert.Nil(t, cfg.EncryptionKey)
	assert.Zero(t, cfg.Pacing)
	assert.False(t, cfg.FastMode)
}

func TestFromEnv_Overrides(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	old := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("o", 32)))

	cfg, err := config.FromEnv(env(map[string]string{
		"ONBOARD_STORE":               "Redis",
		"ONBOARD_LOG_LEVEL":           "debug",
		"ONBOARD_PACING":              "250ms",
		"ONBOARD_FAST_MODE":           "true",
		"ONBOARD_TRANSITIVE_CASCADE":  "1",
		"ONBOARD_ENCRYPTION_KEY":      key,
		"ONBOARD_ENCRYPTION_OLD_KEYS": old + ", ",
		"ONBOARD_PII_PATTERNS":        "email, phone",
		"OPENAI_MODEL":                "gpt-test",
	}))
	require.NoError(t, err)

	assert.Equal(t, config.StoreRedis, cfg.Store)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.Pacing)
	assert.True(t, cfg.FastMode)
	assert.True(t, cfg.TransitiveCascade)
	assert.Len(t, cfg.EncryptionKey, 32)
	require.Len(t, cfg.EncryptionOldKeys, 1)
	assert.Equal(t, []string{"email", "phone"}, cfg.PIIPatterns)
	assert.Equal(t, "gpt-test", cfg.OpenAIModel)
}

func TestFromEnv_Invalid(t *testing.T) {
	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	tests := map[string]map[string]string{
		"store":         {"ONBOARD_STORE": "postgres"},
		"level":         {"ONBOARD_LOG_LEVEL": "loud"},
		"pacing":        {"ONBOARD_PACING": "soon"},
		"negative ttl":  {"ONBOARD_SESSION_TTL": "-1h"},
		"fast mode":     {"ONBOARD_FAST_MODE": "maybe"},
		"key encoding":  {"ONBOARD_ENCRYPTION_KEY": "%%%"},
		"key length":    {"ONBOARD_ENCRYPTION_KEY": short},
		"pii pattern":   {"ONBOARD_PII_PATTERNS": "(email"},
		"old key alone": {"ONBOARD_ENCRYPTION_OLD_KEYS": base64.StdEncoding.EncodeToString(make([]byte, 32))},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.FromEnv(env(vars))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ONBOARD_ADDR=:9999\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("ONBOARD_ADDR", "")
	require.NoError(t, os.Unsetenv("ONBOARD_ADDR"))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
}
