package config

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Defaults applied when the environment leaves a value unset.
const (
	DefaultAddr       = ":8080"
	DefaultSessionDir = ".onboard/sessions"
	DefaultRedisURL   = "redis://localhost:6379/0"
	DefaultSessionTTL = 30 * 24 * time.Hour
)

// DefaultPIIPatterns names the lead fields masked before sessions are stored.
var DefaultPIIPatterns = []string{`(?i)^email$`, `(?i)^phone$`, `(?i)^linkedin_url$`}

// Config holds process configuration read from the environment.
type Config struct {
	Addr     string
	LogLevel slog.Level

	Store      string
	SessionDir string
	RedisURL   string
	SessionTTL time.Duration

	CatalogPath string

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	// SQLitePath enables the bundled lead and campaign collaborators.
	SQLitePath string

	EncryptionKey     []byte
	EncryptionOldKeys [][]byte
	PIIPatterns       []string

	Pacing            time.Duration
	FastMode          bool
	TransitiveCascade bool
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "err", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Addr:          orDefault(getenv("ONBOARD_ADDR"), DefaultAddr),
		Store:         strings.ToLower(orDefault(getenv("ONBOARD_STORE"), StoreFile)),
		SessionDir:    orDefault(getenv("ONBOARD_SESSION_DIR"), DefaultSessionDir),
		RedisURL:      orDefault(getenv("REDIS_URL"), DefaultRedisURL),
		CatalogPath:   getenv("ONBOARD_CATALOG"),
		OpenAIKey:     getenv("OPENAI_API_KEY"),
		OpenAIModel:   getenv("OPENAI_MODEL"),
		OpenAIBaseURL: getenv("OPENAI_BASE_URL"),
		SQLitePath:    getenv("ONBOARD_SQLITE_PATH"),
		PIIPatterns:   DefaultPIIPatterns,
	}

	switch cfg.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return Config{}, fmt.Errorf("ONBOARD_STORE: unknown store %q (want memory, file or redis)", cfg.Store)
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getenv("ONBOARD_LOG_LEVEL")); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = parseDuration("ONBOARD_SESSION_TTL", getenv("ONBOARD_SESSION_TTL"), DefaultSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.Pacing, err = parseDuration("ONBOARD_PACING", getenv("ONBOARD_PACING"), 0); err != nil {
		return Config{}, err
	}
	if cfg.FastMode, err = parseBool("ONBOARD_FAST_MODE", getenv("ONBOARD_FAST_MODE")); err != nil {
		return Config{}, err
	}
	if cfg.TransitiveCascade, err = parseBool("ONBOARD_TRANSITIVE_CASCADE", getenv("ONBOARD_TRANSITIVE_CASCADE")); err != nil {
		return Config{}, err
	}

	if raw := getenv("ONBOARD_ENCRYPTION_KEY"); raw != "" {
		if cfg.EncryptionKey, err = decodeKey("ONBOARD_ENCRYPTION_KEY", raw); err != nil {
			return Config{}, err
		}
	}
	for _, raw := range splitList(getenv("ONBOARD_ENCRYPTION_OLD_KEYS")) {
		key, err := decodeKey("ONBOARD_ENCRYPTION_OLD_KEYS", raw)
		if err != nil {
			return Config{}, err
		}
		cfg.EncryptionOldKeys = append(cfg.EncryptionOldKeys, key)
	}
	if len(cfg.EncryptionOldKeys) > 0 && cfg.EncryptionKey == nil {
		return Config{}, fmt.Errorf("ONBOARD_ENCRYPTION_OLD_KEYS requires ONBOARD_ENCRYPTION_KEY")
	}
	if raw := getenv("ONBOARD_PII_PATTERNS"); raw != "" {
		cfg.PIIPatterns = splitList(raw)
		for _, p := range cfg.PIIPatterns {
			if _, err := regexp.Compile(p); err != nil {
				return Config{}, fmt.Errorf("ONBOARD_PII_PATTERNS: %w", err)
			}
		}
	}

	slog.Debug("environment variables loaded",
		"ONBOARD_ADDR", cfg.Addr,
		"ONBOARD_STORE", cfg.Store,
		"OPENAI_API_KEY_SET", cfg.OpenAIKey != "",
		"ONBOARD_SQLITE_PATH", cfg.SQLitePath,
		"ENCRYPTION", cfg.EncryptionKey != nil)
	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(raw string) (slog.Level, error) {
	if raw == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("ONBOARD_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func parseDuration(name, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", name)
	}
	return d, nil
}

func parseBool(name, raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}

// decodeKey accepts a standard base64 encoded AES-256 key.
func decodeKey(name, raw string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: key is not base64: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s: key must decode to 32 bytes, got %d", name, len(key))
	}
	return key, nil
}
