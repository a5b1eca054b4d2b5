package logging

import (
	"log/slog"
	"os"
	"strings"
)

const redacted = "[redacted]"

// New returns the process logger. It writes text to Stderr so stdout stays free for
// the chat, JSON lines and MCP stdio. "error" attributes are renamed to "err", and
// attributes that look like credentials are redacted.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	})).With("app", "onboard")
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	key := strings.ToLower(a.Key)
	if strings.Contains(key, "api_key") || strings.Contains(key, "secret") || strings.HasSuffix(key, "password") {
		return slog.String(a.Key, redacted)
	}
	return a
}
