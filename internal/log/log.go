package log

import (
	"log/slog"
	"os"
	"strings"
)

var Logger *slog.Logger

// Init installs the default slog logger at the given level, writing to
// stderr — stdout is reserved for the proxy's and client's framed
// request/response bytes and must never carry a stray log line (§7:
// "clipboard contents are never written to logs", but just as critically,
// logs are never written to the wire).
func Init(level string) error {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	Logger = slog.New(h)
	slog.SetDefault(Logger)
	return nil
}
