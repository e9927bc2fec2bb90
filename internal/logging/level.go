package logging

import (
	"log/slog"
	"strings"
)

// DefaultLevel applies when LOG_LEVEL is unset or unrecognized.
const DefaultLevel = slog.LevelInfo

var levelNames = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ParseLevel maps a LOG_LEVEL value to its slog.Level, case-insensitively.
// Unrecognized values report ok=false along with DefaultLevel.
func ParseLevel(s string) (level slog.Level, ok bool) {
	level, ok = levelNames[strings.ToLower(s)]
	if !ok {
		return DefaultLevel, false
	}
	return level, true
}
