// Package logging configures application logging: stderr for the
// interactive CLI, plus a rotated JSON log once configuration is
// available.
package logging

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits match the fetch log's historical rotation policy.
const (
	maxLogSizeMB  = 1
	maxLogBackups = 5
)

// Manager owns the process-wide logger lifecycle. It starts in bootstrap
// mode (text to stderr only) and upgrades to stderr plus rotated JSON file
// once the configuration file has been read.
type Manager struct {
	level *slog.LevelVar
	sink  *lumberjack.Logger
}

// NewManager installs a bootstrap logger and returns the manager.
func NewManager() *Manager {
	m := &Manager{level: new(slog.LevelVar)}
	m.level.Set(slog.LevelInfo)

	slog.SetDefault(slog.New(m.stderrHandler()))
	return m
}

// Upgrade enables file logging at the given path and applies the
// configured level. The file is rotated by size so unattended hosts never
// fill their disk. Returns an error if the handler cannot be built; the
// bootstrap logger stays active in that case.
func (m *Manager) Upgrade(logPath string, level slog.Level) error {
	m.level.Set(level)

	sink := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
	}

	handler := slogmulti.Fanout(
		m.stderrHandler(),
		m.fileHandler(sink),
	)

	if m.sink != nil {
		_ = m.sink.Close()
	}
	m.sink = sink

	slog.SetDefault(slog.New(handler))
	return nil
}

// SetLevel changes the log level at runtime.
func (m *Manager) SetLevel(level slog.Level) {
	m.level.Set(level)
}

// Close releases the log file, if open. Called on process exit.
func (m *Manager) Close() error {
	if m.sink != nil {
		err := m.sink.Close()
		m.sink = nil
		return err
	}
	return nil
}

func (m *Manager) stderrHandler() slog.Handler {
	return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: m.level})
}

func (m *Manager) fileHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: m.level})
}
