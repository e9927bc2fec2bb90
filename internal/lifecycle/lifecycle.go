// Package lifecycle orchestrates the install, reschedule, status, and
// uninstall flows on top of the scheduler backends and the config layer.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"photoframe/internal/config"
	"photoframe/internal/fsutil"
	"photoframe/internal/scheduler"
	"photoframe/internal/store"
)

// statusLogLines is how much recent activity Status returns.
const statusLogLines = 20

// Manager wires host detection, the scheduler backend, and the config
// layer together. The function fields exist so tests can substitute the
// host-dependent pieces.
type Manager struct {
	executor scheduler.CommandExecutor
	detect   func() scheduler.Kind
	binary   func() (string, error)
}

// NewManager creates a Manager driving the real host.
func NewManager() *Manager {
	return &Manager{
		executor: scheduler.NewCommandExecutor(),
		detect:   scheduler.Detect,
		binary:   os.Executable,
	}
}

// InstallResult reports what Install did.
type InstallResult struct {
	// ConfigCreated is true when no configuration existed and a template
	// was written instead of installing the schedule. The caller should
	// tell the user to fill it in and run install again.
	ConfigCreated bool

	// ConfigPath is where the configuration lives.
	ConfigPath string

	Kind            scheduler.Kind
	IntervalMinutes int
	Expression      string
}

// Install sets up the application environment and schedules the fetch
// job. On a host without configuration it writes a commented template
// and returns early; that is a success, not an error.
func (m *Manager) Install(ctx context.Context) (*InstallResult, error) {
	if !config.Exists() {
		if err := config.WriteTemplate(); err != nil {
			return nil, err
		}
		slog.Info("wrote configuration template", "path", config.FilePath())
		return &InstallResult{ConfigCreated: true, ConfigPath: config.FilePath()}, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := m.prepareEnvironment(cfg); err != nil {
		return nil, err
	}

	return m.schedule(ctx, cfg.FetchInterval)
}

// Reschedule changes the fetch interval. A non-positive request falls
// back to the default interval with a warning rather than failing. A
// missing configuration file is recreated from the template first so the
// interval has somewhere to persist.
func (m *Manager) Reschedule(ctx context.Context, minutes int) (*InstallResult, error) {
	if minutes <= 0 {
		slog.Warn("invalid interval requested, using default",
			"requested", minutes,
			"default", config.DefaultFetchInterval)
		minutes = config.DefaultFetchInterval
	}

	if !config.Exists() {
		if err := config.WriteTemplate(); err != nil {
			return nil, err
		}
		slog.Info("recreated missing configuration template", "path", config.FilePath())
	}

	return m.schedule(ctx, minutes)
}

// schedule translates the interval for the detected mechanism, installs
// the job definition, and persists the effective interval.
func (m *Manager) schedule(ctx context.Context, minutes int) (*InstallResult, error) {
	kind := m.detect()
	expression, err := scheduler.Translate(minutes, kind)
	if err != nil {
		return nil, err
	}

	job, err := m.job(expression)
	if err != nil {
		return nil, err
	}

	backend := scheduler.NewBackend(kind, m.executor)
	if err := backend.Install(ctx, job); err != nil {
		return nil, err
	}

	if err := config.SetInterval(minutes); err != nil {
		return nil, err
	}

	slog.Info("schedule installed",
		"backend", backend.Kind(),
		"interval_minutes", minutes,
		"expression", expression)

	return &InstallResult{
		ConfigPath:      config.FilePath(),
		Kind:            backend.Kind(),
		IntervalMinutes: minutes,
		Expression:      expression,
	}, nil
}

// Uninstall removes the scheduled job. With purgeData it also deletes
// the downloaded images, the database, and the logs; the configuration
// file is kept. Removing an absent schedule is not an error.
func (m *Manager) Uninstall(ctx context.Context, purgeData bool) error {
	kind := m.detect()
	backend := scheduler.NewBackend(kind, m.executor)
	if err := backend.Remove(ctx); err != nil {
		return err
	}
	slog.Info("schedule removed", "backend", backend.Kind())

	if !purgeData {
		return nil
	}

	cfg, err := config.Load()
	imageDir := config.DefaultImageDir()
	if err == nil {
		imageDir = cfg.ImageDir
	}

	// An unclean close can leave WAL sidecars next to the database.
	dbPath := config.DatabasePath()
	for _, path := range []string{
		imageDir,
		dbPath,
		dbPath + "-wal",
		dbPath + "-shm",
		filepath.Dir(config.LogPath()),
	} {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s; %w", path, err)
		}
	}
	slog.Info("application data removed", "image_dir", imageDir)
	return nil
}

// Status describes the current state without changing anything.
type Status struct {
	ConfigPresent   bool
	IntervalMinutes int
	Kind            scheduler.Kind
	Installed       bool

	// LogLines is the tail of the fetch log, empty when no log exists.
	LogLines []string
}

// Status reports the persisted interval, the detected mechanism, whether
// a job definition is live, and recent fetch activity.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	st := &Status{ConfigPresent: config.Exists()}

	if st.ConfigPresent {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		st.IntervalMinutes = cfg.FetchInterval
	}

	st.Kind = m.detect()
	backend := scheduler.NewBackend(st.Kind, m.executor)
	installed, err := backend.IsInstalled(ctx)
	if err != nil {
		return nil, err
	}
	st.Installed = installed

	lines, err := fsutil.TailLines(config.LogPath(), statusLogLines)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read log; %w", err)
	}
	st.LogLines = lines

	return st, nil
}

// prepareEnvironment creates the directories and the database the fetch
// job expects, so the first scheduled run starts clean.
func (m *Manager) prepareEnvironment(cfg *config.Config) error {
	if err := fsutil.EnsureDir(cfg.ImageDir); err != nil {
		return fmt.Errorf("failed to create image directory; %w", err)
	}
	if err := fsutil.EnsureDir(filepath.Dir(config.LogPath())); err != nil {
		return fmt.Errorf("failed to create log directory; %w", err)
	}

	st, err := store.Open(config.DatabasePath(), cfg.ImageDir)
	if err != nil {
		return err
	}
	return st.Close()
}

// job builds the fixed invocation the native scheduler will run.
func (m *Manager) job(expression string) (scheduler.Job, error) {
	bin, err := m.binary()
	if err != nil {
		return scheduler.Job{}, fmt.Errorf("failed to locate binary; %w", err)
	}
	return scheduler.Job{
		Expression: expression,
		BinaryPath: bin,
		WorkingDir: config.Dir(),
		LogPath:    config.LogPath(),
	}, nil
}
