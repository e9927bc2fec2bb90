package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"photoframe/internal/fsutil"
)

const (
	// systemdServiceName is the one-shot execution unit.
	systemdServiceName = "photoframe.service"

	// systemdTimerName is the timer unit driving it.
	systemdTimerName = "photoframe.timer"
)

// systemdServiceTemplate is the template for the execution unit. Output is
// appended to the fetch log by systemd, mirroring the cron redirection.
const systemdServiceTemplate = `[Unit]
Description=Photoframe image fetch

[Service]
Type=oneshot
WorkingDirectory={{.WorkingDir}}
ExecStart={{.BinaryPath}} run
StandardOutput=append:{{.LogPath}}
StandardError=append:{{.LogPath}}
`

// systemdTimerTemplate is the template for the timer unit. Canonical
// periods use OnCalendar keywords; everything else re-arms relative to the
// last activation.
const systemdTimerTemplate = `[Unit]
Description=Photoframe fetch schedule

[Timer]
{{if .Calendar}}OnCalendar={{.Expression}}
Persistent=true
{{else}}OnBootSec=1m
OnUnitActiveSec={{.Expression}}
{{end}}
[Install]
WantedBy=timers.target
`

// systemdBackend manages the fetch job as a systemd user service/timer
// pair.
type systemdBackend struct {
	executor CommandExecutor
}

// newSystemdBackend creates a systemd-based backend.
func newSystemdBackend(executor CommandExecutor) *systemdBackend {
	return &systemdBackend{executor: executor}
}

// Kind returns KindSystemdTimer.
func (b *systemdBackend) Kind() Kind {
	return KindSystemdTimer
}

// systemdUnitDir returns the systemd user unit directory.
func systemdUnitDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory; %w", err)
	}
	return filepath.Join(home, ".config", "systemd", "user"), nil
}

// renderUnit executes a unit template with the given data.
func renderUnit(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template; %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template; %w", name, err)
	}
	return buf.String(), nil
}

// isCalendarKeyword reports whether the expression is one of the symbolic
// calendar spellings produced by Translate.
func isCalendarKeyword(expression string) bool {
	switch expression {
	case "hourly", "daily", "weekly", "monthly":
		return true
	default:
		return false
	}
}

// Install writes the service and timer units, reloads systemd, and enables
// the timer. Unit files are written atomically so a failure before
// activation leaves any previous definition intact.
func (b *systemdBackend) Install(ctx context.Context, job Job) error {
	unitDir, err := systemdUnitDir()
	if err != nil {
		return &OperationError{Backend: KindSystemdTimer, Op: "install", Err: err}
	}

	service, err := renderUnit("service", systemdServiceTemplate, struct {
		WorkingDir string
		BinaryPath string
		LogPath    string
	}{job.WorkingDir, job.BinaryPath, job.LogPath})
	if err != nil {
		return &OperationError{Backend: KindSystemdTimer, Op: "install", Err: err}
	}

	timer, err := renderUnit("timer", systemdTimerTemplate, struct {
		Calendar   bool
		Expression string
	}{isCalendarKeyword(job.Expression), job.Expression})
	if err != nil {
		return &OperationError{Backend: KindSystemdTimer, Op: "install", Err: err}
	}

	if err := fsutil.WriteFileAtomic(filepath.Join(unitDir, systemdServiceName), []byte(service), 0644); err != nil {
		return &OperationError{Backend: KindSystemdTimer, Op: "install", Err: err}
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(unitDir, systemdTimerName), []byte(timer), 0644); err != nil {
		return &OperationError{Backend: KindSystemdTimer, Op: "install", Err: err}
	}

	if _, err := b.executor.Run(ctx, "systemctl", "--user", "daemon-reload"); err != nil {
		return &OperationError{Backend: KindSystemdTimer, Op: "install", Err: fmt.Errorf("failed to reload systemd; %w", err)}
	}
	if _, err := b.executor.Run(ctx, "systemctl", "--user", "enable", "--now", systemdTimerName); err != nil {
		return &OperationError{Backend: KindSystemdTimer, Op: "install", Err: fmt.Errorf("failed to enable timer; %w", err)}
	}

	return nil
}

// Remove disables the timer and deletes both unit files. Absence of either
// is not an error.
func (b *systemdBackend) Remove(ctx context.Context) error {
	unitDir, err := systemdUnitDir()
	if err != nil {
		return &OperationError{Backend: KindSystemdTimer, Op: "remove", Err: err}
	}

	// Ignore errors: the timer may not be enabled or loaded.
	_, _ = b.executor.Run(ctx, "systemctl", "--user", "disable", "--now", systemdTimerName)

	for _, name := range []string{systemdTimerName, systemdServiceName} {
		if err := os.Remove(filepath.Join(unitDir, name)); err != nil && !os.IsNotExist(err) {
			return &OperationError{Backend: KindSystemdTimer, Op: "remove", Err: fmt.Errorf("failed to remove %s; %w", name, err)}
		}
	}

	_, _ = b.executor.Run(ctx, "systemctl", "--user", "daemon-reload")

	return nil
}

// IsInstalled reports whether the timer unit file exists.
func (b *systemdBackend) IsInstalled(ctx context.Context) (bool, error) {
	unitDir, err := systemdUnitDir()
	if err != nil {
		return false, &OperationError{Backend: KindSystemdTimer, Op: "status", Err: err}
	}

	_, err = os.Stat(filepath.Join(unitDir, systemdTimerName))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &OperationError{Backend: KindSystemdTimer, Op: "status", Err: err}
	}
	return true, nil
}
