// Package scheduler installs, removes, and inspects the recurring fetch
// job using whichever native scheduling mechanism the host provides.
package scheduler

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/coreos/go-systemd/v22/util"
)

// Kind identifies a native scheduling mechanism.
type Kind string

const (
	// KindCron schedules via the user crontab.
	KindCron Kind = "cron"

	// KindSystemdTimer schedules via a systemd user service/timer pair.
	KindSystemdTimer Kind = "systemd-timer"

	// KindLaunchd schedules via a launchd user agent.
	KindLaunchd Kind = "launchd"

	// KindUnknown indicates no known mechanism was detected.
	KindUnknown Kind = "unknown"
)

// String returns the kind as a string.
func (k Kind) String() string {
	return string(k)
}

// Detect inspects the host and returns the available scheduling mechanism.
// It never fails; hosts with no recognized mechanism report KindUnknown so
// callers can fall back to the crontab strategy.
func Detect() Kind {
	return detectFrom(runtime.GOOS, util.IsRunningSystemd(), haveCrontab())
}

// detectFrom applies the detection policy to pre-gathered host facts.
func detectFrom(goos string, systemd bool, crontab bool) Kind {
	switch {
	case goos == "darwin":
		return KindLaunchd
	case systemd:
		return KindSystemdTimer
	case crontab:
		return KindCron
	default:
		return KindUnknown
	}
}

// haveCrontab reports whether the crontab management tool is on PATH.
func haveCrontab() bool {
	_, err := exec.LookPath("crontab")
	return err == nil
}

// Job describes the fetch job to be installed: the schedule expression
// produced by Translate plus the fixed invocation captured at install time.
type Job struct {
	// Expression is the backend-native schedule expression.
	Expression string

	// BinaryPath is the absolute path of the photoframe binary.
	BinaryPath string

	// WorkingDir is the application root the job runs from.
	WorkingDir string

	// LogPath is the file the native scheduler redirects output to.
	LogPath string
}

// Backend is the per-mechanism install/remove strategy. Implementations
// locate their artifacts by a fixed application marker so at most one job
// definition exists at a time: Install replaces any prior definition, and
// Remove is a no-op when none exists.
type Backend interface {
	// Install replaces any existing job definition with one for job,
	// then activates it.
	Install(ctx context.Context, job Job) error

	// Remove deactivates and deletes the job definition if present.
	Remove(ctx context.Context) error

	// IsInstalled queries the live native state for a job definition
	// bearing the application marker.
	IsInstalled(ctx context.Context) (bool, error)

	// Kind returns the mechanism this backend drives.
	Kind() Kind
}

// NewBackend returns the strategy for the given kind. KindUnknown falls
// back to the crontab strategy rather than failing.
func NewBackend(kind Kind, executor CommandExecutor) Backend {
	switch kind {
	case KindLaunchd:
		return newLaunchdBackend(executor)
	case KindSystemdTimer:
		return newSystemdBackend(executor)
	default:
		return newCronBackend(executor)
	}
}

// CommandExecutor abstracts native tool invocation for testability.
type CommandExecutor interface {
	// Run executes a command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// defaultExecutor implements CommandExecutor using os/exec.
type defaultExecutor struct{}

// Run executes a command using os/exec.
func (e *defaultExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// NewCommandExecutor returns the default command executor.
func NewCommandExecutor() CommandExecutor {
	return &defaultExecutor{}
}

// OperationError reports a failed native tool invocation. The prior job
// definition, if any, is left intact when an operation fails.
type OperationError struct {
	// Backend is the mechanism that failed.
	Backend Kind

	// Op is the operation being performed (e.g. "install", "remove").
	Op string

	// Err is the underlying cause.
	Err error
}

// Error formats the failure with backend name and cause.
func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s failed; %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Err
}
