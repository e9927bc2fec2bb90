package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"photoframe/internal/fsutil"
)

const (
	// launchdLabel is the launchd agent identifier.
	launchdLabel = "com.photoframe.fetch"

	// launchdPlistName is the plist filename under ~/Library/LaunchAgents.
	launchdPlistName = "com.photoframe.fetch.plist"
)

// launchdPlistTemplate is the template for the launchd agent plist. The
// schedule expression is a fixed interval in seconds.
const launchdPlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.BinaryPath}}</string>
        <string>run</string>
    </array>
    <key>WorkingDirectory</key>
    <string>{{.WorkingDir}}</string>
    <key>StartInterval</key>
    <integer>{{.Expression}}</integer>
    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>
    <key>StandardErrorPath</key>
    <string>{{.LogPath}}</string>
</dict>
</plist>
`

// launchdBackend manages the fetch job as a launchd user agent.
type launchdBackend struct {
	executor CommandExecutor
}

// newLaunchdBackend creates a launchd-based backend.
func newLaunchdBackend(executor CommandExecutor) *launchdBackend {
	return &launchdBackend{executor: executor}
}

// Kind returns KindLaunchd.
func (b *launchdBackend) Kind() Kind {
	return KindLaunchd
}

// launchdPlistPath returns the path to the agent plist.
func launchdPlistPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory; %w", err)
	}
	return filepath.Join(home, "Library", "LaunchAgents", launchdPlistName), nil
}

// Install writes the agent plist, unloads any prior copy, and loads the
// new one. The plist is written atomically so a failure before the final
// load leaves any previous definition intact.
func (b *launchdBackend) Install(ctx context.Context, job Job) error {
	plistPath, err := launchdPlistPath()
	if err != nil {
		return &OperationError{Backend: KindLaunchd, Op: "install", Err: err}
	}

	content, err := renderUnit("plist", launchdPlistTemplate, struct {
		Label      string
		BinaryPath string
		WorkingDir string
		Expression string
		LogPath    string
	}{launchdLabel, job.BinaryPath, job.WorkingDir, job.Expression, job.LogPath})
	if err != nil {
		return &OperationError{Backend: KindLaunchd, Op: "install", Err: err}
	}

	if err := fsutil.WriteFileAtomic(plistPath, []byte(content), 0644); err != nil {
		return &OperationError{Backend: KindLaunchd, Op: "install", Err: err}
	}

	// Unload any prior agent before loading; launchd refuses to reload a
	// loaded agent in place. Errors are ignored: nothing may be loaded
	// yet. Ordered after the write so a failure up to this point leaves
	// any previous agent running.
	_, _ = b.executor.Run(ctx, "launchctl", "unload", plistPath)

	if _, err := b.executor.Run(ctx, "launchctl", "load", "-w", plistPath); err != nil {
		return &OperationError{Backend: KindLaunchd, Op: "install", Err: fmt.Errorf("failed to load agent; %w", err)}
	}

	return nil
}

// Remove unloads the agent and deletes the plist. Absence is not an error.
func (b *launchdBackend) Remove(ctx context.Context) error {
	plistPath, err := launchdPlistPath()
	if err != nil {
		return &OperationError{Backend: KindLaunchd, Op: "remove", Err: err}
	}

	// Ignore errors: the agent may not be loaded.
	_, _ = b.executor.Run(ctx, "launchctl", "unload", plistPath)

	if err := os.Remove(plistPath); err != nil && !os.IsNotExist(err) {
		return &OperationError{Backend: KindLaunchd, Op: "remove", Err: fmt.Errorf("failed to remove plist; %w", err)}
	}

	return nil
}

// IsInstalled reports whether the agent plist exists.
func (b *launchdBackend) IsInstalled(ctx context.Context) (bool, error) {
	plistPath, err := launchdPlistPath()
	if err != nil {
		return false, &OperationError{Backend: KindLaunchd, Op: "status", Err: err}
	}

	_, err = os.Stat(plistPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &OperationError{Backend: KindLaunchd, Op: "status", Err: err}
	}
	return true, nil
}
