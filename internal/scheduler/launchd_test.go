package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLaunchdBackend_Install(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	mock := newMockExecutor()
	backend := newLaunchdBackend(mock)

	if err := backend.Install(context.Background(), testJob("900")); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	plistPath := filepath.Join(tmpDir, "Library", "LaunchAgents", launchdPlistName)
	data, err := os.ReadFile(plistPath)
	if err != nil {
		t.Fatalf("Install() did not create plist: %v", err)
	}
	plist := string(data)

	for _, elem := range []string{
		`<key>Label</key>`,
		`<string>com.photoframe.fetch</string>`,
		`<key>ProgramArguments</key>`,
		`<string>/usr/local/bin/photoframe</string>`,
		`<string>run</string>`,
		`<key>WorkingDirectory</key>`,
		`<key>StartInterval</key>`,
		`<integer>900</integer>`,
		`<key>StandardOutPath</key>`,
		`<key>StandardErrorPath</key>`,
	} {
		if !strings.Contains(plist, elem) {
			t.Errorf("plist missing expected element: %s", elem)
		}
	}

	if !strings.HasPrefix(plist, `<?xml version="1.0"`) {
		t.Error("plist missing XML declaration")
	}

	// Unload of any prior agent, then load of the new one.
	if len(mock.commands) != 2 {
		t.Fatalf("Install() called %d commands, want 2", len(mock.commands))
	}
	if mock.commands[0].name != "launchctl" || mock.commands[0].args[0] != "unload" {
		t.Errorf("Install() first command = %s %v, want launchctl unload", mock.commands[0].name, mock.commands[0].args)
	}
	if mock.commands[1].name != "launchctl" || mock.commands[1].args[0] != "load" || mock.commands[1].args[1] != "-w" {
		t.Errorf("Install() second command = %s %v, want launchctl load -w", mock.commands[1].name, mock.commands[1].args)
	}
}

func TestLaunchdBackend_Install_ReplacesPriorSchedule(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	mock := newMockExecutor()
	backend := newLaunchdBackend(mock)
	ctx := context.Background()

	if err := backend.Install(ctx, testJob("900")); err != nil {
		t.Fatalf("Install(A) error = %v", err)
	}
	if err := backend.Install(ctx, testJob("7200")); err != nil {
		t.Fatalf("Install(B) error = %v", err)
	}

	plistPath := filepath.Join(tmpDir, "Library", "LaunchAgents", launchdPlistName)
	data, err := os.ReadFile(plistPath)
	if err != nil {
		t.Fatalf("failed to read plist: %v", err)
	}

	if !strings.Contains(string(data), "<integer>7200</integer>") {
		t.Error("plist does not reflect the new interval")
	}
	if strings.Contains(string(data), "900") {
		t.Error("plist still reflects the old interval")
	}
}

func TestLaunchdBackend_Install_LoadError(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	plistPath := filepath.Join(tmpDir, "Library", "LaunchAgents", launchdPlistName)
	mock := newMockExecutor()
	mock.errors["launchctl load -w "+plistPath] = errors.New("load failed")
	backend := newLaunchdBackend(mock)

	err := backend.Install(context.Background(), testJob("900"))
	if err == nil {
		t.Fatal("Install() should surface launchctl load failure")
	}

	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("Install() error = %T, want *OperationError", err)
	}
	if opErr.Backend != KindLaunchd {
		t.Errorf("OperationError.Backend = %v, want %v", opErr.Backend, KindLaunchd)
	}
}

func TestLaunchdBackend_Install_WriteFailureLeavesAgentLoaded(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	// A regular file where the agents directory should be makes the
	// plist write fail before any launchctl call.
	if err := os.WriteFile(filepath.Join(tmpDir, "Library"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	mock := newMockExecutor()
	backend := newLaunchdBackend(mock)

	err := backend.Install(context.Background(), testJob("900"))
	if err == nil {
		t.Fatal("Install() should surface the write failure")
	}

	if len(mock.commands) != 0 {
		t.Errorf("Install() ran %d launchctl commands despite the write failure; a prior agent would have been unloaded", len(mock.commands))
	}
}

func TestLaunchdBackend_Remove(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	agentsDir := filepath.Join(tmpDir, "Library", "LaunchAgents")
	os.MkdirAll(agentsDir, 0755)
	plistPath := filepath.Join(agentsDir, launchdPlistName)
	os.WriteFile(plistPath, []byte("test"), 0644)

	mock := newMockExecutor()
	backend := newLaunchdBackend(mock)

	if err := backend.Remove(context.Background()); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := os.Stat(plistPath); !os.IsNotExist(err) {
		t.Error("Remove() left the plist behind")
	}
}

func TestLaunchdBackend_Remove_NotInstalled(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	mock := newMockExecutor()
	plistPath := filepath.Join(tmpDir, "Library", "LaunchAgents", launchdPlistName)
	mock.errors["launchctl unload "+plistPath] = errors.New("not loaded")
	backend := newLaunchdBackend(mock)

	if err := backend.Remove(context.Background()); err != nil {
		t.Errorf("Remove() on clean host error = %v", err)
	}
}

func TestLaunchdBackend_IsInstalled(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	mock := newMockExecutor()
	backend := newLaunchdBackend(mock)
	ctx := context.Background()

	installed, err := backend.IsInstalled(ctx)
	if err != nil {
		t.Fatalf("IsInstalled() error = %v", err)
	}
	if installed {
		t.Error("IsInstalled() = true on a clean host")
	}

	if err := backend.Install(ctx, testJob("3600")); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	installed, err = backend.IsInstalled(ctx)
	if err != nil {
		t.Fatalf("IsInstalled() error = %v", err)
	}
	if !installed {
		t.Error("IsInstalled() = false after Install()")
	}
}
