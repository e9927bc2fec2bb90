package cmd

import (
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// what was written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	old := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

func TestExecute_UnknownCommandPrintsUsage(t *testing.T) {
	t.Setenv("PHOTOFRAME_CONFIG_DIR", t.TempDir())

	photoframeCmd.SetArgs([]string{"frobnicate"})
	defer photoframeCmd.SetArgs(nil)

	var execErr error
	out := captureStdout(t, func() {
		execErr = Execute()
	})

	if execErr == nil {
		t.Fatal("expected an error for an unknown command")
	}
	if !strings.Contains(out, `unknown command "frobnicate"`) {
		t.Errorf("output missing unknown-command error: %q", out)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("output missing usage block: %q", out)
	}
	for _, sub := range []string{"install", "reschedule", "run", "status", "uninstall", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("usage output missing subcommand %q", sub)
		}
	}
}
