package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommandOutput(t *testing.T) {
	buf := new(bytes.Buffer)
	VersionCmd.SetOut(buf)

	if err := VersionCmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(output, "photoframe ") {
		t.Errorf("output = %q, want photoframe prefix", output)
	}
	for _, want := range []string{"commit", "built"} {
		if !strings.Contains(output, want) {
			t.Errorf("output %q missing %q", output, want)
		}
	}
}
