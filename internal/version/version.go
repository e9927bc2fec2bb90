// Package version exposes the version and build details of the binary.
package version

import (
	_ "embed"
	"fmt"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var versionFile string

// Set at build time:
//
//	go build -ldflags "-X photoframe/internal/version.gitCommit=VALUE"
var (
	gitCommit string
	buildDate string
)

// Info is the version and build information of the running binary.
type Info struct {
	Version   string
	GitCommit string
	BuildDate string
}

// String formats Info for display.
func (i Info) String() string {
	return fmt.Sprintf("photoframe %s (commit %s, built %s)", i.Version, i.GitCommit, i.BuildDate)
}

// Get assembles the Info for the running binary.
func Get() Info {
	return Info{
		Version:   strings.TrimSpace(versionFile),
		GitCommit: commit(),
		BuildDate: date(),
	}
}

// commit prefers the linker-injected hash and falls back to the VCS
// revision recorded by the Go toolchain.
func commit() string {
	if gitCommit != "" {
		return gitCommit
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	revision := ""
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision == "" {
		return "unknown"
	}
	if dirty {
		return revision + "-dirty"
	}
	return revision
}

func date() string {
	if buildDate != "" {
		return buildDate
	}
	return "unknown"
}
