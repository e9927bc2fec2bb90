package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
)

// cronMarker tags crontab lines owned by this application so install and
// remove can find them among unrelated entries.
const cronMarker = "# photoframe"

// noCrontabMessage is the stderr text crontab emits when the user has no
// table yet. An absent table is an empty table, not a failure.
const noCrontabMessage = "no crontab for"

// cronBackend manages the fetch job as a single line in the user crontab.
// The whole table is rewritten on every change: read all entries, drop
// those bearing the marker, append the new entry (or none, for removal),
// and install the result via a temporary file so a failure mid-operation
// leaves the previous table untouched.
type cronBackend struct {
	executor CommandExecutor
}

// newCronBackend creates a crontab-based backend.
func newCronBackend(executor CommandExecutor) *cronBackend {
	return &cronBackend{executor: executor}
}

// Kind returns KindCron.
func (b *cronBackend) Kind() Kind {
	return KindCron
}

// Install replaces any marked crontab line with one running the fetch job
// on the given expression.
func (b *cronBackend) Install(ctx context.Context, job Job) error {
	if _, err := cron.ParseStandard(job.Expression); err != nil {
		return &OperationError{Backend: KindCron, Op: "install", Err: fmt.Errorf("invalid cron expression %q; %w", job.Expression, err)}
	}

	lines, err := b.readTable(ctx)
	if err != nil {
		return &OperationError{Backend: KindCron, Op: "install", Err: err}
	}

	kept := dropMarkedLines(lines)
	kept = append(kept, cronLine(job))

	if err := b.writeTable(ctx, kept); err != nil {
		return &OperationError{Backend: KindCron, Op: "install", Err: err}
	}
	return nil
}

// Remove deletes any marked crontab line. A host with no crontab at all is
// already clean.
func (b *cronBackend) Remove(ctx context.Context) error {
	lines, err := b.readTable(ctx)
	if err != nil {
		return &OperationError{Backend: KindCron, Op: "remove", Err: err}
	}

	kept := dropMarkedLines(lines)
	if len(kept) == len(lines) {
		return nil
	}

	if err := b.writeTable(ctx, kept); err != nil {
		return &OperationError{Backend: KindCron, Op: "remove", Err: err}
	}
	return nil
}

// IsInstalled re-reads the live crontab and reports whether a marked line
// is present.
func (b *cronBackend) IsInstalled(ctx context.Context) (bool, error) {
	lines, err := b.readTable(ctx)
	if err != nil {
		return false, &OperationError{Backend: KindCron, Op: "status", Err: err}
	}

	for _, line := range lines {
		if strings.Contains(line, cronMarker) {
			return true, nil
		}
	}
	return false, nil
}

// cronLine formats the single table entry for the fetch job. Standard
// streams are redirected to the log file by cron, not by the application.
func cronLine(job Job) string {
	return fmt.Sprintf("%s cd %s && %s run >> %s 2>&1 %s",
		job.Expression, job.WorkingDir, job.BinaryPath, job.LogPath, cronMarker)
}

// dropMarkedLines filters out entries owned by this application, leaving
// unrelated jobs untouched.
func dropMarkedLines(lines []string) []string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.Contains(line, cronMarker) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

// readTable lists the current user crontab. An absent table reads as
// empty.
func (b *cronBackend) readTable(ctx context.Context) ([]string, error) {
	output, err := b.executor.Run(ctx, "crontab", "-l")
	if err != nil {
		if strings.Contains(string(output), noCrontabMessage) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list crontab; %w", err)
	}

	content := strings.TrimRight(string(output), "\n")
	if content == "" {
		return nil, nil
	}
	return strings.Split(content, "\n"), nil
}

// writeTable installs a complete replacement table from a temporary file.
func (b *cronBackend) writeTable(ctx context.Context, lines []string) error {
	content := ""
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}

	tmp, err := os.CreateTemp("", "photoframe-crontab-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary crontab; %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary crontab; %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary crontab; %w", err)
	}

	if _, err := b.executor.Run(ctx, "crontab", tmpPath); err != nil {
		return fmt.Errorf("failed to install crontab; %w", err)
	}
	return nil
}
