// Package cmd assembles the photoframe command tree.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"photoframe/cmd/install"
	"photoframe/cmd/reschedule"
	"photoframe/cmd/run"
	"photoframe/cmd/status"
	"photoframe/cmd/uninstall"
	"photoframe/cmd/version"
	"photoframe/internal/config"
	"photoframe/internal/logging"
)

// logManager starts in bootstrap mode (stderr only) and is upgraded to
// file logging once configuration is available.
var logManager *logging.Manager

var photoframeCmd = &cobra.Command{
	Use:   "photoframe",
	Short: "Keep a local photo collection in sync with a Discourse forum",
	Long: "Photoframe downloads images posted under a forum tag into a local " +
		"directory for a digital photo frame to display.\n\n" +
		"The install command schedules a recurring fetch job through whatever " +
		"mechanism the host offers: a launchd agent on macOS, a systemd user " +
		"timer where systemd runs, and the user crontab otherwise.",
	PersistentPreRunE: runInitialize,
}

func init() {
	logManager = logging.NewManager()

	photoframeCmd.AddCommand(install.InstallCmd)
	photoframeCmd.AddCommand(reschedule.RescheduleCmd)
	photoframeCmd.AddCommand(run.RunCmd)
	photoframeCmd.AddCommand(status.StatusCmd)
	photoframeCmd.AddCommand(uninstall.UninstallCmd)
	photoframeCmd.AddCommand(version.VersionCmd)
}

// runInitialize upgrades logging to the configured file and level. On a
// host without configuration the bootstrap stderr logger stays in place;
// install and reschedule handle that state themselves.
func runInitialize(cmd *cobra.Command, args []string) error {
	if !config.Exists() {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		level = logging.DefaultLevel
		if cfg.LogLevel != "" {
			slog.Warn("invalid log level configured, using default",
				"configured", cfg.LogLevel, "default", "info")
		}
	}

	if err := logManager.Upgrade(config.LogPath(), level); err != nil {
		slog.Warn("failed to enable file logging, continuing with stderr only", "error", err)
	}
	return nil
}

// Execute runs the command tree and prints failures with usage help.
func Execute() error {
	photoframeCmd.SilenceErrors = true
	photoframeCmd.SilenceUsage = true

	defer func() { _ = logManager.Close() }()

	err := photoframeCmd.Execute()
	if err != nil {
		cmd, _, _ := photoframeCmd.Find(os.Args[1:])
		if cmd == nil {
			cmd = photoframeCmd
		}

		fmt.Printf("Error: %v\n", err)
		// An unrecognized subcommand resolves back to the root, whose
		// own SilenceUsage is set above; the user still gets the
		// command list in that case.
		if !cmd.SilenceUsage || cmd == photoframeCmd {
			fmt.Printf("\n")
			cmd.SetOut(os.Stdout)
			_ = cmd.Usage()
		}
		return err
	}
	return nil
}
