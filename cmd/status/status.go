// Package status implements the status command.
package status

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"photoframe/internal/config"
	"photoframe/internal/lifecycle"
)

// StatusCmd reports the current schedule and recent fetch activity.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schedule and recent fetch activity",
	Long: "Show the current schedule and recent fetch activity.\n\n" +
		"Reports whether configuration exists, the configured interval, the " +
		"scheduling mechanism detected on this host, whether the fetch job " +
		"is actually registered with it, and the tail of the fetch log. " +
		"Status never changes anything.",
	PreRunE: validateStatus,
	RunE:    runStatus,
}

func validateStatus(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager := lifecycle.NewManager()

	st, err := manager.Status(context.Background())
	if err != nil {
		return err
	}

	if !st.ConfigPresent {
		color.Yellow("Not configured.")
		fmt.Printf("Run 'photoframe install' to create %s\n", config.FilePath())
	} else {
		fmt.Printf("Configuration: %s\n", config.FilePath())
		fmt.Printf("Interval:      every %d minutes\n", st.IntervalMinutes)
	}

	fmt.Printf("Backend:       %s\n", st.Kind)
	if st.Installed {
		color.Green("Schedule:      installed")
	} else {
		color.Yellow("Schedule:      not installed")
	}

	if len(st.LogLines) > 0 {
		fmt.Println("\nRecent activity:")
		for _, line := range st.LogLines {
			fmt.Printf("  %s\n", line)
		}
	} else {
		fmt.Println("\nNo fetch activity logged yet.")
	}

	fmt.Println("\nCommands: install, reschedule, run, status, uninstall")
	return nil
}
