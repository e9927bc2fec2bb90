// Package install implements the install command.
package install

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"photoframe/internal/lifecycle"
)

// InstallCmd sets up the application and schedules the fetch job.
var InstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Set up photoframe and schedule the recurring fetch job",
	Long: "Set up photoframe and schedule the recurring fetch job.\n\n" +
		"On first run, when no configuration exists yet, a commented template " +
		"is written instead; fill in the forum details and run install again. " +
		"With configuration present, the image directory, database, and log " +
		"directory are created and the fetch job is registered with the " +
		"host's scheduling mechanism at the configured interval.\n\n" +
		"Install is safe to repeat: an existing schedule is replaced, never " +
		"duplicated.",
	Example: `  # First run: write the configuration template
  photoframe install

  # After editing the configuration: schedule the fetch job
  photoframe install`,
	PreRunE: validateInstall,
	RunE:    runInstall,
}

func validateInstall(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	manager := lifecycle.NewManager()

	result, err := manager.Install(context.Background())
	if err != nil {
		return err
	}

	if result.ConfigCreated {
		color.Yellow("No configuration found.")
		fmt.Printf("A template was written to %s\n", result.ConfigPath)
		fmt.Println("Fill in your forum details, then run 'photoframe install' again.")
		return nil
	}

	color.Green("Fetch job installed.")
	fmt.Printf("Backend:  %s\n", result.Kind)
	fmt.Printf("Interval: every %d minutes (%s)\n", result.IntervalMinutes, result.Expression)
	return nil
}
