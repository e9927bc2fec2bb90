// Package uninstall implements the uninstall command.
package uninstall

import (
	"context"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"photoframe/internal/lifecycle"
)

var uninstallPurgeData bool

// UninstallCmd removes the scheduled job and optionally the data.
var UninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the scheduled fetch job",
	Long: "Remove the scheduled fetch job.\n\n" +
		"The job definition is deleted from the host's scheduling mechanism. " +
		"Downloaded images, the database, and the logs are kept unless data " +
		"removal is requested; the configuration file is always kept. " +
		"Uninstalling when nothing is installed succeeds quietly.",
	Example: `  # Remove the schedule, keep the images
  photoframe uninstall

  # Remove the schedule and all downloaded data
  photoframe uninstall --purge-data`,
	PreRunE: validateUninstall,
	RunE:    runUninstall,
}

func init() {
	UninstallCmd.Flags().BoolVar(&uninstallPurgeData, "purge-data", false,
		"Also delete downloaded images, the database, and the logs")
}

func validateUninstall(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	purge := uninstallPurgeData
	if !cmd.Flags().Changed("purge-data") {
		prompt := &survey.Confirm{
			Message: "Also delete downloaded images, the database, and the logs?",
			Default: false,
		}
		if err := survey.AskOne(prompt, &purge); err != nil {
			// A non-interactive session keeps the data.
			purge = false
		}
	}

	manager := lifecycle.NewManager()
	if err := manager.Uninstall(context.Background(), purge); err != nil {
		return err
	}

	if purge {
		color.Green("Fetch job and data removed.")
	} else {
		color.Green("Fetch job removed; data kept.")
	}
	return nil
}
