// Package run implements the run command, the entry point the scheduler
// invokes.
package run

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"photoframe/internal/config"
	"photoframe/internal/discourse"
	"photoframe/internal/fetch"
	"photoframe/internal/store"
)

// RunCmd performs one fetch cycle.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch new images once and exit",
	Long: "Fetch new images once and exit.\n\n" +
		"This is what the scheduled job executes. It lists the topics under " +
		"the configured tag, downloads original-size images it has not seen " +
		"before, and prunes the oldest images past the retention limit. It " +
		"can also be run by hand to fetch immediately.",
	Example: `  # Fetch now instead of waiting for the schedule
  photoframe run`,
	PreRunE: validateRun,
	RunE:    runRun,
}

func validateRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !config.Exists() {
		if err := config.WriteTemplate(); err != nil {
			return err
		}
		fmt.Printf("No configuration found; a template was written to %s\n", config.FilePath())
		fmt.Println("Fill in your forum details, then run 'photoframe install'.")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.BaseURL == "" {
		return errors.New("DISCOURSE_BASE_URL is not set; edit the configuration file")
	}

	st, err := store.Open(config.DatabasePath(), cfg.ImageDir)
	if err != nil {
		return err
	}
	defer st.Close()

	client := discourse.NewClient(cfg.BaseURL, cfg.APIKey, cfg.APIUsername)
	return fetch.New(client, st, cfg).Run(ctx)
}
