// Package reschedule implements the reschedule command.
package reschedule

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"photoframe/internal/lifecycle"
)

var rescheduleInterval int

// RescheduleCmd changes how often the fetch job runs.
var RescheduleCmd = &cobra.Command{
	Use:   "reschedule",
	Short: "Change how often the fetch job runs",
	Long: "Change how often the fetch job runs.\n\n" +
		"The interval is given in minutes, either with --interval or " +
		"interactively when the flag is omitted. Common values translate to " +
		"calendar schedules where the host mechanism supports them: 60 runs " +
		"hourly, 1440 daily, 10080 weekly, 43200 monthly. An invalid interval " +
		"falls back to the default of 60 minutes.",
	Example: `  # Fetch every six hours
  photoframe reschedule --interval 360

  # Pick the interval interactively
  photoframe reschedule`,
	PreRunE: validateReschedule,
	RunE:    runReschedule,
}

func init() {
	RescheduleCmd.Flags().IntVar(&rescheduleInterval, "interval", 0,
		"Fetch interval in minutes (prompted for when omitted)")
}

func validateReschedule(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

// parseInterval converts prompt input to minutes. Non-numeric input maps
// to zero so the lifecycle manager substitutes the default interval
// instead of the command failing.
func parseInterval(input string) int {
	minutes, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		slog.Warn("interval is not a number, using default", "input", input)
		return 0
	}
	return minutes
}

func runReschedule(cmd *cobra.Command, args []string) error {
	minutes := rescheduleInterval
	if !cmd.Flags().Changed("interval") {
		var input string
		prompt := &survey.Input{
			Message: "Fetch interval in minutes:",
			Default: "60",
		}
		if err := survey.AskOne(prompt, &input); err != nil {
			return fmt.Errorf("failed to read interval; %w", err)
		}
		minutes = parseInterval(input)
	}

	manager := lifecycle.NewManager()
	result, err := manager.Reschedule(context.Background(), minutes)
	if err != nil {
		return err
	}

	color.Green("Schedule updated.")
	fmt.Printf("Backend:  %s\n", result.Kind)
	fmt.Printf("Interval: every %d minutes (%s)\n", result.IntervalMinutes, result.Expression)
	return nil
}
