package main

import (
	"fmt"

	"github.com/hray3182/Hydrate/internal/format"
	"github.com/hray3182/Hydrate/internal/rrule"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and print the effective settings",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}

	rootCmd.AddCommand(cmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Daily goal:     %s\n", format.GoalLabel(cfg.DefaultGoal))
	fmt.Fprintf(out, "Interval:       %s (%s)\n", format.IntervalLabel(cfg.DefaultIntervalMinutes),
		rrule.Describe(rrule.IntervalRule(cfg.DefaultIntervalMinutes)))
	fmt.Fprintf(out, "Celebration:    %s\n", cfg.Celebration)

	dayReset := "off"
	if cfg.DayResetRule != "" {
		dayReset = rrule.Describe(cfg.DayResetRule)
	}
	fmt.Fprintf(out, "Day reset:      %s\n", dayReset)

	quiet := "off"
	if q := cfg.Quiet(); q.Enabled() {
		quiet = q.Start + " - " + q.End
	}
	fmt.Fprintf(out, "Quiet hours:    %s (%s)\n", quiet, cfg.Location)

	tips := "built-in text"
	if cfg.AIAPIKey != "" {
		tips = cfg.AIModel
	}
	fmt.Fprintf(out, "Reminder text:  %s\n", tips)
	fmt.Fprintf(out, "Dev mode:       %t\n", cfg.DevMode)
	return nil
}
