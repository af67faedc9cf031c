package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run load, check and segment in sequence",
	Long: `Runs the whole batch once: load the warehouse, run the advisory quality checks,
then segment customers. Any fatal stage error stops the run with a non-zero exit;
quality failures do not. Retrying a failed run is left to the scheduler.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := commandContext(cmd)
		a := current
		start := time.Now()

		if err := runLoad(ctx, a); err != nil {
			return fmt.Errorf("load: %w", err)
		}
		summary, err := runCheck(ctx, a)
		if err != nil {
			return fmt.Errorf("check: %w", err)
		}
		if err := runSegment(ctx, a); err != nil {
			return fmt.Errorf("segment: %w", err)
		}

		a.log.InfoContext(ctx, "run finished", "duration", time.Since(start), "quality_failures", summary.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
