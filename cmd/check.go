package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/quality"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run advisory data quality checks against the warehouse",
	Long: `Runs row count, uniqueness, not-null, non-negative, allowed status, date order and
referential checks. Results go to quality_report.csv and quality_report.json in the
processed directory. Failing checks are reported but never fail the command.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := runCheck(commandContext(cmd), current)
		return err
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(ctx context.Context, a *app) (quality.Summary, error) {
	db, err := quality.Open(ctx, a.cfg.Postgres)
	if err != nil {
		return quality.Summary{}, err
	}
	defer db.Close()

	results := quality.NewValidator(db, a.cfg.Postgres.Schema).Run(ctx)
	summary := quality.Summarize(a.runID, results)

	for _, r := range results {
		if r.Status == quality.Fail {
			a.log.WarnContext(ctx, "quality check failed", "check", r.Check, "info", r.Info)
		} else {
			a.log.DebugContext(ctx, "quality check passed", "check", r.Check, "info", r.Info)
		}
	}

	csvPath, jsonPath, err := quality.WriteReports(a.cfg.ProcessedDir(), summary)
	if err != nil {
		a.log.WarnContext(ctx, "failed to write quality report", "error", err)
	}
	a.log.InfoContext(ctx, "quality checks finished",
		"total", summary.Total, "failed", summary.Failed, "report_csv", csvPath, "report_json", jsonPath)
	return summary, nil
}
