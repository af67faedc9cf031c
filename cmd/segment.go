package cmd

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/rfm"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/warehouse"
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Score customers on recency, frequency and monetary value and publish customer_segments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSegment(commandContext(cmd), current)
	},
}

func init() {
	rootCmd.AddCommand(segmentCmd)
}

func runSegment(ctx context.Context, a *app) error {
	conn, err := warehouse.Connect(ctx, a.cfg.Postgres)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	schema := a.cfg.Postgres.Schema
	res, err := rfm.NewEngine(warehouse.NewExtractor(conn, schema), warehouse.NewPublisher(conn, schema)).Run(ctx)
	if err != nil {
		return err
	}

	labels := make([]string, 0, len(res.Segments))
	for label := range res.Segments {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		a.log.InfoContext(ctx, "segment size", "segment", label, "customers", res.Segments[label])
	}
	a.log.InfoContext(ctx, "segmentation finished",
		"customers", res.Customers, "snapshot_date", res.SnapshotDate.Format("2006-01-02 15:04:05"))
	return nil
}
