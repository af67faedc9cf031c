package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/records"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/snapshot"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/staging"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/transform"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/warehouse"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Transform staged documents and fully refresh the warehouse tables",
	Long: `Reads every staging collection from MongoDB, builds the customer, product and
seller dimensions plus the order, item and payment facts, writes Parquet snapshots
and replaces all six warehouse tables in one transaction.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runLoad(commandContext(cmd), current)
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(ctx context.Context, a *app) error {
	summary := loadSummary{RunID: a.runID, StartTime: time.Now(), Schema: a.cfg.Postgres.Schema}
	a.log.InfoContext(ctx, "load started", "mongo", a.cfg.Mongo.Host, "database", a.cfg.Mongo.Database)

	snap, err := readStaging(ctx, a)
	if err != nil {
		return err
	}

	res, err := transform.Build(snap)
	if err != nil {
		return err
	}
	a.log.InfoContext(ctx, "built warehouse tables",
		"customers", len(res.Customers), "products", len(res.Products), "sellers", len(res.Sellers),
		"orders", len(res.Orders), "order_items", len(res.OrderItems), "order_payments", len(res.Payments))

	if a.cfg.Snapshot.Enabled {
		files, err := writeSnapshots(ctx, a, res)
		if err != nil {
			return err
		}
		summary.SnapshotFiles = lo.Map(files, func(f snapshot.File, _ int) string { return f.Path })
	}

	conn, err := warehouse.Connect(ctx, a.cfg.Postgres)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	published, err := warehouse.NewPublisher(conn, a.cfg.Postgres.Schema).Publish(ctx, res.Datasets()...)
	if err != nil {
		return err
	}

	tables := lo.Map(res.Datasets(), func(d warehouse.Dataset, _ int) warehouse.Table { return d.Table })
	counts, err := warehouse.NewExtractor(conn, a.cfg.Postgres.Schema).RowCounts(ctx, tables...)
	if err != nil {
		return fmt.Errorf("verify row counts: %w", err)
	}
	summary.Tables = verifyTables(a.cfg.Postgres.Schema, published, counts)
	summary.EndTime = time.Now()
	summary.DurationSecs = summary.EndTime.Sub(summary.StartTime).Seconds()

	jsonPath, csvPath, err := writeLoadSummary(a.cfg.ProcessedDir(), summary)
	if err != nil {
		a.log.WarnContext(ctx, "failed to write load summary", "error", err)
	}
	if n := summary.mismatches(); n > 0 {
		return fmt.Errorf("%d of %d tables have row count mismatches after publish", n, len(summary.Tables))
	}

	a.log.InfoContext(ctx, "load finished",
		"tables", len(published), "duration", time.Since(summary.StartTime), "summary_json", jsonPath, "summary_csv", csvPath)
	return nil
}

func readStaging(ctx context.Context, a *app) (*staging.Snapshot, error) {
	client, err := staging.Connect(ctx, a.cfg.Mongo)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			a.log.WarnContext(ctx, "mongo disconnect failed", "error", err)
		}
	}()

	report := records.NewReport()
	snap, err := staging.NewReader(client.Database(a.cfg.Mongo.Database)).ReadAll(ctx, report)
	if err != nil {
		return nil, err
	}
	a.log.InfoContext(ctx, "read staging collections",
		"customers", len(snap.Customers), "orders", len(snap.Orders), "items", len(snap.Items),
		"payments", len(snap.Payments), "products", len(snap.Products), "sellers", len(snap.Sellers),
		"geolocation", len(snap.Geolocations), "category_translation", len(snap.Translations))
	a.log.InfoContext(ctx, "coercion outcomes", "fields", report)
	return snap, nil
}

func writeSnapshots(ctx context.Context, a *app, res *transform.Result) ([]snapshot.File, error) {
	files, err := snapshot.WriteAll(a.cfg.ProcessedDir(), res)
	if err != nil {
		return nil, err
	}
	a.log.InfoContext(ctx, "wrote snapshots", "dir", a.cfg.ProcessedDir(), "files", len(files))

	if a.cfg.Snapshot.S3Bucket == "" {
		return files, nil
	}
	mirror, err := snapshot.NewS3Mirror(ctx, a.cfg.Snapshot)
	if err != nil {
		return nil, err
	}
	if err := mirror.Mirror(ctx, a.runID, files); err != nil {
		return nil, err
	}
	a.log.InfoContext(ctx, "mirrored snapshots", "bucket", a.cfg.Snapshot.S3Bucket, "prefix", mirror.Key(a.runID, ""))
	return files, nil
}
