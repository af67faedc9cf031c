package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mickjrp/E-Commerce-Analytics/internal/seed"
	"github.com/Mickjrp/E-Commerce-Analytics/internal/staging"
)

var (
	seedOpts = seed.DefaultOptions()
	seedEnd  string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the staging collections with deterministic synthetic data (development only)",
	Long: `Generates marketplace-shaped documents for every staging collection and replaces
the collections in MongoDB. The same --seed always produces the same documents.
This overwrites staging data; never point it at a production store.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		end, err := time.Parse("2006-01-02", seedEnd)
		if err != nil {
			return fmt.Errorf("invalid --end %q: %w", seedEnd, err)
		}
		seedOpts.End = end
		return runSeed(commandContext(cmd), current, seedOpts)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedOpts.Customers, "customers", seedOpts.Customers, "Number of customer documents")
	seedCmd.Flags().IntVar(&seedOpts.Sellers, "sellers", seedOpts.Sellers, "Number of seller documents")
	seedCmd.Flags().IntVar(&seedOpts.Products, "products", seedOpts.Products, "Number of product documents")
	seedCmd.Flags().IntVar(&seedOpts.Orders, "orders", seedOpts.Orders, "Number of order documents")
	seedCmd.Flags().Int64Var(&seedOpts.Seed, "seed", seedOpts.Seed, "Random seed")
	seedCmd.Flags().StringVar(&seedEnd, "end", seedOpts.End.Format("2006-01-02"), "Latest purchase date (YYYY-MM-DD)")
}

func runSeed(ctx context.Context, a *app, opts seed.Options) error {
	client, err := staging.Connect(ctx, a.cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			a.log.WarnContext(ctx, "mongo disconnect failed", "error", err)
		}
	}()

	collections := seed.Generate(opts)
	w := staging.NewWriter(client.Database(a.cfg.Mongo.Database))
	for _, name := range collections.Names() {
		n, err := w.Replace(ctx, name, collections[name], seed.KeyField(name))
		if err != nil {
			return err
		}
		a.log.InfoContext(ctx, "seeded collection", "collection", name, "documents", n)
	}
	return nil
}
