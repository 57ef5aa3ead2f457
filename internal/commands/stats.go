package commands

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Spending analytics",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "spending",
		Short: "Expense totals per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			points, err := c.SpendingTimeSeries(cmd.Context())
			if err != nil {
				return explain(err)
			}
			tw := newTable(cmd.OutOrStdout(), "DATE", "SPENT")
			for _, p := range points {
				row(tw, p.Date, money(p.TotalSpending))
			}
			return tw.Flush()
		},
	})

	var month string
	categories := &cobra.Command{
		Use:   "categories",
		Short: "Expense totals per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var year, mon int
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("--month must look like 2025-01: %w", err)
				}
				year, mon = t.Year(), int(t.Month())
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			items, err := c.CategorySpending(cmd.Context(), year, mon)
			if err != nil {
				return explain(err)
			}
			tw := newTable(cmd.OutOrStdout(), "CATEGORY", "SPENT", "COUNT", "SHARE")
			for _, it := range items {
				row(tw, it.CategoryName, money(it.TotalSpending), humanize.Comma(int64(it.Count)),
					fmt.Sprintf("%.1f%%", it.Percentage))
			}
			return tw.Flush()
		},
	}
	categories.Flags().StringVar(&month, "month", "", "limit to one month, e.g. 2025-01")
	cmd.AddCommand(categories)

	cmd.AddCommand(&cobra.Command{
		Use:   "prices PRODUCT",
		Short: "Price history of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, data, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			p, err := productByName(data, args[0])
			if err != nil {
				return err
			}
			points, err := c.ProductPriceData(cmd.Context(), p.ID)
			if err != nil {
				return explain(err)
			}
			tw := newTable(cmd.OutOrStdout(), "DATE", "PRICE")
			for _, pt := range points {
				row(tw, pt.Date, money(pt.Price))
			}
			return tw.Flush()
		},
	})

	return cmd
}
