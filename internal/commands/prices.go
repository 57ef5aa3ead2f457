package commands

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/spf13/cobra"

	"finance-tracker/internal/client"
	"finance-tracker/internal/models"
	"finance-tracker/internal/resolver"
)

func newPricesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prices",
		Aliases: []string{"price"},
		Short:   "Record and inspect product prices",
	}

	var product string
	list := &cobra.Command{
		Use:   "list",
		Short: "List prices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, data, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			prices := data.Prices.All()
			if product != "" {
				p, err := productByName(data, product)
				if err != nil {
					return err
				}
				prices = data.PricesOf(p.ID)
			}
			sort.SliceStable(prices, func(i, j int) bool {
				return prices[i].CreatedAt.After(prices[j].CreatedAt.Time)
			})

			tw := newTable(cmd.OutOrStdout(), "ID", "PRODUCT", "PRICE", "RECORDED")
			for _, pp := range prices {
				name := ""
				if p, ok := data.Products.ByID(pp.ProductID); ok {
					name = p.Name
				}
				row(tw, pp.ID, orDash(name), money(pp.Price), ago(pp.CreatedAt.Time))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&product, "product", "", "only show prices of this product")
	cmd.AddCommand(list)

	var date string
	var eager bool
	add := &cobra.Command{
		Use:   "add PRODUCT AMOUNT",
		Short: "Record a price, creating the product if it does not exist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			createdAt, err := parseDate(date)
			if err != nil {
				return err
			}
			c, data, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			f := resolver.NewPriceForm(c, data)
			f.Product = resolver.Match(data.Products.All(), args[0])
			f.Amount = args[1]
			f.CreatedAt = createdAt
			if eager {
				f.ProductPolicy = resolver.Eager
			}

			price, err := f.Submit(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s (#%d)\n", money(price.Price), args[0], price.ID)
			return nil
		},
	}
	add.Flags().StringVar(&date, "date", "", "when the price was seen, e.g. 2025-01-22 (default now)")
	add.Flags().BoolVar(&eager, "eager", false, "create a missing product before recording the price")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "current PRODUCT",
		Short: "Show the most recent price of a product",
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
			cur, err := c.CurrentPrice(cmd.Context(), p.ID)
			if client.IsStatus(err, http.StatusNotFound) {
				return fmt.Errorf("no price recorded for %s", p.Name)
			}
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (price #%d, %s)\n",
				p.Name, money(cur.Price), cur.ID, cur.CreatedAt.Format(models.TimestampLayout))
			return nil
		},
	})

	return cmd
}
