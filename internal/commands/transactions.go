package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"finance-tracker/internal/models"
	"finance-tracker/internal/resolver"
)

func newTxCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Record and list income and expenses",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List transactions grouped by day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, data, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			printTransactions(cmd.OutOrStdout(), data)
			return nil
		},
	})

	var (
		txType      string
		description string
		date        string
		priceID     int64
		current     bool
		tags        []string
		eager       bool
	)
	add := &cobra.Command{
		Use:   "add PRODUCT [AMOUNT]",
		Short: "Record a transaction; missing products, prices and tags are created",
		Long: "Record a transaction for PRODUCT. The price is AMOUNT, an existing price\n" +
			"given with --price-id, or the product's current price with --current.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tt, err := models.ParseTransactionType(txType)
			if err != nil {
				return err
			}
			when, err := parseDate(date)
			if err != nil {
				return err
			}

			c, data, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			f := resolver.NewTransactionForm(c, data)
			f.Type = tt
			f.Description = description
			f.Date = when
			f.Product = resolver.Match(data.Products.All(), args[0])
			f.Tags = resolver.MatchAll(data.Tags.All(), tags)
			if eager {
				f.ProductPolicy = resolver.Eager
				f.PricePolicy = resolver.Eager
				f.TagPolicy = resolver.Eager
			}

			switch {
			case len(args) == 2:
				f.Price = resolver.Type[models.ProductPrice](args[1])
			case priceID != 0:
				pp, ok := data.Prices.ByID(priceID)
				if !ok {
					return fmt.Errorf("no price #%d", priceID)
				}
				f.Price = resolver.Select(pp)
			case current:
				prod, ok := f.Product.Item()
				if !ok {
					return fmt.Errorf("--current needs an existing product")
				}
				pp, ok := data.CurrentPrice(prod.ID)
				if !ok {
					return fmt.Errorf("no price recorded for %s", prod.Name)
				}
				f.Price = resolver.Select(pp)
			}

			resp, err := f.Submit(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s of %s for %s (#%d)\n",
				strings.ToLower(string(resp.Transaction.TransactionType)),
				money(resp.ProductPrice.Price), resp.Product.Name, resp.Transaction.ID)
			return nil
		},
	}
	add.Flags().StringVar(&txType, "type", string(models.Expense), "Income or Expense")
	add.Flags().StringVarP(&description, "description", "d", "", "free text note")
	add.Flags().StringVar(&date, "date", "", "transaction date, e.g. 2025-01-22T18:30 (default now)")
	add.Flags().Int64Var(&priceID, "price-id", 0, "use an existing price record")
	add.Flags().BoolVar(&current, "current", false, "use the product's current price")
	add.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag name, repeatable")
	add.Flags().BoolVar(&eager, "eager", false, "create missing product, price and tags before the transaction")
	cmd.AddCommand(add)

	return cmd
}

type txGroup struct {
	date  string
	title string
	total models.Cents
	lines []string
}

// printTransactions writes transactions newest day first, each day with its
// expense total.
func printTransactions(w io.Writer, data *resolver.Collections) {
	txs := data.Transactions.All()
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date.Time) })

	var groups []*txGroup
	groupsMap := make(map[string]*txGroup)
	for _, t := range txs {
		dateStr := t.Date.Format("2006-01-02")
		group, ok := groupsMap[dateStr]
		if !ok {
			group = &txGroup{date: dateStr, title: formatGroupTitle(t.Date.Time)}
			groupsMap[dateStr] = group
			groups = append(groups, group)
		}

		name := fmt.Sprintf("#%d", t.ProductID)
		if p, ok := data.Products.ByID(t.ProductID); ok {
			name = p.Name
		}
		var price models.Cents
		if pp, ok := data.Prices.ByID(t.ProductPriceID); ok {
			price = pp.Price
		}
		sign := "-"
		if t.TransactionType == models.Income {
			sign = "+"
		} else {
			group.total += price
		}

		var tagNames []string
		for _, id := range t.Tags {
			if tag, ok := data.Tags.ByID(id); ok {
				tagNames = append(tagNames, "#"+tag.Name)
			}
		}
		line := fmt.Sprintf("  %s  %-20s %s%s", t.Date.Format("15:04"), name, sign, money(price))
		if t.Description != nil {
			line += "  " + *t.Description
		}
		if len(tagNames) > 0 {
			line += "  " + strings.Join(tagNames, " ")
		}
		group.lines = append(group.lines, line)
	}

	if len(groups) == 0 {
		fmt.Fprintln(w, "No transactions yet")
		return
	}
	for _, g := range groups {
		fmt.Fprintf(w, "%s  (spent %s)\n", g.title, money(g.total))
		for _, l := range g.lines {
			fmt.Fprintln(w, l)
		}
	}
}
