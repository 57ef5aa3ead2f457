package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"finance-tracker/internal/models"
	"finance-tracker/internal/resolver"
)

func policy(serverSide bool, def resolver.Policy) resolver.Policy {
	if serverSide {
		return resolver.ServerSide
	}
	return def
}

func newCategoriesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "List and create categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, data, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "PARENT")
			for _, c := range data.Categories.All() {
				parent := ""
				if c.ParentCategoryID != nil {
					if p, ok := data.Categories.ByID(*c.ParentCategoryID); ok {
						parent = p.Name
					}
				}
				row(tw, c.ID, c.Name, orDash(parent))
			}
			return tw.Flush()
		},
	})

	var parent string
	var serverSide bool
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a category, optionally under a parent that is created if missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, data, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			f := resolver.NewCategoryForm(c, data)
			f.Name = args[0]
			f.Parent = resolver.Match(data.Categories.All(), parent)
			f.ParentPolicy = policy(serverSide, f.ParentPolicy)

			cat, err := f.Submit(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %s (#%d)\n", cat.Name, cat.ID)
			return nil
		},
	}
	add.Flags().StringVar(&parent, "parent", "", "parent category name")
	add.Flags().BoolVar(&serverSide, "server-side", false, "let the server create a missing parent")
	cmd.AddCommand(add)

	return cmd
}

func newProductsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "List and create products",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List products with their category and current price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, data, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "CATEGORY", "PRICE")
			for _, p := range data.Products.All() {
				category := ""
				if p.CategoryID != nil {
					if c, ok := data.Categories.ByID(*p.CategoryID); ok {
						category = c.Name
					}
				}
				price := ""
				if cur, ok := data.CurrentPrice(p.ID); ok {
					price = money(cur.Price)
				}
				row(tw, p.ID, p.Name, orDash(category), orDash(price))
			}
			return tw.Flush()
		},
	})

	var category string
	var serverSide bool
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a product, optionally in a category that is created if missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, data, err := a.loaded(cmd.Context())
			if err != nil {
				return err
			}
			f := resolver.NewProductForm(c, data)
			f.Name = args[0]
			f.Category = resolver.Match(data.Categories.All(), category)
			f.CategoryPolicy = policy(serverSide, f.CategoryPolicy)

			prod, err := f.Submit(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created product %s (#%d)\n", prod.Name, prod.ID)
			return nil
		},
	}
	add.Flags().StringVar(&category, "category", "", "category name")
	add.Flags().BoolVar(&serverSide, "server-side", false, "let the server create a missing category")
	cmd.AddCommand(add)

	return cmd
}

func newTagsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tags",
		Aliases: []string{"tag"},
		Short:   "List and create tags",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			tags, err := c.ListTags(cmd.Context())
			if err != nil {
				return explain(err)
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "NAME")
			for _, t := range tags {
				row(tw, t.ID, t.Name)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			f := resolver.NewTagForm(c, resolver.NewCollections())
			f.Name = args[0]
			tag, err := f.Submit(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created tag %s (#%d)\n", tag.Name, tag.ID)
			return nil
		},
	})

	return cmd
}

// productByName finds a known product or fails with a hint.
func productByName(data *resolver.Collections, name string) (models.Product, error) {
	p, ok := resolver.FindByName(&data.Products, name)
	if !ok {
		return models.Product{}, fmt.Errorf("no product named %q", name)
	}
	return p, nil
}
