package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/ledgerflow/internal/cli"
	"github.com/Veraticus/ledgerflow/internal/common"
	"github.com/Veraticus/ledgerflow/internal/ledger"
	"github.com/Veraticus/ledgerflow/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage income and expense categories",
		Long: `Manage categories. Default categories are read-only. Renaming a category
relabels its transactions and budgets; deleting one moves them to another
category of the same type or to Uncategorized.`,
		Example: `  ledger categories add Coffee
  ledger categories rename Coffee --name Cafe
  ledger categories delete Cafe --reassign Food`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(renameCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func categoryType(income bool) model.CategoryType {
	if income {
		return model.CategoryTypeIncome
	}
	return model.CategoryTypeExpense
}

// explainRule turns a rejected category change into user guidance.
func explainRule(err error) error {
	switch {
	case errors.Is(err, ledger.ErrCategoryReadOnly):
		return common.NewUserError("default categories cannot be changed", err)
	case errors.Is(err, ledger.ErrCategoryDuplicate):
		return common.NewUserError("pick a name not used by another category of the same type", err)
	}
	return err
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var rows [][]string
			for _, c := range a.engine.Snapshot().Categories() {
				kind := ""
				if c.IsDefault {
					kind = cli.SubtleStyle.Render("default")
				}
				rows = append(rows, []string{cli.SubtleStyle.Render(c.ID), c.Name, string(c.Type), kind})
			}
			fmt.Println(cli.RenderTable([]string{"ID", "NAME", "TYPE", ""}, rows)) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var icon, color string
	var income bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := a.engine.AddCategory(cmd.Context(), model.CategoryInput{
				Name:  args[0],
				Icon:  icon,
				Color: color,
				Type:  categoryType(income),
			})
			if err != nil {
				return explainRule(err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added %s category %s", c.Type, c.Name))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "", "icon name")
	cmd.Flags().StringVar(&color, "color", "", "hex color, e.g. #FF6B6B")
	cmd.Flags().BoolVar(&income, "income", false, "income category (default: expense)")

	return cmd
}

func renameCategoryCmd() *cobra.Command {
	var name, icon, color, newType string
	var income bool

	cmd := &cobra.Command{
		Use:   "rename <category>",
		Short: "Rename a category or change its type",
		Long: `Rename a category or change its icon, color or type. Transactions and budgets
follow the new name. Changing the type flips the sign of every affected
transaction and moves account balances accordingly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := findCategory(a.engine.Snapshot(), args[0], categoryType(income))
			if err != nil {
				return err
			}

			updated, err := a.engine.RenameCategory(cmd.Context(), c.ID, model.CategoryInput{
				Name:  name,
				Icon:  icon,
				Color: color,
				Type:  model.CategoryType(newType),
			})
			if err != nil {
				return explainRule(err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Category %s is now %s (%s)", c.Name, updated.Name, updated.Type))) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "new name")
	cmd.Flags().StringVar(&icon, "icon", "", "new icon")
	cmd.Flags().StringVar(&color, "color", "", "new color")
	cmd.Flags().StringVar(&newType, "type", "", "new type: income or expense")
	cmd.Flags().BoolVar(&income, "income", false, "look the category up among income categories")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var reassign string
	var income bool

	cmd := &cobra.Command{
		Use:   "delete <category>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.engine.Snapshot()
			typ := categoryType(income)
			c, err := findCategory(s, args[0], typ)
			if err != nil {
				return err
			}
			target := ""
			if reassign != "" {
				r, err := findCategory(s, reassign, typ)
				if err != nil {
					return err
				}
				target = r.ID
			}

			if err := a.engine.DeleteCategory(cmd.Context(), c.ID, target); err != nil {
				return explainRule(err)
			}
			fmt.Println(cli.FormatSuccess("Deleted category " + c.Name)) //nolint:forbidigo // User-facing output
			return nil
		},
	}

	cmd.Flags().StringVarP(&reassign, "reassign", "r", "", "move transactions and budgets to this category")
	cmd.Flags().BoolVar(&income, "income", false, "look categories up among income categories")

	return cmd
}
