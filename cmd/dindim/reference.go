package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pcarvalho/dindim/internal/cli"
	"github.com/pcarvalho/dindim/internal/model"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage budgets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add [name]",
		Short: "Create a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			budget := model.Budget{ID: uuid.NewString(), Name: args[0]}
			if err := store.CreateBudget(ctx, &budget); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created budget %q (%s)", budget.Name, budget.ID)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List budgets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			budgets, err := store.ListBudgets(ctx)
			if err != nil {
				return err
			}
			for _, b := range budgets {
				fmt.Printf("%-38s %s\n", b.ID, b.Name)
			}
			return nil
		},
	})

	return cmd
}

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
	}

	add := &cobra.Command{
		Use:   "add [name]",
		Short: "Create an account in a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			budgetID, _ := cmd.Flags().GetString("budget")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			account := model.Account{ID: uuid.NewString(), BudgetID: budgetID, Name: args[0]}
			if err := store.CreateAccount(ctx, &account); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created account %q (%s)", account.Name, account.ID)))
			return nil
		},
	}
	add.Flags().StringP("budget", "b", "", "budget owning the account (required)")
	_ = add.MarkFlagRequired("budget")
	cmd.AddCommand(add)

	list := &cobra.Command{
		Use:   "list",
		Short: "List a budget's accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			budgetID, _ := cmd.Flags().GetString("budget")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			accounts, err := store.ListAccounts(ctx, budgetID)
			if err != nil {
				return err
			}
			for _, a := range accounts {
				fmt.Printf("%-38s %s\n", a.ID, a.Name)
			}
			return nil
		},
	}
	list.Flags().StringP("budget", "b", "", "budget to list accounts for (required)")
	_ = list.MarkFlagRequired("budget")
	cmd.AddCommand(list)

	return cmd
}

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
	}

	add := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a category in a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			budgetID, _ := cmd.Flags().GetString("budget")
			ctype, _ := cmd.Flags().GetString("type")

			catType := model.CategoryType(ctype)
			if catType != model.CategoryTypeIncome && catType != model.CategoryTypeExpense {
				return fmt.Errorf("invalid category type %q (want income or expense)", ctype)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category := model.Category{
				ID:       uuid.NewString(),
				BudgetID: budgetID,
				Name:     args[0],
				Type:     catType,
				IsActive: true,
			}
			if err := store.CreateCategory(ctx, &category); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q (%s)", category.Name, category.ID)))
			return nil
		},
	}
	add.Flags().StringP("budget", "b", "", "budget owning the category (required)")
	add.Flags().StringP("type", "t", "expense", "category type (income, expense)")
	_ = add.MarkFlagRequired("budget")
	cmd.AddCommand(add)

	list := &cobra.Command{
		Use:   "list",
		Short: "List a budget's categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			budgetID, _ := cmd.Flags().GetString("budget")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.ListCategories(ctx, budgetID)
			if err != nil {
				return err
			}
			for _, c := range categories {
				active := ""
				if !c.IsActive {
					active = cli.StyleSubtle("(inactive)")
				}
				fmt.Printf("%-38s %-8s %s %s\n", c.ID, c.Type, c.Name, active)
			}
			return nil
		},
	}
	list.Flags().StringP("budget", "b", "", "budget to list categories for (required)")
	_ = list.MarkFlagRequired("budget")
	cmd.AddCommand(list)

	return cmd
}
