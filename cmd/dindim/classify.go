package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcarvalho/dindim/internal/cli"
	"github.com/pcarvalho/dindim/internal/importer"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [session-id] [staged-id] [category-id]",
		Short: "Assign a category to a staged transaction",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := importer.New(store)
			staged, err := svc.ClassifyTransaction(ctx, args[0], args[1], args[2])
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Classified %q (%s %s) as %s",
				staged.Canonical.Description,
				staged.Canonical.Date.Format("2006-01-02"),
				formatAmount(staged.Canonical),
				staged.CategoryID)))
			return nil
		},
	}
}
