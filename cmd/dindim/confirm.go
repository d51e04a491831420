package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcarvalho/dindim/internal/cli"
	"github.com/pcarvalho/dindim/internal/importer"
)

func confirmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm [session-id]",
		Short: "Commit a session's classified transactions",
		Long: `Commit the reviewed session as one atomic batch. Only classified
transactions are imported; probable duplicates are skipped unless
--include-duplicates is set. A session can be committed exactly once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			includeDuplicates, _ := cmd.Flags().GetBool("include-duplicates")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := importer.New(store)
			result, err := svc.ConfirmImport(ctx, args[0], includeDuplicates)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Imported %d transactions from session %s", result.ImportedCount, args[0])))
			return nil
		},
	}
	cmd.Flags().Bool("include-duplicates", false, "also import transactions flagged as probable duplicates")
	return cmd
}
