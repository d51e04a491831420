package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcarvalho/dindim/internal/cli"
	"github.com/pcarvalho/dindim/internal/importer"
)

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [session-id]",
		Short: "Cancel an import session and discard its staged transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := importer.New(store)
			if err := svc.CancelSession(ctx, args[0]); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Session %s cancelled", args[0])))
			return nil
		},
	}
}
