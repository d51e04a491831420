package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcarvalho/dindim/internal/cli"
	"github.com/pcarvalho/dindim/internal/importer"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect import sessions",
	}
	cmd.AddCommand(sessionsListCmd())
	cmd.AddCommand(sessionsShowCmd())
	return cmd
}

func sessionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a budget's import sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			budgetID, _ := cmd.Flags().GetString("budget")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sessions, err := store.ListSessions(ctx, budgetID)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println(cli.StyleSubtle("No import sessions yet."))
				return nil
			}

			header := fmt.Sprintf("%-38s %-12s %-6s %-22s %s",
				"ID", "Status", "Rows", "Created", "File")
			fmt.Println(cli.TableHeaderStyle.Render(header))
			for _, s := range sessions {
				fmt.Printf("%-38s %-12s %-6d %-22s %s\n",
					s.ID, s.Status, s.TotalRows,
					s.CreatedAt.Format("2006-01-02 15:04:05"), s.Filename)
			}
			return nil
		},
	}
	cmd.Flags().StringP("budget", "b", "", "budget to list sessions for (required)")
	_ = cmd.MarkFlagRequired("budget")
	return cmd
}

func sessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show one session with its staged transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := importer.New(store)
			details, err := svc.GetSessionDetails(ctx, args[0])
			if err != nil {
				return err
			}
			session := details.Session

			fmt.Println(cli.FormatTitle("Session " + session.ID))
			fmt.Printf("  File:    %s (%s)\n", session.Filename, session.FileType)
			fmt.Printf("  Status:  %s\n", session.Status)
			fmt.Printf("  Rows:    %d total, %d staged, %d errors\n",
				session.TotalRows, details.Summary.Total, len(session.RowErrors))
			fmt.Printf("  Review:  %d classified, %d pending, %d probable duplicates\n",
				details.Summary.Classified, details.Summary.Pending, details.Summary.Duplicates)
			if session.ErrorDetail != "" {
				fmt.Println(cli.FormatError(session.ErrorDetail))
			}
			fmt.Println()

			printStagedTable(details.Staged)
			printRowErrors(session)
			return nil
		},
	}
}
