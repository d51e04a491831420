package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pcarvalho/dindim/internal/cli"
	"github.com/pcarvalho/dindim/internal/common"
	"github.com/pcarvalho/dindim/internal/importer"
	"github.com/pcarvalho/dindim/internal/model"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a bank statement export",
		Long: `Import a bank statement file (CSV, XLSX, PDF, or OFX/QFX) into a
review session. Parsed transactions are staged for classification; nothing
reaches your budget until you confirm the session.

Examples:
  dindim import ~/Downloads/nubank_2025_01.csv --account account-1 --budget budget-1
  dindim import extrato.ofx --account account-1 --budget budget-1
  dindim import extrato.txt --account account-1 --budget budget-1 --type csv`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringP("account", "a", "", "account to import into (required)")
	cmd.Flags().StringP("budget", "b", "", "budget owning the account (required)")
	cmd.Flags().StringP("type", "t", "", "file type override (csv, xlsx, pdf, ofx)")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("budget")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	accountID, _ := cmd.Flags().GetString("account")
	budgetID, _ := cmd.Flags().GetString("budget")
	typeFlag, _ := cmd.Flags().GetString("type")

	path := args[0]
	filename := filepath.Base(path)

	fileType, err := resolveFileType(typeFlag, filename)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var bar *progressbar.ProgressBar
	svc := importer.New(store, importer.WithProgress(func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Parsing rows..."),
			)
		}
		_ = bar.Set(done)
	}))

	session, err := svc.CreateSession(ctx, data, fileType, accountID, budgetID, filename)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		if session != nil {
			fmt.Println(cli.FormatError(fmt.Sprintf("Session %s failed: %v", session.ID, err)))
			printRowErrors(session)
			return common.NewUserError(fmt.Sprintf("import of %s failed", filename), err)
		}
		return err
	}

	details, err := svc.GetSessionDetails(ctx, session.ID)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Import session " + session.ID))
	printStagedTable(details.Staged)
	printRowErrors(session)

	fmt.Printf("\n%s  %d staged, %d probable duplicates, %d rows total\n",
		cli.FormatSuccess("Parsed "+filename),
		details.Summary.Total, details.Summary.Duplicates, session.TotalRows)
	fmt.Println(cli.StyleSubtle(fmt.Sprintf(
		"Next: dindim classify %s <staged-id> <category-id>, then dindim confirm %s",
		session.ID, session.ID)))
	return nil
}

func printStagedTable(staged []model.StagedTransaction) {
	if len(staged) == 0 {
		return
	}

	header := fmt.Sprintf("%-4s %-38s %-12s %-10s %-30s %s",
		"#", "ID", "Date", "Amount", "Description", "")
	fmt.Println(cli.TableHeaderStyle.Render(header))

	for _, st := range staged {
		marker := ""
		if st.IsDuplicate {
			marker = cli.WarningStyle.Render(cli.DuplicateIcon + " duplicate")
		}
		fmt.Printf("%-4d %-38s %-12s %-10s %-30s %s\n",
			st.Position, st.ID,
			st.Canonical.Date.Format("2006-01-02"),
			formatAmount(st.Canonical),
			truncate(st.Canonical.Description, 30),
			marker)
	}
}

func printRowErrors(session *model.ImportSession) {
	for _, re := range session.RowErrors {
		fmt.Println(cli.FormatWarning(re.Error()))
	}
}
