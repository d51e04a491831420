package extract

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pcarvalho/dindim/internal/model"
)

// PDFProvider extracts transaction rows from PDF statements. PDFs have no
// column structure, so the plain text is scanned line by line for
// date/description/amount triples and a synthetic header is emitted.
type PDFProvider struct{}

// FileType implements Provider.
func (p *PDFProvider) FileType() model.FileType {
	return model.FileTypePDF
}

// pdfHeader is the synthetic header for rows recovered from PDF text. The
// labels intentionally match the Nubank BR column names so detection and
// mapping reuse the same path as tabular files.
var pdfHeader = []string{"data", "descricao", "valor"}

// statementLine matches "DD/MM/YYYY  some description  -1.234,56" with an
// optional currency symbol on the amount.
var statementLine = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(.+?)\s+(-?(?:R\$\s?)?[\d.,]+)$`)

// ExtractRows implements Provider.
func (p *PDFProvider) ExtractRows(_ context.Context, data []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{FileType: model.FileTypePDF, Err: err}
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &ExtractionError{
				FileType: model.FileTypePDF,
				Err:      fmt.Errorf("page %d: %w", i, err),
			}
		}
		text.WriteString(content)
		text.WriteString("\n")
	}

	return &Result{
		Header: pdfHeader,
		Rows:   parseStatementLines(text.String()),
	}, nil
}

// parseStatementLines scans extracted text for transaction-shaped lines.
// Non-matching lines (headers, balances, page furniture) are ignored.
func parseStatementLines(text string) []model.RawRow {
	var rows []model.RawRow
	for _, line := range strings.Split(text, "\n") {
		m := statementLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		rows = append(rows, model.NewRawRow(pdfHeader, []string{m[1], strings.TrimSpace(m[2]), m[3]}))
	}
	return rows
}
