package extract

import (
	"bytes"
	"context"
	"errors"

	"github.com/xuri/excelize/v2"

	"github.com/pcarvalho/dindim/internal/model"
)

// XLSXProvider reads spreadsheet exports. Only the first sheet is consumed;
// the first non-empty row is the header.
type XLSXProvider struct{}

// FileType implements Provider.
func (p *XLSXProvider) FileType() model.FileType {
	return model.FileTypeXLSX
}

// ExtractRows implements Provider.
func (p *XLSXProvider) ExtractRows(_ context.Context, data []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ExtractionError{FileType: model.FileTypeXLSX, Err: err}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ExtractionError{FileType: model.FileTypeXLSX, Err: errors.New("workbook has no sheets")}
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ExtractionError{FileType: model.FileTypeXLSX, Err: err}
	}

	// Skip leading empty rows before the header.
	start := 0
	for start < len(cells) && emptyCells(cells[start]) {
		start++
	}
	if start >= len(cells) {
		return nil, &ExtractionError{FileType: model.FileTypeXLSX, Err: errors.New("sheet has no header row")}
	}

	header := cells[start]
	rows := make([]model.RawRow, 0, len(cells)-start-1)
	for _, rec := range cells[start+1:] {
		rows = append(rows, model.NewRawRow(header, rec))
	}

	return &Result{Header: header, Rows: rows}, nil
}

func emptyCells(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
