package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"

	"github.com/pcarvalho/dindim/internal/model"
)

// CSVProvider reads comma, semicolon, or tab separated exports. Brazilian
// bank exports commonly use semicolons, so the delimiter is sniffed from the
// header line.
type CSVProvider struct{}

// FileType implements Provider.
func (p *CSVProvider) FileType() model.FileType {
	return model.FileTypeCSV
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExtractRows implements Provider.
func (p *CSVProvider) ExtractRows(_ context.Context, data []byte) (*Result, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, &ExtractionError{FileType: model.FileTypeCSV, Err: err}
	}
	if len(records) == 0 {
		return nil, &ExtractionError{FileType: model.FileTypeCSV, Err: errors.New("file has no header row")}
	}

	header := records[0]
	rows := make([]model.RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, model.NewRawRow(header, rec))
	}

	return &Result{Header: header, Rows: rows}, nil
}

// sniffDelimiter picks the delimiter with the most occurrences on the first
// line, defaulting to a comma.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	best, count := ',', bytes.Count(line, []byte{','})
	for _, cand := range []byte{';', '\t'} {
		if n := bytes.Count(line, []byte{cand}); n > count {
			best, count = rune(cand), n
		}
	}
	return best
}
