package model

// RawRow is one row of a statement export as produced by an extraction
// provider: an ordered mapping from column label to the raw, unmodified
// string value. It is retained verbatim on staged transactions for audit.
type RawRow struct {
	Values map[string]string `json:"values"`
	Labels []string          `json:"labels"`
}

// NewRawRow builds a RawRow from parallel label/value slices. Extra values
// without a label are dropped; missing values default to empty strings.
func NewRawRow(labels, values []string) RawRow {
	row := RawRow{
		Labels: labels,
		Values: make(map[string]string, len(labels)),
	}
	for i, label := range labels {
		if i < len(values) {
			row.Values[label] = values[i]
		} else {
			row.Values[label] = ""
		}
	}
	return row
}

// Get returns the raw value for a column label.
func (r RawRow) Get(label string) (string, bool) {
	v, ok := r.Values[label]
	return v, ok
}

// IsBlank reports whether every field in the row is empty or whitespace.
func (r RawRow) IsBlank() bool {
	for _, v := range r.Values {
		for _, c := range v {
			if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
				return false
			}
		}
	}
	return true
}
