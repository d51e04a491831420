package statement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pcarvalho/dindim/internal/model"
)

// ErrMissingField indicates no candidate column supplied a required field.
var ErrMissingField = errors.New("no matching column")

// MappingError is a row-scoped mapping failure wrapping the underlying
// normalizer error. Callers catch it per row and continue.
type MappingError struct {
	Err   error
	Field string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// fieldRule lists, per field, the candidate column labels (normalized) in
// preference order. The first label present in the row wins.
type fieldRule struct {
	description []string
	date        []string
	amount      []string
}

var fieldRules = map[Format]fieldRule{
	FormatNubankBR: {
		description: []string{"descricao"},
		date:        []string{"data"},
		amount:      []string{"valor"},
	},
	FormatNubankIntl: {
		description: []string{"title"},
		date:        []string{"date"},
		amount:      []string{"amount"},
	},
	FormatNubankGeneric: {
		description: []string{"descricao", "titulo", "identificador"},
		date:        []string{"data"},
		amount:      []string{"valor"},
	},
	FormatBancoBrasil: {
		description: []string{"lancamento", "historico", "detalhes"},
		date:        []string{"data"},
		amount:      []string{"valor"},
	},
	FormatGeneric: {
		description: []string{"descricao", "description", "historico", "title", "memo", "name", "lancamento"},
		date:        []string{"data", "date"},
		amount:      []string{"valor", "amount", "value", "montante"},
	},
}

// MapRow converts one raw row into a canonical transaction using the
// detected format's column rule. The source row is carried along unmodified
// for audit.
func MapRow(row model.RawRow, format Format) (model.CanonicalTransaction, error) {
	rule, ok := fieldRules[format]
	if !ok {
		rule = fieldRules[FormatGeneric]
	}

	description, ok := firstPresent(row, rule.description)
	if !ok {
		return model.CanonicalTransaction{}, &MappingError{Field: "description", Err: ErrMissingField}
	}

	dateRaw, ok := firstPresent(row, rule.date)
	if !ok {
		return model.CanonicalTransaction{}, &MappingError{Field: "date", Err: ErrMissingField}
	}
	date, err := ParseDate(dateRaw)
	if err != nil {
		return model.CanonicalTransaction{}, &MappingError{Field: "date", Err: err}
	}

	amountRaw, ok := firstPresent(row, rule.amount)
	if !ok {
		return model.CanonicalTransaction{}, &MappingError{Field: "amount", Err: ErrMissingField}
	}
	signed, err := ParseAmount(amountRaw)
	if err != nil {
		return model.CanonicalTransaction{}, &MappingError{Field: "amount", Err: err}
	}

	return model.CanonicalTransaction{
		Description: strings.TrimSpace(description),
		Date:        date,
		Kind:        model.KindFromSignedAmount(signed),
		Amount:      signed.Abs(),
		SourceRow:   row,
	}, nil
}

// firstPresent returns the value of the first candidate label present in the
// row, matching on normalized labels.
func firstPresent(row model.RawRow, candidates []string) (string, bool) {
	for _, want := range candidates {
		for _, label := range row.Labels {
			if NormalizeLabel(label) == want {
				return row.Values[label], true
			}
		}
	}
	return "", false
}
