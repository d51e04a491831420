package importer

import (
	"github.com/google/uuid"

	"github.com/pcarvalho/dindim/internal/model"
	"github.com/pcarvalho/dindim/internal/statement"
)

// parseOutcome is what one pass over a statement's rows produces.
type parseOutcome struct {
	Staged    []model.StagedTransaction
	Errors    []model.RowError
	TotalRows int
}

// parseRows maps every extracted row under the detected format. Blank rows
// count toward the total but are neither staged nor reported. A row that
// fails to map becomes a RowError and the remaining rows keep going.
func (s *Service) parseRows(sessionID string, format statement.Format, rows []model.RawRow) parseOutcome {
	var outcome parseOutcome
	for i, row := range rows {
		position := i + 1
		outcome.TotalRows++
		if s.progress != nil {
			s.progress(position, len(rows))
		}
		if row.IsBlank() {
			continue
		}

		canonical, err := statement.MapRow(row, format)
		if err != nil {
			outcome.Errors = append(outcome.Errors, model.RowError{
				Row:     position,
				Message: err.Error(),
			})
			continue
		}

		outcome.Staged = append(outcome.Staged, model.StagedTransaction{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Canonical: canonical,
			Position:  position,
		})
	}
	return outcome
}
