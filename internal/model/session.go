package model

import (
	"fmt"
	"time"
)

// SessionStatus is the lifecycle state of an import session.
type SessionStatus string

// Session lifecycle states. Pending, Processing, and Classified are mutable;
// Completed, Error, and Cancelled are terminal.
const (
	SessionPending    SessionStatus = "PENDING"
	SessionProcessing SessionStatus = "PROCESSING"
	SessionClassified SessionStatus = "CLASSIFIED"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionError      SessionStatus = "ERROR"
	SessionCancelled  SessionStatus = "CANCELLED"
)

// Terminal reports whether the status permits no further transitions.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionCompleted, SessionError, SessionCancelled:
		return true
	default:
		return false
	}
}

var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionPending:    {SessionProcessing, SessionError, SessionCancelled},
	SessionProcessing: {SessionClassified, SessionError, SessionCancelled},
	SessionClassified: {SessionCompleted, SessionError, SessionCancelled},
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// transition.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FileType identifies the statement export format at the file level.
type FileType string

// Supported statement file types.
const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
	FileTypePDF  FileType = "pdf"
	FileTypeOFX  FileType = "ofx"
)

// FileTypeFromName infers the file type from a filename extension.
func FileTypeFromName(name string) (FileType, error) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] != '.' {
			continue
		}
		switch ext := name[i+1:]; ext {
		case "csv", "txt":
			return FileTypeCSV, nil
		case "xlsx", "xls":
			return FileTypeXLSX, nil
		case "pdf":
			return FileTypePDF, nil
		case "ofx", "qfx":
			return FileTypeOFX, nil
		default:
			return "", fmt.Errorf("unsupported file extension %q", ext)
		}
	}
	return "", fmt.Errorf("filename %q has no extension", name)
}

// RowError records a row-level parse failure. Row numbers are 1-based and
// count data rows, excluding the header.
type RowError struct {
	Message string `json:"message"`
	Row     int    `json:"row"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ImportSession is the unit of work for one statement file. It owns its
// staged transactions and row errors; the account/budget pair is fixed at
// creation.
type ImportSession struct {
	CreatedAt   time.Time
	ProcessedAt *time.Time
	ID          string
	AccountID   string
	BudgetID    string
	Filename    string
	ErrorDetail string
	FileType    FileType
	Status      SessionStatus
	RowErrors   []RowError
	TotalRows   int
}

// Mutable reports whether the session still accepts staged-row mutations.
func (s *ImportSession) Mutable() bool {
	return !s.Status.Terminal()
}
