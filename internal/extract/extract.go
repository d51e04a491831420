// Package extract provides raw row extraction from statement files. One
// provider per file type; each yields ordered rows of label→raw-string
// fields and knows nothing about bank formats or transaction semantics.
package extract

import (
	"context"
	"fmt"

	"github.com/pcarvalho/dindim/internal/model"
)

// ExtractionError indicates a file could not be read at all. It is fatal to
// the whole import session, unlike row-level parse errors.
type ExtractionError struct {
	Err      error
	FileType model.FileType
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.FileType, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Result is the output of a provider: the header labels and the data rows in
// file order.
type Result struct {
	Header []string
	Rows   []model.RawRow
}

// Provider extracts raw rows from one statement file type.
type Provider interface {
	FileType() model.FileType
	ExtractRows(ctx context.Context, data []byte) (*Result, error)
}

// Registry maps file types to providers.
type Registry struct {
	providers map[model.FileType]Provider
}

// NewRegistry returns an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[model.FileType]Provider)}
}

// Register adds a provider. Later registrations replace earlier ones for the
// same file type.
func (r *Registry) Register(p Provider) {
	r.providers[p.FileType()] = p
}

// Get returns the provider for a file type.
func (r *Registry) Get(ft model.FileType) (Provider, error) {
	p, ok := r.providers[ft]
	if !ok {
		return nil, fmt.Errorf("no extraction provider for file type %q", ft)
	}
	return p, nil
}

// DefaultRegistry returns a registry with all built-in providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CSVProvider{})
	r.Register(&XLSXProvider{})
	r.Register(&PDFProvider{})
	r.Register(&OFXProvider{})
	return r
}
