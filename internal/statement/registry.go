// Package statement turns raw bank statement rows into canonical
// transactions: format detection from header labels, date/amount
// normalization, and row mapping.
package statement

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Format names a known bank export layout.
type Format string

// Known statement formats. Generic is the catch-all fallback and uses
// heuristic label matching instead of an exact column rule.
const (
	FormatNubankBR      Format = "NUBANK_BR"
	FormatNubankIntl    Format = "NUBANK_INTL"
	FormatNubankGeneric Format = "NUBANK_GENERIC"
	FormatBancoBrasil   Format = "BANCO_BRASIL"
	FormatGeneric       Format = "GENERIC"
)

// accentStripper decomposes characters and removes combining marks, so
// "Descrição" folds to "Descricao".
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeLabel lowercases, trims, and strips accents from a column label.
func NormalizeLabel(label string) string {
	s, _, err := transform.String(accentStripper, label)
	if err != nil {
		s = label
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// rule is one detection entry: a format plus the label tokens that must all
// be present in the header for the rule to match.
type rule struct {
	format   Format
	required []string
}

// Registry detects a statement format from header labels. Rules are
// evaluated in registration order and the first match wins; order is part of
// the contract because rule token sets overlap (NUBANK_BR requires
// data+valor+descricao and must be checked before NUBANK_GENERIC, which
// requires only data+valor).
type Registry struct {
	rules []rule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a detection rule. Required tokens are matched as
// substrings of the normalized, joined header.
func (r *Registry) Register(format Format, required ...string) {
	normalized := make([]string, len(required))
	for i, tok := range required {
		normalized[i] = NormalizeLabel(tok)
	}
	r.rules = append(r.rules, rule{format: format, required: normalized})
}

// Detect returns the first registered format whose required tokens all
// appear in the header, or FormatGeneric when nothing matches.
func (r *Registry) Detect(header []string) Format {
	normalized := make([]string, 0, len(header))
	for _, label := range header {
		normalized = append(normalized, NormalizeLabel(label))
	}
	joined := strings.Join(normalized, " ")

	for _, ru := range r.rules {
		if matchesAll(joined, ru.required) {
			return ru.format
		}
	}
	return FormatGeneric
}

func matchesAll(joined string, required []string) bool {
	for _, tok := range required {
		if !strings.Contains(joined, tok) {
			return false
		}
	}
	return true
}

// DefaultRegistry returns the registry with the built-in bank formats, most
// specific first.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(FormatNubankBR, "data", "valor", "descrição")
	r.Register(FormatBancoBrasil, "data", "lançamento", "valor")
	r.Register(FormatNubankGeneric, "data", "valor")
	r.Register(FormatNubankIntl, "date", "title", "amount")
	return r
}
