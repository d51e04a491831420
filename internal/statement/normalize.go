package statement

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormatError indicates a date string matched none of the supported
// patterns.
type DateFormatError struct {
	Raw string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("unrecognized date format: %q", e.Raw)
}

// AmountFormatError indicates an amount string did not parse as a number
// after cleaning.
type AmountFormatError struct {
	Raw string
}

func (e *AmountFormatError) Error() string {
	return fmt.Sprintf("unrecognized amount format: %q", e.Raw)
}

// datePatterns are the supported date layouts, tried in order. These are
// calendar dates; no timezone adjustment is applied.
var datePatterns = []string{
	"02/01/2006", // DD/MM/YYYY, the Brazilian convention
	"2006-01-02", // ISO 8601
}

// ParseDate parses a statement date string into a calendar date.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range datePatterns {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateFormatError{Raw: raw}
}

// brazilianGrouped matches amounts in Brazilian locale formatting: 1-3
// leading digits, dot-separated thousands groups, and a mandatory
// comma + two decimals (e.g. "1.234,56"). The mandatory decimal tail is a
// deliberate tie-break: "1,234" is never treated as a grouped amount.
var brazilianGrouped = regexp.MustCompile(`^\d{1,3}(\.\d{3})*,\d{2}$`)

// currencyStripper removes currency symbols and whitespace before parsing.
var currencyStripper = strings.NewReplacer(
	"R$", "",
	"US$", "",
	"$", "",
	" ", "",
	" ", "",
	"\t", "",
)

// ParseAmount parses a statement amount string into a signed decimal. Sign
// handling stays with the caller: the mapper derives the transaction kind
// from the sign before taking the absolute value.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := currencyStripper.Replace(strings.TrimSpace(raw))

	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	if brazilianGrouped.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &AmountFormatError{Raw: raw}
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
