// Package importer reads bank statements and bookkeeping workbooks into
// domain records.
package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for text that is not a Belgian amount.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInvalidDate is returned for text in none of the accepted date layouts.
var ErrInvalidDate = errors.New("invalid date")

var dateLayouts = []string{"02/01/2006", "02-01-2006", "2006-01-02"}

// ParseBelgianAmount converts "1.234,56", "-12,50", "12,50-" or
// "€ 1.234,56" into a decimal. Dots are thousands separators and the comma
// is the decimal mark.
func ParseBelgianAmount(s string) (decimal.Decimal, error) {
	text := strings.ReplaceAll(s, " ", " ")
	text = strings.ReplaceAll(text, "EUR", "")
	text = strings.ReplaceAll(text, "€", "")
	text = strings.ReplaceAll(text, " ", "")

	negative := false
	switch {
	case strings.HasSuffix(text, "-"):
		negative = true
		text = strings.TrimSuffix(text, "-")
	case strings.HasSuffix(text, "+"):
		text = strings.TrimSuffix(text, "+")
	}
	switch {
	case strings.HasPrefix(text, "-"):
		negative = true
		text = text[1:]
	case strings.HasPrefix(text, "+"):
		text = text[1:]
	}

	if !strings.ContainsAny(text, "0123456789") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	text = strings.ReplaceAll(text, ".", "")
	text = strings.ReplaceAll(text, ",", ".")
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseBelgianDate accepts DD/MM/YYYY, DD-MM-YYYY and YYYY-MM-DD.
func ParseBelgianDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
