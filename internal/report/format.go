package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders d the Belgian way: "1.234,56".
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// FormatEUR renders d as "€ 1.234,56".
func FormatEUR(d decimal.Decimal) string {
	return "€ " + FormatAmount(d)
}

// categoryTitle turns "kosten-opleiding-en-vorming" into
// "Kosten Opleiding En Vorming" for categories without a display name.
func categoryTitle(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func displayLabel(item LineItem) string {
	if item.Label != "" && item.Label != item.CategoryID {
		return item.Label
	}
	return categoryTitle(item.CategoryID)
}
