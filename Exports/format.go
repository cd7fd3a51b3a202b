package Exports

import (
	"math"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.French)

// Amount renders a whole-franc amount with French digit grouping, e.g.
// "107 325". Grouping spaces are plain ASCII spaces so the text survives
// PDF fonts and CSV readers.
func Amount(v float64) string {
	s := printer.Sprintf("%d", int64(math.Round(v)))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
}

// Money appends the currency to Amount.
func Money(v float64, currency string) string {
	if currency == "" {
		currency = "FCFA"
	}
	return Amount(v) + " " + currency
}

// Rate renders a percentage the French way: 19,25 %.
func Rate(v float64) string {
	s := strings.TrimRight(strings.TrimRight(printer.Sprintf("%.2f", v), "0"), ",.")
	return strings.ReplaceAll(s, ".", ",") + " %"
}

// Date turns YYYY-MM-DD into DD/MM/YYYY; anything else is returned as is.
func Date(s string) string {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return t.Format("02/01/2006")
}
