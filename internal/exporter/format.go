package exporter

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency renders a dollar amount the way the dashboard shows
// averages: rounded half to even to whole dollars with thousands separators,
// e.g. "$36,945".
func FormatCurrency(v float64) string {
	return printer.Sprintf("$%d", int64(math.RoundToEven(v)))
}

// FormatPrice renders a whole-dollar price, e.g. "$20,000".
func FormatPrice(v int64) string {
	return printer.Sprintf("$%d", v)
}
