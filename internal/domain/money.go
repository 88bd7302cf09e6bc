package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// idPrinter formats numbers with Indonesian grouping ("." every three digits).
var idPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders a whole-rupiah amount the way the board displays it,
// e.g. 15000 -> "Rp 15.000".
func FormatRupiah(amount int64) string {
	return idPrinter.Sprintf("Rp %v", number.Decimal(amount))
}
