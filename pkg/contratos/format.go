package contratos

import (
	"encoding/json"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencyColumns are the columns rewritten into Brazilian notation after
// flattening.
var CurrencyColumns = []string{"valorInicialCompra", "valorFinalCompra"}

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders a number in Brazilian notation: '.' for thousands
// grouping, ',' as the decimal separator, always two fraction digits
// (1234567.89 -> "1.234.567,89", 0.5 -> "0,50").
func FormatBRL(v float64) string {
	return brPrinter.Sprintf("%v", number.Decimal(v, number.Scale(2)))
}

// FormatCurrencyColumns rewrites numeric values of the given columns in
// place as Brazilian-formatted strings. This is destructive: the column
// holds text afterwards and downstream numeric consumers must re-parse it.
// Values that are already strings are left alone, so re-running over
// formatted records is a no-op. With no columns given, CurrencyColumns
// is used.
func FormatCurrencyColumns(records []Record, logger zerolog.Logger, columns ...string) {
	if len(columns) == 0 {
		columns = CurrencyColumns
	}

	for _, col := range columns {
		formatted := 0
		for _, rec := range records {
			v, ok := rec[col]
			if !ok || v == nil {
				continue
			}

			switch n := v.(type) {
			case float64:
				rec[col] = FormatBRL(n)
				formatted++
			case json.Number:
				if f, err := n.Float64(); err == nil {
					rec[col] = FormatBRL(f)
					formatted++
				}
			case int:
				rec[col] = FormatBRL(float64(n))
				formatted++
			case int64:
				rec[col] = FormatBRL(float64(n))
				formatted++
			}
		}

		if formatted > 0 {
			logger.Info().
				Str("coluna", col).
				Int("records", formatted).
				Msg("Column formatted to Brazilian notation")
		}
	}
}
