package utils

import (
	"fmt"
	"strconv"
	"strings"

	"mse-harvester/src/models"
)

// -----------------------------------------------------------------------------
// Field normalization.
//
// The source HTML is semi-structured and sometimes serves already
// formatted or malformed values, so every function here is total: on
// parse failure the raw text is returned unchanged and the record is
// kept. A corrective pass can always reprocess from the stored raw text.
// -----------------------------------------------------------------------------

// FormatDate reformats a session date into canonical DD.MM.YYYY.
// Unrecognized input is returned unchanged.
func FormatDate(raw string) string {
	t, err := ParseSessionDate(raw)
	if err != nil {
		return raw
	}
	return FormatSessionDate(t)
}

// -----------------------------------------------------------------------------

// FormatAmount reformats a decimal quantity with two fractional digits
// and a space-grouped integer part: "1,234.5" -> "1 234.50".
// Unparsable input is returned unchanged.
func FormatAmount(raw string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return raw
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return raw
	}

	fixed := fmt.Sprintf("%.2f", value)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	return sign + groupThousands(intPart) + "." + fracPart
}

// -----------------------------------------------------------------------------

// groupThousands inserts a space between every three digits, counting
// from the right.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// -----------------------------------------------------------------------------

// NormalizeRecord applies canonical formatting to every field of a raw
// record. Percent change and quantity pass through as-is.
func NormalizeRecord(r models.MHistoryRecord) models.MHistoryRecord {
	r.Date = FormatDate(r.Date)
	r.Price = FormatAmount(r.Price)
	r.Max = FormatAmount(r.Max)
	r.Min = FormatAmount(r.Min)
	r.Avg = FormatAmount(r.Avg)
	r.BestTurnover = FormatAmount(r.BestTurnover)
	r.TotalTurnover = FormatAmount(r.TotalTurnover)
	return r
}
