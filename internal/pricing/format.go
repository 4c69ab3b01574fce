package pricing

import (
	"fmt"
	"strings"
)

// FormatBRL renders a minor-unit amount using Brazilian Real conventions,
// e.g. 159550 -> "R$ 1.595,50". Rounding never happens here because amounts
// are carried in centavos end to end.
func FormatBRL(amount Money) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	reais := amount / 100
	cents := amount % 100

	digits := fmt.Sprintf("%d", reais)
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte('.')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte('.')
		}
	}
	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), cents)
}
