package calculator

import (
	"strings"

	"github.com/shopspring/decimal"
)

// itemLine is the canonical note line for one item share.
func itemLine(amount decimal.Decimal, note string) string {
	return "\n$" + FormatMoney(amount) + ": " + note
}

// everyoneLine is the footer of every note. Unlike item lines it has no
// thousands separators.
func everyoneLine(share decimal.Decimal) string {
	return "\n$" + share.StringFixed(2) + ": Everyone split"
}

// FormatMoney renders an amount with two decimals and comma thousands
// separators, e.g. 1234.5 -> "1,234.50".
func FormatMoney(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(whole) <= 3 {
		return sign + whole + "." + frac
	}

	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}
	return sign + b.String() + "." + frac
}
