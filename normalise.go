package folio

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// NormaliseBoolean reads yes/no style flags. Absent, empty and unknown values
// mean true.
func NormaliseBoolean(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "false", "no", "0":
		return false
	default:
		return true
	}
}

// ParseNumber reads a decimal out of messy text: everything but digits, sign
// and decimal point is ignored. Unparseable input reads as zero.
func ParseNumber(raw string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '-', r == '+', r == '.':
			return r
		default:
			return -1
		}
	}, raw)
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseMoney reads an amount in major currency units. Currency symbols and
// thousands separators are ignored, and a trailing "p" or "pence" marks an
// amount in pence.
func ParseMoney(raw string) decimal.Decimal {
	s := strings.ToLower(strings.TrimSpace(raw))
	s, pence := trimPence(s)
	s = strings.NewReplacer("£", "", "$", "", "€", "", ",", "").Replace(s)
	d := ParseNumber(s)
	if pence {
		return minorToMajor(d, "GBP")
	}
	return d
}

// trimPence removes a pence suffix from a lower case amount. The suffix must
// follow the number directly or after spaces, so that "100 gbp" is not pence.
func trimPence(s string) (string, bool) {
	for _, suffix := range []string{"pence", "p"} {
		rest, ok := strings.CutSuffix(s, suffix)
		if !ok {
			continue
		}
		rest = strings.TrimRightFunc(rest, unicode.IsSpace)
		if rest == "" {
			return s, false
		}
		last := rest[len(rest)-1]
		if last >= '0' && last <= '9' || last == '.' {
			return rest, true
		}
	}
	return s, false
}

// NormaliseAssetType maps free text onto the AssetType enum, case
// insensitively. Unknown values are Other.
func NormaliseAssetType(raw string) AssetType {
	raw = strings.TrimSpace(raw)
	for _, a := range AssetTypes {
		if strings.EqualFold(raw, string(a)) {
			return a
		}
	}
	return Other
}

// lineBreaks flattens multi-line values, since every CSV record holds on a
// single line.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// EscapeValue renders a scalar as a CSV field. Line breaks become spaces.
// Values containing a comma or a double quote, or starting or ending with
// spaces, are quoted.
func EscapeValue(v any) string {
	var s string
	switch v := v.(type) {
	case nil:
		return ""
	case *decimal.Decimal:
		if v == nil {
			return ""
		}
		s = v.String()
	case decimal.Decimal:
		s = v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	s = lineBreaks.Replace(s)
	if strings.ContainsAny(s, ",\"") || strings.TrimSpace(s) != s {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
