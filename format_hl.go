package folio

import (
	"strings"

	"github.com/shopspring/decimal"
)

// The "hl" dialect is the Hargreaves Lansdown style export: one sub-table per
// account, each preceded by a line holding the account name.
//
//	Stocks & Shares ISA
//	Code,Stock,Units held,Price (pence),Value (£)
//	VWRL,Vanguard FTSE All-World,10,"10,250.00","1,025.00"
//
// Prices are quoted in pence.

type hlColumns struct {
	code, stock, units, price int
	pence                     bool // the price column is labelled in pence
}

// newHLColumns recognizes a sub-table header. Code and Stock are matched case
// sensitively.
func newHLColumns(fields []string) (hlColumns, bool) {
	c := hlColumns{code: -1, stock: -1, units: -1, price: -1}
	for i, f := range fields {
		switch {
		case c.code < 0 && strings.Contains(f, "Code"):
			c.code = i
		case c.stock < 0 && strings.Contains(f, "Stock"):
			c.stock = i
		case c.units < 0 && containsAnyFold(f, "units", "quantity", "holding"):
			c.units = i
		case c.price < 0 && containsAnyFold(f, "price"):
			c.price = i
			c.pence = containsAnyFold(f, "pence", "(p)")
		}
	}
	return c, c.code >= 0 && c.stock >= 0
}

func containsAnyFold(s string, subs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func detectHL(lines []string) bool {
	for _, line := range lines {
		if _, ok := newHLColumns(ParseRow(line)); ok {
			return true
		}
	}
	return false
}

func parseHL(lines []string) []HoldingRow {
	rows := []HoldingRow{}
	var (
		account string // last account name line seen
		cols    hlColumns
		inTable bool
	)
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			inTable = false
			continue
		}
		f := ParseRow(line)
		if c, ok := newHLColumns(f); ok {
			cols, inTable = c, true
			continue
		}
		if values := nonEmpty(f); len(values) == 1 && (!inTable || headerFollows(lines[i+1:])) {
			// an account name line, which also ends the previous sub-table.
			account, inTable = values[0], false
			continue
		}
		if !inTable {
			continue
		}

		get := func(i int) string {
			if i >= 0 && i < len(f) {
				return f[i]
			}
			return ""
		}
		code := strings.TrimSpace(get(cols.code))
		if code == "" || strings.HasPrefix(strings.ToLower(code), "total") {
			continue
		}
		qty := ParseNumber(get(cols.units))
		price := parsePence(get(cols.price), cols.pence)
		if qty.IsZero() && price.IsZero() {
			continue
		}
		rows = append(rows, HoldingRow{
			AssetType: Other,
			Name:      get(cols.stock),
			Ticker:    code,
			Account:   account,
			Price:     price,
			Qty:       qty,
			Include:   true,
		})
	}
	return rows
}

// headerFollows reports whether the next non blank line is a sub-table
// header. Inside a sub-table, a single value line only names an account when
// a new sub-table starts right after it.
func headerFollows(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		_, ok := newHLColumns(ParseRow(line))
		return ok
	}
	return false
}

// parsePence reads a price from a pence quoting broker. Values carrying their
// own unit (a pence suffix or a pound sign) are honoured, bare numbers are
// pence when the column says so.
func parsePence(raw string, penceColumn bool) decimal.Decimal {
	s := strings.ToLower(strings.TrimSpace(raw))
	if _, pence := trimPence(s); pence || strings.Contains(s, "£") || !penceColumn {
		return ParseMoney(raw)
	}
	return minorToMajor(ParseMoney(raw), "GBP")
}

func nonEmpty(fields []string) []string {
	var out []string
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			out = append(out, f)
		}
	}
	return out
}
