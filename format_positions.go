package folio

import (
	"slices"
	"strings"
)

// The "positions" dialect is the flat export most brokers offer: one line per
// position with at least symbol, name, quantity and price columns.

// findColumn returns the index of the header column named key, case
// insensitively, preferring an exact name over a substring match. Columns in
// taken are skipped. It returns -1 when no column matches.
func findColumn(header []string, key string, taken ...int) int {
	for i, h := range header {
		if !slices.Contains(taken, i) && strings.EqualFold(strings.TrimSpace(h), key) {
			return i
		}
	}
	for i, h := range header {
		if !slices.Contains(taken, i) && strings.Contains(strings.ToLower(h), key) {
			return i
		}
	}
	return -1
}

type positionsColumns struct {
	symbol, name, qty, price int
	account, assetType       int // optional, -1 when absent
}

func newPositionsColumns(header []string) (positionsColumns, bool) {
	var c positionsColumns
	c.symbol = findColumn(header, "symbol")
	c.qty = findColumn(header, "qty")
	c.price = findColumn(header, "price")
	c.account = findColumn(header, "account")
	c.assetType = findColumn(header, "type")
	// "name" is looked up last, so that "Account Name" is not taken for it.
	c.name = findColumn(header, "name", c.symbol, c.qty, c.price, c.account, c.assetType)
	ok := c.symbol >= 0 && c.name >= 0 && c.qty >= 0 && c.price >= 0
	return c, ok
}

func detectPositions(lines []string) bool {
	_, ok := newPositionsColumns(ParseRow(lines[0]))
	return ok
}

func parsePositions(lines []string) []HoldingRow {
	cols, _ := newPositionsColumns(ParseRow(lines[0]))
	rows := []HoldingRow{}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		f := ParseRow(line)
		get := func(i int) string {
			if i >= 0 && i < len(f) {
				return f[i]
			}
			return ""
		}
		qty := ParseNumber(get(cols.qty))
		price := ParseMoney(get(cols.price))
		if qty.IsZero() && price.IsZero() {
			// closed positions and artifacts
			continue
		}
		rows = append(rows, HoldingRow{
			AssetType: NormaliseAssetType(get(cols.assetType)),
			Name:      get(cols.name),
			Ticker:    get(cols.symbol),
			Account:   get(cols.account),
			Price:     price,
			Qty:       qty,
			Include:   true,
		})
	}
	return rows
}
