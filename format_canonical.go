package folio

import "strings"

// canonicalColumns is the header written by HoldingsToCSV, in order.
var canonicalColumns = []string{"section", "theme", "assetType", "name", "ticker", "account", "price", "qty", "include", "targetPct"}

// canonicalExchange is the optional trailing column of the canonical header.
const canonicalExchange = "exchange"

func detectCanonical(lines []string) bool {
	header := ParseRow(lines[0])
	switch {
	case len(header) == len(canonicalColumns):
	case len(header) == len(canonicalColumns)+1 && strings.EqualFold(header[len(canonicalColumns)], canonicalExchange):
	default:
		return false
	}
	for i, c := range canonicalColumns {
		if !strings.EqualFold(header[i], c) {
			return false
		}
	}
	return true
}

func parseCanonical(lines []string) []HoldingRow {
	rows := []HoldingRow{}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		f := ParseRow(line)
		get := func(i int) string {
			if i < len(f) {
				return f[i]
			}
			return ""
		}
		row := HoldingRow{
			Section:   get(0),
			Theme:     get(1),
			AssetType: NormaliseAssetType(get(2)),
			Name:      get(3),
			Ticker:    get(4),
			Account:   get(5),
			Price:     ParseNumber(get(6)),
			Qty:       ParseNumber(get(7)),
			Include:   NormaliseBoolean(get(8)),
			Exchange:  get(10),
		}
		if raw := strings.TrimSpace(get(9)); raw != "" {
			pct := ParseNumber(raw)
			row.TargetPct = &pct
		}
		rows = append(rows, row)
	}
	return rows
}
