package folio

import (
	"errors"
	"strings"
)

// this file contains functions to handle the holdings import/export formats.

// ErrUnsupportedFormat is returned when no known CSV dialect recognizes the
// input.
var ErrUnsupportedFormat = errors.New("unsupported CSV format")

// holdingFormat is one CSV dialect: Detect recognizes it from the raw lines,
// Parse extracts the rows once recognized.
type holdingFormat struct {
	Name   string
	Detect func(lines []string) bool
	Parse  func(lines []string) []HoldingRow
}

// holdingFormats in priority order.
var holdingFormats = []holdingFormat{
	{Name: "canonical", Detect: detectCanonical, Parse: parseCanonical},
	{Name: "positions", Detect: detectPositions, Parse: parsePositions},
	{Name: "hl", Detect: detectHL, Parse: parseHL},
}

// DetectHoldingsFormat returns the name of the dialect text is written in.
func DetectHoldingsFormat(text string) (string, error) {
	lines, ok := csvLines(text)
	if !ok {
		return "", nil
	}
	for _, f := range holdingFormats {
		if f.Detect(lines) {
			return f.Name, nil
		}
	}
	return "", ErrUnsupportedFormat
}

// ParseHoldingsCSV parses holdings from text written in any of the supported
// CSV dialects.
//
// Empty input has no rows. Input that no dialect recognizes returns
// ErrUnsupportedFormat. Individual malformed values never fail: they read as
// their default (zero, true or Other).
func ParseHoldingsCSV(text string) ([]HoldingRow, error) {
	lines, ok := csvLines(text)
	if !ok {
		return []HoldingRow{}, nil
	}
	for _, f := range holdingFormats {
		if !f.Detect(lines) {
			continue
		}
		rows := f.Parse(lines)
		for i := range rows {
			rows[i] = rows[i].Normalize()
		}
		return rows, nil
	}
	return nil, ErrUnsupportedFormat
}

// csvLines prepares text for the dialects: BOM removed, split into lines,
// leading blank lines dropped. ok is false when there is no content at all.
func csvLines(text string) (lines []string, ok bool) {
	text = StripBOM(text)
	if strings.TrimSpace(text) == "" {
		return nil, false
	}
	lines = splitLines(text)
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return lines, true
}

// HoldingsToCSV renders rows in the canonical format, readable by
// ParseHoldingsCSV. Lines are joined by "\n" without a trailing newline.
func HoldingsToCSV(rows []HoldingRow) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(canonicalColumns, ",")+","+canonicalExchange)
	for _, r := range rows {
		fields := []any{
			r.Section,
			r.Theme,
			string(r.AssetType),
			r.Name,
			r.Ticker,
			r.Account,
			r.Price,
			r.Qty,
			r.Include,
			r.TargetPct,
			r.Exchange,
		}
		escaped := make([]string, len(fields))
		for i, f := range fields {
			escaped[i] = EscapeValue(f)
		}
		lines = append(lines, strings.Join(escaped, ","))
	}
	return strings.Join(lines, "\n")
}
