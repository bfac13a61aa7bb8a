package folio

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SpreadsheetToCSV renders the first non empty sheet of an XLSX workbook as
// CSV text.
func SpreadsheetToCSV(r io.Reader) (string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("cannot open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("cannot read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			fields := make([]string, len(row))
			for i, cell := range row {
				fields[i] = EscapeValue(cell)
			}
			lines = append(lines, strings.Join(fields, ","))
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", nil
}

// ParseHoldingsSpreadsheet parses holdings from an XLSX workbook laid out in
// any of the CSV dialects ParseHoldingsCSV supports.
func ParseHoldingsSpreadsheet(r io.Reader) ([]HoldingRow, error) {
	text, err := SpreadsheetToCSV(r)
	if err != nil {
		return nil, err
	}
	return ParseHoldingsCSV(text)
}
