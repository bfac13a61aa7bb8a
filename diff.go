package folio

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiffType classifies how an imported row relates to the portfolio.
type DiffType string

const (
	DiffNew       DiffType = "new"
	DiffChanged   DiffType = "changed"
	DiffRemoved   DiffType = "removed"
	DiffUnchanged DiffType = "unchanged"
)

// Field names used in HoldingDiff.Changes.
const (
	FieldQty   = "qty"
	FieldPrice = "price"
)

// DefaultTolerance is the absolute difference below which quantities and
// prices are considered equal.
var DefaultTolerance = decimal.New(1, -6)

// FieldChange is the old and new value of a changed field.
type FieldChange struct {
	Old decimal.Decimal
	New decimal.Decimal
}

// HoldingDiff pairs an imported row with the matching stored holding.
//
// Extracted is nil for removed holdings, Existing is nil for new rows.
// Accepted is the review decision; it starts true for every actionable diff
// and false for unchanged ones.
type HoldingDiff struct {
	Type      DiffType
	Extracted *HoldingRow
	Existing  *Holding
	Changes   map[string]FieldChange
	Accepted  bool
}

// Ticker returns the ticker of the diff, from the imported row when present.
func (d HoldingDiff) Ticker() string {
	if d.Extracted != nil {
		return d.Extracted.Ticker
	}
	if d.Existing != nil {
		return d.Existing.Ticker
	}
	return ""
}

// Patch returns the update that brings the existing holding to the imported
// values.
func (d HoldingDiff) Patch() HoldingPatch {
	var p HoldingPatch
	if c, ok := d.Changes[FieldQty]; ok {
		v := c.New
		p.Qty = &v
	}
	if c, ok := d.Changes[FieldPrice]; ok {
		v := c.New
		p.Price = &v
	}
	return p
}

// DiffSummary counts diffs per type.
type DiffSummary struct {
	New       int
	Changed   int
	Removed   int
	Unchanged int
}

// Differ compares holdings with a given tolerance.
type Differ struct {
	Tolerance decimal.Decimal
}

// DiffHoldings compares existing holdings with imported rows using
// DefaultTolerance.
func DiffHoldings(existing []Holding, extracted []HoldingRow) []HoldingDiff {
	return Differ{Tolerance: DefaultTolerance}.Diff(existing, extracted)
}

// Diff classifies every imported row and every existing holding.
//
// Rows and holdings are paired by ticker, case insensitively. Tickerless rows
// (cash) are paired by name and account instead. When several holdings share
// a key they pair in order. The result lists imported rows in their order,
// followed by the removed holdings in theirs.
func (d Differ) Diff(existing []Holding, extracted []HoldingRow) []HoldingDiff {
	pending := make(map[string][]int) // key -> indexes of unpaired existing holdings
	for i, h := range existing {
		k := matchKey(h.HoldingRow)
		pending[k] = append(pending[k], i)
	}
	paired := make([]bool, len(existing))

	diffs := make([]HoldingDiff, 0, len(extracted)+len(existing))
	for i := range extracted {
		row := &extracted[i]
		k := matchKey(*row)
		queue := pending[k]
		if len(queue) == 0 {
			diffs = append(diffs, HoldingDiff{Type: DiffNew, Extracted: row, Accepted: true})
			continue
		}
		j := queue[0]
		pending[k] = queue[1:]
		paired[j] = true
		diffs = append(diffs, d.compare(&existing[j], row))
	}

	for i := range existing {
		if paired[i] {
			continue
		}
		diffs = append(diffs, HoldingDiff{Type: DiffRemoved, Existing: &existing[i], Accepted: true})
	}
	return diffs
}

func (d Differ) compare(existing *Holding, row *HoldingRow) HoldingDiff {
	changes := make(map[string]FieldChange)
	if d.differ(existing.Qty, row.Qty) {
		changes[FieldQty] = FieldChange{Old: existing.Qty, New: row.Qty}
	}
	if d.differ(existing.Price, row.Price) {
		changes[FieldPrice] = FieldChange{Old: existing.Price, New: row.Price}
	}
	if len(changes) == 0 {
		return HoldingDiff{Type: DiffUnchanged, Extracted: row, Existing: existing}
	}
	return HoldingDiff{Type: DiffChanged, Extracted: row, Existing: existing, Changes: changes, Accepted: true}
}

func (d Differ) differ(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().GreaterThan(d.Tolerance)
}

// tickerKey normalizes a ticker for matching.
func tickerKey(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// matchKey is the pairing key of a row: its ticker, or name and account for
// tickerless rows.
func matchKey(r HoldingRow) string {
	if k := tickerKey(r.Ticker); k != "" {
		return "ticker:" + k
	}
	name := strings.ToLower(strings.TrimSpace(r.Name))
	account := strings.ToLower(strings.TrimSpace(r.Account))
	return "cash:" + name + "\x00" + account
}

// Summarize counts diffs per type.
func Summarize(diffs []HoldingDiff) DiffSummary {
	var s DiffSummary
	for _, d := range diffs {
		switch d.Type {
		case DiffNew:
			s.New++
		case DiffChanged:
			s.Changed++
		case DiffRemoved:
			s.Removed++
		case DiffUnchanged:
			s.Unchanged++
		}
	}
	return s
}
