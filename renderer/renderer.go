// Package renderer turns holdings and import reviews into markdown.
package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/folio"
)

// HoldingsMarkdown renders holdings as a markdown table valued in currency.
// Excluded holdings are listed but left out of the total.
func HoldingsMarkdown(holdings []folio.Holding, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Holdings\n\n")
	if len(holdings) == 0 {
		fmt.Fprintln(&b, "*No holdings.*")
		return b.String()
	}

	fmt.Fprintln(&b, "| Section | Ticker | Name | Account | Type | Qty | Price | Value | Target | Incl. |")
	fmt.Fprintln(&b, "|:---|:---|:---|:---|:---|---:|---:|---:|---:|:---:|")
	total := folio.M(0, currency)
	for _, h := range holdings {
		value := folio.M(h.Value(), currency)
		if h.Include {
			total = total.Add(value)
		}
		target := "-"
		if h.TargetPct != nil {
			target = h.TargetPct.String() + "%"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			cell(h.Section),
			cell(h.Ticker),
			cell(h.Name),
			cell(h.Account),
			h.AssetType,
			h.Qty,
			h.Price,
			value,
			target,
			yesNo(h.Include),
		)
	}
	fmt.Fprintf(&b, "\n**Total: %s**\n", total)
	return b.String()
}

// DiffMarkdown renders the review of an import: a summary line, then one
// table per kind of change. Empty tables are omitted. Changed holdings show
// their change of value in currency.
func DiffMarkdown(diffs []folio.HoldingDiff, currency string) string {
	var b strings.Builder
	s := folio.Summarize(diffs)
	fmt.Fprintf(&b, "# Import Review\n\n")
	fmt.Fprintf(&b, "*%d new, %d changed, %d removed, %d unchanged*\n", s.New, s.Changed, s.Removed, s.Unchanged)

	section(&b, diffs, folio.DiffNew, "New Holdings",
		"| Apply | Ticker | Name | Account | Type | Qty | Price |\n|:---:|:---|:---|:---|:---|---:|---:|",
		func(w io.Writer, d folio.HoldingDiff) {
			r := d.Extracted
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s |\n",
				yesNo(d.Accepted), cell(r.Ticker), cell(r.Name), cell(r.Account), r.AssetType, r.Qty, r.Price)
		})

	section(&b, diffs, folio.DiffChanged, "Changed Holdings",
		"| Apply | Ticker | Name | Account | Qty | Price | Value |\n|:---:|:---|:---|:---|---:|---:|---:|",
		func(w io.Writer, d folio.HoldingDiff) {
			qty, price := d.Existing.Qty.String(), d.Existing.Price.String()
			if c, ok := d.Changes[folio.FieldQty]; ok {
				qty = change(c.Old, c.New)
			}
			if c, ok := d.Changes[folio.FieldPrice]; ok {
				price = change(c.Old, c.New)
			}
			delta := folio.M(d.Extracted.Value(), currency).Sub(folio.M(d.Existing.Value(), currency))
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s |\n",
				yesNo(d.Accepted), cell(d.Existing.Ticker), cell(d.Existing.Name), cell(d.Existing.Account), qty, price, delta.SignedString())
		})

	section(&b, diffs, folio.DiffRemoved, "Removed Holdings",
		"| Apply | Ticker | Name | Account | Qty |\n|:---:|:---|:---|:---|---:|",
		func(w io.Writer, d folio.HoldingDiff) {
			h := d.Existing
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				yesNo(d.Accepted), cell(h.Ticker), cell(h.Name), cell(h.Account), h.Qty)
		})

	section(&b, diffs, folio.DiffUnchanged, "Unchanged Holdings",
		"| Ticker | Name | Account | Qty | Price |\n|:---|:---|:---|---:|---:|",
		func(w io.Writer, d folio.HoldingDiff) {
			h := d.Existing
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				cell(h.Ticker), cell(h.Name), cell(h.Account), h.Qty, h.Price)
		})

	return b.String()
}

// section prints a titled table of the diffs of type t, if any.
func section(w io.Writer, diffs []folio.HoldingDiff, t folio.DiffType, title, header string, line func(io.Writer, folio.HoldingDiff)) {
	ConditionalBlock(w, func(w io.Writer) bool {
		fmt.Fprintf(w, "\n## %s\n\n%s\n", title, header)
		found := false
		for _, d := range diffs {
			if d.Type == t {
				line(w, d)
				found = true
			}
		}
		return found
	})
}
