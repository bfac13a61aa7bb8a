package folio

import (
	"context"
	"fmt"
)

// Portfolio is the store accepted diffs are applied to.
type Portfolio interface {
	ImportHoldings(ctx context.Context, rows []HoldingRow) ([]Holding, error)
	UpdateHolding(ctx context.Context, id string, patch HoldingPatch) error
	DeleteHolding(ctx context.Context, id string) error
}

// ApplyDiffs applies the accepted diffs to p: new rows are inserted, changed
// holdings are patched and removed holdings are deleted. Unchanged and
// rejected diffs are ignored. The returned summary counts what was applied.
//
// Changes are applied in order and the first failure stops the process.
func ApplyDiffs(ctx context.Context, p Portfolio, diffs []HoldingDiff) (DiffSummary, error) {
	var applied DiffSummary

	var inserts []HoldingRow
	for _, d := range diffs {
		if d.Accepted && d.Type == DiffNew && d.Extracted != nil {
			inserts = append(inserts, *d.Extracted)
		}
	}
	if len(inserts) > 0 {
		if _, err := p.ImportHoldings(ctx, inserts); err != nil {
			return applied, fmt.Errorf("cannot import %d new holdings: %w", len(inserts), err)
		}
		applied.New = len(inserts)
	}

	for _, d := range diffs {
		if !d.Accepted || d.Existing == nil {
			continue
		}
		switch d.Type {
		case DiffChanged:
			patch := d.Patch()
			if patch.IsEmpty() {
				continue
			}
			if err := p.UpdateHolding(ctx, d.Existing.ID, patch); err != nil {
				return applied, fmt.Errorf("cannot update holding %q: %w", d.Existing.Ticker, err)
			}
			applied.Changed++
		case DiffRemoved:
			if err := p.DeleteHolding(ctx, d.Existing.ID); err != nil {
				return applied, fmt.Errorf("cannot delete holding %q: %w", d.Existing.Ticker, err)
			}
			applied.Removed++
		}
	}
	return applied, nil
}
