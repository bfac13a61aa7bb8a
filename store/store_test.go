package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/etnz/folio"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "folio.db"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Holdings(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	target := d("12.5")
	rows := []folio.HoldingRow{
		{Section: "Core", Theme: "World", AssetType: folio.ETF, Name: "Vanguard FTSE All-World", Ticker: "VWRL", Account: "ISA", Price: d("102.5"), Qty: d("10"), Include: true, TargetPct: &target, Exchange: "LSE"},
		{AssetType: folio.Cash, Name: "Cash", Account: "SIPP", Price: d("1"), Qty: d("500.25")},
	}
	imported, err := s.ImportHoldings(ctx, rows)
	if err != nil {
		t.Fatalf("ImportHoldings() failed: %v", err)
	}
	if len(imported) != 2 || imported[0].ID == "" || imported[0].ID == imported[1].ID {
		t.Fatalf("ImportHoldings() = %+v, want 2 holdings with distinct IDs", imported)
	}

	got, err := s.Holdings(ctx)
	if err != nil {
		t.Fatalf("Holdings() failed: %v", err)
	}
	if diff := cmp.Diff(imported, got, decimalEqual); diff != "" {
		t.Errorf("Holdings() mismatch (-want +got):\n%s", diff)
	}

	h, err := s.HoldingByTicker(ctx, " vwrl ")
	if err != nil {
		t.Fatalf("HoldingByTicker() failed: %v", err)
	}
	if h.ID != imported[0].ID {
		t.Errorf("HoldingByTicker() = %q, want %q", h.ID, imported[0].ID)
	}
	if _, err := s.HoldingByTicker(ctx, "AAPL"); !errors.Is(err, ErrNotFound) {
		t.Errorf("HoldingByTicker(AAPL) error = %v, want ErrNotFound", err)
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	imported, err := s.ImportHoldings(ctx, []folio.HoldingRow{
		{AssetType: folio.Stock, Ticker: "AAPL", Price: d("150"), Qty: d("5"), Include: true},
		{AssetType: folio.Stock, Ticker: "MSFT", Price: d("300"), Qty: d("1"), Include: true},
	})
	if err != nil {
		t.Fatalf("ImportHoldings() failed: %v", err)
	}
	aapl, msft := imported[0], imported[1]

	qty := d("7")
	if err := s.UpdateHolding(ctx, aapl.ID, folio.HoldingPatch{Qty: &qty}); err != nil {
		t.Fatalf("UpdateHolding() failed: %v", err)
	}
	got, err := s.Holding(ctx, aapl.ID)
	if err != nil {
		t.Fatalf("Holding() failed: %v", err)
	}
	if !got.Qty.Equal(qty) || !got.Price.Equal(d("150")) {
		t.Errorf("after update qty=%s price=%s, want 7 and 150", got.Qty, got.Price)
	}

	if err := s.UpdateHolding(ctx, "missing", folio.HoldingPatch{Qty: &qty}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateHolding(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateHolding(ctx, "missing", folio.HoldingPatch{}); err != nil {
		t.Errorf("UpdateHolding() with an empty patch failed: %v", err)
	}

	if err := s.DeleteHolding(ctx, msft.ID); err != nil {
		t.Fatalf("DeleteHolding() failed: %v", err)
	}
	if err := s.DeleteHolding(ctx, msft.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteHolding() error = %v, want ErrNotFound", err)
	}
	holdings, err := s.Holdings(ctx)
	if err != nil {
		t.Fatalf("Holdings() failed: %v", err)
	}
	if len(holdings) != 1 || holdings[0].Ticker != "AAPL" {
		t.Errorf("Holdings() = %+v, want only AAPL", holdings)
	}
}

func TestStore_ApplyDiffs(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	if _, err := s.ImportHoldings(ctx, []folio.HoldingRow{
		{AssetType: folio.Stock, Ticker: "VWRL", Price: d("100"), Qty: d("10"), Include: true},
		{AssetType: folio.Stock, Ticker: "TSLA", Price: d("200"), Qty: d("3"), Include: true},
	}); err != nil {
		t.Fatalf("ImportHoldings() failed: %v", err)
	}
	existing, err := s.Holdings(ctx)
	if err != nil {
		t.Fatalf("Holdings() failed: %v", err)
	}

	extracted := []folio.HoldingRow{
		{AssetType: folio.Stock, Ticker: "VWRL", Price: d("100"), Qty: d("12"), Include: true},
		{AssetType: folio.Stock, Ticker: "AAPL", Price: d("150"), Qty: d("5"), Include: true},
	}
	summary, err := folio.ApplyDiffs(ctx, s, folio.DiffHoldings(existing, extracted))
	if err != nil {
		t.Fatalf("ApplyDiffs() failed: %v", err)
	}
	if want := (folio.DiffSummary{New: 1, Changed: 1, Removed: 1}); summary != want {
		t.Errorf("ApplyDiffs() = %+v, want %+v", summary, want)
	}

	holdings, err := s.Holdings(ctx)
	if err != nil {
		t.Fatalf("Holdings() failed: %v", err)
	}
	// applying again must find nothing left to do.
	for _, diff := range folio.DiffHoldings(holdings, extracted) {
		if diff.Type != folio.DiffUnchanged {
			t.Errorf("after apply, %s is %s, want unchanged", diff.Ticker(), diff.Type)
		}
	}
}

func TestStore_Trades(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	imported, err := s.ImportHoldings(ctx, []folio.HoldingRow{
		{AssetType: folio.Stock, Ticker: "AAPL", Price: d("150"), Qty: d("5"), Include: true},
	})
	if err != nil {
		t.Fatalf("ImportHoldings() failed: %v", err)
	}
	id := imported[0].ID

	trades := []folio.Trade{
		{HoldingID: id, Type: folio.Sell, Date: "2024-03-01", Price: d("180"), Qty: d("1")},
		{HoldingID: id, Type: folio.Buy, Date: "2024-01-15", Price: d("150.25"), Qty: d("6")},
	}
	added, err := s.AddTrades(ctx, trades)
	if err != nil {
		t.Fatalf("AddTrades() failed: %v", err)
	}
	if len(added) != 2 || added[0].ID == "" {
		t.Fatalf("AddTrades() = %+v, want 2 trades with IDs", added)
	}

	got, err := s.Trades(ctx)
	if err != nil {
		t.Fatalf("Trades() failed: %v", err)
	}
	want := []folio.Trade{added[1], added[0]} // by date
	if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
		t.Errorf("Trades() mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.AddTrades(ctx, []folio.Trade{{HoldingID: "missing", Type: folio.Buy}}); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddTrades(missing holding) error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteHolding(ctx, id); err != nil {
		t.Fatalf("DeleteHolding() failed: %v", err)
	}
	got, err = s.Trades(ctx)
	if err != nil {
		t.Fatalf("Trades() failed: %v", err)
	}
	if diff := cmp.Diff([]folio.Trade(nil), got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Trades() after delete mismatch (-want +got):\n%s", diff)
	}
}
