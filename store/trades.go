package store

import (
	"context"
	"fmt"

	"github.com/etnz/folio"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddTrades records trades, in a single transaction, and returns them with
// their new IDs. Each trade must reference an existing holding.
func (s *Store) AddTrades(ctx context.Context, trades []folio.Trade) ([]folio.Trade, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot add trades: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), -1) + 1 FROM trades").Scan(&next); err != nil {
		return nil, fmt.Errorf("cannot add trades: %w", err)
	}

	added := make([]folio.Trade, 0, len(trades))
	for i, t := range trades {
		var exists bool
		if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM holdings WHERE id = ?)", t.HoldingID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("cannot add trades: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("trade #%d: %w: %s", i+1, ErrNotFound, t.HoldingID)
		}
		t.ID = uuid.NewString()
		_, err := tx.ExecContext(ctx,
			"INSERT INTO trades (id, holding_id, type, date, price, qty, position) VALUES (?, ?, ?, ?, ?, ?, ?)",
			t.ID, t.HoldingID, string(t.Type), t.Date, t.Price.String(), t.Qty.String(), next+int64(i))
		if err != nil {
			return nil, fmt.Errorf("cannot insert trade #%d: %w", i+1, err)
		}
		added = append(added, t)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("cannot add trades: %w", err)
	}
	s.logger.Info("trades added", zap.Int("count", len(added)))
	return added, nil
}

// Trades returns every trade, by date then insertion order.
func (s *Store) Trades(ctx context.Context) ([]folio.Trade, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, holding_id, type, date, price, qty FROM trades ORDER BY date, position")
	if err != nil {
		return nil, fmt.Errorf("cannot list trades: %w", err)
	}
	defer rows.Close()

	var trades []folio.Trade
	for rows.Next() {
		var (
			t          folio.Trade
			typ        string
			price, qty string
		)
		if err := rows.Scan(&t.ID, &t.HoldingID, &typ, &t.Date, &price, &qty); err != nil {
			return nil, fmt.Errorf("cannot read trade: %w", err)
		}
		if t.Type, err = folio.ParseTradeType(typ); err != nil {
			return nil, fmt.Errorf("trade %s: %w", t.ID, err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("trade %s: invalid price %q: %w", t.ID, price, err)
		}
		if t.Qty, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("trade %s: invalid qty %q: %w", t.ID, qty, err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
