// Package store persists a portfolio's holdings and trades in a SQLite
// database.
//
// Amounts are stored as decimal text so that nothing is lost to floating
// point. Holdings and trades are identified by random UUIDs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/folio"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a holding does not exist.
var ErrNotFound = errors.New("holding not found")

const schema = `
CREATE TABLE IF NOT EXISTS holdings (
	id         TEXT PRIMARY KEY,
	section    TEXT NOT NULL DEFAULT '',
	theme      TEXT NOT NULL DEFAULT '',
	asset_type TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	ticker     TEXT NOT NULL DEFAULT '',
	account    TEXT NOT NULL DEFAULT '',
	price      TEXT NOT NULL,
	qty        TEXT NOT NULL,
	include    INTEGER NOT NULL DEFAULT 1,
	target_pct TEXT,
	exchange   TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	id         TEXT PRIMARY KEY,
	holding_id TEXT NOT NULL,
	type       TEXT NOT NULL,
	date       TEXT NOT NULL,
	price      TEXT NOT NULL,
	qty        TEXT NOT NULL,
	position   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS trades_holding ON trades(holding_id);
`

// Store is a portfolio persisted in SQLite. It implements folio.Portfolio.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ folio.Portfolio = (*Store)(nil)

// Open opens, and creates if needed, the database at path. Use ":memory:" for
// a transient database. A nil logger discards logs.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open database %q: %w", path, err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writes.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot migrate database %q: %w", path, err)
	}
	logger.Debug("database opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

const holdingColumns = "id, section, theme, asset_type, name, ticker, account, price, qty, include, target_pct, exchange"

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanHolding(row scanner) (folio.Holding, error) {
	var (
		h          folio.Holding
		assetType  string
		price, qty string
		include    bool
		targetPct  sql.NullString
	)
	err := row.Scan(&h.ID, &h.Section, &h.Theme, &assetType, &h.Name, &h.Ticker, &h.Account, &price, &qty, &include, &targetPct, &h.Exchange)
	if err != nil {
		return h, err
	}
	h.AssetType = folio.NormaliseAssetType(assetType)
	h.Include = include
	if h.Price, err = decimal.NewFromString(price); err != nil {
		return h, fmt.Errorf("holding %s: invalid price %q: %w", h.ID, price, err)
	}
	if h.Qty, err = decimal.NewFromString(qty); err != nil {
		return h, fmt.Errorf("holding %s: invalid qty %q: %w", h.ID, qty, err)
	}
	if targetPct.Valid {
		pct, err := decimal.NewFromString(targetPct.String)
		if err != nil {
			return h, fmt.Errorf("holding %s: invalid target %q: %w", h.ID, targetPct.String, err)
		}
		h.TargetPct = &pct
	}
	return h, nil
}

// Holdings returns every holding, in insertion order.
func (s *Store) Holdings(ctx context.Context) ([]folio.Holding, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+holdingColumns+" FROM holdings ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("cannot list holdings: %w", err)
	}
	defer rows.Close()

	var holdings []folio.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("cannot read holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// Holding returns the holding with the given id.
func (s *Store) Holding(ctx context.Context, id string) (folio.Holding, error) {
	h, err := scanHolding(s.db.QueryRowContext(ctx, "SELECT "+holdingColumns+" FROM holdings WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return h, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return h, err
}

// HoldingByTicker returns the first holding with the given ticker, case
// insensitively.
func (s *Store) HoldingByTicker(ctx context.Context, ticker string) (folio.Holding, error) {
	ticker = strings.TrimSpace(ticker)
	h, err := scanHolding(s.db.QueryRowContext(ctx,
		"SELECT "+holdingColumns+" FROM holdings WHERE upper(ticker) = upper(?) ORDER BY position LIMIT 1", ticker))
	if errors.Is(err, sql.ErrNoRows) {
		return h, fmt.Errorf("%w: ticker %q", ErrNotFound, ticker)
	}
	return h, err
}

// ImportHoldings inserts rows as new holdings, in a single transaction, and
// returns them with their new IDs.
func (s *Store) ImportHoldings(ctx context.Context, rows []folio.HoldingRow) ([]folio.Holding, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot import holdings: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), -1) + 1 FROM holdings").Scan(&next); err != nil {
		return nil, fmt.Errorf("cannot import holdings: %w", err)
	}

	holdings := make([]folio.Holding, 0, len(rows))
	for i, r := range rows {
		h := folio.Holding{ID: uuid.NewString(), HoldingRow: r}
		var targetPct sql.NullString
		if r.TargetPct != nil {
			targetPct = sql.NullString{String: r.TargetPct.String(), Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO holdings ("+holdingColumns+", position) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			h.ID, r.Section, r.Theme, string(folio.NormaliseAssetType(string(r.AssetType))), r.Name, r.Ticker, r.Account,
			r.Price.String(), r.Qty.String(), r.Include, targetPct, r.Exchange, next+int64(i))
		if err != nil {
			return nil, fmt.Errorf("cannot insert holding %q: %w", r.Ticker, err)
		}
		holdings = append(holdings, h)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("cannot import holdings: %w", err)
	}
	s.logger.Info("holdings imported", zap.Int("count", len(holdings)))
	return holdings, nil
}

// UpdateHolding applies patch to the holding id.
func (s *Store) UpdateHolding(ctx context.Context, id string, patch folio.HoldingPatch) error {
	var (
		sets []string
		args []any
	)
	if patch.Price != nil {
		sets, args = append(sets, "price = ?"), append(args, patch.Price.String())
	}
	if patch.Qty != nil {
		sets, args = append(sets, "qty = ?"), append(args, patch.Qty.String())
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx, "UPDATE holdings SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("cannot update holding %s: %w", id, err)
	}
	if err := mustAffect(res, id); err != nil {
		return err
	}
	s.logger.Debug("holding updated", zap.String("id", id), zap.Strings("fields", sets))
	return nil
}

// DeleteHolding deletes the holding id and its trades.
func (s *Store) DeleteHolding(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot delete holding %s: %w", id, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM holdings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("cannot delete holding %s: %w", id, err)
	}
	if err := mustAffect(res, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM trades WHERE holding_id = ?", id); err != nil {
		return fmt.Errorf("cannot delete trades of holding %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot delete holding %s: %w", id, err)
	}
	s.logger.Debug("holding deleted", zap.String("id", id))
	return nil
}

func mustAffect(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
