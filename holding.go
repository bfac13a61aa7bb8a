package folio

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AssetType is the closed set of asset classes a holding can belong to.
type AssetType string

const (
	ETF    AssetType = "ETF"
	Stock  AssetType = "Stock"
	Crypto AssetType = "Crypto"
	Cash   AssetType = "Cash"
	Bond   AssetType = "Bond"
	Fund   AssetType = "Fund"
	Other  AssetType = "Other"
)

// AssetTypes lists every asset type, Other last.
var AssetTypes = []AssetType{ETF, Stock, Crypto, Cash, Bond, Fund, Other}

func (a AssetType) String() string { return string(a) }

// HoldingRow is the normalized shape every import path produces.
type HoldingRow struct {
	Section   string
	Theme     string
	AssetType AssetType
	Name      string
	Ticker    string
	Account   string
	Price     decimal.Decimal // major currency unit
	Qty       decimal.Decimal
	Include   bool
	TargetPct *decimal.Decimal // nil when the source has no target
	Exchange  string           // only set by the canonical format
}

// Value returns Price * Qty.
func (r HoldingRow) Value() decimal.Decimal { return r.Price.Mul(r.Qty) }

// Normalize enforces the row invariants: amounts are never negative and the
// asset type belongs to the enum.
func (r HoldingRow) Normalize() HoldingRow {
	r.Price = nonNegative(r.Price)
	r.Qty = nonNegative(r.Qty)
	r.AssetType = NormaliseAssetType(string(r.AssetType))
	r.Ticker = strings.TrimSpace(r.Ticker)
	return r
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Holding is a HoldingRow stored in a portfolio.
type Holding struct {
	ID string
	HoldingRow
}

// HoldingPatch lists the fields to update on a stored holding. Nil fields are
// left untouched.
type HoldingPatch struct {
	Price *decimal.Decimal
	Qty   *decimal.Decimal
}

// IsEmpty reports whether the patch changes nothing.
func (p HoldingPatch) IsEmpty() bool { return p.Price == nil && p.Qty == nil }
