package folio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// ErrUnsupportedTradesFormat is returned when the trades header is not
// recognized.
var ErrUnsupportedTradesFormat = errors.New("unsupported trades CSV format")

// TradeType is the direction of a trade.
type TradeType string

const (
	Buy  TradeType = "buy"
	Sell TradeType = "sell"
)

// ParseTradeType reads a trade type case insensitively.
func ParseTradeType(raw string) (TradeType, error) {
	switch t := TradeType(strings.ToLower(strings.TrimSpace(raw))); t {
	case Buy, Sell:
		return t, nil
	default:
		return "", fmt.Errorf("invalid trade type %q", raw)
	}
}

// TradeRow is a trade as found in a trades CSV file.
type TradeRow struct {
	Ticker string
	Name   string
	Type   TradeType
	Date   string // ISO date, not validated
	Price  decimal.Decimal
	Qty    decimal.Decimal
}

// Trade is a trade stored in a portfolio, attached to a holding.
type Trade struct {
	ID        string
	HoldingID string
	Type      TradeType
	Date      string
	Price     decimal.Decimal
	Qty       decimal.Decimal
}

// tradeRecord is the CSV shape of a trade. Amounts stay text so that noise in
// a single cell does not fail the whole file.
type tradeRecord struct {
	Ticker string `csv:"ticker"`
	Name   string `csv:"name"`
	Type   string `csv:"type"`
	Date   string `csv:"date"`
	Price  string `csv:"price"`
	Qty    string `csv:"qty"`
}

var tradeColumns = []string{"ticker", "name", "type", "date", "price", "qty"}

func tradesReader(in io.Reader) gocsv.CSVReader {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	return r
}

// ParseTradesCSV parses a trades CSV file. Empty input has no trades, an
// unknown header returns ErrUnsupportedTradesFormat. Rows whose type is
// neither buy nor sell are dropped.
func ParseTradesCSV(text string) ([]TradeRow, error) {
	lines, ok := csvLines(text)
	if !ok {
		return []TradeRow{}, nil
	}
	header := ParseRow(lines[0])
	if len(header) != len(tradeColumns) {
		return nil, ErrUnsupportedTradesFormat
	}
	for i, c := range tradeColumns {
		if !strings.EqualFold(header[i], c) {
			return nil, ErrUnsupportedTradesFormat
		}
	}
	// the header is rewritten in its canonical case for gocsv.
	lines[0] = strings.Join(tradeColumns, ",")

	var records []tradeRecord
	if err := gocsv.UnmarshalCSV(tradesReader(strings.NewReader(strings.Join(lines, "\n"))), &records); err != nil {
		return nil, fmt.Errorf("cannot read trades: %w", err)
	}

	trades := make([]TradeRow, 0, len(records))
	for _, rec := range records {
		typ, err := ParseTradeType(rec.Type)
		if err != nil {
			continue
		}
		trades = append(trades, TradeRow{
			Ticker: strings.TrimSpace(rec.Ticker),
			Name:   strings.TrimSpace(rec.Name),
			Type:   typ,
			Date:   strings.TrimSpace(rec.Date),
			Price:  nonNegative(ParseMoney(rec.Price)),
			Qty:    nonNegative(ParseNumber(rec.Qty)),
		})
	}
	return trades, nil
}

// TradesToCSV renders trades in the trades CSV format. Ticker and name are
// resolved from holdings through each trade's HoldingID; trades of unknown
// holdings get empty ones.
func TradesToCSV(trades []Trade, holdings []Holding) (string, error) {
	byID := make(map[string]Holding, len(holdings))
	for _, h := range holdings {
		byID[h.ID] = h
	}
	records := make([]tradeRecord, 0, len(trades))
	for _, t := range trades {
		h := byID[t.HoldingID]
		records = append(records, tradeRecord{
			Ticker: h.Ticker,
			Name:   h.Name,
			Type:   string(t.Type),
			Date:   t.Date,
			Price:  t.Price.String(),
			Qty:    t.Qty.String(),
		})
	}
	if len(records) == 0 {
		return strings.Join(tradeColumns, ","), nil
	}
	out, err := gocsv.MarshalString(&records)
	if err != nil {
		return "", fmt.Errorf("cannot write trades: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

// ResolveTrades attaches trade rows to holdings by ticker, case
// insensitively. Rows whose ticker matches no holding are returned in
// unresolved.
func ResolveTrades(rows []TradeRow, holdings []Holding) (trades []Trade, unresolved []TradeRow) {
	byTicker := make(map[string]string, len(holdings))
	for _, h := range holdings {
		k := tickerKey(h.Ticker)
		if _, exists := byTicker[k]; k != "" && !exists {
			byTicker[k] = h.ID
		}
	}
	for _, r := range rows {
		id, ok := byTicker[tickerKey(r.Ticker)]
		if !ok {
			unresolved = append(unresolved, r)
			continue
		}
		trades = append(trades, Trade{
			HoldingID: id,
			Type:      r.Type,
			Date:      r.Date,
			Price:     r.Price,
			Qty:       r.Qty,
		})
	}
	return trades, unresolved
}
