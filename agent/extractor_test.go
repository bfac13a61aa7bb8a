package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/etnz/folio"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

// fakeModel replies with a canned text and records its calls.
type fakeModel struct {
	reply    string
	err      error
	calls    int
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModel) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.contents, f.config = contents, config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}},
	}, nil
}

const statement = `{
  "provider": "Hargreaves Lansdown",
  "statementDate": "2024-06-30",
  "holdings": [
    {"ticker": " vwrl ", "name": "Vanguard FTSE All-World", "account": "ISA", "assetType": "etf", "qty": 10, "price": 102.5},
    {"ticker": "", "name": "Cash", "account": "ISA", "assetType": "Cash", "qty": "1,250.40", "price": 1},
    {"ticker": "BAD", "name": "Negative", "assetType": "warrant", "qty": -3, "price": "£2.10"}
  ]
}`

func TestExtractor_Model(t *testing.T) {
	model := &fakeModel{reply: statement}
	e := NewExtractor(model, "", zaptest.NewLogger(t))

	got, err := e.Extract(context.Background(), "statement.pdf", []byte("%PDF-1.7 ..."))
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}

	want := &Extraction{
		Provider:      "Hargreaves Lansdown",
		StatementDate: "2024-06-30",
		Holdings: []folio.HoldingRow{
			{Ticker: "vwrl", Name: "Vanguard FTSE All-World", Account: "ISA", AssetType: folio.ETF, Qty: decimal.RequireFromString("10"), Price: decimal.RequireFromString("102.5"), Include: true},
			{Name: "Cash", Account: "ISA", AssetType: folio.Cash, Qty: decimal.RequireFromString("1250.40"), Price: decimal.RequireFromString("1"), Include: true},
			{Ticker: "BAD", Name: "Negative", AssetType: folio.Other, Qty: decimal.Zero, Price: decimal.RequireFromString("2.10"), Include: true},
		},
	}
	if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}

	if model.config == nil || model.config.ResponseMIMEType != "application/json" || model.config.ResponseSchema == nil {
		t.Errorf("model config = %+v, want a JSON response schema", model.config)
	}
	parts := model.contents[0].Parts
	if len(parts) != 2 || parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "application/pdf" {
		t.Errorf("document part = %+v, want inline application/pdf data", parts[len(parts)-1])
	}
}

func TestExtractor_Cache(t *testing.T) {
	model := &fakeModel{reply: statement}
	e := NewExtractor(model, "", zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := e.Extract(ctx, "a.png", []byte("same bytes"))
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	// the cached extraction must not be affected by the caller.
	first.Holdings[0].Ticker = "changed"

	second, err := e.Extract(ctx, "b.png", []byte("same bytes"))
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if model.calls != 1 {
		t.Errorf("model called %d times, want 1", model.calls)
	}
	if second.Holdings[0].Ticker != "vwrl" {
		t.Errorf("cached ticker = %q, want vwrl", second.Holdings[0].Ticker)
	}

	if _, err := e.Extract(ctx, "c.png", []byte("other bytes")); err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if model.calls != 2 {
		t.Errorf("model called %d times, want 2", model.calls)
	}
}

func TestExtractor_CacheByType(t *testing.T) {
	model := &fakeModel{reply: statement}
	e := NewExtractor(model, "", zaptest.NewLogger(t))
	ctx := context.Background()
	data := []byte("section,theme,assetType,name,ticker,account,price,qty,include,targetPct\nCore,All,ETF,Apple,AAPL,ISA,150,5,true,25\n")

	local, err := e.Extract(ctx, "holdings.csv", data)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if local.Holdings[0].TargetPct == nil {
		t.Fatalf("Extract() has no target: %+v", local.Holdings[0])
	}
	// the cached target must not be affected by the caller.
	*local.Holdings[0].TargetPct = decimal.NewFromInt(99)

	again, err := e.Extract(ctx, "copy.CSV", data)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if got := again.Holdings[0].TargetPct; !got.Equal(decimal.NewFromInt(25)) {
		t.Errorf("cached target = %v, want 25", got)
	}

	// the same bytes under another type are read again.
	scan, err := e.Extract(ctx, "scan.pdf", data)
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if model.calls != 1 {
		t.Errorf("model called %d times, want 1", model.calls)
	}
	if scan.Holdings[0].Ticker != "vwrl" {
		t.Errorf("pdf ticker = %q, want vwrl", scan.Holdings[0].Ticker)
	}
}

func TestExtractor_ErrorReply(t *testing.T) {
	model := &fakeModel{reply: `{"error": "this is a picture of a cat"}`}
	e := NewExtractor(model, "", zaptest.NewLogger(t))

	_, err := e.Extract(context.Background(), "cat.jpg", []byte("meow"))
	if err == nil || err.Error() != "cannot extract holdings from cat.jpg: this is a picture of a cat" {
		t.Errorf("Extract() error = %v, want the model's error", err)
	}
}

func TestExtractor_ModelFailure(t *testing.T) {
	unavailable := errors.New("unavailable")
	e := NewExtractor(&fakeModel{err: unavailable}, "", zaptest.NewLogger(t))

	if _, err := e.Extract(context.Background(), "x.pdf", []byte("x")); !errors.Is(err, unavailable) {
		t.Errorf("Extract() error = %v, want %v", err, unavailable)
	}
}

func TestExtractor_LocalCSV(t *testing.T) {
	model := &fakeModel{reply: statement}
	e := NewExtractor(model, "", zaptest.NewLogger(t))

	csv := "Symbol,Name,Qty,Price\nAAPL,Apple,5,150\n"
	got, err := e.Extract(context.Background(), "positions.CSV", []byte(csv))
	if err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if model.calls != 0 {
		t.Errorf("model called %d times for a known dialect, want 0", model.calls)
	}
	if len(got.Holdings) != 1 || got.Holdings[0].Ticker != "AAPL" {
		t.Errorf("Extract() = %+v, want AAPL", got.Holdings)
	}

	// unknown dialects fall back to the model, as text.
	if _, err := e.Extract(context.Background(), "other.csv", []byte("foo,bar\n1,2\n")); err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if model.calls != 1 {
		t.Errorf("model called %d times for an unknown dialect, want 1", model.calls)
	}
	if parts := model.contents[0].Parts; parts[1].Text != "foo,bar\n1,2\n" {
		t.Errorf("document part = %+v, want the CSV text", parts[1])
	}
}

func TestExtractor_NoModel(t *testing.T) {
	e := NewExtractor(nil, "", nil)
	if _, err := e.Extract(context.Background(), "statement.pdf", []byte("x")); !errors.Is(err, folio.ErrUnsupportedFormat) {
		t.Errorf("Extract() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtractor_Lazy(t *testing.T) {
	model := &fakeModel{reply: statement}
	connects := 0
	e := NewLazyExtractor(func(context.Context) (Generator, error) {
		connects++
		return model, nil
	}, "", zaptest.NewLogger(t))
	ctx := context.Background()

	if _, err := e.Extract(ctx, "positions.csv", []byte("Symbol,Name,Qty,Price\nAAPL,Apple,5,150\n")); err != nil {
		t.Fatalf("Extract() failed: %v", err)
	}
	if connects != 0 {
		t.Errorf("connected %d times for a local file, want 0", connects)
	}

	for _, name := range []string{"a.pdf", "b.pdf"} {
		if _, err := e.Extract(ctx, name, []byte(name)); err != nil {
			t.Fatalf("Extract(%q) failed: %v", name, err)
		}
	}
	if connects != 1 {
		t.Errorf("connected %d times, want 1", connects)
	}
	if model.calls != 2 {
		t.Errorf("model called %d times, want 2", model.calls)
	}
}

func TestExtractor_LazyFailure(t *testing.T) {
	noKey := errors.New("api key is required")
	e := NewLazyExtractor(func(context.Context) (Generator, error) {
		return nil, noKey
	}, "", zaptest.NewLogger(t))

	_, err := e.Extract(context.Background(), "statement.pdf", []byte("x"))
	if !errors.Is(err, folio.ErrUnsupportedFormat) || !errors.Is(err, noKey) {
		t.Errorf("Extract() error = %v, want ErrUnsupportedFormat and %v", err, noKey)
	}
}
