// Package agent turns arbitrary statements into holdings using a generative
// model.
package agent

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/folio"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Generator generates content. It is implemented by *genai.Models.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Extraction is what was read from a document.
type Extraction struct {
	Holdings      []folio.HoldingRow
	StatementDate string // YYYY-MM-DD, empty if unknown
	Provider      string
}

// Extractor extracts holdings from files. Known CSV dialects and spreadsheets
// are parsed locally; anything else is sent to the model.
//
// Results are cached by file type and content, so uploading the same file
// twice costs a single model call. An Extractor is safe for concurrent use.
type Extractor struct {
	model  string
	cache  *cache.Cache
	logger *zap.Logger

	mu      sync.Mutex
	gen     Generator
	connect func(context.Context) (Generator, error) // creates gen on first use
}

// NewExtractor returns an Extractor asking model through gen. gen may be nil,
// then only local formats are supported.
func NewExtractor(gen Generator, model string, logger *zap.Logger) *Extractor {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		gen:    gen,
		model:  model,
		cache:  cache.New(time.Hour, 10*time.Minute),
		logger: logger,
	}
}

// NewLazyExtractor returns an Extractor that calls connect the first time a
// file needs the model. Files read locally never call it.
func NewLazyExtractor(connect func(context.Context) (Generator, error), model string, logger *zap.Logger) *Extractor {
	e := NewExtractor(nil, model, logger)
	e.connect = connect
	return e
}

// NewGeminiExtractor returns an Extractor backed by the Gemini API. The client
// is created on first use, with the API key read from the environment.
func NewGeminiExtractor(model string, logger *zap.Logger) *Extractor {
	return NewLazyExtractor(func(ctx context.Context) (Generator, error) {
		client, err := genai.NewClient(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("cannot create model client: %w", err)
		}
		return client.Models, nil
	}, model, logger)
}

// Extract reads holdings from data, the content of file filename.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (*Extraction, error) {
	sum := sha256.Sum256(data)
	key := strings.ToLower(filepath.Ext(filename)) + ":" + hex.EncodeToString(sum[:])
	if x, found := e.cache.Get(key); found {
		e.logger.Debug("extraction cache hit", zap.String("file", filename))
		return x.(*Extraction).clone(), nil
	}

	x, err := e.extract(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	e.cache.SetDefault(key, x)
	return x.clone(), nil
}

// generator returns the model client, connecting if needed. It is nil when
// no model is available.
func (e *Extractor) generator(ctx context.Context) (Generator, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != nil || e.connect == nil {
		return e.gen, nil
	}
	gen, err := e.connect(ctx)
	if err != nil {
		return nil, err
	}
	e.gen = gen
	return gen, nil
}

func (e *Extractor) extract(ctx context.Context, filename string, data []byte) (*Extraction, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		rows, err := folio.ParseHoldingsCSV(string(data))
		if err == nil {
			e.logger.Info("parsed CSV locally", zap.String("file", filename), zap.Int("holdings", len(rows)))
			return &Extraction{Holdings: rows}, nil
		}
		if !errors.Is(err, folio.ErrUnsupportedFormat) {
			return nil, err
		}
	case ".xlsx":
		rows, err := folio.ParseHoldingsSpreadsheet(bytes.NewReader(data))
		if err == nil {
			e.logger.Info("parsed spreadsheet locally", zap.String("file", filename), zap.Int("holdings", len(rows)))
			return &Extraction{Holdings: rows}, nil
		}
		if !errors.Is(err, folio.ErrUnsupportedFormat) {
			return nil, err
		}
	}
	gen, err := e.generator(ctx)
	if err != nil {
		e.logger.Debug("no model available", zap.String("file", filename), zap.Error(err))
		return nil, fmt.Errorf("%s: %w (%w)", filename, folio.ErrUnsupportedFormat, err)
	}
	if gen == nil {
		return nil, fmt.Errorf("%s: %w", filename, folio.ErrUnsupportedFormat)
	}
	return e.ask(ctx, gen, filename, data)
}

// ask sends the document to the model.
func (e *Extractor) ask(ctx context.Context, gen Generator, filename string, data []byte) (*Extraction, error) {
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	// text documents are sent as text, the model reads them better.
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	part := genai.NewPartFromBytes(data, mimeType)
	if strings.HasPrefix(mimeType, "text/") {
		part = genai.NewPartFromText(string(data))
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText("Extract the holdings from " + filepath.Base(filename) + "."),
			part,
		}, genai.RoleUser),
	}

	e.logger.Info("asking model", zap.String("file", filename), zap.String("model", e.model), zap.String("mime", mimeType), zap.Int("size", len(data)))
	resp, err := gen.GenerateContent(ctx, e.model, contents, generateConfig())
	if err != nil {
		return nil, fmt.Errorf("cannot extract holdings from %s: %w", filename, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from model for %s", filename)
	}
	var reply strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		reply.WriteString(p.Text)
	}

	x, err := decodeExtraction(reply.String())
	if err != nil {
		return nil, fmt.Errorf("cannot extract holdings from %s: %w", filename, err)
	}
	e.logger.Info("model extracted holdings", zap.String("file", filename), zap.Int("holdings", len(x.Holdings)), zap.String("provider", x.Provider))
	return x, nil
}

// decodeExtraction reads the model's JSON reply.
func decodeExtraction(reply string) (*Extraction, error) {
	var doc any
	if err := json.Unmarshal([]byte(reply), &doc); err != nil {
		return nil, fmt.Errorf("invalid reply: %w", err)
	}
	if msg := lookup(doc, "$.error"); text(msg) != "" {
		return nil, errors.New(text(msg))
	}

	x := &Extraction{
		StatementDate: text(lookup(doc, "$.statementDate")),
		Provider:      text(lookup(doc, "$.provider")),
		Holdings:      []folio.HoldingRow{},
	}
	items, _ := lookup(doc, "$.holdings").([]any)
	for _, item := range items {
		x.Holdings = append(x.Holdings, decodeHolding(item))
	}
	return x, nil
}

// decodeHolding reads a holding with the same normalizers as the CSV
// dialects. Numbers may come as JSON numbers or as text.
func decodeHolding(item any) folio.HoldingRow {
	field := func(name string) string { return text(lookup(item, "$."+name)) }

	r := folio.HoldingRow{
		Section:   field("section"),
		Theme:     field("theme"),
		AssetType: folio.NormaliseAssetType(field("assetType")),
		Name:      field("name"),
		Ticker:    field("ticker"),
		Account:   field("account"),
		Price:     folio.ParseMoney(field("price")),
		Qty:       folio.ParseNumber(field("qty")),
		Include:   true,
	}
	return r.Normalize()
}

// lookup returns the value at path in doc, or nil when it does not exist.
func lookup(doc any, path string) any {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil
	}
	return v
}

// text renders a JSON scalar as a trimmed string.
func text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// clone copies x deeply enough that callers cannot alter the cached copy.
func (x *Extraction) clone() *Extraction {
	c := *x
	c.Holdings = slices.Clone(x.Holdings)
	for i, r := range c.Holdings {
		if r.TargetPct != nil {
			pct := *r.TargetPct
			c.Holdings[i].TargetPct = &pct
		}
	}
	return &c
}
