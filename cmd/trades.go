package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type importTradesCmd struct{}

func (*importTradesCmd) Name() string     { return "import-trades" }
func (*importTradesCmd) Synopsis() string { return "record trades from a CSV file" }
func (*importTradesCmd) Usage() string {
	return `pcs import-trades <file>

  Reads trades (ticker,name,type,date,price,qty) and records them against the
  holding with the same ticker. Trades of unknown tickers are reported and
  skipped.
`
}

func (c *importTradesCmd) SetFlags(f *flag.FlagSet) {}

func (c *importTradesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: import-trades requires exactly one file")
		return subcommands.ExitUsageError
	}
	file := f.Arg(0)

	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", file, err)
		return subcommands.ExitFailure
	}
	rows, err := folio.ParseTradesCSV(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %q: %v\n", file, err)
		return subcommands.ExitFailure
	}

	db, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	holdings, err := db.Holdings(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading holdings: %v\n", err)
		return subcommands.ExitFailure
	}

	trades, unresolved := folio.ResolveTrades(rows, holdings)
	for _, r := range unresolved {
		Logger.Warn("trade skipped, no holding with this ticker", zap.String("ticker", r.Ticker), zap.String("date", r.Date))
		fmt.Fprintf(os.Stderr, "Warning: no holding for ticker %q, trade of %s skipped\n", r.Ticker, r.Date)
	}

	added, err := db.AddTrades(ctx, trades)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording trades: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %d trades in %s\n", len(added), dbPath())
	return subcommands.ExitSuccess
}

type exportTradesCmd struct {
	output string
}

func (*exportTradesCmd) Name() string     { return "export-trades" }
func (*exportTradesCmd) Synopsis() string { return "export trades as CSV" }
func (*exportTradesCmd) Usage() string {
	return `pcs export-trades [-o <file>]

  Writes every recorded trade as CSV, which 'pcs import-trades' reads back.
`
}

func (c *exportTradesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output file, defaults to stdout")
}

func (c *exportTradesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	holdings, err := db.Holdings(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	trades, err := db.Trades(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trades: %v\n", err)
		return subcommands.ExitFailure
	}

	out, err := folio.TradesToCSV(trades, holdings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := writeOutput(c.output, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing trades: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
