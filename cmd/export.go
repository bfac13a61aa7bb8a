package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/google/subcommands"
)

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export holdings as CSV" }
func (*exportCmd) Usage() string {
	return `pcs export [-o <file>]

  Writes every holding in the canonical CSV format, which 'pcs import' reads back.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output file, defaults to stdout")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	rows := make([]folio.HoldingRow, 0, len(holdings))
	for _, h := range holdings {
		rows = append(rows, h.HoldingRow)
	}

	if err := writeOutput(c.output, folio.HoldingsToCSV(rows)); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
