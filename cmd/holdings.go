package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

type holdingsCmd struct{}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display the portfolio holdings" }
func (*holdingsCmd) Usage() string {
	return `pcs holdings

  Displays every holding of the portfolio with its value.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {}

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	printMarkdown(renderer.HoldingsMarkdown(holdings, currency()))
	return subcommands.ExitSuccess
}
