package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// importCmd holds the flags for the 'import' subcommand.
type importCmd struct {
	apply       bool
	keepRemoved bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "review, and apply, holdings read from a statement" }
func (*importCmd) Usage() string {
	return `pcs import [-apply] [-keep-removed] <file>

  Reads holdings from a CSV export, a spreadsheet or any statement document,
  and reviews them against the portfolio: new, changed, removed and unchanged
  holdings are listed.

  With -apply the reviewed changes are saved.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.apply, "apply", false, "save the reviewed changes into the portfolio")
	f.BoolVar(&c.keepRemoved, "keep-removed", false, "do not delete holdings missing from the statement")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: import requires exactly one file")
		return subcommands.ExitUsageError
	}
	file := f.Arg(0)

	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", file, err)
		return subcommands.ExitFailure
	}

	extraction, err := NewExtractor().Extract(ctx, file, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	Logger.Info("holdings read", zap.String("file", file), zap.Int("count", len(extraction.Holdings)),
		zap.String("provider", extraction.Provider), zap.String("statementDate", extraction.StatementDate))

	db, err := OpenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	existing, err := db.Holdings(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading holdings: %v\n", err)
		return subcommands.ExitFailure
	}

	diffs := folio.DiffHoldings(existing, extraction.Holdings)
	if c.keepRemoved {
		for i := range diffs {
			if diffs[i].Type == folio.DiffRemoved {
				diffs[i].Accepted = false
			}
		}
	}
	printMarkdown(renderer.DiffMarkdown(diffs, currency()))

	if !c.apply {
		fmt.Println("Run again with -apply to save these changes.")
		return subcommands.ExitSuccess
	}

	applied, err := folio.ApplyDiffs(ctx, db, diffs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error applying changes: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Applied %d new, %d changed and %d removed holdings to %s\n", applied.New, applied.Changed, applied.Removed, dbPath())
	return subcommands.ExitSuccess
}
