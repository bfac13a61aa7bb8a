// Package cmd implements the pcs subcommands to import, review and export a
// portfolio's holdings.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/folio/agent"
	"github.com/etnz/folio/store"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&importCmd{}, "holdings")
	c.Register(&holdingsCmd{}, "holdings")
	c.Register(&exportCmd{}, "holdings")

	c.Register(&importTradesCmd{}, "trades")
	c.Register(&exportTradesCmd{}, "trades")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	dbFlag       = flag.String("db", "", "Path to the portfolio database. Defaults to $FOLIO_DB or folio.db")
	currencyFlag = flag.String("currency", "", "Currency holdings are valued in. Defaults to $FOLIO_CURRENCY or GBP")
	modelFlag    = flag.String("model", "", "Model used to read documents. Defaults to $FOLIO_MODEL or "+agent.DefaultModel)
)

// Logger is the application logger. The main package replaces it.
var Logger = zap.NewNop()

// setting returns the flag value if set, then the environment variable env,
// then def.
func setting(flagValue, env, def string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

func dbPath() string   { return setting(*dbFlag, "FOLIO_DB", "folio.db") }
func currency() string { return strings.ToUpper(setting(*currencyFlag, "FOLIO_CURRENCY", "GBP")) }
func model() string    { return setting(*modelFlag, "FOLIO_MODEL", agent.DefaultModel) }

// OpenStore opens the application database.
func OpenStore() (*store.Store, error) {
	return store.Open(dbPath(), Logger)
}

// NewExtractor returns the document extractor. The model client is only
// created when a document needs it.
func NewExtractor() *agent.Extractor {
	return agent.NewGeminiExtractor(model(), Logger)
}

// printMarkdown renders md on the terminal, raw if it cannot be rendered.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	Logger.Debug("cannot render markdown", zap.Error(err))
	fmt.Println(md)
}

// writeOutput writes content to file, or to stdout when file is empty.
func writeOutput(file, content string) error {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if file == "" {
		_, err := fmt.Print(content)
		return err
	}
	return os.WriteFile(file, []byte(content), 0644)
}
