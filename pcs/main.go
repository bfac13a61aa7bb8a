// Command pcs imports brokerage statements into a portfolio.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/etnz/folio/cmd"
	"github.com/etnz/folio/docs"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var verbose = flag.Bool("v", false, "verbose logs")

func main() {
	// a missing .env file is fine, the environment is used as is.
	_ = godotenv.Load()

	completion().Complete("pcs")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if *verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	cmd.Logger = logger

	status := commander.Execute(context.Background())
	_ = logger.Sync()
	os.Exit(int(status))
}

// completion describes pcs for shell completion.
func completion() *complete.Command {
	topics, _ := docs.GetAllTopics()
	output := map[string]complete.Predictor{"o": predict.Files("*.csv")}
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"import": {
				Flags: map[string]complete.Predictor{"apply": predict.Nothing, "keep-removed": predict.Nothing},
				Args:  predict.Files("*"),
			},
			"holdings":      {},
			"export":        {Flags: output},
			"import-trades": {Args: predict.Files("*.csv")},
			"export-trades": {Flags: output},
			"topic":         {Args: predict.Set(append(topics, "*"))},
		},
		Flags: map[string]complete.Predictor{
			"db":       predict.Files("*.db"),
			"currency": predict.Set{"GBP", "EUR", "USD"},
			"model":    predict.Something,
			"v":        predict.Nothing,
		},
	}
}
