// Command sellerstats prints the seller bonus report for a dataset file.
//
//	sellerstats -input sales.json -bonus profit-tiers -pretty
//
// The dataset is read from stdin when -input is omitted or "-".
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-sellerstats/internal/dataset"
	"github.com/noah-isme/backend-sellerstats/internal/obs"
	"github.com/noah-isme/backend-sellerstats/internal/sellerstats"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitError   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sellerstats", flag.ContinueOnError)
	fs.SetOutput(stderr)
	input := fs.String("input", "-", "dataset JSON file, - for stdin")
	bonus := fs.String("bonus", sellerstats.DefaultBonusPolicy, "bonus policy name")
	revenue := fs.String("revenue", sellerstats.DefaultRevenuePolicy, "revenue policy name")
	strict := fs.Bool("strict", false, "validate every element and reject duplicate ids")
	checkRefs := fs.Bool("check-refs", false, "verify all references before aggregating")
	pretty := fs.Bool("pretty", false, "indent the JSON output")
	logLevel := fs.String("log-level", "warn", "diagnostic log level")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}
	logger := obs.NewLoggerTo(stderr, "console", *logLevel)

	report, err := analyze(*input, stdin, *bonus, *revenue, *strict, *checkRefs, logger)
	if err != nil {
		logger.Error().Err(err).Msg("analysis failed")
		if isDataError(err) {
			return exitInvalid
		}
		return exitError
	}

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		logger.Error().Err(err).Msg("write report")
		return exitError
	}
	return exitOK
}

func analyze(input string, stdin io.Reader, bonus, revenue string, strict, checkRefs bool, logger zerolog.Logger) ([]sellerstats.SellerReport, error) {
	bonusPolicy, err := sellerstats.LookupBonusPolicy(bonus)
	if err != nil {
		return nil, err
	}
	revenuePolicy, err := sellerstats.LookupRevenuePolicy(revenue)
	if err != nil {
		return nil, err
	}

	loader := dataset.NewLoader(strict)
	var data *sellerstats.Dataset
	if input == "" || input == "-" {
		data, err = loader.Decode(stdin)
	} else {
		data, err = loader.LoadFile(input)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Int("sellers", len(data.Sellers)).
		Int("products", len(data.Products)).
		Int("purchase_records", len(data.PurchaseRecords)).
		Msg("dataset loaded")

	if checkRefs {
		if err := sellerstats.CheckReferences(data); err != nil {
			return nil, err
		}
	}
	report, err := sellerstats.Analyze(data, sellerstats.Options{Revenue: revenuePolicy, Bonus: bonusPolicy})
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return report, nil
}

func isDataError(err error) bool {
	return errors.Is(err, sellerstats.ErrInvalidInput) ||
		errors.Is(err, sellerstats.ErrUnknownSeller) ||
		errors.Is(err, sellerstats.ErrUnknownProduct)
}
