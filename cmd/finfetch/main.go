package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finfetch/internal/common"
	"github.com/ternarybob/finfetch/pkg/financials"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	tickerList   = flag.String("tickers", "", "Comma-separated ticker symbols (overrides config)")
	query        = flag.String("query", "price", "Query to run: statements, price, summary, keystats, financial, profile, earnings, quotetype, esg, history, dividends, recommendations, insights")
	frequency    = flag.String("frequency", "annual", "Reporting frequency for statements: annual, quarterly, trailing")
	statements   = flag.String("statements", "income,balance,cash", "Statement types for the statements query")
	startDate    = flag.String("start", "", "Start date (YYYY-MM-DD) for history and dividends queries")
	endDate      = flag.String("end", "", "End date (YYYY-MM-DD) for history and dividends queries")
	interval     = flag.String("interval", "daily", "Interval for the history query: daily, weekly, monthly")
	country      = flag.String("country", "", "Country code for locale parameters (overrides config)")
	concurrent   = flag.Bool("concurrent", false, "Fan out over tickers with a worker pool")
	flatFormat   = flag.Bool("flat", false, "Return fundamentals as a flattened date->fields map")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Finfetch version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence:
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("finfetch.toml"); err == nil {
			configFiles = append(configFiles, "finfetch.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	applyFlagOverrides(config)

	logger = common.InitLogger(config)
	common.PrintBanner(common.LoadVersionFromFile())

	tickers := config.Tickers
	if *tickerList != "" {
		tickers = strings.Split(*tickerList, ",")
	}
	if len(tickers) == 0 {
		logger.Fatal().Msg("No tickers given; use -tickers or the config file")
		os.Exit(1)
	}

	client, err := financials.New(tickers,
		financials.WithFetchConfig(config.Fetch),
		financials.WithLogger(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create client")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runQuery(ctx, client, *query)
	if err != nil {
		logger.Fatal().Str("query", *query).Err(err).Msg("Query failed")
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to encode result")
		os.Exit(1)
	}
	fmt.Println(string(encoded))
}

// applyFlagOverrides applies command-line overrides on top of the loaded
// configuration.
func applyFlagOverrides(config *common.Config) {
	if *country != "" {
		config.Fetch.Country = *country
	}
	if *concurrent {
		config.Fetch.Concurrent = true
	}
	if *flatFormat {
		config.Fetch.FlatFormat = true
	}
}

// runQuery dispatches the named query against the client.
func runQuery(ctx context.Context, client *financials.Client, name string) (interface{}, error) {
	switch name {
	case "statements":
		kinds, err := parseStatements(*statements)
		if err != nil {
			return nil, err
		}
		return client.FinancialStatements(ctx, financials.Frequency(*frequency), kinds...)
	case "price":
		return client.PriceData(ctx)
	case "summary":
		return client.SummaryData(ctx)
	case "keystats":
		return client.KeyStatistics(ctx)
	case "financial":
		return client.FinancialData(ctx)
	case "profile":
		return client.ProfileData(ctx)
	case "earnings":
		return client.EarningsData(ctx)
	case "quotetype":
		return client.QuoteTypeData(ctx)
	case "esg":
		return client.ESGData(ctx)
	case "history":
		if *startDate == "" || *endDate == "" {
			return nil, fmt.Errorf("history query requires -start and -end")
		}
		return client.HistoricalPriceData(ctx, *startDate, *endDate, *interval)
	case "dividends":
		if *startDate == "" || *endDate == "" {
			return nil, fmt.Errorf("dividends query requires -start and -end")
		}
		return client.DailyDividendData(ctx, *startDate, *endDate)
	case "recommendations":
		return client.AnalystRecommendations(ctx)
	case "insights":
		return client.Insights(ctx)
	default:
		return nil, fmt.Errorf("unknown query: %s", name)
	}
}

// parseStatements translates the comma-separated -statements value.
func parseStatements(value string) ([]financials.Statement, error) {
	kinds := []financials.Statement{}
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		switch financials.Statement(entry) {
		case financials.Income, financials.Balance, financials.Cash:
			kinds = append(kinds, financials.Statement(entry))
		default:
			return nil, fmt.Errorf("unknown statement type: %s", entry)
		}
	}
	return kinds, nil
}
