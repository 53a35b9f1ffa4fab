package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	fundamentals "github.com/RxDataLab/go-fundamentals"
)

func main() {
	// .env is optional; environment variables win.
	_ = godotenv.Load()

	var (
		ticker       string
		years        int
		outDir       string
		email        string
		renderHTML   bool
		noConceptMap bool
		verbose      bool
	)

	flag.StringVar(&ticker, "ticker", "", "Ticker symbol, e.g. AAPL (required)")
	flag.IntVar(&years, "years", 5, "Number of fiscal years to include")
	flag.StringVar(&outDir, "out", "reports", "Output directory")
	flag.StringVar(&email, "email", "", "Email for SEC User-Agent header (or use SEC_EMAIL env var)")
	flag.BoolVar(&renderHTML, "html", false, "Also write an HTML rendering of the report")
	flag.BoolVar(&noConceptMap, "no-concept-map", false, "Do not include the concept map section")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fundreport -ticker <symbol> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Generate an annual financial analysis report from SEC XBRL company facts.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  fundreport -ticker AAPL\n")
		fmt.Fprintf(os.Stderr, "  fundreport -ticker MSFT -years 8 -html -out reports\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  SEC_EMAIL    Email for SEC User-Agent header (required)\n")
	}

	flag.Parse()

	if ticker == "" {
		fmt.Fprintf(os.Stderr, "Error: -ticker is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	if err := run(ticker, years, outDir, email, renderHTML, !noConceptMap, log); err != nil {
		log.Error().Err(err).Msg("report failed")
		os.Exit(1)
	}
}

func run(ticker string, years int, outDir, email string, renderHTML, conceptMap bool, log zerolog.Logger) error {
	var err error
	if email == "" {
		email, err = fundamentals.GetSecEmail()
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client := fundamentals.NewClient(email,
		fundamentals.WithCacheDir(".cache"),
		fundamentals.WithLogger(log),
	)

	cik, err := client.CIKForTicker(ctx, ticker)
	if err != nil {
		return err
	}
	log.Info().Str("ticker", ticker).Str("cik", cik).Msg("resolved ticker")

	subs, err := client.Submissions(ctx, cik)
	if err != nil {
		return err
	}

	facts, err := client.CompanyFacts(ctx, cik)
	if err != nil {
		return err
	}

	rows := fundamentals.NormalizePipeline(facts, fundamentals.DefaultNormalizeConfig())
	log.Info().Int("facts", len(rows)).Msg("normalized company facts")

	table, usedConcepts, err := fundamentals.BuildAnnualTable(rows, fundamentals.DefaultSpecs(),
		fundamentals.TableConfig{LastNYears: years})
	if err != nil {
		return fmt.Errorf("failed to build annual table: %w", err)
	}
	log.Info().Int("years", len(table.Rows)).Msg("built annual table")

	report := fundamentals.NewReport(ticker, subs.Name, cik, years, table, usedConcepts)
	report.IncludeConceptMap = conceptMap

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	mdPath := filepath.Join(outDir, strings.ToUpper(ticker)+".md")
	if err := os.WriteFile(mdPath, []byte(report.Markdown()), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Println(mdPath)

	if renderHTML {
		html, err := report.HTML()
		if err != nil {
			return err
		}
		htmlPath := filepath.Join(outDir, strings.ToUpper(ticker)+".html")
		if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
		fmt.Println(htmlPath)
	}

	return nil
}
