// Command etl runs the largest-banks ETL pipeline once: extract the ranking
// table, convert market capitalisation into the configured currencies, save
// CSV/XLSX/SQLite outputs and print the threshold query.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"bankscli/internal/config"
	"bankscli/internal/infrastructure"
	"bankscli/internal/operations"
	"bankscli/pkg/contracts"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the command-line flags. Empty values leave the loaded
// configuration untouched.
type options struct {
	configPath  string
	baseDir     string
	source      string
	sourceKind  string
	rates       string
	csv         string
	xlsx        string
	db          string
	table       string
	currencies  string
	threshold   float64
	auditLog    string
	showVersion bool
	set         map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("etl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "path to config.yaml (defaults to well-known locations)")
	fs.StringVar(&o.baseDir, "base-dir", "", "directory relative paths are resolved against (defaults to cwd)")
	fs.StringVar(&o.source, "source", "", "document location: file path or URL")
	fs.StringVar(&o.sourceKind, "source-kind", "", "document source: file | http | browser")
	fs.StringVar(&o.rates, "rates", "", "exchange rate CSV (Currency,Rate)")
	fs.StringVar(&o.csv, "csv", "", "output CSV path")
	fs.StringVar(&o.xlsx, "xlsx", "", "optional output workbook path")
	fs.StringVar(&o.db, "db", "", "SQLite database path")
	fs.StringVar(&o.table, "table", "", "database table name")
	fs.StringVar(&o.currencies, "currencies", "", "comma-separated currency codes, e.g. GBP,EUR,INR")
	fs.Float64Var(&o.threshold, "threshold", 0, "minimum base metric for the diagnostic query")
	fs.StringVar(&o.auditLog, "audit-log", "", "audit log path")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	o.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// apply overlays the flags that were set on cfg
func (o *options) apply(cfg *config.Config) {
	if o.set["source"] {
		cfg.Source.Location = o.source
	}
	if o.set["source-kind"] {
		cfg.Source.Kind = strings.ToLower(strings.TrimSpace(o.sourceKind))
	}
	if o.set["rates"] {
		cfg.Pipeline.RatesPath = o.rates
	}
	if o.set["csv"] {
		cfg.Output.CSVPath = o.csv
	}
	if o.set["xlsx"] {
		cfg.Output.WorkbookPath = o.xlsx
	}
	if o.set["db"] {
		cfg.Store.Path = o.db
	}
	if o.set["table"] {
		cfg.Store.Table = o.table
	}
	if o.set["currencies"] {
		cfg.Pipeline.Currencies = splitCurrencies(o.currencies)
	}
	if o.set["threshold"] {
		cfg.Pipeline.QueryThreshold = o.threshold
	}
	if o.set["audit-log"] {
		cfg.Pipeline.AuditLogPath = o.auditLog
	}
}

func splitCurrencies(s string) []string {
	var codes []string
	for _, part := range strings.Split(s, ",") {
		if code := strings.ToUpper(strings.TrimSpace(part)); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	if opts.showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: invalid flags: %v\n", err)
		return 1
	}

	paths, err := config.NewPaths(opts.baseDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	paths.ResolveConfig(cfg)
	if err := paths.EnsureDirectories(cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		logger.Error("failed to initialize OpenTelemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shut down OpenTelemetry", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := operations.NewPipeline(cfg,
		operations.WithLogger(logger),
		operations.WithOutput(stdout),
		operations.WithTelemetry(providers),
		operations.WithPaths(paths),
	)
	if err != nil {
		logger.Error("failed to build pipeline", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	report, runErr := pipeline.Run(ctx)
	printReport(stdout, report)
	if runErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", runErr)
		return 1
	}
	return 0
}

func printReport(w io.Writer, report *operations.RunReport) {
	if report == nil {
		return
	}

	fmt.Fprintf(w, "\nrun %s %s in %s (%d rows extracted, %d rows stored)\n",
		report.RunID, report.Status, report.Duration().Round(time.Millisecond),
		report.RowsExtracted, report.RowsStored)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSTATUS\tROWS\tDURATION")
	for _, s := range report.Steps {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, s.Status, s.Rows, s.Duration().Round(time.Millisecond))
	}
	tw.Flush()
}
