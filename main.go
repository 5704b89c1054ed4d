package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/insightdelivered/statement-extractor/internal/api"
	"github.com/insightdelivered/statement-extractor/internal/config"
	"github.com/insightdelivered/statement-extractor/internal/extractor"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/money"
	"github.com/insightdelivered/statement-extractor/internal/parser"
	"github.com/insightdelivered/statement-extractor/internal/writer"
)

const version = api.Version

// statementWriter is satisfied by the CSV and XLSX writers.
type statementWriter interface {
	WriteToFile(path string, stmt *models.Statement) error
}

func main() {
	cfg := config.Load()

	// CLI flags; defaults come from the environment
	outputFlag := flag.String("output", "", "Output file path (defaults to input filename with the format's extension)")
	formatFlag := flag.String("format", "csv", "Output format: csv or xlsx")
	headerFlag := flag.Bool("header", true, "Include statement metadata rows in the output")
	workersFlag := flag.Int("workers", cfg.Parser.Workers, "Pages decoded concurrently")
	payeesFlag := flag.String("payees", strings.Join(cfg.Parser.DirectDebitPayees, ","), "Comma-separated direct-debit payee names")
	logLevelFlag := flag.String("log-level", cfg.Log.Level.String(), "Log level: debug, info, warn, error")
	serveFlag := flag.Bool("serve", false, "Serve the HTTP API instead of converting files")
	addrFlag := flag.String("addr", cfg.Server.ListenAddr, "Listen address for -serve")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `St.George Statement Extractor
by Insight Delivered (QEA AutoLens)

Extracts the transactions of St.George Bank statement PDFs and checks
every running balance along the way.

Usage:
  statement-extractor [flags] <statement.pdf> [statement2.pdf ...]
  statement-extractor -serve [-addr :8080]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert to CSV next to the input
  statement-extractor statement.pdf

  # Excel output at a custom path
  statement-extractor -format=xlsx -output=january.xlsx statement.pdf

  # Treat more payees as direct debits
  statement-extractor -payees="GMHBA,CITY WATER" jan.pdf feb.pdf

Environment:
  LISTEN_ADDR, LOG_LEVEL, LOG_FORMAT, PAGE_WORKERS, DIRECT_DEBIT_PAYEES, MAX_UPLOAD_MB
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("statement-extractor v%s\n", version)
		os.Exit(0)
	}

	cfg.Log.Level = config.ParseLevel(*logLevelFlag)
	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	opts := parser.Options{
		Workers:           *workersFlag,
		DirectDebitPayees: config.SplitList(*payeesFlag),
		Logger:            logger,
	}

	if *serveFlag {
		if err := serve(*addrFlag, cfg, opts, logger); err != nil {
			fatalf("Server error: %v\n", err)
		}
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	var w statementWriter
	switch strings.ToLower(*formatFlag) {
	case "csv":
		w = &writer.CSVWriter{IncludeHeader: *headerFlag}
	case "xlsx":
		w = &writer.XLSXWriter{IncludeHeader: *headerFlag}
	default:
		fatalf("Unknown format %q. Supported: csv, xlsx\n", *formatFlag)
	}

	inputFiles := flag.Args()
	if *outputFlag != "" && len(inputFiles) > 1 {
		fatalf("-output can only be used with a single input file\n")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, inputPath := range inputFiles {
		if err := processFile(ctx, inputPath, *outputFlag, "."+strings.ToLower(*formatFlag), w, opts); err != nil {
			fatalf("Error processing %s: %v\n", inputPath, err)
		}
	}
}

func processFile(ctx context.Context, inputPath, outputPath, ext string, w statementWriter, opts parser.Options) error {
	// Validate input file
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if got := strings.ToLower(filepath.Ext(inputPath)); got != ".pdf" {
		return fmt.Errorf("expected .pdf file, got %q", got)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	doc, err := extractor.Open(inputPath)
	if err != nil {
		return fmt.Errorf("PDF open failed: %w", err)
	}
	defer doc.Close()

	fmt.Printf("  Read %d page(s)\n", doc.NumPages())

	stmt, err := parser.Parse(ctx, doc, opts)
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}

	fmt.Printf("  Found %d transaction(s)\n", len(stmt.Transactions))

	outPath := outputPath
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ext
	}
	if err := w.WriteToFile(outPath, stmt); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	fmt.Printf("  Output: %s\n", outPath)

	// Print summary
	if stmt.Period != "" {
		fmt.Printf("  Period: %s\n", stmt.Period)
	}
	debit, credit := stmt.Totals()
	fmt.Printf("  Opening: %s  Closing: %s\n", money.Display(stmt.OpeningBalance), money.Display(stmt.ClosingBalance))
	fmt.Printf("  Debits: %s  Credits: %s\n", money.Display(debit), money.Display(credit))

	fmt.Println("  Done.")
	return nil
}

func serve(addr string, cfg *config.Config, opts parser.Options, logger *slog.Logger) error {
	app := api.NewApp(&api.Handler{Options: opts, Logger: logger}, cfg.Server.MaxUploadMB)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = app.Shutdown()
	}()

	logger.Info("listening", "addr", addr, "workers", opts.Workers)
	return app.Listen(addr)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
