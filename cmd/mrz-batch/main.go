package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/ironsheep/mrz-visa-mcp/internal/config"
	"github.com/ironsheep/mrz-visa-mcp/internal/imaging"
	"github.com/ironsheep/mrz-visa-mcp/internal/mrz"
	"github.com/ironsheep/mrz-visa-mcp/internal/ocr"
	"github.com/ironsheep/mrz-visa-mcp/internal/pipeline"
	"github.com/ironsheep/mrz-visa-mcp/internal/report"
	"github.com/ironsheep/mrz-visa-mcp/internal/visa"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		dir     = flag.String("dir", "", "directory of passport images (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to <dir>/mrz-scans.xlsx)")
		stayStr = flag.String("stay", "", "assess visa rules for this stay type: short or long (optional)")
		limit   = flag.Int("limit", 0, "maximum concurrent scans (0 = GOMAXPROCS)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(*dir, "mrz-scans.xlsx")
	}

	var stay visa.StayType
	if *stayStr != "" {
		var err error
		if stay, err = visa.ParseStayType(*stayStr); err != nil {
			printError("Error: invalid --stay: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.FromEnv()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *visa.Store
	if stay != "" {
		store, err = visa.OpenStore(cfg.Rules.Path, cfg.Rules.VersionPath, logger)
		if err != nil {
			logger.Error("failed to load visa rules", "path", cfg.Rules.Path, "error", err)
			os.Exit(1)
		}
	}

	recognizer := ocr.NewTesseractRecognizer(ocr.Options{
		Language:       cfg.OCR.Language,
		TessdataPrefix: cfg.OCR.TessdataPrefix,
		Logger:         logger,
	})
	scanner, err := pipeline.NewScanner(cfg.Pipeline, recognizer, pipeline.WithLogger(logger))
	if err != nil {
		logger.Error("invalid pipeline config", "error", err)
		os.Exit(1)
	}

	paths, err := listImages(*dir)
	if err != nil {
		logger.Error("failed to list directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("starting batch", "dir", *dir, "files", len(paths))

	start := time.Now()
	items, err := scanner.ScanFiles(ctx, paths, *limit)
	if err != nil {
		logger.Warn("batch interrupted", "error", err)
	}

	entries := make([]report.Entry, len(items))
	decoded := 0
	for i, item := range items {
		entries[i] = report.Entry{BatchItem: item}
		if item.Err != nil {
			continue
		}
		decoded++
		if store != nil {
			entries[i].Summary = assess(scanner, store, item.Result.Document, stay)
		}
	}

	f, err := os.Create(*out)
	if err != nil {
		logger.Error("failed to create output", "path", *out, "error", err)
		os.Exit(1)
	}
	if err := report.WriteXLSX(f, entries); err != nil {
		_ = f.Close()
		logger.Error("failed to write report", "path", *out, "error", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		logger.Error("failed to close output", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete",
		"files", len(items),
		"decoded", decoded,
		"out", *out,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// assess returns the summary row for doc. Lookup misses keep the miss
// message; other errors are logged and leave the row unassessed.
func assess(scanner *pipeline.Scanner, store *visa.Store, doc mrz.Document, stay visa.StayType) *visa.Summary {
	a, err := scanner.Assess(doc, store, stay)
	var miss *visa.LookupMissError
	switch {
	case errors.As(err, &miss):
		s := visa.SummarizeMiss(doc, miss)
		return &s
	case err != nil:
		slog.Warn("assessment failed", "nationality", doc.Nationality, "error", err)
		return nil
	}
	s := visa.Summarize(doc, &a, a.RulesVersion)
	return &s
}

// listImages returns the image files directly inside dir, sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !imaging.IsImageFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
