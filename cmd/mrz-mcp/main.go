package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ironsheep/mrz-visa-mcp/internal/config"
	"github.com/ironsheep/mrz-visa-mcp/internal/metrics"
	"github.com/ironsheep/mrz-visa-mcp/internal/ocr"
	"github.com/ironsheep/mrz-visa-mcp/internal/pipeline"
	"github.com/ironsheep/mrz-visa-mcp/internal/server"
	"github.com/ironsheep/mrz-visa-mcp/internal/visa"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("mrz-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("mrz-mcp - MCP server for passport MRZ reading and visa rule checks")
			fmt.Println()
			fmt.Println("Usage: mrz-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  MRZ_RULES_PATH=visa_rules.json                  Visa rule table")
			fmt.Println("  MRZ_RULES_VERSION_PATH=visa_rules_version.json  Rule table version")
			fmt.Println("  MRZ_TESSDATA_PREFIX=/path/to/tessdata           Tesseract data directory")
			fmt.Println("  MRZ_OCR_LANGUAGE=eng                            Tesseract language")
			fmt.Println("  MRZ_METRICS_ADDR=:9102                          Serve Prometheus /metrics")
			fmt.Println("  MRZ_MCP_LOG_LEVEL=debug                         Log level (debug, info, warn, error)")
			fmt.Println("  MRZ_CROP_FRACTION=0.25                          Bottom share of the image searched first")
			fmt.Println("  MRZ_MAX_WIDTH=800                               Width the MRZ band is scaled down to")
			fmt.Println("  MRZ_MIN_CANDIDATE_LENGTH=30                     Shortest OCR line taken as MRZ")
			fmt.Println("  MRZ_SUBSTITUTION_SCOPE=numeric                  OCR fix-ups: numeric or line")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Log to stderr; stdout is for MCP protocol
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Debug("starting mrz-mcp", "version", Version, "built", BuildTime, "commit", GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// A missing rule table is not fatal: scans still work and the client
	// can fix the files and call visa_rules_reload.
	store, err := visa.OpenStore(cfg.Rules.Path, cfg.Rules.VersionPath, logger)
	m.IncrementReload(err == nil)
	if err != nil {
		logger.Warn("visa rules not loaded", "path", cfg.Rules.Path, "error", err)
	}

	recognizer := ocr.NewTesseractRecognizer(ocr.Options{
		Language:       cfg.OCR.Language,
		TessdataPrefix: cfg.OCR.TessdataPrefix,
		Logger:         logger,
	})
	if info := recognizer.Info(); !info.Available {
		logger.Warn("tesseract not available; mrz_scan will fail", "language", info.Language)
	}

	scanner, err := pipeline.NewScanner(cfg.Pipeline, recognizer,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m))
	if err != nil {
		logger.Error("invalid pipeline config", "error", err)
		os.Exit(1)
	}

	srv := server.New(server.Options{
		Scanner: scanner,
		Rules:   store,
		OCRInfo: recognizer.Info,
		Metrics: m,
		Logger:  logger,
		Version: Version,
	})
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// serveMetrics exposes reg on addr/metrics in the background.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
	return srv
}
