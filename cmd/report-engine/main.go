package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/fieldscope/report-engine/internal/config"
	"github.com/fieldscope/report-engine/internal/pdf/render"
	"github.com/fieldscope/report-engine/internal/report"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the configured level
func setupLogging(cfg *config.Config) {
	log.SetOutput(os.Stderr)
	if cfg.IsDebug() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	// Load configuration from flags first
	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}
	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	// Cancel the run on SIGINT/SIGTERM; generation checks the context
	// between stages.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Report generation failed: %v", err)
	}
}

// run loads the job, executes the pipeline and writes the output document.
func run(ctx context.Context, cfg *config.Config) error {
	template, err := os.ReadFile(cfg.TemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	in, err := report.LoadJob(cfg.JobPath, cfg.ReportType, cfg.MaxFileSize)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	in.Template = template

	opts := report.DefaultGeneratorOptions()
	opts.FlattenDPI = cfg.FlattenDPI
	opts.Debug = cfg.IsDebug()

	backend, err := render.Detect()
	if err != nil {
		log.Printf("Warning: %v, output will keep interactive fields", err)
	} else {
		opts.Backend = backend
		if cfg.IsDebug() {
			log.Printf("Using render backend: %s", backend.Name())
		}
	}

	result, err := report.NewGenerator(opts).Generate(ctx, in)
	if err != nil {
		return err
	}

	outPath := filepath.Join(cfg.OutputDir, result.Filename)
	if err := os.WriteFile(outPath, result.PDF, 0o600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	log.Printf("Wrote %s (%d bytes): %s", outPath, len(result.PDF), result.Report.Summary())
	for _, item := range result.Report.MissingItems {
		log.Printf("Missing from the delivered report: %s", item)
	}
	return nil
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Report Engine\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
