package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultOutputDir   = "."
	DefaultReportType  = "standard"
	DefaultFlattenDPI  = 288.0
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the report generation run
type Config struct {
	// Input configuration
	TemplatePath string
	JobPath      string
	ReportType   string

	// Output configuration
	OutputDir string

	// Rendering configuration
	FlattenDPI float64

	// Application configuration
	Version     string
	LogLevel    string
	MaxFileSize int64 // Maximum input file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ReportType:  DefaultReportType,
		OutputDir:   DefaultOutputDir,
		FlattenDPI:  DefaultFlattenDPI,
		Version:     "1.0.0",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	for _, p := range []*string{&cfg.TemplatePath, &cfg.JobPath, &cfg.OutputDir} {
		if *p == "" {
			continue
		}
		if expandedPath, err := filepath.Abs(*p); err == nil {
			*p = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("REPORT")
	viper.AutomaticEnv()

	viper.SetDefault("template", cfg.TemplatePath)
	viper.SetDefault("job", cfg.JobPath)
	viper.SetDefault("type", cfg.ReportType)
	viper.SetDefault("out", cfg.OutputDir)
	viper.SetDefault("dpi", cfg.FlattenDPI)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("template", cfg.TemplatePath, "Path to the fillable PDF template")
	pflag.String("job", cfg.JobPath, "Path to the generation job file (JSON)")
	pflag.String("type", cfg.ReportType, "Report type the mapping set targets")
	pflag.String("out", cfg.OutputDir, "Directory the generated report is written to")
	pflag.Float64("dpi", cfg.FlattenDPI, "Rasterization resolution used during flattening")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum input file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("template", pflag.Lookup("template"))
	_ = viper.BindPFlag("job", pflag.Lookup("job"))
	_ = viper.BindPFlag("type", pflag.Lookup("type"))
	_ = viper.BindPFlag("out", pflag.Lookup("out"))
	_ = viper.BindPFlag("dpi", pflag.Lookup("dpi"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nReport Engine - generates flattened inspection reports from a PDF template\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --template=form.pdf --job=job.json             # generate into the current directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --template=form.pdf --job=job.json --out=/tmp  # custom output directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --template=form.pdf --job=job.json --dpi=144   # faster, lower-resolution flatten\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  REPORT_TEMPLATE    Template PDF path\n")
		fmt.Fprintf(os.Stderr, "  REPORT_JOB         Job file path\n")
		fmt.Fprintf(os.Stderr, "  REPORT_TYPE        Report type\n")
		fmt.Fprintf(os.Stderr, "  REPORT_OUT         Output directory\n")
		fmt.Fprintf(os.Stderr, "  REPORT_DPI         Flatten resolution\n")
		fmt.Fprintf(os.Stderr, "  REPORT_LOGLEVEL    Log level\n")
		fmt.Fprintf(os.Stderr, "  REPORT_MAXFILESIZE Maximum file size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.TemplatePath = viper.GetString("template")
	cfg.JobPath = viper.GetString("job")
	cfg.ReportType = viper.GetString("type")
	cfg.OutputDir = viper.GetString("out")
	cfg.FlattenDPI = viper.GetFloat64("dpi")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.TemplatePath == "" {
		return errors.New("template path cannot be empty")
	}
	if _, err := os.Stat(c.TemplatePath); err != nil {
		return fmt.Errorf("cannot access template %s: %w", c.TemplatePath, err)
	}

	if c.JobPath == "" {
		return errors.New("job path cannot be empty")
	}
	if _, err := os.Stat(c.JobPath); err != nil {
		return fmt.Errorf("cannot access job file %s: %w", c.JobPath, err)
	}

	if c.ReportType == "" {
		return errors.New("report type cannot be empty")
	}

	// Check if output directory exists, create if it doesn't
	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}
	if _, err := os.Stat(c.OutputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access output directory %s: %w", c.OutputDir, err)
	}

	// Validate flatten resolution
	if c.FlattenDPI < 72 || c.FlattenDPI > 600 {
		return errors.New("dpi must be between 72 and 600")
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Template: %s, Job: %s, Type: %s, OutputDir: %s, DPI: %.0f, LogLevel: %s, MaxFileSize: %d}",
		c.TemplatePath, c.JobPath, c.ReportType, c.OutputDir, c.FlattenDPI, c.LogLevel, c.MaxFileSize)
}
