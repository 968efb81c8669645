// Command ipp-printer-sim runs a single emulated network-attached IPP
// printer: it binds the Service Manager's HTTP listener, advertises itself
// over DNS-SD, and serves print submissions until signaled to stop.
//
// Flag and config-file handling mirrors the teacher's
// cmd/airprint-bridge/main.go: start from DefaultConfig, apply an optional
// YAML file, then apply command-line overrides on top.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ipp-printer-sim/ipp-printer-sim/internal/service"
)

var (
	version = "dev"
	commit  = "unknown"
)

// ConfigFile is the on-disk YAML shape for this printer's configuration,
// covering every printer, job, and fault-injection option plus the ambient
// logging knobs the teacher's own config file carries.
type ConfigFile struct {
	Printer struct {
		Name string `yaml:"name"`
		Port int    `yaml:"port"`
	} `yaml:"printer"`

	JobDir         string `yaml:"job_dir"`
	FaultInjection string `yaml:"fault_injection"`
	Advertise      *bool  `yaml:"advertise"`

	CustomPrinterAttributes []struct {
		Name   string   `yaml:"name"`
		Tag    string   `yaml:"tag"`
		Values []string `yaml:"values"`
	} `yaml:"custom_printer_attributes"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func main() {
	var (
		configPath     = flag.String("config", "/etc/ipp-printer-sim/config.yaml", "path to config file")
		printerName    = flag.String("printer-name", "", "printer display name")
		port           = flag.Int("port", 0, "IPP/HTTP listener port (default 8631)")
		jobDir         = flag.String("job-dir", "", "directory to persist print jobs in")
		faultInjection = flag.String("fault-injection", "", "fault mode: off, server-error, client-error, aborted, unsupported-format")
		noAdvertise    = flag.Bool("no-advertise", false, "disable DNS-SD advertisement")
		logLevel       = flag.String("log-level", "", "log level: debug, info, warn, error")
		logFormat      = flag.String("log-format", "", "log format: json, console")
		showVersion    = flag.Bool("version", false, "show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ipp-printer-sim version %s (commit %s)\n", version, commit)
		os.Exit(0)
	}

	cfg := service.DefaultConfig()
	logLevelName, logFormatName := *logLevel, *logFormat

	if fileCfg, err := loadConfig(*configPath); err == nil {
		applyFileConfig(&cfg, fileCfg)
		if logLevelName == "" {
			logLevelName = fileCfg.Log.Level
		}
		if logFormatName == "" {
			logFormatName = fileCfg.Log.Format
		}
	} else if !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load config file: %v\n", err)
	}

	if *printerName != "" {
		cfg.PrinterName = *printerName
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *jobDir != "" {
		cfg.JobDir = *jobDir
	}
	if *faultInjection != "" {
		cfg.FaultInjection = *faultInjection
	}
	if *noAdvertise {
		cfg.Advertise = false
	}

	level := zerolog.InfoLevel
	if logLevelName != "" {
		level = parseLogLevel(logLevelName)
	}
	zerolog.SetGlobalLevel(level)

	var log zerolog.Logger
	if logFormatName == "json" {
		log = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}

	svc, err := service.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct service")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("service failed to start")
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("shutdown reported an error")
	}
}

func loadConfig(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func applyFileConfig(cfg *service.Config, fc *ConfigFile) {
	if fc.Printer.Name != "" {
		cfg.PrinterName = fc.Printer.Name
	}
	if fc.Printer.Port != 0 {
		cfg.Port = fc.Printer.Port
	}
	if fc.JobDir != "" {
		cfg.JobDir = fc.JobDir
	}
	if fc.FaultInjection != "" {
		cfg.FaultInjection = fc.FaultInjection
	}
	if fc.Advertise != nil {
		cfg.Advertise = *fc.Advertise
	}
	for _, a := range fc.CustomPrinterAttributes {
		cfg.CustomPrinterAttributes = append(cfg.CustomPrinterAttributes, service.CustomAttribute{
			Name:   a.Name,
			Tag:    a.Tag,
			Values: a.Values,
		})
	}
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
