// Retinal Vessel Caliber: CRAE/CRVE estimation from fundus photographs

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"retinal-vessel-caliber/internal/config"
	"retinal-vessel-caliber/internal/core"
	"retinal-vessel-caliber/internal/gui"
	"retinal-vessel-caliber/internal/io"
	"retinal-vessel-caliber/internal/report"
)

const (
	AppName    = "Retinal Vessel Caliber"
	AppID      = "org.retinal-vessel-caliber.app"
	AppVersion = "1.0.0"
)

func main() {
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	imagePath := flag.String("image", "", "Analyze this image headless and print the results")
	skeletonPath := flag.String("skeleton", "", "Write the vessel skeleton to this file (headless mode)")
	histogramPath := flag.String("histogram", "", "Write the width-sample histogram to this file (headless mode)")
	noReport := flag.Bool("no-report", false, "Do not contact the report service")
	writeConfig := flag.String("write-config", "", "Write the effective configuration to this YAML file and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := initLogger(*debugMode, cfg.Logging)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
		"config":     *configPath,
	}).Info("Starting " + AppName)

	if *writeConfig != "" {
		if err := config.SaveConfig(cfg, *writeConfig); err != nil {
			logger.WithError(err).Fatal("Failed to write configuration")
		}
		logger.WithField("filepath", *writeConfig).Info("Configuration written")
		return
	}

	pipeline, err := core.NewPipeline(cfg.Pipeline, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build pipeline")
	}

	// Keep the interface nil when disabled so the analyzer skips the report
	var reports core.ReportFetcher
	if cfg.Report.Enabled && !*noReport {
		reports = report.NewClient(report.Options{
			Endpoint: cfg.Report.Endpoint,
			Model:    cfg.Report.Model,
			Timeout:  cfg.Report.Timeout.Std(),
		}, nil, logger)
	}

	analyzer := core.NewAnalyzer(pipeline, reports, logger)
	loader := io.NewImageLoader(logger)

	if *imagePath != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err := runHeadless(ctx, analyzer, loader, headlessOptions{
			ImagePath:     *imagePath,
			SkeletonPath:  *skeletonPath,
			HistogramPath: *histogramPath,
		}, os.Stdout, logger)
		if err != nil {
			logger.WithError(err).Error("Analysis failed")
			stop()
			os.Exit(1)
		}
		return
	}

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.DocumentIcon())

	mainApp := gui.NewApplication(myApp, analyzer, loader, logger)
	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
}

// initLogger initializes the logger from flags and configuration. Debug mode
// overrides the configured level and format.
func initLogger(debugMode bool, cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
		return logger
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
