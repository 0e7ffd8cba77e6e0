package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/uldisg/cropwise/internal/catalog"
	"github.com/uldisg/cropwise/internal/config"
	"github.com/uldisg/cropwise/internal/planner"
	"github.com/uldisg/cropwise/internal/pricing"
	"github.com/uldisg/cropwise/internal/projection"
	"github.com/uldisg/cropwise/internal/rotation"
	"github.com/uldisg/cropwise/internal/server"
	"github.com/uldisg/cropwise/internal/storage"
	"github.com/uldisg/cropwise/pkg/constants"
	"github.com/uldisg/cropwise/pkg/output"
	"github.com/uldisg/cropwise/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serve := flag.Bool("serve", false, "run the HTTP API server instead of a one-shot plan")
	userFlag := flag.String("user", "", "user identifier owning the field (one-shot mode)")
	fieldFlag := flag.String("field", "", "field identifier to plan for (one-shot mode)")
	candidatesFlag := flag.String("candidates", "", "comma-separated candidate crop codes (default: whole catalog)")
	flag.Parse()

	// Load optional .env before viper reads the environment.
	_ = godotenv.Load()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	// Load the crop catalog; validation failures abort startup.
	cat, err := catalog.Load(conf.Catalog.CropsFile)
	if err != nil {
		logger.Fatal("failed to load crop catalog",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Load the local price table snapshot.
	localTable, err := pricing.LoadLocalTable(conf.Catalog.LocalPricesFile)
	if err != nil {
		logger.Fatal("failed to load local price table",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Wire the price resolution chain.
	timeout := time.Duration(conf.MarketFeed.TimeoutSeconds) * time.Second
	var feed pricing.MarketFeed
	if conf.MarketFeed.URL != "" {
		feed = pricing.NewHTTPFeed(conf.MarketFeed.URL, timeout, logger)
	}
	resolver := pricing.NewResolver(feed, localTable, cat, timeout, logger)

	scorer := rotation.NewScorer(conf.RotationPolicy(), cat, logger)
	ranker := planner.NewRanker(cat, resolver, scorer, conf.RankingWeights(), logger)
	projector := projection.NewProjector(conf.Projection.CostInflationRate, logger)
	analyzer := projection.NewAnalyzer(projector, logger)

	store, err := storage.Open(conf.Storage.Path, logger)
	if err != nil {
		logger.Fatal("failed to open storage",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if *serve {
		handler := server.NewHandler(logger, server.Deps{
			Catalog:   cat,
			Resolver:  resolver,
			Ranker:    ranker,
			Projector: projector,
			Analyzer:  analyzer,
			Store:     store,
			Scenarios: conf.ScenarioSet(),
			Horizon:   conf.Projection.HorizonYears,
			Version:   version,
		})
		logger.Info("starting HTTP API",
			zap.String("op", "main"),
			zap.String("address", conf.Server.Address),
		)
		if err := http.ListenAndServe(conf.Server.Address, handler); err != nil {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	if *userFlag == "" || *fieldFlag == "" {
		logger.Fatal("one-shot mode requires -user and -field (or run with -serve)",
			zap.String("op", "main"),
		)
	}

	f, err := store.GetField(*fieldFlag, *userFlag)
	if err != nil {
		logger.Fatal("failed to load field",
			zap.String("op", "main"),
			zap.String("field", *fieldFlag),
			zap.Error(err),
		)
	}
	history, err := store.ListSowingHistory(f.ID)
	if err != nil {
		logger.Fatal("failed to load sowing history",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	var candidates []string
	if *candidatesFlag != "" {
		for _, code := range strings.Split(*candidatesFlag, ",") {
			candidates = append(candidates, strings.TrimSpace(code))
		}
	}

	ctx := context.Background()
	result, err := ranker.Rank(ctx, f, history, candidates)
	if err != nil {
		logger.Fatal("failed to compute recommendations",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if len(result.Recommendations) == 0 {
		logger.Warn("no recommendations produced for field",
			zap.String("op", "main"),
			zap.String("field", f.ID),
		)
		return
	}

	// Run the scenario analysis for the top recommendation.
	best := result.Recommendations[0]
	crop, err := cat.Get(best.CropCode)
	if err != nil {
		logger.Fatal("catalog lookup failed for top recommendation",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	scenarios, err := analyzer.Analyze(crop, f, conf.Projection.HorizonYears,
		projection.Flat(best.Quote.PriceEurT), projection.Flat(best.YieldTHa), conf.ScenarioSet())
	if err != nil {
		logger.Fatal("failed to compute scenario analysis",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyRecommendations(f.Name, result)
		fmt.Printf("\n")
		output.PrettyScenarios(best.CropCode, scenarios)
	case constants.OutputFormatCSV:
		output.CsvRecommendations(result)
		output.CsvScenarios(scenarios)
	}
}
