package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/app"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/services/scheduler"
	"github.com/ternarybob/vigil/internal/services/source"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	inputFile    = flag.String("input", "", "JSON document file to summarize (overrides schedule.source_file)")
	runContext   = flag.String("context", "", "Monitoring context string (overrides schedule.context)")
	runOnce      = flag.Bool("once", false, "Generate one report and exit, even if scheduling is enabled")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Vigil version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("vigil.toml"); err == nil {
			configFiles = append(configFiles, "vigil.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	// CLI overrides (highest priority)
	if *inputFile != "" {
		config.Schedule.SourceFile = *inputFile
	}
	if *runContext != "" {
		config.Schedule.Context = *runContext
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	ctx := context.Background()

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	if config.Schedule.SourceFile == "" {
		logger.Fatal().Msg("No document source configured: set schedule.source_file or pass -input")
		os.Exit(1)
	}

	docSource := source.NewFileSource(config.Schedule.SourceFile, logger)
	sched := scheduler.NewService(docSource, application.Pipeline, application.ReportStorage, config.Schedule.Context, logger)

	if *runOnce || !config.Schedule.Enabled {
		if err := sched.RunNow(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Report run failed")
			os.Exit(1)
		}
		return
	}

	if err := sched.Start(config.Schedule.Cron); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	if err := sched.Stop(); err != nil {
		logger.Warn().Err(err).Msg("Scheduler shutdown error")
	}
}
