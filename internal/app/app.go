package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/services/llm"
	"github.com/ternarybob/vigil/internal/services/report"
	"github.com/ternarybob/vigil/internal/storage/badger"
)

// App wires configuration into the provider chain, pipeline and report
// archive.
type App struct {
	Config        *common.Config
	Logger        arbor.ILogger
	Router        *llm.Router
	Pipeline      *report.Service
	ReportStorage interfaces.ReportStorage

	db *badger.BadgerDB
}

// New builds the application from a validated configuration. Provider
// construction failures for hosted backends (typically a missing API key)
// are logged and the provider is dropped from the chain; only an entirely
// empty chain is a hard error.
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (*App, error) {
	slots, err := buildProviderSlots(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	router, err := llm.NewRouter(slots, logger)
	if err != nil {
		return nil, err
	}

	pipeline, err := report.NewService(router, &config.Pipeline, logger)
	if err != nil {
		return nil, err
	}

	db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open report archive: %w", err)
	}

	return &App{
		Config:        config,
		Logger:        logger,
		Router:        router,
		Pipeline:      pipeline,
		ReportStorage: badger.NewReportStorage(db, logger),
		db:            db,
	}, nil
}

// buildProviderSlots constructs providers in the configured priority
// order.
func buildProviderSlots(ctx context.Context, config *common.Config, logger arbor.ILogger) ([]llm.Slot, error) {
	slots := make([]llm.Slot, 0, len(config.Providers.Order))

	for _, name := range config.Providers.Order {
		pc, err := config.Provider(name)
		if err != nil {
			return nil, err
		}

		var provider llm.Provider
		switch name {
		case "gemini":
			provider, err = llm.NewGeminiProvider(ctx, pc, logger)
		case "claude":
			provider, err = llm.NewClaudeProvider(pc, logger)
		case "local":
			provider, err = llm.NewLocalProvider(pc, logger)
		}

		if err != nil {
			logger.Warn().
				Str("provider", name).
				Err(err).
				Msg("Provider not available, dropping from failover chain")
			continue
		}

		// Never the key itself, only whether one is configured.
		logger.Debug().
			Str("provider", name).
			Bool("credentials_set", pc.APIKey != "").
			Int("request_limit", pc.RequestLimit).
			Msg("Provider added to failover chain")

		slots = append(slots, llm.Slot{
			Provider:     provider,
			Timeout:      common.ParseDurationOr(pc.Timeout, 0),
			RequestLimit: pc.RequestLimit,
			Window:       common.ParseDurationOr(pc.Window, 0),
		})
	}

	if len(slots) == 0 {
		return nil, fmt.Errorf("no providers could be constructed from providers.order %v", config.Providers.Order)
	}

	return slots, nil
}

// Close releases the provider chain and the report archive.
func (a *App) Close() error {
	if err := a.Router.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close provider chain")
	}
	if a.db != nil {
		if err := a.db.RunGC(); err != nil {
			a.Logger.Warn().Err(err).Msg("Value-log GC failed")
		}
		return a.db.Close()
	}
	return nil
}
