package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
)

// Service runs report generation on a cron schedule. Overlapping runs are
// skipped: if a run is still in flight when the next tick fires, the tick
// is dropped rather than queued.
type Service struct {
	source    interfaces.DocumentSource
	generator interfaces.ReportGenerator
	storage   interfaces.ReportStorage
	runCtx    string
	cron      *cron.Cron
	logger    arbor.ILogger

	mu        sync.Mutex
	isRunning bool
	started   bool
}

// NewService creates a scheduler over the given source, generator and
// archive.
func NewService(
	source interfaces.DocumentSource,
	generator interfaces.ReportGenerator,
	storage interfaces.ReportStorage,
	runContext string,
	logger arbor.ILogger,
) *Service {
	return &Service{
		source:    source,
		generator: generator,
		storage:   storage,
		runCtx:    runContext,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start begins the scheduler with the given cron expression
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already running")
	}

	if cronExpr == "" {
		cronExpr = "0 * * * *" // Default: every hour
	}

	if _, err := s.cron.AddFunc(cronExpr, s.runScheduledReport); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.started = true

	s.logger.Info().
		Str("cron_expr", cronExpr).
		Msg("Report scheduler started")

	return nil
}

// Stop halts the scheduler and waits for an in-flight run to finish.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	// cron.Stop returns a context that completes when running jobs exit
	<-s.cron.Stop().Done()

	s.logger.Info().Msg("Report scheduler stopped")
	return nil
}

func (s *Service) runScheduledReport() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous report run still in progress, skipping this tick")
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	if err := s.RunNow(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled report run failed")
	}
}

// RunNow executes one report run immediately: fetch documents, generate
// the report, archive it.
func (s *Service) RunNow(ctx context.Context) error {
	docs, err := s.source.FetchDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch documents: %w", err)
	}

	if len(docs) == 0 {
		s.logger.Warn().Msg("Document source returned nothing, skipping report")
		return nil
	}

	report, err := s.generator.GenerateReport(ctx, docs, s.runCtx)
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}

	if s.storage != nil {
		if err := s.storage.SaveReport(report); err != nil {
			return fmt.Errorf("failed to archive report: %w", err)
		}
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Int("documents", report.TotalDocuments).
		Bool("used_fallback", report.UsedFallback).
		Msg("Scheduled report archived")

	return nil
}
