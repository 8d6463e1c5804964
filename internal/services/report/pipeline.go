package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// Service is the hierarchical summarization pipeline: plan batches,
// summarize them under bounded concurrency, aggregate sentiment and
// themes, then synthesize one narrative. After construction the pipeline
// has no caller-visible failure mode: with every provider down it degrades
// to fully rule-based output, observable via the report's UsedFallback
// flag.
type Service struct {
	summarizer  *Summarizer
	coordinator *Coordinator
	synthesizer *Synthesizer
	config      *common.PipelineConfig
	logger      arbor.ILogger
}

var _ interfaces.ReportGenerator = (*Service)(nil)

// NewService creates the pipeline over a text generator (normally the
// failover router). Misconfiguration is the only error path.
func NewService(generator TextGenerator, config *common.PipelineConfig, logger arbor.ILogger) (*Service, error) {
	if generator == nil {
		return nil, fmt.Errorf("pipeline requires a text generator")
	}
	if config.BatchSize < 1 {
		return nil, fmt.Errorf("batch_size must be at least 1, got %d", config.BatchSize)
	}
	if config.MaxConcurrency < 1 {
		return nil, fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}

	summarizer := NewSummarizer(generator, config, logger)

	return &Service{
		summarizer:  summarizer,
		coordinator: NewCoordinator(summarizer, config.MaxConcurrency, logger),
		synthesizer: NewSynthesizer(generator, config, logger),
		config:      config,
		logger:      logger,
	}, nil
}

// GenerateReport runs the full pipeline over one document collection.
// The error return covers caller misuse (empty input) only; provider
// failures never surface here.
func (s *Service) GenerateReport(ctx context.Context, docs []models.Document, runContext string) (*models.Report, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents to summarize")
	}

	start := time.Now()

	batches := PlanBatches(docs, s.config.BatchSize, s.config.MaxCharsPerDoc)

	s.logger.Info().
		Int("documents", len(docs)).
		Int("batches", len(batches)).
		Int("max_concurrency", s.config.MaxConcurrency).
		Str("context", runContext).
		Msg("Starting report generation")

	results := s.coordinator.SummarizeAll(ctx, batches, runContext)

	// Batches complete out of order under concurrency; re-sorting keeps
	// the synthesis prompt deterministic.
	sort.Slice(results, func(i, j int) bool {
		return results[i].BatchID < results[j].BatchID
	})

	aggregate, themes := Aggregate(results)

	synthesis, insights, synthesisFallback := s.synthesizer.Synthesize(ctx, results, aggregate, themes, docs, runContext)

	usedFallback := synthesisFallback
	batchSummaries := make([]string, len(results))
	for i, result := range results {
		batchSummaries[i] = result.SummaryText
		if result.UsedFallback {
			usedFallback = true
		}
	}

	now := time.Now().UTC()
	report := &models.Report{
		ID:             uuid.NewString(),
		Context:        runContext,
		SynthesisText:  synthesis,
		KeyInsights:    insights,
		Sentiment:      aggregate,
		Themes:         themes,
		BatchSummaries: batchSummaries,
		TotalDocuments: len(docs),
		Elapsed:        time.Since(start),
		UsedFallback:   usedFallback,
		GeneratedAt:    now,
	}

	s.logger.Info().
		Str("report_id", report.ID).
		Int("documents", report.TotalDocuments).
		Int("batches", len(batchSummaries)).
		Bool("used_fallback", report.UsedFallback).
		Str("elapsed", report.Elapsed.String()).
		Msg("Report generation complete")

	return report, nil
}
