package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
)

const (
	// dominantSentimentThreshold is the share above which the dominant
	// sentiment becomes a key insight.
	dominantSentimentThreshold = 60.0

	// viralityEngagementFactor and viralityShareThreshold flag runs where
	// a meaningful fraction of documents far outperform the average.
	viralityEngagementFactor = 2.0
	viralityShareThreshold   = 0.10
)

// Synthesizer performs the reduce step: one generation call over every
// batch summary plus the aggregated statistics, with the same rule-based
// fallback discipline as the batch summarizer. It never fails.
type Synthesizer struct {
	generator TextGenerator
	config    *common.PipelineConfig
	logger    arbor.ILogger
}

// NewSynthesizer creates a synthesis generator.
func NewSynthesizer(generator TextGenerator, config *common.PipelineConfig, logger arbor.ILogger) *Synthesizer {
	return &Synthesizer{
		generator: generator,
		config:    config,
		logger:    logger,
	}
}

// Synthesize merges the batch results into one narrative. Callers pass
// results sorted by batch ID so the reduce prompt is deterministic
// regardless of completion order. The returned bool reports whether the
// rule-based path produced the narrative. Key insights are always derived
// from the statistics, independent of which path produced the text.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	results []models.BatchResult,
	aggregate models.SentimentAggregate,
	themes []string,
	docs []models.Document,
	runContext string,
) (string, []string, bool) {
	insights := keyInsights(results, aggregate, themes, docs)

	prompt := s.buildSynthesisPrompt(results, aggregate, themes, runContext)

	resp, err := s.generator.Generate(ctx, prompt, s.config.SynthesisMaxTokens, s.config.Temperature)
	if err == nil {
		if text := cleanGeneratedText(resp.Text); text != "" {
			return text, insights, false
		}
	} else {
		s.logger.Warn().
			Err(err).
			Msg("No provider produced a synthesis, using rule-based narrative")
	}

	return ruleBasedSynthesis(results, aggregate, themes), insights, true
}

// buildSynthesisPrompt lists every batch summary plus the aggregated
// statistics for the final reduce call.
func (s *Synthesizer) buildSynthesisPrompt(
	results []models.BatchResult,
	aggregate models.SentimentAggregate,
	themes []string,
	runContext string,
) string {
	var b strings.Builder

	b.WriteString("You are writing the final narrative for a monitoring report. ")
	b.WriteString("Below are partial summaries of document groups plus aggregate statistics.\n")
	if runContext != "" {
		fmt.Fprintf(&b, "Monitoring context: %s\n", runContext)
	}

	b.WriteString("\nGroup summaries:\n")
	for _, result := range results {
		fmt.Fprintf(&b, "[group %d] %s\n", result.BatchID, result.SummaryText)
	}

	fmt.Fprintf(&b, "\nDocuments analyzed: %d\n", aggregate.TotalAnalyzed)
	fmt.Fprintf(&b, "Sentiment: positive %.1f%%, neutral %.1f%%, negative %.1f%%, unscored %.1f%% (dominant: %s)\n",
		aggregate.Percentages[models.SentimentPositive],
		aggregate.Percentages[models.SentimentNeutral],
		aggregate.Percentages[models.SentimentNegative],
		aggregate.Percentages[models.SentimentUnknown],
		aggregate.Dominant,
	)
	if len(themes) > 0 {
		fmt.Fprintf(&b, "Recurring themes: %s\n", strings.Join(themes, ", "))
	}

	b.WriteString("\nWrite one coherent narrative (2-3 paragraphs) synthesizing the group summaries ")
	b.WriteString("into an overall picture: main developments, tone, and notable shifts. ")
	b.WriteString("Plain prose, no markdown, no lists.")

	return b.String()
}

// ruleBasedSynthesis composes a deterministic narrative from the
// aggregated statistics when no provider is reachable.
func ruleBasedSynthesis(results []models.BatchResult, aggregate models.SentimentAggregate, themes []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The monitoring run analyzed %d documents across %d groups.",
		aggregate.TotalAnalyzed, len(results))

	if aggregate.TotalAnalyzed > 0 {
		fmt.Fprintf(&b, " Sentiment is dominated by %s at %.1f%% (positive %.1f%%, neutral %.1f%%, negative %.1f%%).",
			aggregate.Dominant,
			aggregate.Percentages[aggregate.Dominant],
			aggregate.Percentages[models.SentimentPositive],
			aggregate.Percentages[models.SentimentNeutral],
			aggregate.Percentages[models.SentimentNegative],
		)
	}

	if len(themes) > 0 {
		fmt.Fprintf(&b, " Principal themes across the corpus are %s.", strings.Join(themes, ", "))
	}

	for _, result := range results {
		if len(result.KeyPoints) > 0 {
			fmt.Fprintf(&b, " Group %d highlights %q.", result.BatchID, result.KeyPoints[0])
		}
	}

	return b.String()
}

// keyInsights derives headline facts from the run statistics: document
// volume, a dominant-sentiment flag above the threshold, top themes, and a
// virality flag when enough documents show engagement more than double the
// run average.
func keyInsights(
	results []models.BatchResult,
	aggregate models.SentimentAggregate,
	themes []string,
	docs []models.Document,
) []string {
	insights := []string{
		fmt.Sprintf("Analyzed %d documents in %d groups", aggregate.TotalAnalyzed, len(results)),
	}

	if aggregate.Dominant != models.SentimentUnknown &&
		aggregate.Percentages[aggregate.Dominant] > dominantSentimentThreshold {
		insights = append(insights, fmt.Sprintf("Sentiment skews %s at %.0f%% of documents",
			aggregate.Dominant, aggregate.Percentages[aggregate.Dominant]))
	}

	if len(themes) > 0 {
		top := themes
		if len(top) > 3 {
			top = top[:3]
		}
		insights = append(insights, fmt.Sprintf("Dominant themes: %s", strings.Join(top, ", ")))
	}

	if share := highEngagementShare(docs); share >= viralityShareThreshold {
		insights = append(insights, fmt.Sprintf("High virality: %.0f%% of documents exceed twice the average engagement", share*100))
	}

	return insights
}

// highEngagementShare returns the fraction of documents whose engagement
// exceeds viralityEngagementFactor times the run average.
func highEngagementShare(docs []models.Document) float64 {
	if len(docs) == 0 {
		return 0
	}

	var total float64
	for _, doc := range docs {
		total += doc.EngagementScore
	}
	avg := total / float64(len(docs))
	if avg <= 0 {
		return 0
	}

	high := 0
	for _, doc := range docs {
		if doc.EngagementScore > avg*viralityEngagementFactor {
			high++
		}
	}
	return float64(high) / float64(len(docs))
}
