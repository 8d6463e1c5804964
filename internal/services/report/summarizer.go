package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/llm"
)

// TextGenerator is the slice of the failover router the pipeline depends
// on: one prompt in, text or an error out. Satisfied by *llm.Router.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (*llm.Response, error)
}

// Summarizer produces one BatchResult per batch. It never fails: when no
// provider is reachable it falls back to a deterministic rule-based
// summary built from document counts, authors, sentiment and word
// frequencies.
type Summarizer struct {
	generator TextGenerator
	config    *common.PipelineConfig
	logger    arbor.ILogger
}

// NewSummarizer creates a batch summarizer.
func NewSummarizer(generator TextGenerator, config *common.PipelineConfig, logger arbor.ILogger) *Summarizer {
	return &Summarizer{
		generator: generator,
		config:    config,
		logger:    logger,
	}
}

// Summarize builds the batch prompt, calls the generator, and degrades to
// the rule-based path on total provider failure. Sentiment counts are pure
// aggregation over document labels, never delegated to the LLM, so they
// stay reproducible regardless of which path produced the narrative.
func (s *Summarizer) Summarize(ctx context.Context, batch models.Batch, runContext string) models.BatchResult {
	result := models.BatchResult{
		BatchID:         batch.ID,
		SentimentCounts: countSentiments(batch.Documents),
		KeyPoints:       topEngagementTitles(batch.Documents, 3),
	}

	prompt := s.buildBatchPrompt(batch, runContext)

	resp, err := s.generator.Generate(ctx, prompt, s.config.BatchMaxTokens, s.config.Temperature)
	if err == nil {
		if text := cleanGeneratedText(resp.Text); text != "" {
			result.SummaryText = text
			return result
		}
	} else {
		s.logger.Warn().
			Int("batch_id", batch.ID).
			Err(err).
			Msg("No provider produced a batch summary, using rule-based fallback")
	}

	result.SummaryText = ruleBasedSummary(batch.Documents)
	result.UsedFallback = true
	return result
}

// FallbackResult returns the fully rule-based result for a batch. The
// coordinator substitutes this when a batch worker faults.
func (s *Summarizer) FallbackResult(batch models.Batch) models.BatchResult {
	return models.BatchResult{
		BatchID:         batch.ID,
		SummaryText:     ruleBasedSummary(batch.Documents),
		KeyPoints:       topEngagementTitles(batch.Documents, 3),
		SentimentCounts: countSentiments(batch.Documents),
		UsedFallback:    true,
	}
}

// buildBatchPrompt renders numbered document excerpts plus the run context.
func (s *Summarizer) buildBatchPrompt(batch models.Batch, runContext string) string {
	var b strings.Builder

	b.WriteString("You are summarizing collected content for a monitoring report.\n")
	if runContext != "" {
		fmt.Fprintf(&b, "Monitoring context: %s\n", runContext)
	}
	b.WriteString("\nDocuments:\n")

	for i, doc := range batch.Documents {
		fmt.Fprintf(&b, "[%d] %s", i+1, doc.Title)
		if doc.Author != "" {
			fmt.Fprintf(&b, " (by %s", doc.Author)
			if doc.Source != "" {
				fmt.Fprintf(&b, " on %s", doc.Source)
			}
			b.WriteString(")")
		} else if doc.Source != "" {
			fmt.Fprintf(&b, " (%s)", doc.Source)
		}
		b.WriteString("\n")
		if doc.Body != "" {
			fmt.Fprintf(&b, "    %s\n", doc.Body)
		}
	}

	b.WriteString("\nWrite a concise narrative summary (3-5 sentences) of the main developments, ")
	b.WriteString("topics and overall tone across these documents. Plain prose, no markdown, no lists.")

	return b.String()
}

// ruleBasedSummary composes a deterministic summary from document facts:
// counts, distinct authors, modal sentiment among labeled documents, and
// the most frequent content words.
func ruleBasedSummary(docs []models.Document) string {
	authors := make(map[string]bool)
	sources := make(map[string]bool)
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.Author != "" {
			authors[doc.Author] = true
		}
		if doc.Source != "" {
			sources[doc.Source] = true
		}
		texts = append(texts, doc.Title+" "+doc.Body)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This group covers %d documents", len(docs))
	if len(authors) > 0 {
		fmt.Fprintf(&b, " from %d distinct authors", len(authors))
	}
	if len(sources) > 0 {
		fmt.Fprintf(&b, " across %s", joinSorted(sources, 4))
	}
	b.WriteString(".")

	counts := countSentiments(docs)
	if modal, ok := modalLabeledSentiment(counts); ok {
		fmt.Fprintf(&b, " The prevailing sentiment among scored documents is %s.", modal)
	} else {
		b.WriteString(" None of the documents carry a sentiment score.")
	}

	if themes := topWords(texts, 5, 1, 3); len(themes) > 0 {
		fmt.Fprintf(&b, " Recurring topics include %s.", strings.Join(themes, ", "))
	}

	if titles := topEngagementTitles(docs, 1); len(titles) > 0 {
		fmt.Fprintf(&b, " The most engaged item is %q.", titles[0])
	}

	return b.String()
}

// countSentiments tallies each document's label; missing labels count as
// unknown.
func countSentiments(docs []models.Document) models.SentimentCounts {
	counts := models.SentimentCounts{}
	for _, doc := range docs {
		counts[doc.Label()]++
	}
	return counts
}

// modalLabeledSentiment returns the most common label among documents that
// actually carry one, using the fixed precedence order for ties. Returns
// false when no document is labeled.
func modalLabeledSentiment(counts models.SentimentCounts) (models.SentimentLabel, bool) {
	var best models.SentimentLabel
	bestCount := 0
	for _, label := range models.KnownSentiments {
		if label == models.SentimentUnknown {
			continue
		}
		if counts[label] > bestCount {
			best = label
			bestCount = counts[label]
		}
	}
	return best, bestCount > 0
}

// topEngagementTitles returns the titles of the n highest-engagement
// documents, input order breaking ties. Deterministic and independent of
// the LLM path.
func topEngagementTitles(docs []models.Document, n int) []string {
	indices := make([]int, len(docs))
	for i := range docs {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return docs[indices[a]].EngagementScore > docs[indices[b]].EngagementScore
	})

	titles := make([]string, 0, n)
	for _, idx := range indices {
		title := strings.TrimSpace(docs[idx].Title)
		if title == "" {
			continue
		}
		titles = append(titles, title)
		if len(titles) == n {
			break
		}
	}
	return titles
}

func joinSorted(set map[string]bool, max int) string {
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	if len(items) > max {
		items = items[:max]
	}
	return strings.Join(items, ", ")
}
