package report

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/llm"
)

func synthesisFixture() ([]models.BatchResult, models.SentimentAggregate, []string) {
	results := []models.BatchResult{
		{BatchID: 1, SummaryText: "First group summary.", KeyPoints: []string{"Top story one"}},
		{BatchID: 2, SummaryText: "Second group summary.", KeyPoints: []string{"Top story two"}},
	}
	aggregate, themes := Aggregate(results)
	return results, aggregate, themes
}

func TestSynthesizeUsesGeneratedText(t *testing.T) {
	generator := &stubGenerator{text: "## Overview\nThe corpus shows steady activity."}
	synthesizer := NewSynthesizer(generator, testPipelineConfig(), arbor.NewLogger())

	results, aggregate, themes := synthesisFixture()
	text, insights, usedFallback := synthesizer.Synthesize(
		context.Background(), results, aggregate, themes, makeDocuments(10), "steady state")

	assert.False(t, usedFallback)
	assert.Equal(t, "The corpus shows steady activity.", text)
	assert.NotEmpty(t, insights)
}

func TestSynthesizeFallsBackWhenProvidersFail(t *testing.T) {
	generator := &stubGenerator{err: llm.ErrAllProvidersFailed}
	synthesizer := NewSynthesizer(generator, testPipelineConfig(), arbor.NewLogger())

	results, aggregate, themes := synthesisFixture()
	text, insights, usedFallback := synthesizer.Synthesize(
		context.Background(), results, aggregate, themes, makeDocuments(10), "")

	assert.True(t, usedFallback)
	assert.NotEmpty(t, text)
	assert.Contains(t, text, "2 groups")
	assert.NotEmpty(t, insights)
}

func TestSynthesizeInsightsIndependentOfPath(t *testing.T) {
	results, aggregate, themes := synthesisFixture()
	docs := makeDocuments(10)

	_, viaLLM, _ := NewSynthesizer(&stubGenerator{}, testPipelineConfig(), arbor.NewLogger()).
		Synthesize(context.Background(), results, aggregate, themes, docs, "")
	_, viaFallback, _ := NewSynthesizer(&stubGenerator{err: llm.ErrAllProvidersFailed}, testPipelineConfig(), arbor.NewLogger()).
		Synthesize(context.Background(), results, aggregate, themes, docs, "")

	assert.Equal(t, viaLLM, viaFallback)
}

func TestBuildSynthesisPromptListsGroupsAndStats(t *testing.T) {
	synthesizer := NewSynthesizer(&stubGenerator{}, testPipelineConfig(), arbor.NewLogger())

	results := []models.BatchResult{
		{BatchID: 1, SummaryText: "First group summary."},
		{BatchID: 2, SummaryText: "Second group summary."},
	}
	aggregate := models.SentimentAggregate{
		TotalAnalyzed: 40,
		Percentages: map[models.SentimentLabel]float64{
			models.SentimentPositive: 50,
			models.SentimentNeutral:  25,
			models.SentimentNegative: 25,
			models.SentimentUnknown:  0,
		},
		Dominant: models.SentimentPositive,
	}

	prompt := synthesizer.buildSynthesisPrompt(results, aggregate, []string{"release", "security"}, "weekly digest")

	assert.Contains(t, prompt, "weekly digest")
	assert.Contains(t, prompt, "[group 1] First group summary.")
	assert.Contains(t, prompt, "[group 2] Second group summary.")
	assert.Contains(t, prompt, "Documents analyzed: 40")
	assert.Contains(t, prompt, "release, security")
}

func TestKeyInsightsDominantSentimentThreshold(t *testing.T) {
	results := []models.BatchResult{{BatchID: 1}}

	above := models.SentimentAggregate{
		TotalAnalyzed: 10,
		Dominant:      models.SentimentNegative,
		Percentages:   map[models.SentimentLabel]float64{models.SentimentNegative: 70},
	}
	insights := keyInsights(results, above, nil, nil)
	require.Len(t, insights, 2)
	assert.Contains(t, insights[1], "negative")

	below := models.SentimentAggregate{
		TotalAnalyzed: 10,
		Dominant:      models.SentimentNegative,
		Percentages:   map[models.SentimentLabel]float64{models.SentimentNegative: 50},
	}
	insights = keyInsights(results, below, nil, nil)
	assert.Len(t, insights, 1)

	// A dominant unknown label is never an insight, whatever its share.
	unknown := models.SentimentAggregate{
		TotalAnalyzed: 10,
		Dominant:      models.SentimentUnknown,
		Percentages:   map[models.SentimentLabel]float64{models.SentimentUnknown: 90},
	}
	insights = keyInsights(results, unknown, nil, nil)
	assert.Len(t, insights, 1)
}

func TestKeyInsightsVirality(t *testing.T) {
	// 2 of 10 documents far exceed twice the average engagement.
	docs := make([]models.Document, 10)
	for i := range docs {
		docs[i].EngagementScore = 1
	}
	docs[0].EngagementScore = 10
	docs[1].EngagementScore = 10

	aggregate := models.SentimentAggregate{TotalAnalyzed: 10, Dominant: models.SentimentUnknown}
	insights := keyInsights([]models.BatchResult{{BatchID: 1}}, aggregate, nil, docs)

	found := false
	for _, insight := range insights {
		if strings.HasPrefix(insight, "High virality") {
			found = true
		}
	}
	assert.True(t, found, "expected a virality insight, got %v", insights)
}

func TestHighEngagementShare(t *testing.T) {
	assert.Zero(t, highEngagementShare(nil))

	// Uniform engagement never exceeds twice the average.
	uniform := []models.Document{
		{EngagementScore: 5}, {EngagementScore: 5}, {EngagementScore: 5},
	}
	assert.Zero(t, highEngagementShare(uniform))

	// One clear outlier among ten.
	docs := make([]models.Document, 10)
	for i := range docs {
		docs[i].EngagementScore = 1
	}
	docs[0].EngagementScore = 100
	assert.InDelta(t, 0.1, highEngagementShare(docs), 0.001)
}
