package report

import "github.com/ternarybob/vigil/internal/models"

// themeMinFrequency drops corpus themes mentioned only once across batch
// summaries, avoiding single-mention noise.
const (
	themeMinFrequency = 2
	themeMinWordLen   = 5
	themeTopN         = 8
)

// Aggregate merges per-batch sentiment counts and extracts corpus-wide
// themes. Pure function: no I/O, no hidden state, identical output for
// identical input.
//
// Percentages sum to 100 within float rounding and TotalAnalyzed equals
// the number of documents across all batches. The dominant label is the
// highest count; ties break by fixed precedence
// positive > neutral > negative > unknown.
//
// Themes are tokenized from the batch summaries, not the raw documents,
// and kept only when they recur across the corpus.
func Aggregate(results []models.BatchResult) (models.SentimentAggregate, []string) {
	counts := models.SentimentCounts{}
	summaries := make([]string, 0, len(results))

	for _, result := range results {
		counts.Add(result.SentimentCounts)
		if result.SummaryText != "" {
			summaries = append(summaries, result.SummaryText)
		}
	}

	total := counts.Total()

	percentages := make(map[models.SentimentLabel]float64, len(models.KnownSentiments))
	for _, label := range models.KnownSentiments {
		if total > 0 {
			percentages[label] = float64(counts[label]) / float64(total) * 100.0
		} else {
			percentages[label] = 0
		}
	}

	aggregate := models.SentimentAggregate{
		TotalAnalyzed: total,
		Counts:        counts,
		Percentages:   percentages,
		Dominant:      dominantLabel(counts),
	}

	return aggregate, topWords(summaries, themeMinWordLen, themeMinFrequency, themeTopN)
}

// dominantLabel returns the label with the highest count. Iterating the
// precedence order with a strict comparison makes the earlier label win
// ties.
func dominantLabel(counts models.SentimentCounts) models.SentimentLabel {
	best := models.SentimentUnknown
	bestCount := -1
	for _, label := range models.KnownSentiments {
		if counts[label] > bestCount {
			best = label
			bestCount = counts[label]
		}
	}
	return best
}
