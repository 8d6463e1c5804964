package models

import "time"

// SentimentAggregate is the corpus-wide sentiment picture computed from
// all batch results. Percentages sum to 100 (within float rounding) and
// TotalAnalyzed equals the number of documents in the run.
type SentimentAggregate struct {
	TotalAnalyzed int
	Counts        SentimentCounts
	Percentages   map[SentimentLabel]float64
	Dominant      SentimentLabel
}

// Report is the final hierarchical summary handed to the caller. One is
// produced per pipeline run; the pipeline retains nothing afterwards.
type Report struct {
	ID             string
	Context        string
	SynthesisText  string
	KeyInsights    []string
	Sentiment      SentimentAggregate
	Themes         []string
	BatchSummaries []string
	TotalDocuments int
	Elapsed        time.Duration
	UsedFallback   bool
	GeneratedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
