package models

// Batch is a bounded, ordered group of documents summarized together in a
// single LLM call. Batches are created by the planner, consumed by the
// batch summarizer, and never persisted.
type Batch struct {
	ID        int
	Documents []Document
}

// SentimentCounts tallies documents per sentiment label.
type SentimentCounts map[SentimentLabel]int

// Total returns the sum of all counts.
func (c SentimentCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Add merges other into c.
func (c SentimentCounts) Add(other SentimentCounts) {
	for label, n := range other {
		c[label] += n
	}
}

// BatchResult is the outcome of summarizing one batch. It is always fully
// populated: when no provider is reachable the summary text comes from the
// rule-based fallback, never left empty.
type BatchResult struct {
	BatchID         int
	SummaryText     string
	KeyPoints       []string
	SentimentCounts SentimentCounts
	UsedFallback    bool
}
