package models

import "time"

// SentimentLabel classifies the tone of a collected document. Collectors
// that run sentiment analysis attach one of the known labels; documents
// without a label are counted as unknown.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
	SentimentUnknown  SentimentLabel = "unknown"
)

// KnownSentiments lists labels in dominance precedence order. When two
// labels tie on count, the earlier entry wins.
var KnownSentiments = []SentimentLabel{
	SentimentPositive,
	SentimentNeutral,
	SentimentNegative,
	SentimentUnknown,
}

// Document is a single piece of collected content (RSS item, Reddit post,
// video description, channel message). Documents are immutable once
// collected and owned by the caller for the duration of one report run.
type Document struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Body            string         `json:"body"`
	Author          string         `json:"author"`
	Source          string         `json:"source"`
	EngagementScore float64        `json:"engagement_score"`
	Sentiment       SentimentLabel `json:"sentiment,omitempty"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
}

// Label returns the document's sentiment, mapping a missing or
// unrecognized label to SentimentUnknown.
func (d *Document) Label() SentimentLabel {
	switch d.Sentiment {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return d.Sentiment
	default:
		return SentimentUnknown
	}
}
