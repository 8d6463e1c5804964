package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentLabel(t *testing.T) {
	tests := []struct {
		sentiment SentimentLabel
		want      SentimentLabel
	}{
		{SentimentPositive, SentimentPositive},
		{SentimentNeutral, SentimentNeutral},
		{SentimentNegative, SentimentNegative},
		{"", SentimentUnknown},
		{"mixed", SentimentUnknown},
	}

	for _, tt := range tests {
		doc := Document{Sentiment: tt.sentiment}
		assert.Equal(t, tt.want, doc.Label())
	}
}

func TestKnownSentimentsPrecedence(t *testing.T) {
	assert.Equal(t, []SentimentLabel{
		SentimentPositive,
		SentimentNeutral,
		SentimentNegative,
		SentimentUnknown,
	}, KnownSentiments)
}

func TestSentimentCounts(t *testing.T) {
	counts := SentimentCounts{SentimentPositive: 3, SentimentNegative: 2}
	assert.Equal(t, 5, counts.Total())

	counts.Add(SentimentCounts{SentimentPositive: 1, SentimentUnknown: 4})
	assert.Equal(t, 4, counts[SentimentPositive])
	assert.Equal(t, 4, counts[SentimentUnknown])
	assert.Equal(t, 10, counts.Total())

	var empty SentimentCounts
	assert.Zero(t, empty.Total())
}
