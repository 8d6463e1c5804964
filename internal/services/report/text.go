package report

import (
	"regexp"
	"sort"
	"strings"
)

// stopWords are excluded from theme extraction. Kept small and English-only;
// theme quality degrades gracefully for other languages.
var stopWords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "their": true,
	"because": true, "been": true, "before": true, "being": true, "below": true,
	"between": true, "both": true, "cannot": true, "could": true, "doing": true,
	"during": true, "each": true, "further": true, "having": true, "here": true,
	"itself": true, "more": true, "most": true, "other": true, "ought": true,
	"ourselves": true, "should": true, "since": true, "some": true, "such": true,
	"than": true, "that": true, "them": true, "themselves": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "those": true,
	"through": true, "under": true, "until": true, "very": true, "were": true,
	"what": true, "when": true, "where": true, "which": true, "while": true,
	"whom": true, "with": true, "would": true, "your": true, "yours": true,
	"https": true, "http": true, "thing": true, "things": true, "really": true,
	"people": true, "going": true, "still": true, "just": true, "like": true,
	"also": true, "much": true, "many": true, "into": true, "from": true,
	"have": true, "will": true, "said": true, "says": true, "today": true,
	"according": true, "reported": true, "report": true, "news": true,
}

var (
	wordRegex       = regexp.MustCompile(`[a-zA-Z]+`)
	emphasisRegex   = regexp.MustCompile(`(\*\*|__|\*|_|` + "`" + `)`)
	headingRegex    = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
)

// cleanGeneratedText strips markdown emphasis and headings from LLM output
// and collapses runs of blank lines, so synthesis prompts and report text
// stay plain prose.
func cleanGeneratedText(s string) string {
	s = headingRegex.ReplaceAllString(s, "")
	s = emphasisRegex.ReplaceAllString(s, "")
	s = blankLinesRegex.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// truncateRunes cuts s to at most max runes, never splitting a rune.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// topWords extracts the most frequent content words across texts. Words
// shorter than minLen runes or in the stopword list are ignored; words with
// fewer than minFreq occurrences are dropped to avoid single-mention noise.
// Ties are broken alphabetically so output is deterministic.
func topWords(texts []string, minLen, minFreq, topN int) []string {
	counts := make(map[string]int)
	for _, text := range texts {
		for _, word := range wordRegex.FindAllString(strings.ToLower(text), -1) {
			if len(word) < minLen || stopWords[word] {
				continue
			}
			counts[word]++
		}
	}

	words := make([]string, 0, len(counts))
	for word, n := range counts {
		if n >= minFreq {
			words = append(words, word)
		}
	}

	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > topN {
		words = words[:topN]
	}
	return words
}
