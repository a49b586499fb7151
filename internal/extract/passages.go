package extract

import (
	"strings"

	"github.com/ppiankov/erosion/internal/model"
)

// Matcher reports whether a keyword occurs in a piece of text
type Matcher interface {
	Matches(text, keyword string) bool
}

// Passage is a sentence that fired a vocabulary keyword
type Passage struct {
	Text     string     `json:"text"`
	Keyword  string     `json:"keyword"` // First keyword that matched the sentence
	Tier     model.Tier `json:"tier"`
	Sentence int        `json:"sentence"` // Sentence index in the item (0-based)
}

// PassageExtractor pulls keyword-bearing sentences out of evidence text
// so prompts can quote the flagged lines instead of whole documents.
type PassageExtractor struct {
	matcher Matcher
	entries []model.KeywordEntry
}

// NewPassageExtractor creates an extractor over one category's entries.
// Entries should be ordered most severe first; the first match labels the passage.
func NewPassageExtractor(matcher Matcher, entries []model.KeywordEntry) *PassageExtractor {
	return &PassageExtractor{matcher: matcher, entries: entries}
}

// Extract returns up to limit flagged passages from text (limit <= 0 means no limit)
func (e *PassageExtractor) Extract(text string, limit int) []Passage {
	var passages []Passage
	seen := make(map[string]bool)

	for i, sentence := range SplitSentences(VisibleText(text)) {
		for _, entry := range e.entries {
			if !e.matcher.Matches(sentence, entry.Keyword) {
				continue
			}
			key := strings.ToLower(sentence)
			if !seen[key] {
				seen[key] = true
				passages = append(passages, Passage{
					Text:     sentence,
					Keyword:  entry.Keyword,
					Tier:     entry.Tier,
					Sentence: i,
				})
			}
			break // Only label once per sentence
		}
		if limit > 0 && len(passages) >= limit {
			break
		}
	}

	return passages
}
