// Package keywords assigns a severity tier to text using a per-category
// keyword vocabulary. Classification is a total function: any input,
// including empty text or an unknown category, yields a result.
package keywords

import (
	"fmt"
	"strings"

	"github.com/ppiankov/erosion/internal/model"
)

// Classifier matches text against a category's keyword tiers
type Classifier struct {
	vocab *Vocabulary
	cache *MatcherCache
}

// NewClassifier creates a classifier. A nil cache gets a private one;
// pass a shared cache to reuse compiled matchers across classifiers.
func NewClassifier(vocab *Vocabulary, cache *MatcherCache) *Classifier {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if cache == nil {
		cache = NewMatcherCache()
	}
	return &Classifier{vocab: vocab, cache: cache}
}

// Vocabulary returns the classifier's vocabulary
func (c *Classifier) Vocabulary() *Vocabulary {
	return c.vocab
}

// Classify scans capture, then drift, then warning keywords. The most
// severe tier with at least one hit wins and Matches lists every keyword
// fired within it. No hits yields Stable with no matches.
func (c *Classifier) Classify(text, category string) model.TierMatchResult {
	result := model.TierMatchResult{
		Status:  model.StatusStable,
		Matches: []string{},
	}

	if strings.TrimSpace(text) == "" {
		result.Reason = "No text to classify"
		return result
	}
	if !c.vocab.HasCategory(category) {
		result.Reason = fmt.Sprintf("No keyword vocabulary for category %q", category)
		return result
	}

	fired := make(map[model.Tier][]string, 3)
	for _, tier := range model.TiersBySeverity() {
		for _, kw := range c.vocab.Keywords(category, tier) {
			if c.cache.Matcher(kw).MatchString(text) {
				fired[tier] = append(fired[tier], kw)
			}
		}
	}

	result.Counts = model.TierCounts{
		Capture: len(fired[model.TierCapture]),
		Drift:   len(fired[model.TierDrift]),
		Warning: len(fired[model.TierWarning]),
	}

	for _, tier := range model.TiersBySeverity() {
		if len(fired[tier]) == 0 {
			continue
		}
		result.Status = tier.Status()
		result.Matches = fired[tier]
		result.Reason = fmt.Sprintf("%s-tier keywords matched: %s", tier, strings.Join(fired[tier], ", "))
		return result
	}

	result.Reason = "No tier keywords matched"
	return result
}

// CountOccurrences counts how often each of the category's keywords
// appears in text. Keywords with no occurrences are omitted.
func (c *Classifier) CountOccurrences(text, category string) map[string]int {
	counts := make(map[string]int)
	if strings.TrimSpace(text) == "" {
		return counts
	}

	for _, entry := range c.vocab.Entries(category) {
		if n := len(c.cache.Matcher(entry.Keyword).FindAllStringIndex(text, -1)); n > 0 {
			counts[entry.Keyword] = n
		}
	}
	return counts
}

// Matches reports whether keyword occurs in text as a whole word
func (c *Classifier) Matches(text, keyword string) bool {
	return c.cache.Matcher(keyword).MatchString(text)
}

// EntriesBySeverity returns a category's entries ordered capture, drift, warning
func (c *Classifier) EntriesBySeverity(category string) []model.KeywordEntry {
	var entries []model.KeywordEntry
	for _, tier := range model.TiersBySeverity() {
		for _, kw := range c.vocab.Keywords(category, tier) {
			entries = append(entries, model.KeywordEntry{Keyword: kw, Category: category, Tier: tier})
		}
	}
	return entries
}
