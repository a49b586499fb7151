package keywords

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/erosion/internal/model"
	"gopkg.in/yaml.v3"
)

// Vocabulary is the fixed keyword set owned by each category.
// It is immutable after construction.
type Vocabulary struct {
	byCategory map[string]map[model.Tier][]string
	entries    map[string][]model.KeywordEntry
}

// NewVocabulary builds a vocabulary from entries.
// Entries are deduplicated by (keyword, category); the first occurrence wins.
func NewVocabulary(entries []model.KeywordEntry) (*Vocabulary, error) {
	v := &Vocabulary{
		byCategory: make(map[string]map[model.Tier][]string),
		entries:    make(map[string][]model.KeywordEntry),
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		keyword := strings.TrimSpace(e.Keyword)
		category := strings.TrimSpace(e.Category)
		if keyword == "" || category == "" {
			return nil, fmt.Errorf("keyword entry requires keyword and category: %+v", e)
		}
		tier, err := model.ParseTier(string(e.Tier))
		if err != nil {
			return nil, fmt.Errorf("keyword %q: %w", keyword, err)
		}

		key := category + "\x00" + strings.ToLower(keyword)
		if seen[key] {
			continue
		}
		seen[key] = true

		if v.byCategory[category] == nil {
			v.byCategory[category] = make(map[model.Tier][]string)
		}
		v.byCategory[category][tier] = append(v.byCategory[category][tier], keyword)
		v.entries[category] = append(v.entries[category], model.KeywordEntry{
			Keyword:  keyword,
			Category: category,
			Tier:     tier,
		})
	}

	return v, nil
}

// Keywords returns the keywords of one tier within a category
func (v *Vocabulary) Keywords(category string, tier model.Tier) []string {
	return v.byCategory[category][tier]
}

// Entries returns every entry of a category in insertion order
func (v *Vocabulary) Entries(category string) []model.KeywordEntry {
	return v.entries[category]
}

// HasCategory reports whether the category owns any keywords
func (v *Vocabulary) HasCategory(category string) bool {
	_, ok := v.byCategory[category]
	return ok
}

// Categories returns the category names in sorted order
func (v *Vocabulary) Categories() []string {
	categories := make([]string, 0, len(v.byCategory))
	for c := range v.byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}

// vocabularyFile is the on-disk YAML layout:
//
//	categories:
//	  fiscal:
//	    capture: [...]
//	    drift: [...]
//	    warning: [...]
type vocabularyFile struct {
	Categories map[string]map[string][]string `yaml:"categories"`
}

// LoadVocabulary reads a YAML vocabulary file
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return ParseVocabulary(data)
}

// ParseVocabulary parses YAML vocabulary data
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}

	// Map iteration order is random; sort so first-wins dedupe is deterministic
	categories := make([]string, 0, len(file.Categories))
	for c := range file.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var entries []model.KeywordEntry
	for _, category := range categories {
		for _, tier := range model.TiersBySeverity() {
			for _, kw := range file.Categories[category][string(tier)] {
				entries = append(entries, model.KeywordEntry{Keyword: kw, Category: category, Tier: tier})
			}
		}
		for tierName := range file.Categories[category] {
			if _, err := model.ParseTier(tierName); err != nil {
				return nil, fmt.Errorf("category %q: %w", category, err)
			}
		}
	}

	return NewVocabulary(entries)
}
