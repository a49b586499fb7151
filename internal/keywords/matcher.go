package keywords

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// MatcherCache compiles each keyword's whole-word matcher once.
// Entries are never replaced after insertion, so readers need no locking.
type MatcherCache struct {
	matchers sync.Map // lowercase keyword -> *Matcher
}

// NewMatcherCache creates an empty matcher cache
func NewMatcherCache() *MatcherCache {
	return &MatcherCache{}
}

// Matcher returns the compiled matcher for keyword, compiling it on first use
func (c *MatcherCache) Matcher(keyword string) *Matcher {
	key := strings.ToLower(strings.TrimSpace(keyword))
	if m, ok := c.matchers.Load(key); ok {
		return m.(*Matcher)
	}

	m, _ := c.matchers.LoadOrStore(key, compileKeyword(key))
	return m.(*Matcher)
}

// Warm precompiles every keyword in the vocabulary
func (c *MatcherCache) Warm(vocab *Vocabulary) {
	for _, category := range vocab.Categories() {
		for _, entry := range vocab.Entries(category) {
			c.Matcher(entry.Keyword)
		}
	}
}

// Len returns the number of compiled matchers
func (c *MatcherCache) Len() int {
	n := 0
	c.matchers.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Matcher finds case-insensitive, whole-word occurrences of one keyword.
// A hit counts only when the runes on either side of it are not letters,
// digits or underscores, in any script.
type Matcher struct {
	re        *regexp.Regexp
	wordStart bool
	wordEnd   bool
}

// compileKeyword builds the matcher for a lowercase keyword. Metacharacters
// are matched literally. Boundaries are only checked next to word runes,
// so a keyword ending in punctuation may touch the following word.
func compileKeyword(keyword string) *Matcher {
	if keyword == "" {
		return &Matcher{}
	}
	first, _ := utf8.DecodeRuneInString(keyword)
	last, _ := utf8.DecodeLastRuneInString(keyword)
	return &Matcher{
		re:        regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword)),
		wordStart: isWordRune(first),
		wordEnd:   isWordRune(last),
	}
}

// MatchString reports whether text contains the keyword
func (m *Matcher) MatchString(text string) bool {
	return len(m.find(text, 1)) > 0
}

// FindAllStringIndex returns up to n hit locations, all of them when n < 0
func (m *Matcher) FindAllStringIndex(text string, n int) [][]int {
	return m.find(text, n)
}

func (m *Matcher) find(text string, n int) [][]int {
	if m.re == nil || n == 0 {
		return nil
	}

	var hits [][]int
	for pos := 0; pos < len(text); {
		loc := m.re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if m.bounded(text, start, end) {
			hits = append(hits, []int{start, end})
			if n > 0 && len(hits) == n {
				break
			}
			pos = end
			continue
		}
		// retry one rune later; a rejected hit may overlap a valid one
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return hits
}

// bounded reports whether text[start:end] is not part of a larger token
func (m *Matcher) bounded(text string, start, end int) bool {
	if m.wordStart && start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	if m.wordEnd && end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
