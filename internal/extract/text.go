// Package extract turns raw evidence bodies (feed HTML, scraped pages,
// plain text) into the normalised text the classifiers read.
package extract

import (
	"fmt"
	"strings"

	"github.com/ppiankov/erosion/internal/model"
	"golang.org/x/net/html"
)

// VisibleText returns the human-visible text of content.
// HTML is parsed and script/style blocks dropped; plain text is only
// whitespace-normalised.
func VisibleText(content string) string {
	if !looksLikeHTML(content) {
		return collapseSpace(content)
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return collapseSpace(content)
	}
	return collapseSpace(visibleText(doc))
}

// visibleText extracts text nodes from HTML, skipping scripts/styles
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

func looksLikeHTML(s string) bool {
	lt := strings.Index(s, "<")
	if lt < 0 {
		return false
	}
	return strings.Contains(s[lt:], ">")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SplitSentences splits text into sentences (simple heuristic)
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Only split when the terminator is followed by whitespace
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t') {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// Excerpt truncates text to at most maxRunes runes at a word boundary
func Excerpt(text string, maxRunes int) string {
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text
	}

	cut := string(runes[:maxRunes])
	if idx := strings.LastIndex(cut, " "); idx > maxRunes/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "…"
}

const evidenceExcerptRunes = 400

// NumberedEvidence renders items as a list numbered from 1 so models can
// cite them. Only the first limit items are included when limit > 0.
func NumberedEvidence(items []model.EvidenceItem, limit int) string {
	if len(items) == 0 {
		return "(no evidence items)"
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "[%d] %s", i+1, strings.TrimSpace(item.Title))
		var meta []string
		if item.DocumentClass != "" {
			meta = append(meta, string(item.DocumentClass))
		}
		if item.Agency != "" {
			meta = append(meta, item.Agency)
		}
		if item.PublishedAt != nil {
			meta = append(meta, item.PublishedAt.UTC().Format("2006-01-02"))
		}
		if len(meta) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(meta, ", "))
		}
		if text := Excerpt(VisibleText(item.Text), evidenceExcerptRunes); text != "" {
			fmt.Fprintf(&b, "\n    %s", text)
		}
		b.WriteString("\n")
	}
	return b.String()
}
