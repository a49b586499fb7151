// Package doctype assigns an evidentiary class to an evidence item from its
// metadata. Classification never fails; unmatched items are ClassUnknown.
package doctype

import (
	"net/url"
	"strings"

	"github.com/ppiankov/erosion/internal/model"
)

// Field selects which metadata field a rule inspects
type Field string

const (
	FieldAgency Field = "agency"
	FieldURL    Field = "url"
)

// Rule maps a case-insensitive substring of a field to a class
type Rule struct {
	Field   Field               `json:"field" yaml:"field"`
	Pattern string              `json:"pattern" yaml:"pattern"`
	Class   model.DocumentClass `json:"class" yaml:"class"`
}

// Classifier classifies evidence items into document classes
type Classifier struct {
	declared    map[string]model.DocumentClass
	titleTerms  []string
	agencyRules []Rule
	urlRules    []Rule
}

// declaredTypes maps source-labeled document types (Federal Register style)
var declaredTypes = map[string]model.DocumentClass{
	"presidential document": model.ClassExecutiveOrder,
	"executive order":       model.ClassExecutiveOrder,
	"rule":                  model.ClassFinalRule,
	"final rule":            model.ClassFinalRule,
	"proposed rule":         model.ClassProposedRule,
	"notice":                model.ClassNotice,
}

var executiveTitleTerms = []string{"executive order", "presidential memorandum"}

// DefaultRules returns the built-in agency and URL rules in match order.
// More specific patterns come first ("supreme court" before "court").
func DefaultRules() []Rule {
	return []Rule{
		{Field: FieldAgency, Pattern: "supreme court", Class: model.ClassCourtOpinion},
		{Field: FieldAgency, Pattern: "court of appeals", Class: model.ClassCourtOpinion},
		{Field: FieldAgency, Pattern: "district court", Class: model.ClassCourtOpinion},
		{Field: FieldAgency, Pattern: "court", Class: model.ClassCourtOpinion},
		{Field: FieldAgency, Pattern: "inspector general", Class: model.ClassReport},
		{Field: FieldAgency, Pattern: "government accountability office", Class: model.ClassReport},
		{Field: FieldAgency, Pattern: "congressional budget office", Class: model.ClassReport},
		{Field: FieldAgency, Pattern: "congressional research service", Class: model.ClassReport},
		{Field: FieldAgency, Pattern: "white house", Class: model.ClassPressRelease},
		{Field: FieldAgency, Pattern: "press office", Class: model.ClassPressRelease},

		{Field: FieldURL, Pattern: "supremecourt.gov", Class: model.ClassCourtOpinion},
		{Field: FieldURL, Pattern: "uscourts.gov", Class: model.ClassCourtOpinion},
		{Field: FieldURL, Pattern: "courtlistener.com", Class: model.ClassCourtOpinion},
		{Field: FieldURL, Pattern: "oig.", Class: model.ClassReport},
		{Field: FieldURL, Pattern: "oversight.gov", Class: model.ClassReport},
		{Field: FieldURL, Pattern: "gao.gov", Class: model.ClassReport},
		{Field: FieldURL, Pattern: "cbo.gov", Class: model.ClassReport},
		{Field: FieldURL, Pattern: "crsreports.congress.gov", Class: model.ClassReport},
		{Field: FieldURL, Pattern: "whitehouse.gov", Class: model.ClassPressRelease},
		{Field: FieldURL, Pattern: "apnews.com", Class: model.ClassNewsArticle},
		{Field: FieldURL, Pattern: "reuters.com", Class: model.ClassNewsArticle},
		{Field: FieldURL, Pattern: "nytimes.com", Class: model.ClassNewsArticle},
		{Field: FieldURL, Pattern: "washingtonpost.com", Class: model.ClassNewsArticle},
		{Field: FieldURL, Pattern: "npr.org", Class: model.ClassNewsArticle},
		{Field: FieldURL, Pattern: "/news/", Class: model.ClassPressRelease},
		{Field: FieldURL, Pattern: "/press-release", Class: model.ClassPressRelease},
	}
}

// NewClassifier creates a classifier. Nil rules fall back to DefaultRules.
// Rules are evaluated agency first, then URL, each group in slice order.
func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}

	c := &Classifier{
		declared:   declaredTypes,
		titleTerms: executiveTitleTerms,
	}

	for _, r := range rules {
		pattern := strings.ToLower(strings.TrimSpace(r.Pattern))
		if pattern == "" {
			continue
		}
		r.Pattern = pattern
		switch r.Field {
		case FieldAgency:
			c.agencyRules = append(c.agencyRules, r)
		case FieldURL:
			c.urlRules = append(c.urlRules, r)
		}
	}

	return c
}

// Classify returns the document class of an item
func (c *Classifier) Classify(item model.EvidenceItem) model.DocumentClass {
	// Declared type is authoritative when the source labels it
	if class, ok := c.declared[normalize(item.DeclaredType)]; ok {
		return class
	}

	title := normalize(item.Title)
	for _, term := range c.titleTerms {
		if strings.Contains(title, term) {
			return model.ClassExecutiveOrder
		}
	}

	agency := normalize(item.Agency)
	if agency != "" {
		for _, r := range c.agencyRules {
			if strings.Contains(agency, r.Pattern) {
				return r.Class
			}
		}
	}

	target := urlTarget(item.URL)
	if target != "" {
		for _, r := range c.urlRules {
			if strings.Contains(target, r.Pattern) {
				return r.Class
			}
		}
	}

	return model.ClassUnknown
}

// ClassifyAll sets DocumentClass on every item that does not already carry one
func (c *Classifier) ClassifyAll(items []model.EvidenceItem) []model.EvidenceItem {
	out := make([]model.EvidenceItem, len(items))
	for i, item := range items {
		if item.DocumentClass == "" {
			item.DocumentClass = c.Classify(item)
		}
		out[i] = item
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// urlTarget lowercases host and path, dropping scheme, port and query.
// Unparseable URLs are matched as raw lowercase text.
func urlTarget(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(rawURL)
	}

	host := parsed.Hostname()
	return strings.ToLower(host + parsed.Path)
}
