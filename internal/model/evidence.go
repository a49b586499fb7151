package model

import "time"

// EvidenceItem represents one document or statement considered during assessment
type EvidenceItem struct {
	ID            string        `json:"id" yaml:"id"`
	Title         string        `json:"title" yaml:"title"`
	Text          string        `json:"text" yaml:"text"`
	Agency        string        `json:"agency,omitempty" yaml:"agency,omitempty"`
	URL           string        `json:"url,omitempty" yaml:"url,omitempty"`
	PublishedAt   *time.Time    `json:"published_at,omitempty" yaml:"published_at,omitempty"`
	DeclaredType  string        `json:"declared_type,omitempty" yaml:"declared_type,omitempty"` // Source-labeled type (e.g., "Presidential Document")
	DocumentClass DocumentClass `json:"document_class,omitempty" yaml:"document_class,omitempty"`
}

// Content returns the text used for keyword matching (title + body)
func (e EvidenceItem) Content() string {
	if e.Title == "" {
		return e.Text
	}
	if e.Text == "" {
		return e.Title
	}
	return e.Title + "\n" + e.Text
}

// DocumentClass classifies an evidence item by evidentiary authority
type DocumentClass string

const (
	ClassExecutiveOrder DocumentClass = "executive_order"
	ClassFinalRule      DocumentClass = "final_rule"
	ClassProposedRule   DocumentClass = "proposed_rule"
	ClassNotice         DocumentClass = "notice"
	ClassCourtOpinion   DocumentClass = "court_opinion"
	ClassReport         DocumentClass = "report"
	ClassPressRelease   DocumentClass = "press_release"
	ClassNewsArticle    DocumentClass = "news_article"
	ClassUnknown        DocumentClass = "unknown"
)

// DocumentClasses lists every known class in a stable order
func DocumentClasses() []DocumentClass {
	return []DocumentClass{
		ClassExecutiveOrder,
		ClassFinalRule,
		ClassProposedRule,
		ClassNotice,
		ClassCourtOpinion,
		ClassReport,
		ClassPressRelease,
		ClassNewsArticle,
		ClassUnknown,
	}
}

// DateRange is an inclusive time window
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the range (both ends inclusive)
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}
