package model

import (
	"encoding/json"
	"time"
)

// EnhancedAssessment is the output unit of one assessment run.
// It is never mutated after construction; a newer assessment supersedes it.
type EnhancedAssessment struct {
	ID                string          `json:"id"`
	Category          string          `json:"category"`
	Status            Status          `json:"status"`
	Reason            string          `json:"reason"`
	Matches           []string        `json:"matches"`
	DataCoverage      float64         `json:"dataCoverage"`
	EvidenceFor       []EvidenceClaim `json:"evidenceFor"`
	EvidenceAgainst   []EvidenceClaim `json:"evidenceAgainst"`
	HowWeCouldBeWrong []string        `json:"howWeCouldBeWrong"`
	KeywordResult     TierMatchResult `json:"keywordResult"`
	Debate            *DebateResult   `json:"debate,omitempty"`
	TrendAnomalies    []Anomaly       `json:"trendAnomalies,omitempty"`
	Confidence        float64         `json:"confidence,omitempty"`    // AI-reported confidence (0-1), 0 when AI unavailable
	ProvidersUsed     []string        `json:"providersUsed,omitempty"` // Providers whose framing succeeded
	Principles        Principles      `json:"principles"`
	AssessedAt        time.Time       `json:"assessedAt"`

	// Extra carries unknown fields through decode/encode unchanged
	Extra map[string]json.RawMessage `json:"-"`
}

// EvidenceDirection records which way a piece of evidence points
type EvidenceDirection string

const (
	DirectionConcerning EvidenceDirection = "concerning"
	DirectionReassuring EvidenceDirection = "reassuring"
	DirectionNeutral    EvidenceDirection = "neutral"
)

// EvidenceClaim is an AI-framed statement about the evidence set
type EvidenceClaim struct {
	Text          string            `json:"text"`
	Direction     EvidenceDirection `json:"direction"`
	EvidenceIndex *int              `json:"evidenceIndex,omitempty"` // Index into the evidence list the claim cites
	Source        string            `json:"source,omitempty"`        // Provider that produced the claim
}

// Principles documents the guarantees applied to an assessment
type Principles struct {
	KeywordFloor bool `json:"keywordFloor"` // Status never weaker than the keyword classifier result
	Transparent  bool `json:"transparent"`  // Every score carries its formula
	Reproducible bool `json:"reproducible"` // Deterministic parts are order-independent
}

// DefaultPrinciples returns the standard assessment principles
func DefaultPrinciples() Principles {
	return Principles{
		KeywordFloor: true,
		Transparent:  true,
		Reproducible: true,
	}
}

type enhancedAssessmentAlias EnhancedAssessment

// MarshalJSON writes known fields and then any passthrough fields that do not collide
func (a EnhancedAssessment) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(enhancedAssessmentAlias(a))
	if err != nil {
		return nil, err
	}
	if len(a.Extra) == 0 {
		return known, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range a.Extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes known fields and keeps the rest in Extra
func (a *EnhancedAssessment) UnmarshalJSON(data []byte) error {
	var alias enhancedAssessmentAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownAssessmentFields {
		delete(raw, k)
	}

	*a = EnhancedAssessment(alias)
	if len(raw) > 0 {
		a.Extra = raw
	}
	return nil
}

var knownAssessmentFields = []string{
	"id", "category", "status", "reason", "matches", "dataCoverage",
	"evidenceFor", "evidenceAgainst", "howWeCouldBeWrong", "keywordResult",
	"debate", "trendAnomalies", "confidence", "providersUsed", "principles", "assessedAt",
}

// RequiredAssessmentFields lists the fields downstream consumers rely on
func RequiredAssessmentFields() []string {
	return []string{
		"category", "status", "reason", "matches", "dataCoverage",
		"evidenceFor", "evidenceAgainst", "howWeCouldBeWrong", "keywordResult", "assessedAt",
	}
}
