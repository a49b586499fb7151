package assess

import (
	"fmt"
	"strings"

	"github.com/ppiankov/erosion/internal/extract"
	"github.com/ppiankov/erosion/internal/llm"
	"github.com/ppiankov/erosion/internal/model"
)

// Framing is one provider's structured reading of the evidence
type Framing struct {
	Provider          string                `json:"provider"`
	Status            model.Status          `json:"status"`
	Reason            string                `json:"reason"`
	Confidence        float64               `json:"confidence"`
	EvidenceFor       []model.EvidenceClaim `json:"evidenceFor"`
	EvidenceAgainst   []model.EvidenceClaim `json:"evidenceAgainst"`
	HowWeCouldBeWrong []string              `json:"howWeCouldBeWrong"`
}

const framingSystemPrompt = "You review U.S. government records for signs of institutional erosion. " +
	"Weigh evidence for and against concern, cite only the numbered evidence provided, " +
	"and say how your reading could be wrong. Do not introduce outside facts."

const framingSchema = `Respond with a single JSON object and nothing else:
{"status": "Stable" | "Warning" | "Drift" | "Capture",
 "reason": "<one or two sentences>",
 "confidence": <0.0-1.0>,
 "evidenceFor": [{"text": "<concerning point>", "evidence": <evidence number>}],
 "evidenceAgainst": [{"text": "<reassuring point>", "evidence": <evidence number>}],
 "howWeCouldBeWrong": ["<limitation>"]}`

const maxPassages = 8

func framingPrompt(category string, keyword model.TierMatchResult, passages []extract.Passage, evidence string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n", category)
	fmt.Fprintf(&b, "Keyword classifier: %s (%s)\n", keyword.Status, keyword.Reason)

	if len(passages) > 0 {
		b.WriteString("\nFlagged passages:\n")
		for _, p := range passages {
			fmt.Fprintf(&b, "- [%s: %s] %s\n", p.Tier, p.Keyword, p.Text)
		}
	}

	fmt.Fprintf(&b, "\nEvidence:\n%s\n%s", evidence, framingSchema)
	return b.String()
}

type claimResponse struct {
	Text     string `json:"text"`
	Evidence *int   `json:"evidence"`
}

type framingResponse struct {
	Status            string          `json:"status"`
	Reason            string          `json:"reason"`
	Confidence        float64         `json:"confidence"`
	EvidenceFor       []claimResponse `json:"evidenceFor"`
	EvidenceAgainst   []claimResponse `json:"evidenceAgainst"`
	HowWeCouldBeWrong []string        `json:"howWeCouldBeWrong"`
}

// parseFraming decodes a provider response. Evidence numbers are 1-based
// in the prompt and stored 0-based; numbers outside the evidence list are
// dropped from the claim.
func parseFraming(raw, provider string, evidenceCount int) (*Framing, error) {
	var resp framingResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		return nil, err
	}

	status, err := model.ParseStatus(resp.Status)
	if err != nil {
		return nil, &llm.ParseError{Raw: raw, Reason: "invalid status", Err: err}
	}

	f := &Framing{
		Provider:          provider,
		Status:            status,
		Reason:            strings.TrimSpace(resp.Reason),
		Confidence:        max(0, min(1, resp.Confidence)),
		EvidenceFor:       claims(resp.EvidenceFor, model.DirectionConcerning, provider, evidenceCount),
		EvidenceAgainst:   claims(resp.EvidenceAgainst, model.DirectionReassuring, provider, evidenceCount),
		HowWeCouldBeWrong: nonEmpty(resp.HowWeCouldBeWrong),
	}
	return f, nil
}

func claims(in []claimResponse, dir model.EvidenceDirection, provider string, evidenceCount int) []model.EvidenceClaim {
	out := make([]model.EvidenceClaim, 0, len(in))
	for _, c := range in {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		claim := model.EvidenceClaim{Text: text, Direction: dir, Source: provider}
		if c.Evidence != nil {
			if idx := *c.Evidence - 1; idx >= 0 && idx < evidenceCount {
				claim.EvidenceIndex = &idx
			}
		}
		out = append(out, claim)
	}
	return out
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
