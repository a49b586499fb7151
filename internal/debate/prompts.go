package debate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/erosion/internal/model"
)

const advocateSchema = `Respond with a single JSON object and nothing else:
{"argument": "<your argument>", "citations": [<evidence numbers you rely on>]}`

const arbitratorSchema = `Respond with a single JSON object and nothing else:
{"agreementLevel": <1-10, 1 = entirely reassuring, 10 = extremely concerning>,
 "verdict": "concerning" | "mixed" | "reassuring",
 "summary": "<two or three sentences>",
 "keyPoints": ["<2 to 4 short points>"]}`

var systemPrompts = map[model.DebateRole]string{
	model.RoleProsecutor: "You are the prosecutor in a structured review of U.S. government records. " +
		"Argue that the evidence shows institutional erosion. Cite only the numbered evidence provided; " +
		"do not introduce outside facts.",
	model.RoleDefense: "You are the defense in a structured review of U.S. government records. " +
		"Argue that the evidence is consistent with normal institutional functioning. Cite only the numbered " +
		"evidence provided; do not introduce outside facts.",
	model.RoleArbitrator: "You are a neutral arbitrator. Weigh the prosecution and defense arguments against " +
		"the numbered evidence and state how concerning the record is. Do not add new evidence.",
}

func header(req Request, evidence string) string {
	return fmt.Sprintf("Category: %s\nCurrent keyword status: %s\n\nEvidence:\n%s", req.Category, req.Status, evidence)
}

func openingPrompt(req Request, evidence string, role model.DebateRole, words int) string {
	side := "that this evidence shows institutional erosion"
	if role == model.RoleDefense {
		side = "that this evidence is consistent with normal institutional functioning"
	}
	return fmt.Sprintf("%s\nMake your opening argument %s, in about %d words.\n\n%s",
		header(req, evidence), side, words, advocateSchema)
}

func rebuttalPrompt(req Request, evidence string, opponent model.DebateMessage, words int) string {
	return fmt.Sprintf("%s\nYour opponent (%s) argued:\n%s\n\nRebut that argument in about %d words.\n\n%s",
		header(req, evidence), opponent.Role, opponent.Content, words, advocateSchema)
}

func arbitrationPrompt(req Request, evidence string, transcript model.Transcript) string {
	var b strings.Builder
	for _, msg := range transcript {
		fmt.Fprintf(&b, "%s (%s):\n%s\n\n", strings.ToUpper(string(msg.Role)), msg.Stage, msg.Content)
	}
	return fmt.Sprintf("%s\nDebate transcript:\n\n%s%s", header(req, evidence), b.String(), arbitratorSchema)
}

// truncateWords cuts s to at most n words
func truncateWords(s string, n int) string {
	if n <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.TrimSpace(s)
	}
	return strings.Join(words[:n], " ") + " …"
}
