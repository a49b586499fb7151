package model

import "time"

// DebateRole identifies the speaker of a debate turn
type DebateRole string

const (
	RoleProsecutor DebateRole = "prosecutor"
	RoleDefense    DebateRole = "defense"
	RoleArbitrator DebateRole = "arbitrator"
)

// DebateMessage is one turn of a debate transcript
type DebateMessage struct {
	Role      DebateRole `json:"role"`
	Stage     string     `json:"stage"`
	Provider  string     `json:"provider,omitempty"`
	Content   string     `json:"content"`
	Citations []int      `json:"citations,omitempty"` // Evidence indices cited by the turn
	Degraded  bool       `json:"degraded,omitempty"`  // Placeholder substituted for an unparseable response
}

// Transcript is an append-only sequence of debate turns.
// Append never mutates the receiver.
type Transcript []DebateMessage

// Append returns a new transcript with msg added at the end
func (t Transcript) Append(msg DebateMessage) Transcript {
	next := make(Transcript, len(t), len(t)+1)
	copy(next, t)
	return append(next, msg)
}

// Last returns the most recent turn for role, if any
func (t Transcript) Last(role DebateRole) (DebateMessage, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == role {
			return t[i], true
		}
	}
	return DebateMessage{}, false
}

// DebateStatus is the terminal state of a debate run
type DebateStatus string

const (
	DebateCompleted             DebateStatus = "completed"
	DebateSkipped               DebateStatus = "skipped"
	DebateInsufficientProviders DebateStatus = "insufficient_providers"
)

// DebateVerdict is the arbitrator's conclusion
type DebateVerdict string

const (
	VerdictConcerning DebateVerdict = "concerning"
	VerdictMixed      DebateVerdict = "mixed"
	VerdictReassuring DebateVerdict = "reassuring"
)

// Valid reports whether v is a known verdict
func (v DebateVerdict) Valid() bool {
	switch v {
	case VerdictConcerning, VerdictMixed, VerdictReassuring:
		return true
	}
	return false
}

// DebateResult is the outcome of one prosecutor/defense/arbitrator exchange.
type DebateResult struct {
	// ID uniquely identifies this debate run.
	ID string `json:"id"`

	// Category and Status describe what was debated.
	Category string `json:"category"`
	Status   Status `json:"status"`

	// Outcome is the terminal state; only completed debates carry a verdict.
	Outcome DebateStatus `json:"outcome"`
	Reason  string       `json:"reason,omitempty"`

	// AgreementLevel ranges 1 (entirely reassuring) to 10 (extremely concerning).
	AgreementLevel int           `json:"agreementLevel,omitempty"`
	Verdict        DebateVerdict `json:"verdict,omitempty"`
	Summary        string        `json:"summary,omitempty"`
	KeyPoints      []string      `json:"keyPoints,omitempty"`

	Transcript Transcript `json:"transcript,omitempty"`

	// Degraded is set when any turn was replaced by a neutral placeholder.
	Degraded bool `json:"degraded,omitempty"`

	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}
