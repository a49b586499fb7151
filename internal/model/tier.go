package model

import (
	"fmt"
	"strings"
)

// Tier is the severity bucket a keyword belongs to
type Tier string

const (
	TierWarning Tier = "warning"
	TierDrift   Tier = "drift"
	TierCapture Tier = "capture"
)

// TiersBySeverity lists keyword tiers from most to least severe (scan order)
func TiersBySeverity() []Tier {
	return []Tier{TierCapture, TierDrift, TierWarning}
}

// Status returns the assessment status a tier maps to
func (t Tier) Status() Status {
	switch t {
	case TierCapture:
		return StatusCapture
	case TierDrift:
		return StatusDrift
	case TierWarning:
		return StatusWarning
	default:
		return StatusStable
	}
}

// ParseTier parses a tier name (case-insensitive)
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierWarning:
		return TierWarning, nil
	case TierDrift:
		return TierDrift, nil
	case TierCapture:
		return TierCapture, nil
	}
	return "", fmt.Errorf("unknown tier: %q (supported: warning, drift, capture)", s)
}

// Status is the ordinal severity assigned to a category
type Status string

const (
	StatusStable  Status = "Stable"
	StatusWarning Status = "Warning"
	StatusDrift   Status = "Drift"
	StatusCapture Status = "Capture"
)

// Rank returns the total order of statuses; unknown values rank below Stable
func (s Status) Rank() int {
	switch s {
	case StatusStable:
		return 0
	case StatusWarning:
		return 1
	case StatusDrift:
		return 2
	case StatusCapture:
		return 3
	default:
		return -1
	}
}

// Valid reports whether s is one of the four known statuses
func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// MaxStatus returns the more severe of two statuses
func MaxStatus(a, b Status) Status {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ParseStatus parses a status name (case-insensitive)
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stable":
		return StatusStable, nil
	case "warning":
		return StatusWarning, nil
	case "drift":
		return StatusDrift, nil
	case "capture":
		return StatusCapture, nil
	}
	return "", fmt.Errorf("unknown status: %q (supported: Stable, Warning, Drift, Capture)", s)
}

// KeywordEntry is one vocabulary keyword owned by a category
type KeywordEntry struct {
	Keyword  string `json:"keyword" yaml:"keyword"`
	Category string `json:"category" yaml:"category"`
	Tier     Tier   `json:"tier" yaml:"tier"`
}

// TierCounts holds the number of distinct fired keywords per tier
type TierCounts struct {
	Capture int `json:"capture"`
	Drift   int `json:"drift"`
	Warning int `json:"warning"`
}

// Total returns the number of fired keywords across tiers
func (c TierCounts) Total() int {
	return c.Capture + c.Drift + c.Warning
}

// TierMatchResult is the output of the keyword tier classifier
type TierMatchResult struct {
	Status  Status     `json:"status"`
	Reason  string     `json:"reason"`
	Matches []string   `json:"matches"` // Every fired keyword of the winning tier
	Counts  TierCounts `json:"counts"`
}
