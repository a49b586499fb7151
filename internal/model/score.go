package model

import "time"

// DocumentScore is the weighted severity of a single evidence item
type DocumentScore struct {
	DocumentID    string        `json:"document_id"`
	Category      string        `json:"category"`
	SeverityScore float64       `json:"severity_score"`
	FinalScore    float64       `json:"final_score"`
	DocumentClass DocumentClass `json:"document_class"`
	WeekOf        time.Time     `json:"week_of"`
	PublishedAt   *time.Time    `json:"published_at,omitempty"`
	Counts        TierCounts    `json:"counts"`
	Formula       string        `json:"formula,omitempty"` // Transparent formula with the inputs substituted
}

// WeeklyAggregate sums document scores for one category and week
type WeeklyAggregate struct {
	Category       string    `json:"category"`
	WeekOf         time.Time `json:"week_of"`  // Monday 00:00 UTC
	WeekEnd        time.Time `json:"week_end"` // Last instant covered by the span (inclusive)
	AggregateScore float64   `json:"aggregate_score"`
	ItemCount      int       `json:"item_count"`
}

// WeekContribution is one week's share of a cumulative score
type WeekContribution struct {
	WeekOf       time.Time `json:"week_of"`
	AgeWeeks     float64   `json:"age_weeks"`
	Weight       float64   `json:"weight"`
	Contribution float64   `json:"contribution"`
}

// CumulativeScore is derived from weekly aggregates; it is never stored
type CumulativeScore struct {
	Category      string             `json:"category"`
	AsOfWeek      time.Time          `json:"as_of_week"`
	HalfLifeWeeks float64            `json:"half_life_weeks"`
	Score         float64            `json:"score"`
	Contributions []WeekContribution `json:"contributions,omitempty"`
}

// TrendPoint compares a keyword's current count with its baseline
type TrendPoint struct {
	Keyword        string    `json:"keyword"`
	Category       string    `json:"category"`
	WeekOf         time.Time `json:"week_of"`
	CurrentCount   int       `json:"current_count"`
	BaselineMean   float64   `json:"baseline_mean"`
	BaselineStddev float64   `json:"baseline_stddev"`
	Ratio          float64   `json:"ratio"`
}

// AnomalySeverity grades how far a keyword exceeds its baseline
type AnomalySeverity string

const (
	AnomalyLow    AnomalySeverity = "low"
	AnomalyMedium AnomalySeverity = "medium"
	AnomalyHigh   AnomalySeverity = "high"
)

// Rank orders anomaly severities (high > medium > low)
func (s AnomalySeverity) Rank() int {
	switch s {
	case AnomalyHigh:
		return 3
	case AnomalyMedium:
		return 2
	case AnomalyLow:
		return 1
	default:
		return 0
	}
}

// Anomaly is a keyword whose current frequency significantly exceeds its baseline
type Anomaly struct {
	Keyword  string          `json:"keyword"`
	Category string          `json:"category"`
	Ratio    float64         `json:"ratio"`
	Severity AnomalySeverity `json:"severity"`
	Message  string          `json:"message"`
}
