// Package score turns keyword tier counts into per-document severity
// scores, sums them into weekly aggregates and decays those aggregates
// into a cumulative score.
package score

import (
	"fmt"
	"math"
	"time"

	"github.com/ppiankov/erosion/internal/model"
)

// Weights are the tunable scoring parameters. The defaults are starting
// points, not calibrated constants.
type Weights struct {
	Capture          float64
	Drift            float64
	Warning          float64
	ClassMultipliers map[model.DocumentClass]float64
}

// DefaultWeights returns the documented default weights
func DefaultWeights() Weights {
	return WeightsFromConfig(model.DefaultConfig().Scoring)
}

// WeightsFromConfig converts the scoring section of the config
func WeightsFromConfig(cfg model.ScoringConfig) Weights {
	w := Weights{
		Capture:          cfg.CaptureWeight,
		Drift:            cfg.DriftWeight,
		Warning:          cfg.WarningWeight,
		ClassMultipliers: make(map[model.DocumentClass]float64, len(cfg.ClassMultipliers)),
	}
	for class, m := range cfg.ClassMultipliers {
		w.ClassMultipliers[model.DocumentClass(class)] = m
	}
	return w
}

// Multiplier returns the class multiplier; unlisted classes weigh 1.0
func (w Weights) Multiplier(class model.DocumentClass) float64 {
	if m, ok := w.ClassMultipliers[class]; ok {
		return m
	}
	return 1.0
}

// Scorer computes document scores with a fixed set of weights
type Scorer struct {
	weights Weights
}

// NewScorer creates a new scorer
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Weights returns the scorer's weights
func (s *Scorer) Weights() Weights {
	return s.weights
}

// SeverityScore combines tier counts. Capture hits grow logarithmically so
// a single capture term already dominates and repeats add less each time.
func (s *Scorer) SeverityScore(counts model.TierCounts) float64 {
	return s.weights.Capture*math.Log2(float64(counts.Capture)+1) +
		float64(counts.Drift)*s.weights.Drift +
		float64(counts.Warning)*s.weights.Warning
}

// ScoreDocument scores one evidence item against its tier match result.
// Undated items get a zero WeekOf and fall outside every weekly span.
func (s *Scorer) ScoreDocument(item model.EvidenceItem, match model.TierMatchResult, category string) model.DocumentScore {
	class := item.DocumentClass
	if class == "" {
		class = model.ClassUnknown
	}

	severity := s.SeverityScore(match.Counts)
	multiplier := s.weights.Multiplier(class)
	final := severity * multiplier

	var week time.Time
	if item.PublishedAt != nil {
		week = WeekOf(*item.PublishedAt)
	}

	return model.DocumentScore{
		DocumentID:    item.ID,
		Category:      category,
		SeverityScore: severity,
		FinalScore:    final,
		DocumentClass: class,
		WeekOf:        week,
		PublishedAt:   item.PublishedAt,
		Counts:        match.Counts,
		Formula: fmt.Sprintf("(%g*log2(%d+1) + %d*%g + %d*%g) * %g[%s] = %.4f",
			s.weights.Capture, match.Counts.Capture,
			match.Counts.Drift, s.weights.Drift,
			match.Counts.Warning, s.weights.Warning,
			multiplier, class, final),
	}
}
