package trends

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ppiankov/erosion/internal/model"
	"github.com/ppiankov/erosion/internal/score"
)

// Key identifies one keyword series within a category
type Key struct {
	Category string
	Keyword  string
}

// Baseline builds per-keyword series of the window weeks strictly before
// the current week, oldest first. Weeks missing from history count as 0.
// Points at or after the current week are ignored.
func Baseline(history []model.TrendPoint, current time.Time, window int) map[Key][]float64 {
	currentWeek := score.WeekOf(current)
	first := currentWeek.AddDate(0, 0, -7*window)

	series := make(map[Key][]float64)
	if window <= 0 {
		return series
	}

	for _, p := range history {
		week := score.WeekOf(p.WeekOf)
		if week.Before(first) || !week.Before(currentWeek) {
			continue
		}
		key := Key{Category: p.Category, Keyword: p.Keyword}
		if series[key] == nil {
			series[key] = make([]float64, window)
		}
		idx := int(math.Round(week.Sub(first).Hours() / (7 * 24)))
		series[key][idx] += float64(p.CurrentCount)
	}
	return series
}

// Detector flags keywords whose current count exceeds their baseline mean
type Detector struct {
	cfg model.TrendsConfig
}

// NewDetector creates a detector; zero config values fall back to defaults
func NewDetector(cfg model.TrendsConfig) *Detector {
	defaults := model.DefaultConfig().Trends
	if cfg.WindowWeeks <= 0 {
		cfg.WindowWeeks = defaults.WindowWeeks
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = defaults.Epsilon
	}
	if cfg.LowRatio <= 0 {
		cfg.LowRatio = defaults.LowRatio
	}
	if cfg.MediumRatio <= 0 {
		cfg.MediumRatio = defaults.MediumRatio
	}
	if cfg.HighRatio <= 0 {
		cfg.HighRatio = defaults.HighRatio
	}
	return &Detector{cfg: cfg}
}

// Window returns the baseline length in weeks
func (d *Detector) Window() int {
	return d.cfg.WindowWeeks
}

// Ratio divides the current count by the baseline mean, floored at epsilon
// so a keyword with no history does not divide by zero
func (d *Detector) Ratio(current int, mean float64) float64 {
	return float64(current) / math.Max(mean, d.cfg.Epsilon)
}

// Severity grades a ratio; ok is false below the low threshold
func (d *Detector) Severity(ratio float64) (severity model.AnomalySeverity, ok bool) {
	switch {
	case ratio >= d.cfg.HighRatio:
		return model.AnomalyHigh, true
	case ratio >= d.cfg.MediumRatio:
		return model.AnomalyMedium, true
	case ratio >= d.cfg.LowRatio:
		return model.AnomalyLow, true
	}
	return "", false
}

// Detect evaluates every keyword independently. Output is ordered by
// severity, then ratio (both descending), then category and keyword.
func (d *Detector) Detect(current map[Key]int, baseline map[Key][]float64) []model.Anomaly {
	anomalies := []model.Anomaly{}
	for key, count := range current {
		if count <= 0 {
			continue
		}
		mean := Mean(baseline[key])
		ratio := d.Ratio(count, mean)
		severity, ok := d.Severity(ratio)
		if !ok {
			continue
		}
		anomalies = append(anomalies, model.Anomaly{
			Keyword:  key.Keyword,
			Category: key.Category,
			Ratio:    ratio,
			Severity: severity,
			Message: fmt.Sprintf("%q appeared %d times this week, %.1fx its %d-week average of %.2f",
				key.Keyword, count, ratio, d.cfg.WindowWeeks, mean),
		})
	}

	sort.Slice(anomalies, func(i, j int) bool {
		a, b := anomalies[i], anomalies[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Ratio != b.Ratio {
			return a.Ratio > b.Ratio
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Keyword < b.Keyword
	})
	return anomalies
}

// Points returns one trend point per keyword seen in current or baseline,
// sorted by category and keyword, for persistence as next week's history
func (d *Detector) Points(week time.Time, current map[Key]int, baseline map[Key][]float64) []model.TrendPoint {
	keys := make(map[Key]struct{}, len(current)+len(baseline))
	for k := range current {
		keys[k] = struct{}{}
	}
	for k := range baseline {
		keys[k] = struct{}{}
	}

	weekOf := score.WeekOf(week)
	points := make([]model.TrendPoint, 0, len(keys))
	for k := range keys {
		series := baseline[k]
		mean := Mean(series)
		points = append(points, model.TrendPoint{
			Keyword:        k.Keyword,
			Category:       k.Category,
			WeekOf:         weekOf,
			CurrentCount:   current[k],
			BaselineMean:   mean,
			BaselineStddev: Stddev(series),
			Ratio:          d.Ratio(current[k], mean),
		})
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Category != points[j].Category {
			return points[i].Category < points[j].Category
		}
		return points[i].Keyword < points[j].Keyword
	})
	return points
}

// CurrentCounts converts per-keyword occurrence counts of one category into
// detector keys
func CurrentCounts(category string, counts map[string]int) map[Key]int {
	out := make(map[Key]int, len(counts))
	for kw, n := range counts {
		out[Key{Category: category, Keyword: kw}] += n
	}
	return out
}
