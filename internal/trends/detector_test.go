package trends

import (
	"testing"
	"time"

	"github.com/ppiankov/erosion/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flat(n int, v float64) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = v
	}
	return xs
}

func TestDetector_Thresholds(t *testing.T) {
	d := NewDetector(model.TrendsConfig{})

	tests := []struct {
		name     string
		current  int
		mean     float64
		severity model.AnomalySeverity
		flagged  bool
	}{
		{"exactly 2.0 is low", 4, 2, model.AnomalyLow, true},
		{"just under 2 dropped", 399, 200, "", false},
		{"3x is medium", 6, 2, model.AnomalyMedium, true},
		{"5x is high", 10, 2, model.AnomalyHigh, true},
		{"no history uses epsilon", 1, 0, model.AnomalyLow, true},
		{"no history, three hits", 3, 0, model.AnomalyHigh, true},
		{"unchanged", 2, 2, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := Key{Category: "fiscal", Keyword: "impoundment"}
			got := d.Detect(map[Key]int{key: tt.current}, map[Key][]float64{key: flat(26, tt.mean)})
			if !tt.flagged {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.severity, got[0].Severity)
			assert.Equal(t, "fiscal", got[0].Category)
			assert.Contains(t, got[0].Message, `"impoundment"`)
		})
	}
}

func TestDetector_OrderAndIndependence(t *testing.T) {
	d := NewDetector(model.TrendsConfig{})
	base := map[Key][]float64{
		{Category: "fiscal", Keyword: "rescission"}:    flat(26, 1),
		{Category: "fiscal", Keyword: "impoundment"}:   flat(26, 1),
		{Category: "fiscal", Keyword: "apportionment"}: flat(26, 1),
		{Category: "courts", Keyword: "contempt"}:      flat(26, 1),
	}
	current := map[Key]int{
		{Category: "fiscal", Keyword: "rescission"}:    2,
		{Category: "fiscal", Keyword: "impoundment"}:   7,
		{Category: "fiscal", Keyword: "apportionment"}: 1,
		{Category: "courts", Keyword: "contempt"}:      7,
	}

	got := d.Detect(current, base)
	require.Len(t, got, 3)
	assert.Equal(t, "contempt", got[0].Keyword)
	assert.Equal(t, "impoundment", got[1].Keyword)
	assert.Equal(t, "rescission", got[2].Keyword)
	assert.Equal(t, model.AnomalyLow, got[2].Severity)
}

func TestBaseline_FillsMissingWeeks(t *testing.T) {
	now := time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC) // week of June 2
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	history := []model.TrendPoint{
		{Category: "fiscal", Keyword: "impoundment", WeekOf: monday.AddDate(0, 0, -7), CurrentCount: 3},
		{Category: "fiscal", Keyword: "impoundment", WeekOf: monday.AddDate(0, 0, -14), CurrentCount: 1},
		{Category: "fiscal", Keyword: "impoundment", WeekOf: monday, CurrentCount: 99},                   // current week, ignored
		{Category: "fiscal", Keyword: "impoundment", WeekOf: monday.AddDate(0, 0, -7*27), CurrentCount: 99}, // outside window
	}

	base := Baseline(history, now, 26)
	series := base[Key{Category: "fiscal", Keyword: "impoundment"}]
	require.Len(t, series, 26)
	assert.Equal(t, 3.0, series[25])
	assert.Equal(t, 1.0, series[24])
	assert.InDelta(t, 4.0/26, Mean(series), 1e-12)
}

func TestPoints(t *testing.T) {
	d := NewDetector(model.TrendsConfig{})
	week := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	k1 := Key{Category: "fiscal", Keyword: "rescission"}
	k2 := Key{Category: "fiscal", Keyword: "impoundment"}

	points := d.Points(week, map[Key]int{k1: 4}, map[Key][]float64{k1: {1, 3}, k2: {2, 2}})
	require.Len(t, points, 2)
	assert.Equal(t, "impoundment", points[0].Keyword)
	assert.Equal(t, 0, points[0].CurrentCount)
	assert.Equal(t, "rescission", points[1].Keyword)
	assert.Equal(t, 2.0, points[1].Ratio)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), points[1].WeekOf)
}

func TestCurrentCounts(t *testing.T) {
	got := CurrentCounts("media", map[string]int{"journalists detained": 2})
	assert.Equal(t, map[Key]int{{Category: "media", Keyword: "journalists detained"}: 2}, got)
}
