package score

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ppiankov/erosion/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestScorer_SeverityScore(t *testing.T) {
	s := NewScorer(DefaultWeights())

	tests := []struct {
		counts   model.TierCounts
		expected float64
	}{
		{model.TierCounts{}, 0},
		{model.TierCounts{Capture: 1}, 4},
		{model.TierCounts{Capture: 3}, 8},
		{model.TierCounts{Drift: 2, Warning: 3}, 7},
		{model.TierCounts{Capture: 1, Drift: 1, Warning: 1}, 7},
	}

	for _, tt := range tests {
		got := s.SeverityScore(tt.counts)
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("SeverityScore(%+v) = %v, expected %v", tt.counts, got, tt.expected)
		}
	}
}

func TestScorer_ScoreDocument(t *testing.T) {
	s := NewScorer(DefaultWeights())
	published := time.Date(2025, 3, 13, 15, 4, 0, 0, time.UTC) // Thursday

	item := model.EvidenceItem{ID: "doc-1", PublishedAt: &published, DocumentClass: model.ClassCourtOpinion}
	match := model.TierMatchResult{Status: model.StatusCapture, Counts: model.TierCounts{Capture: 1, Drift: 1}}

	got := s.ScoreDocument(item, match, "courts")
	assert.Equal(t, "doc-1", got.DocumentID)
	assert.Equal(t, "courts", got.Category)
	assert.InDelta(t, 6.0, got.SeverityScore, 1e-9)
	assert.InDelta(t, 9.0, got.FinalScore, 1e-9)
	assert.Equal(t, date(2025, 3, 10), got.WeekOf)
	assert.Equal(t, &published, got.PublishedAt)
	assert.Contains(t, got.Formula, "court_opinion")
}

func TestScorer_ScoreDocument_DefaultsAndUndated(t *testing.T) {
	s := NewScorer(DefaultWeights())

	got := s.ScoreDocument(model.EvidenceItem{ID: "x"}, model.TierMatchResult{Counts: model.TierCounts{Warning: 2}}, "fiscal")
	assert.Equal(t, model.ClassUnknown, got.DocumentClass)
	assert.InDelta(t, 2.0, got.FinalScore, 1e-9)
	assert.True(t, got.WeekOf.IsZero())

	// A class the weights do not list counts as 1.0
	got = s.ScoreDocument(model.EvidenceItem{ID: "y", DocumentClass: "memo"}, model.TierMatchResult{Counts: model.TierCounts{Drift: 1}}, "fiscal")
	assert.InDelta(t, 2.0, got.FinalScore, 1e-9)
}

func TestWeightsFromConfig(t *testing.T) {
	cfg := model.DefaultConfig().Scoring
	cfg.CaptureWeight = 10
	cfg.ClassMultipliers["press_release"] = 0.1

	w := WeightsFromConfig(cfg)
	assert.Equal(t, 10.0, w.Capture)
	assert.Equal(t, 0.1, w.Multiplier(model.ClassPressRelease))
	assert.Equal(t, 1.5, w.Multiplier(model.ClassCourtOpinion))
}

func TestWeekOf(t *testing.T) {
	monday := date(2025, 3, 10)

	for _, in := range []time.Time{
		monday,
		time.Date(2025, 3, 12, 23, 59, 0, 0, time.UTC),
		time.Date(2025, 3, 16, 23, 59, 59, 0, time.UTC), // Sunday
	} {
		assert.Equal(t, monday, WeekOf(in), in.String())
	}

	// Converted to UTC first: Monday 01:00 in UTC+3 is still Sunday in UTC
	east := time.FixedZone("UTC+3", 3*3600)
	assert.Equal(t, date(2025, 3, 3), WeekOf(time.Date(2025, 3, 10, 1, 0, 0, 0, east)))
}

func TestChunkWeeks(t *testing.T) {
	from := date(2025, 3, 12) // Wednesday
	to := date(2025, 3, 26)   // Wednesday, two weeks later

	spans := ChunkWeeks(from, to)
	require.Len(t, spans, 3)

	assert.Equal(t, date(2025, 3, 10), spans[0].Start)
	assert.Equal(t, date(2025, 3, 17), spans[1].Start)
	assert.Equal(t, date(2025, 3, 24), spans[2].Start)
	assert.Equal(t, to, spans[2].End, "final span is clipped")

	for i := 0; i < len(spans)-1; i++ {
		assert.Equal(t, spans[i+1].Start, spans[i].End.Add(time.Nanosecond), "spans are contiguous")
	}

	assert.Empty(t, ChunkWeeks(to, from))
	assert.Len(t, ChunkWeeks(from, from), 1)
}

func pubAt(y int, m time.Month, d, hour int) *time.Time {
	t := time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
	return &t
}

func TestAggregateWeek_Idempotent(t *testing.T) {
	span := Span{Start: date(2025, 3, 10), End: date(2025, 3, 16).Add(24*time.Hour - time.Nanosecond)}
	scores := []model.DocumentScore{
		{DocumentID: "c", Category: "fiscal", FinalScore: 0.1, PublishedAt: pubAt(2025, 3, 10, 0)},
		{DocumentID: "a", Category: "fiscal", FinalScore: 0.2, PublishedAt: pubAt(2025, 3, 12, 9)},
		{DocumentID: "b", Category: "fiscal", FinalScore: 0.3, PublishedAt: pubAt(2025, 3, 16, 23)},
		{DocumentID: "d", Category: "courts", FinalScore: 100, PublishedAt: pubAt(2025, 3, 12, 9)},
		{DocumentID: "e", Category: "fiscal", FinalScore: 100, PublishedAt: pubAt(2025, 3, 17, 0)},
		{DocumentID: "f", Category: "fiscal", FinalScore: 100},
	}

	first := AggregateWeek("fiscal", span, scores)
	assert.Equal(t, 3, first.ItemCount)
	assert.Equal(t, date(2025, 3, 10), first.WeekOf)

	reversed := make([]model.DocumentScore, len(scores))
	for i := range scores {
		reversed[len(scores)-1-i] = scores[i]
	}
	second := AggregateWeek("fiscal", span, reversed)

	// Bit-identical, not merely close
	assert.Equal(t, math.Float64bits(first.AggregateScore), math.Float64bits(second.AggregateScore))
	assert.Equal(t, first, second)
}

func TestAggregateRange_IncludesEmptyWeeks(t *testing.T) {
	scores := []model.DocumentScore{
		{DocumentID: "a", Category: "fiscal", FinalScore: 2, PublishedAt: pubAt(2025, 3, 11, 14)},
		{DocumentID: "b", Category: "fiscal", FinalScore: 5, PublishedAt: pubAt(2025, 3, 25, 14)},
	}

	aggs := AggregateRange("fiscal", date(2025, 3, 10), date(2025, 3, 30), scores)
	require.Len(t, aggs, 3)
	assert.Equal(t, 2.0, aggs[0].AggregateScore)
	assert.Equal(t, 0, aggs[1].ItemCount)
	assert.Equal(t, 5.0, aggs[2].AggregateScore)
}

func TestAggregateRange_ClipsToWindow(t *testing.T) {
	scores := []model.DocumentScore{
		{DocumentID: "mon", Category: "fiscal", FinalScore: 1, PublishedAt: pubAt(2025, 3, 17, 9)},
		{DocumentID: "wed", Category: "fiscal", FinalScore: 2, PublishedAt: pubAt(2025, 3, 19, 9)},
		{DocumentID: "sat", Category: "fiscal", FinalScore: 3, PublishedAt: pubAt(2025, 3, 22, 9)},
	}

	tests := []struct {
		name  string
		from  time.Time
		to    time.Time
		total float64
		items int
	}{
		{"clipped end", date(2025, 3, 17), date(2025, 3, 19).Add(24*time.Hour - time.Second), 3, 2},
		{"mid-week start", date(2025, 3, 19), date(2025, 3, 23).Add(24*time.Hour - time.Second), 5, 2},
		{"full week", date(2025, 3, 17), date(2025, 3, 23).Add(24*time.Hour - time.Second), 6, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggs := AggregateRange("fiscal", tt.from, tt.to, scores)
			require.Len(t, aggs, 1)
			assert.Equal(t, date(2025, 3, 17), aggs[0].WeekOf, "aggregates stay keyed by Monday")
			assert.Equal(t, tt.total, aggs[0].AggregateScore)
			assert.Equal(t, tt.items, aggs[0].ItemCount)
		})
	}
}

func TestCumulative_Decay(t *testing.T) {
	now := date(2025, 6, 2)
	aggs := []model.WeeklyAggregate{
		{Category: "fiscal", WeekOf: date(2025, 6, 2), AggregateScore: 10},
		{Category: "fiscal", WeekOf: date(2025, 4, 7), AggregateScore: 10}, // 8 weeks old
	}

	got, err := Cumulative(aggs, now, 8)
	require.NoError(t, err)
	assert.Equal(t, "fiscal", got.Category)
	assert.InDelta(t, 15.0, got.Score, 1e-9)
	require.Len(t, got.Contributions, 2)
	assert.Equal(t, date(2025, 4, 7), got.Contributions[0].WeekOf, "contributions are chronological")
	assert.InDelta(t, 0.5, got.Contributions[0].Weight, 1e-12)
}

func TestCumulative_DecayIsMonotonic(t *testing.T) {
	now := date(2025, 6, 2)
	previous := math.Inf(1)

	for age := 0; age <= 52; age++ {
		agg := model.WeeklyAggregate{Category: "courts", WeekOf: now.AddDate(0, 0, -7*age), AggregateScore: 12}
		got, err := Cumulative([]model.WeeklyAggregate{agg}, now, 8)
		require.NoError(t, err)
		assert.Less(t, got.Score, previous+1e-12, "age %d", age)
		assert.Greater(t, got.Score, 0.0)
		previous = got.Score
	}
}

func TestCumulative_ExcludesFutureWeeks(t *testing.T) {
	now := date(2025, 6, 4)
	aggs := []model.WeeklyAggregate{
		{Category: "fiscal", WeekOf: date(2025, 6, 2), AggregateScore: 3},
		{Category: "fiscal", WeekOf: date(2025, 6, 9), AggregateScore: 1000},
	}

	got, err := Cumulative(aggs, now, 8)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got.Score, 1e-9)
	assert.Len(t, got.Contributions, 1)
}

func TestCumulative_Validation(t *testing.T) {
	for _, hl := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Cumulative(nil, time.Now(), hl)
		var verr *model.ValidationError
		assert.True(t, errors.As(err, &verr), "half-life %v", hl)
	}

	_, err := Cumulative([]model.WeeklyAggregate{
		{Category: "fiscal", WeekOf: date(2025, 6, 2)},
		{Category: "courts", WeekOf: date(2025, 6, 2)},
	}, date(2025, 6, 2), 8)
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)

	got, err := Cumulative(nil, date(2025, 6, 4), 8)
	require.NoError(t, err)
	assert.Zero(t, got.Score)
	assert.Equal(t, date(2025, 6, 2), got.AsOfWeek)
}
