package score

import (
	"sort"
	"time"

	"github.com/ppiankov/erosion/internal/model"
)

const weekDuration = 7 * 24 * time.Hour

// Span is an inclusive time window of at most one week
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the span (both ends inclusive)
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Start) && !t.After(s.End)
}

// WeekOf returns Monday 00:00 UTC of the week containing t
func WeekOf(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// ChunkWeeks splits [from, to] into consecutive week spans. The first span
// starts at the Monday on or before from; the last is clipped to to.
// An inverted range yields no spans.
func ChunkWeeks(from, to time.Time) []Span {
	from, to = from.UTC(), to.UTC()
	if to.Before(from) {
		return nil
	}

	var spans []Span
	for start := WeekOf(from); !start.After(to); start = start.AddDate(0, 0, 7) {
		end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
		if end.After(to) {
			end = to
		}
		spans = append(spans, Span{Start: start, End: end})
	}
	return spans
}

// AggregateWeek sums the final scores of a category's documents published
// inside span. Scores are summed in DocumentID order so recomputing the same
// inputs is bit-identical regardless of input order.
func AggregateWeek(category string, span Span, scores []model.DocumentScore) model.WeeklyAggregate {
	var selected []model.DocumentScore
	for _, s := range scores {
		if s.Category != category || s.PublishedAt == nil || !span.Contains(*s.PublishedAt) {
			continue
		}
		selected = append(selected, s)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].DocumentID < selected[j].DocumentID
	})

	var total float64
	for _, s := range selected {
		total += s.FinalScore
	}

	return model.WeeklyAggregate{
		Category:       category,
		WeekOf:         WeekOf(span.Start),
		WeekEnd:        span.End,
		AggregateScore: total,
		ItemCount:      len(selected),
	}
}

// AggregateRange returns one aggregate per week span of [from, to],
// including weeks with no documents. The first span starts at from, so a
// mid-week from yields a partial first week.
func AggregateRange(category string, from, to time.Time, scores []model.DocumentScore) []model.WeeklyAggregate {
	spans := ChunkWeeks(from, to)
	aggregates := make([]model.WeeklyAggregate, 0, len(spans))
	for i, span := range spans {
		if i == 0 && span.Start.Before(from) {
			span.Start = from.UTC()
		}
		aggregates = append(aggregates, AggregateWeek(category, span, scores))
	}
	return aggregates
}
