package score

import (
	"math"
	"sort"
	"time"

	"github.com/ppiankov/erosion/internal/model"
)

// Cumulative decays weekly aggregates into a single score as of now:
//
//	sum(score_w * 0.5^((nowWeek - w) / halfLife))
//
// Weeks after now's week are excluded. All aggregates must share one
// category. The result is derived only from the aggregates passed in.
func Cumulative(aggregates []model.WeeklyAggregate, now time.Time, halfLifeWeeks float64) (model.CumulativeScore, error) {
	if halfLifeWeeks <= 0 || math.IsNaN(halfLifeWeeks) || math.IsInf(halfLifeWeeks, 0) {
		return model.CumulativeScore{}, model.NewValidationError("half_life_weeks", "must be a positive finite number, got %v", halfLifeWeeks)
	}

	nowWeek := WeekOf(now)
	result := model.CumulativeScore{
		AsOfWeek:      nowWeek,
		HalfLifeWeeks: halfLifeWeeks,
		Contributions: []model.WeekContribution{},
	}
	if len(aggregates) == 0 {
		return result, nil
	}

	result.Category = aggregates[0].Category
	for _, a := range aggregates[1:] {
		if a.Category != result.Category {
			return model.CumulativeScore{}, model.NewValidationError("category", "aggregates mix categories %q and %q", result.Category, a.Category)
		}
	}

	ordered := make([]model.WeeklyAggregate, len(aggregates))
	copy(ordered, aggregates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].WeekOf.Before(ordered[j].WeekOf)
	})

	for _, a := range ordered {
		w := WeekOf(a.WeekOf)
		if w.After(nowWeek) {
			continue
		}
		age := math.Round(float64(nowWeek.Sub(w)) / float64(weekDuration))
		weight := math.Pow(0.5, age/halfLifeWeeks)
		contribution := a.AggregateScore * weight

		result.Score += contribution
		result.Contributions = append(result.Contributions, model.WeekContribution{
			WeekOf:       w,
			AgeWeeks:     age,
			Weight:       weight,
			Contribution: contribution,
		})
	}

	return result, nil
}
