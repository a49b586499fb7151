// Package store persists weekly aggregates, trend history and assessment
// snapshots. It owns save and query only; retention and document storage
// live elsewhere.
package store

import (
	"context"
	"time"

	"github.com/ppiankov/erosion/internal/model"
)

// Store is the persistence collaborator used by the pipeline
type Store interface {
	// SaveWeeklyAggregate upserts on (category, week)
	SaveWeeklyAggregate(ctx context.Context, agg model.WeeklyAggregate) error
	QueryWeeklyAggregates(ctx context.Context, filter AggregateFilter) ([]model.WeeklyAggregate, error)

	// SaveTrendPoints upserts on (category, keyword, week)
	SaveTrendPoints(ctx context.Context, points []model.TrendPoint) error
	QueryTrendHistory(ctx context.Context, filter TrendFilter) ([]model.TrendPoint, error)

	SaveAssessment(ctx context.Context, a *model.EnhancedAssessment) error
	QueryAssessments(ctx context.Context, filter AssessmentFilter) ([]model.EnhancedAssessment, error)

	Close() error
}

// AggregateFilter selects weekly aggregates whose week starts within
// [From, To]. Zero times leave that end open.
type AggregateFilter struct {
	Category string
	From     time.Time
	To       time.Time
}

// TrendFilter selects trend points. An empty Keyword matches every keyword.
type TrendFilter struct {
	Category string
	Keyword  string
	From     time.Time
	To       time.Time
}

// AssessmentFilter selects assessment snapshots, newest first
type AssessmentFilter struct {
	Category string
	Since    time.Time
	Limit    int
}
