// Package pipeline runs the end-to-end assessment for a set of categories:
// list evidence, classify and score it, aggregate and persist weekly
// scores, detect trend anomalies against stored history, then assess.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/erosion/internal/assess"
	"github.com/ppiankov/erosion/internal/doctype"
	"github.com/ppiankov/erosion/internal/extract"
	"github.com/ppiankov/erosion/internal/keywords"
	"github.com/ppiankov/erosion/internal/metrics"
	"github.com/ppiankov/erosion/internal/model"
	"github.com/ppiankov/erosion/internal/score"
	"github.com/ppiankov/erosion/internal/source"
	"github.com/ppiankov/erosion/internal/store"
	"github.com/ppiankov/erosion/internal/trends"
	"github.com/ppiankov/erosion/internal/worker"
	"go.uber.org/zap"
)

// Deps are the pipeline's collaborators. Source, Store and Assessor are required.
type Deps struct {
	Source   source.Source
	Store    store.Store
	Assessor worker.Assessor
	Keywords *keywords.Classifier
	DocTypes *doctype.Classifier
	Scorer   *score.Scorer
	Detector *trends.Detector
	Workers  int
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Options select what one run covers
type Options struct {
	Categories    []string
	Window        model.DateRange // Evidence window; its last week is the current week for trends
	HalfLifeWeeks float64
	AIEnabled     bool
	DebateEnabled bool
}

// CategoryReport is everything one run produced for a category
type CategoryReport struct {
	Category   string                    `json:"category"`
	Scores     []model.DocumentScore     `json:"scores"`
	Aggregates []model.WeeklyAggregate   `json:"aggregates"`
	Cumulative model.CumulativeScore     `json:"cumulative"`
	Anomalies  []model.Anomaly           `json:"anomalies"`
	Assessment *model.EnhancedAssessment `json:"assessment"`
	evidence   []model.EvidenceItem
}

// Result is the output of a run, one report per category in request order
type Result struct {
	Window     model.DateRange   `json:"window"`
	Categories []*CategoryReport `json:"categories"`
}

// Pipeline orchestrates a run
type Pipeline struct {
	deps Deps
}

// New creates a pipeline
func New(deps Deps) *Pipeline {
	if deps.Keywords == nil {
		deps.Keywords = keywords.NewClassifier(nil, nil)
	}
	if deps.DocTypes == nil {
		deps.DocTypes = doctype.NewClassifier(nil)
	}
	if deps.Scorer == nil {
		deps.Scorer = score.NewScorer(score.DefaultWeights())
	}
	if deps.Detector == nil {
		deps.Detector = trends.NewDetector(model.TrendsConfig{})
	}
	if deps.Workers <= 0 {
		deps.Workers = 1
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{deps: deps}
}

// Run executes the pipeline. Persistence and source failures abort the
// run and are returned; AI failures only degrade assessments.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	type categoryOutcome struct {
		report *CategoryReport
		err    error
	}
	outcomes := worker.Map(ctx, p.deps.Workers, opts.Categories, func(ctx context.Context, category string) categoryOutcome {
		report, err := p.runCategory(ctx, category, opts)
		return categoryOutcome{report: report, err: err}
	})

	result := &Result{Window: opts.Window}
	reqs := make([]assess.Request, 0, len(outcomes))
	for i, o := range outcomes {
		if o.err != nil {
			return nil, fmt.Errorf("category %s: %w", opts.Categories[i], o.err)
		}
		if o.report == nil {
			return nil, fmt.Errorf("category %s: %w", opts.Categories[i], ctxErr(ctx))
		}
		result.Categories = append(result.Categories, o.report)
		reqs = append(reqs, assess.Request{
			Category:      o.report.Category,
			Evidence:      o.report.evidence,
			Anomalies:     o.report.Anomalies,
			AIEnabled:     opts.AIEnabled,
			DebateEnabled: opts.DebateEnabled,
		})
	}

	batch := worker.NewBatchAssessor(p.deps.Assessor, p.deps.Workers)
	for i, res := range batch.AssessAll(ctx, reqs) {
		if res.Error != nil {
			return nil, fmt.Errorf("assess %s: %w", res.Category, res.Error)
		}
		if err := p.deps.Store.SaveAssessment(ctx, res.Assessment); err != nil {
			return nil, fmt.Errorf("persist assessment: %w", err)
		}
		result.Categories[i].Assessment = res.Assessment
	}

	return result, nil
}

func (p *Pipeline) runCategory(ctx context.Context, category string, opts Options) (*CategoryReport, error) {
	logger := p.deps.Logger.With(zap.String("category", category))

	// Persisted weeks are whole; a mid-week From is widened to its Monday.
	// Only the assessment sees the requested window.
	weeks := model.DateRange{From: score.WeekOf(opts.Window.From), To: opts.Window.To}

	items, err := p.deps.Source.List(ctx, category, weeks)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	items = p.normalize(items)

	scores := worker.Map(ctx, p.deps.Workers, items, func(_ context.Context, item model.EvidenceItem) model.DocumentScore {
		match := p.deps.Keywords.Classify(item.Content(), category)
		p.deps.Metrics.ObserveDocument(category, string(item.DocumentClass))
		return p.deps.Scorer.ScoreDocument(item, match, category)
	})

	aggregates := score.AggregateRange(category, weeks.From, weeks.To, scores)
	for _, agg := range aggregates {
		if err := p.deps.Store.SaveWeeklyAggregate(ctx, agg); err != nil {
			return nil, fmt.Errorf("persist aggregate: %w", err)
		}
	}

	stored, err := p.deps.Store.QueryWeeklyAggregates(ctx, store.AggregateFilter{Category: category, To: opts.Window.To})
	if err != nil {
		return nil, fmt.Errorf("load aggregates: %w", err)
	}
	cumulative, err := score.Cumulative(stored, opts.Window.To, opts.HalfLifeWeeks)
	if err != nil {
		return nil, err
	}

	anomalies, err := p.trends(ctx, category, weeks, items)
	if err != nil {
		return nil, err
	}
	for _, a := range anomalies {
		p.deps.Metrics.ObserveAnomaly(category, string(a.Severity))
	}

	logger.Info("category scored",
		zap.Int("items", len(items)),
		zap.Int("weeks", len(aggregates)),
		zap.Float64("cumulative", cumulative.Score),
		zap.Int("anomalies", len(anomalies)))

	return &CategoryReport{
		Category:   category,
		Scores:     scores,
		Aggregates: aggregates,
		Cumulative: cumulative,
		Anomalies:  anomalies,
		evidence:   within(items, opts.Window),
	}, nil
}

// within keeps the items published inside window
func within(items []model.EvidenceItem, window model.DateRange) []model.EvidenceItem {
	out := make([]model.EvidenceItem, 0, len(items))
	for _, item := range items {
		if item.PublishedAt != nil && window.Contains(*item.PublishedAt) {
			out = append(out, item)
		}
	}
	return out
}

// normalize reduces bodies to visible text and fills document classes
func (p *Pipeline) normalize(items []model.EvidenceItem) []model.EvidenceItem {
	out := make([]model.EvidenceItem, len(items))
	for i, item := range items {
		item.Title = extract.VisibleText(item.Title)
		item.Text = extract.VisibleText(item.Text)
		out[i] = item
	}
	return p.deps.DocTypes.ClassifyAll(out)
}

// trends walks the window's weeks oldest first. Each week's keyword counts
// are compared with the stored history before it and saved as history for
// the weeks that follow. Anomalies are reported for the last week only.
func (p *Pipeline) trends(ctx context.Context, category string, window model.DateRange, items []model.EvidenceItem) ([]model.Anomaly, error) {
	spans := score.ChunkWeeks(window.From, window.To)
	if len(spans) == 0 {
		return []model.Anomaly{}, nil
	}

	historyFrom := spans[0].Start.AddDate(0, 0, -7*p.deps.Detector.Window())
	history, err := p.deps.Store.QueryTrendHistory(ctx, store.TrendFilter{Category: category, From: historyFrom, To: window.To})
	if err != nil {
		return nil, fmt.Errorf("load trend history: %w", err)
	}

	var anomalies []model.Anomaly
	for i, span := range spans {
		counts := make(map[string]int)
		for _, item := range items {
			if item.PublishedAt == nil || !span.Contains(*item.PublishedAt) {
				continue
			}
			for kw, n := range p.deps.Keywords.CountOccurrences(item.Content(), category) {
				counts[kw] += n
			}
		}

		current := trends.CurrentCounts(category, counts)
		baseline := trends.Baseline(history, span.Start, p.deps.Detector.Window())
		points := p.deps.Detector.Points(span.Start, current, baseline)
		if err := p.deps.Store.SaveTrendPoints(ctx, points); err != nil {
			return nil, fmt.Errorf("persist trend points: %w", err)
		}
		history = replaceWeek(history, span.Start, points)

		if i == len(spans)-1 {
			anomalies = p.deps.Detector.Detect(current, baseline)
		}
	}
	return anomalies, nil
}

// replaceWeek drops history for week and appends points in its place
func replaceWeek(history []model.TrendPoint, week time.Time, points []model.TrendPoint) []model.TrendPoint {
	week = score.WeekOf(week)
	out := history[:0:0]
	for _, h := range history {
		if !score.WeekOf(h.WeekOf).Equal(week) {
			out = append(out, h)
		}
	}
	return append(out, points...)
}

func validateOptions(opts Options) error {
	if len(opts.Categories) == 0 {
		return model.NewValidationError("categories", "at least one category is required")
	}
	for _, c := range opts.Categories {
		if strings.TrimSpace(c) == "" {
			return model.NewValidationError("categories", "category names must not be empty")
		}
	}
	if opts.Window.From.IsZero() || opts.Window.To.IsZero() {
		return model.NewValidationError("window", "both ends of the window are required")
	}
	if opts.Window.To.Before(opts.Window.From) {
		return model.NewValidationError("window", "window ends before it starts")
	}
	if opts.HalfLifeWeeks <= 0 {
		return model.NewValidationError("half_life_weeks", "must be positive, got %v", opts.HalfLifeWeeks)
	}
	return nil
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("category was not processed")
}
