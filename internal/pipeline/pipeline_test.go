package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/erosion/internal/assess"
	"github.com/ppiankov/erosion/internal/model"
	"github.com/ppiankov/erosion/internal/source"
	"github.com/ppiankov/erosion/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func at(month time.Month, day int) *time.Time {
	t := time.Date(2025, month, day, 14, 0, 0, 0, time.UTC)
	return &t
}

var window = model.DateRange{
	From: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2025, 3, 23, 23, 59, 59, 0, time.UTC),
}

func testSource() *source.FileSource {
	return source.NewFileSource(map[string][]model.EvidenceItem{
		"fiscal": {
			{ID: "omb-1", Title: "Proposed rescission of unobligated balances", Agency: "Office of Management and Budget", PublishedAt: at(3, 4)},
			{ID: "gao-1", Title: "Apportionment footnote review", URL: "https://www.gao.gov/products/b-337137", PublishedAt: at(3, 11)},
			{ID: "fr-1", Title: "Grant deferral", Text: "<p>The agency confirmed an impoundment of grant funds.</p>", PublishedAt: at(3, 18)},
			{ID: "fr-2", Title: "Second deferral", Text: "Another impoundment was reported.", PublishedAt: at(3, 19)},
			{ID: "undated", Title: "Background memo on impoundment"},
		},
		"courts": {
			{ID: "op-1", Title: "Order on emergency application", Agency: "Supreme Court", PublishedAt: at(3, 12)},
		},
	})
}

func openStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "erosion.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newPipeline(t *testing.T, src source.Source, st store.Store) *Pipeline {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return New(Deps{
		Source:   src,
		Store:    st,
		Assessor: assess.NewCoordinator(assess.Deps{Logger: logger}),
		Workers:  2,
		Logger:   logger,
	})
}

func defaultOptions() Options {
	return Options{
		Categories:    []string{"fiscal", "courts"},
		Window:        window,
		HalfLifeWeeks: 8,
	}
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	p := newPipeline(t, testSource(), st)

	result, err := p.Run(ctx, defaultOptions())
	require.NoError(t, err)
	require.Len(t, result.Categories, 2)

	fiscal := result.Categories[0]
	assert.Equal(t, "fiscal", fiscal.Category)
	require.Len(t, fiscal.Aggregates, 3)
	assert.Equal(t, 1, fiscal.Aggregates[0].ItemCount)
	assert.Equal(t, 2, fiscal.Aggregates[2].ItemCount, "undated items are left out of the window")
	assert.InDelta(t, 4.0, fiscal.Aggregates[2].AggregateScore, 1e-9)

	byID := map[string]model.DocumentScore{}
	for _, s := range fiscal.Scores {
		byID[s.DocumentID] = s
		assert.NotEmpty(t, s.Formula)
	}
	assert.Equal(t, model.ClassReport, byID["gao-1"].DocumentClass)

	assert.Greater(t, fiscal.Cumulative.Score, 0.0)
	assert.Len(t, fiscal.Cumulative.Contributions, 3)

	require.Len(t, fiscal.Anomalies, 1)
	assert.Equal(t, "impoundment", fiscal.Anomalies[0].Keyword)
	assert.Equal(t, model.AnomalyMedium, fiscal.Anomalies[0].Severity)

	require.NotNil(t, fiscal.Assessment)
	assert.Equal(t, model.StatusDrift, fiscal.Assessment.Status)
	assert.Len(t, fiscal.Assessment.TrendAnomalies, 1)
	assert.NoError(t, assess.Validate(fiscal.Assessment))

	courts := result.Categories[1]
	assert.Equal(t, model.ClassCourtOpinion, courts.Scores[0].DocumentClass)

	stored, err := st.QueryAssessments(ctx, store.AssessmentFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	history, err := st.QueryTrendHistory(ctx, store.TrendFilter{Category: "fiscal", Keyword: "impoundment"})
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, 2, history[len(history)-1].CurrentCount)
}

func TestRun_RerunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	p := newPipeline(t, testSource(), st)
	opts := defaultOptions()
	opts.Categories = []string{"fiscal"}

	first, err := p.Run(ctx, opts)
	require.NoError(t, err)
	second, err := p.Run(ctx, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Categories[0].Aggregates, second.Categories[0].Aggregates)
	assert.Equal(t, first.Categories[0].Cumulative.Score, second.Categories[0].Cumulative.Score)

	aggs, err := st.QueryWeeklyAggregates(ctx, store.AggregateFilter{Category: "fiscal"})
	require.NoError(t, err)
	assert.Len(t, aggs, 3, "weekly aggregates stay unique per category and week")
}

func TestRun_MidWeekFromKeepsWholeWeeks(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)
	p := newPipeline(t, testSource(), st)
	opts := defaultOptions()
	opts.Categories = []string{"fiscal"}

	_, err := p.Run(ctx, opts)
	require.NoError(t, err)

	opts.Window.From = time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC) // Wednesday
	rerun, err := p.Run(ctx, opts)
	require.NoError(t, err)

	fiscal := rerun.Categories[0]
	require.Len(t, fiscal.Aggregates, 1)
	assert.Equal(t, 2, fiscal.Aggregates[0].ItemCount)
	require.Len(t, fiscal.evidence, 1, "only items inside the requested window are assessed")
	assert.Equal(t, "fr-2", fiscal.evidence[0].ID)

	week := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)
	stored, err := st.QueryWeeklyAggregates(ctx, store.AggregateFilter{Category: "fiscal", From: week, To: week})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 2, stored[0].ItemCount)
	assert.InDelta(t, 4.0, stored[0].AggregateScore, 1e-9)

	history, err := st.QueryTrendHistory(ctx, store.TrendFilter{Category: "fiscal", Keyword: "impoundment", From: week, To: window.To})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].CurrentCount)
}

type failingStore struct {
	*store.SQLiteStore
	err error
}

func (s *failingStore) SaveWeeklyAggregate(context.Context, model.WeeklyAggregate) error {
	return s.err
}

func TestRun_PersistenceFailurePropagates(t *testing.T) {
	dbErr := errors.New("database is locked")
	p := newPipeline(t, testSource(), &failingStore{SQLiteStore: openStore(t), err: dbErr})

	_, err := p.Run(context.Background(), defaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
}

type failingSource struct{}

func (failingSource) List(context.Context, string, model.DateRange) ([]model.EvidenceItem, error) {
	return nil, errors.New("feed unavailable")
}

func TestRun_SourceFailurePropagates(t *testing.T) {
	p := newPipeline(t, failingSource{}, openStore(t))

	_, err := p.Run(context.Background(), defaultOptions())
	assert.ErrorContains(t, err, "feed unavailable")
}

func TestRun_ValidatesOptions(t *testing.T) {
	p := newPipeline(t, testSource(), openStore(t))

	tests := []struct {
		name  string
		field string
		edit  func(*Options)
	}{
		{"no categories", "categories", func(o *Options) { o.Categories = nil }},
		{"blank category", "categories", func(o *Options) { o.Categories = []string{"fiscal", " "} }},
		{"open window", "window", func(o *Options) { o.Window.From = time.Time{} }},
		{"inverted window", "window", func(o *Options) { o.Window.From, o.Window.To = o.Window.To, o.Window.From }},
		{"zero half-life", "half_life_weeks", func(o *Options) { o.HalfLifeWeeks = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions()
			tt.edit(&opts)
			_, err := p.Run(context.Background(), opts)

			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
