package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/erosion/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "erosion.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func monday(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeeklyAggregates_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	w1 := model.WeeklyAggregate{
		Category:       "fiscal",
		WeekOf:         monday(2025, 3, 3),
		WeekEnd:        monday(2025, 3, 10).Add(-time.Nanosecond),
		AggregateScore: 12.5,
		ItemCount:      3,
	}
	w2 := w1
	w2.WeekOf = monday(2025, 3, 10)
	w2.WeekEnd = monday(2025, 3, 17).Add(-time.Nanosecond)
	other := w1
	other.Category = "courts"

	for _, agg := range []model.WeeklyAggregate{w2, w1, other} {
		require.NoError(t, s.SaveWeeklyAggregate(ctx, agg))
	}

	// Recomputed week replaces the stored row
	w1.AggregateScore = 14
	w1.ItemCount = 4
	require.NoError(t, s.SaveWeeklyAggregate(ctx, w1))

	got, err := s.QueryWeeklyAggregates(ctx, AggregateFilter{Category: "fiscal"})
	require.NoError(t, err)
	if diff := cmp.Diff([]model.WeeklyAggregate{w1, w2}, got); diff != "" {
		t.Errorf("aggregates mismatch (-want +got):\n%s", diff)
	}

	got, err = s.QueryWeeklyAggregates(ctx, AggregateFilter{Category: "fiscal", From: monday(2025, 3, 10)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].WeekOf.Equal(w2.WeekOf))

	got, err = s.QueryWeeklyAggregates(ctx, AggregateFilter{Category: "fiscal", To: monday(2025, 3, 9)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].WeekOf.Equal(w1.WeekOf))
}

func TestTrendPoints_SaveAndHistory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	points := []model.TrendPoint{
		{Keyword: "impoundment", Category: "fiscal", WeekOf: monday(2025, 3, 3), CurrentCount: 2, BaselineMean: 1, Ratio: 2},
		{Keyword: "rescission", Category: "fiscal", WeekOf: monday(2025, 3, 3), CurrentCount: 1, BaselineMean: 0.5, Ratio: 2},
		{Keyword: "impoundment", Category: "fiscal", WeekOf: monday(2025, 3, 10), CurrentCount: 6, BaselineMean: 1.2, BaselineStddev: 0.4, Ratio: 5},
	}
	require.NoError(t, s.SaveTrendPoints(ctx, points))
	require.NoError(t, s.SaveTrendPoints(ctx, nil))

	// Re-saving a week overwrites its count
	points[0].CurrentCount = 3
	require.NoError(t, s.SaveTrendPoints(ctx, points[:1]))

	all, err := s.QueryTrendHistory(ctx, TrendFilter{Category: "fiscal"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "impoundment", all[0].Keyword)
	assert.Equal(t, 3, all[0].CurrentCount)
	assert.Equal(t, "rescission", all[1].Keyword)

	one, err := s.QueryTrendHistory(ctx, TrendFilter{Category: "fiscal", Keyword: "impoundment", From: monday(2025, 3, 10)})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, 6, one[0].CurrentCount)
	assert.InDelta(t, 0.4, one[0].BaselineStddev, 1e-12)

	none, err := s.QueryTrendHistory(ctx, TrendFilter{Category: "courts"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAssessments_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	older := &model.EnhancedAssessment{
		ID:         "a-1",
		Category:   "fiscal",
		Status:     model.StatusWarning,
		Reason:     "warning-tier keywords matched: rescission",
		Matches:    []string{"rescission"},
		AssessedAt: time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC),
	}
	newer := &model.EnhancedAssessment{
		ID:         "a-2",
		Category:   "fiscal",
		Status:     model.StatusDrift,
		Matches:    []string{"impoundment"},
		AssessedAt: time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC),
		Extra:      map[string]json.RawMessage{"dashboardNote": json.RawMessage(`"kept"`)},
	}
	courts := &model.EnhancedAssessment{ID: "a-3", Category: "courts", Status: model.StatusStable, AssessedAt: newer.AssessedAt}

	for _, a := range []*model.EnhancedAssessment{older, newer, courts} {
		require.NoError(t, s.SaveAssessment(ctx, a))
	}

	got, err := s.QueryAssessments(ctx, AssessmentFilter{Category: "fiscal"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a-2", got[0].ID, "newest first")
	assert.Equal(t, json.RawMessage(`"kept"`), got[0].Extra["dashboardNote"])
	assert.True(t, got[1].AssessedAt.Equal(older.AssessedAt))

	latest, err := s.QueryAssessments(ctx, AssessmentFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, latest, 1)

	since, err := s.QueryAssessments(ctx, AssessmentFilter{Category: "fiscal", Since: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, model.StatusDrift, since[0].Status)

	assert.Error(t, s.SaveAssessment(ctx, nil))
}

func TestSaveWeeklyAggregate_PropagatesDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	dbErr := errors.New("disk I/O error")
	mock.ExpectExec("INSERT INTO weekly_aggregates").
		WithArgs("fiscal", "2025-03-03", sqlmock.AnyArg(), 4.0, 1, sqlmock.AnyArg()).
		WillReturnError(dbErr)

	s := New(db)
	err = s.SaveWeeklyAggregate(context.Background(), model.WeeklyAggregate{
		Category: "fiscal", WeekOf: monday(2025, 3, 3), AggregateScore: 4, ItemCount: 1,
	})
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveTrendPoints_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO trend_points").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO trend_points").WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	s := New(db)
	err = s.SaveTrendPoints(context.Background(), []model.TrendPoint{
		{Keyword: "a", Category: "fiscal", WeekOf: monday(2025, 3, 3)},
		{Keyword: "b", Category: "fiscal", WeekOf: monday(2025, 3, 3)},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQueryWeeklyAggregates_RejectsCorruptRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM weekly_aggregates").
		WithArgs("fiscal").
		WillReturnRows(sqlmock.NewRows([]string{"category", "week_of", "week_end", "aggregate_score", "item_count"}).
			AddRow("fiscal", "not-a-week", "2025-03-09T23:59:59Z", 1.0, 1))

	_, err = New(db).QueryWeeklyAggregates(context.Background(), AggregateFilter{Category: "fiscal"})
	if err == nil {
		t.Fatal("expected parse error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
