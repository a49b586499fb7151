package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/erosion/internal/model"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS weekly_aggregates (
	category TEXT NOT NULL,
	week_of TEXT NOT NULL,
	week_end TEXT NOT NULL,
	aggregate_score REAL NOT NULL,
	item_count INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (category, week_of)
);
CREATE TABLE IF NOT EXISTS trend_points (
	category TEXT NOT NULL,
	keyword TEXT NOT NULL,
	week_of TEXT NOT NULL,
	current_count INTEGER NOT NULL,
	baseline_mean REAL NOT NULL,
	baseline_stddev REAL NOT NULL,
	ratio REAL NOT NULL,
	PRIMARY KEY (category, keyword, week_of)
);
CREATE TABLE IF NOT EXISTS assessments (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	status TEXT NOT NULL,
	assessed_at INTEGER NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assessments_category ON assessments(category, assessed_at);
`

// weekLayout keys weeks by their Monday; the text form sorts chronologically
const weekLayout = "2006-01-02"

// SQLiteStore implements Store on SQLite
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// One connection: writes serialize and :memory: stays a single database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return New(db), nil
}

// New wraps an existing database handle. The schema must already exist.
func New(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveWeeklyAggregate(ctx context.Context, agg model.WeeklyAggregate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weekly_aggregates (category, week_of, week_end, aggregate_score, item_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, week_of) DO UPDATE SET
			week_end = excluded.week_end,
			aggregate_score = excluded.aggregate_score,
			item_count = excluded.item_count,
			updated_at = excluded.updated_at`,
		agg.Category,
		weekKey(agg.WeekOf),
		agg.WeekEnd.UTC().Format(time.RFC3339Nano),
		agg.AggregateScore,
		agg.ItemCount,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save weekly aggregate %s/%s: %w", agg.Category, weekKey(agg.WeekOf), err)
	}
	return nil
}

func (s *SQLiteStore) QueryWeeklyAggregates(ctx context.Context, filter AggregateFilter) ([]model.WeeklyAggregate, error) {
	where, args := weekRange("category = ?", []any{filter.Category}, filter.From, filter.To)
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, week_of, week_end, aggregate_score, item_count
		FROM weekly_aggregates WHERE `+where+` ORDER BY week_of`, args...)
	if err != nil {
		return nil, fmt.Errorf("query weekly aggregates: %w", err)
	}
	defer rows.Close()

	var out []model.WeeklyAggregate
	for rows.Next() {
		var (
			agg           model.WeeklyAggregate
			weekOf, endAt string
		)
		if err := rows.Scan(&agg.Category, &weekOf, &endAt, &agg.AggregateScore, &agg.ItemCount); err != nil {
			return nil, fmt.Errorf("scan weekly aggregate: %w", err)
		}
		if agg.WeekOf, err = time.Parse(weekLayout, weekOf); err != nil {
			return nil, fmt.Errorf("parse week_of %q: %w", weekOf, err)
		}
		if agg.WeekEnd, err = time.Parse(time.RFC3339Nano, endAt); err != nil {
			return nil, fmt.Errorf("parse week_end %q: %w", endAt, err)
		}
		out = append(out, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query weekly aggregates: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) SaveTrendPoints(ctx context.Context, points []model.TrendPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trend points: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range points {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trend_points (category, keyword, week_of, current_count, baseline_mean, baseline_stddev, ratio)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(category, keyword, week_of) DO UPDATE SET
				current_count = excluded.current_count,
				baseline_mean = excluded.baseline_mean,
				baseline_stddev = excluded.baseline_stddev,
				ratio = excluded.ratio`,
			p.Category, p.Keyword, weekKey(p.WeekOf), p.CurrentCount, p.BaselineMean, p.BaselineStddev, p.Ratio,
		)
		if err != nil {
			return fmt.Errorf("save trend point %s/%s: %w", p.Category, p.Keyword, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trend points: %w", err)
	}
	return nil
}

func (s *SQLiteStore) QueryTrendHistory(ctx context.Context, filter TrendFilter) ([]model.TrendPoint, error) {
	cond, args := "category = ?", []any{filter.Category}
	if filter.Keyword != "" {
		cond += " AND keyword = ?"
		args = append(args, filter.Keyword)
	}
	where, args := weekRange(cond, args, filter.From, filter.To)

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, keyword, week_of, current_count, baseline_mean, baseline_stddev, ratio
		FROM trend_points WHERE `+where+` ORDER BY week_of, keyword`, args...)
	if err != nil {
		return nil, fmt.Errorf("query trend history: %w", err)
	}
	defer rows.Close()

	var out []model.TrendPoint
	for rows.Next() {
		var (
			p      model.TrendPoint
			weekOf string
		)
		if err := rows.Scan(&p.Category, &p.Keyword, &weekOf, &p.CurrentCount, &p.BaselineMean, &p.BaselineStddev, &p.Ratio); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		if p.WeekOf, err = time.Parse(weekLayout, weekOf); err != nil {
			return nil, fmt.Errorf("parse week_of %q: %w", weekOf, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query trend history: %w", err)
	}
	return out, nil
}

// SaveAssessment stores the assessment as a JSON snapshot keyed by its ID
func (s *SQLiteStore) SaveAssessment(ctx context.Context, a *model.EnhancedAssessment) error {
	if a == nil {
		return fmt.Errorf("save assessment: nil assessment")
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assessments (id, category, status, assessed_at, payload)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Category, string(a.Status), a.AssessedAt.UnixNano(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("save assessment %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteStore) QueryAssessments(ctx context.Context, filter AssessmentFilter) ([]model.EnhancedAssessment, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "assessed_at >= ?")
		args = append(args, filter.Since.UnixNano())
	}

	query := "SELECT payload FROM assessments"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY assessed_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var out []model.EnhancedAssessment
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		var a model.EnhancedAssessment
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("decode assessment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	return out, nil
}

func weekKey(t time.Time) string {
	return t.UTC().Format(weekLayout)
}

func weekRange(cond string, args []any, from, to time.Time) (string, []any) {
	if !from.IsZero() {
		cond += " AND week_of >= ?"
		args = append(args, weekKey(from))
	}
	if !to.IsZero() {
		cond += " AND week_of <= ?"
		args = append(args, weekKey(to))
	}
	return cond, args
}

var _ Store = (*SQLiteStore)(nil)
