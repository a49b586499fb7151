package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/erosion/internal/llm"
	"github.com/ppiankov/erosion/internal/model"
	"github.com/ppiankov/erosion/internal/pipeline"
	"github.com/ppiankov/erosion/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseWindow(t *testing.T) {
	now := time.Date(2025, 3, 20, 9, 30, 0, 0, time.UTC)

	w, err := parseWindow("2025-03-03", "2025-03-23", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), w.From)
	assert.True(t, w.Contains(time.Date(2025, 3, 23, 23, 59, 0, 0, time.UTC)), "the final day is included")
	assert.False(t, w.Contains(time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC)))

	w, err = parseWindow("", "", now)
	require.NoError(t, err)
	assert.Equal(t, now, w.To)
	assert.Equal(t, time.Monday, w.From.Weekday())
	assert.Equal(t, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), w.From)

	tests := []struct {
		name  string
		from  string
		to    string
		field string
	}{
		{"bad from", "03/01/2025", "", "from"},
		{"bad to", "", "tomorrow", "to"},
		{"from after to", "2025-04-01", "2025-03-01", "from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseWindow(tt.from, tt.to, now)
			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestResolveCategories(t *testing.T) {
	src := source.NewFileSource(map[string][]model.EvidenceItem{
		"fiscal": {{ID: "a"}},
		"courts": {{ID: "b"}},
	})

	got, err := resolveCategories([]string{"igs"}, "", src)
	require.NoError(t, err)
	assert.Equal(t, []string{"igs"}, got)

	got, err = resolveCategories(nil, "", src)
	require.NoError(t, err)
	assert.Equal(t, []string{"courts", "fiscal"}, got)

	file := filepath.Join(t.TempDir(), "categories.txt")
	require.NoError(t, os.WriteFile(file, []byte("# watched\nhatch\n\nmilitary\n"), 0644))
	got, err = resolveCategories([]string{"igs"}, file, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"igs", "hatch", "military"}, got)

	_, err = resolveCategories(nil, "", source.NewFileSource(nil))
	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))
}

const evidenceYAML = `categories:
  fiscal:
    - id: omb-1
      title: Proposed rescission of unobligated balances
      agency: Office of Management and Budget
      published_at: 2025-03-04T14:00:00Z
    - id: fr-1
      title: Grant deferral
      text: The agency confirmed an impoundment of grant funds.
      published_at: 2025-03-18T14:00:00Z
    - id: fr-2
      title: Second deferral
      text: Another impoundment was reported.
      published_at: 2025-03-19T14:00:00Z
`

func setupWorkspace(t *testing.T) (configPath, evidenceDir string) {
	t.Helper()
	dir := t.TempDir()

	evidenceDir = filepath.Join(dir, "evidence")
	require.NoError(t, os.MkdirAll(evidenceDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(evidenceDir, "fiscal.yaml"), []byte(evidenceYAML), 0644))

	configPath = filepath.Join(dir, "config.yaml")
	cfg := "store:\n  path: " + filepath.Join(dir, "erosion.db") + "\ncache:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0644))
	return configPath, evidenceDir
}

func execute(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.Bytes()
}

func TestCommands_AssessThenScoreAndTrends(t *testing.T) {
	configPath, evidenceDir := setupWorkspace(t)
	metricsPath := filepath.Join(t.TempDir(), "erosion.prom")

	out := execute(t, "--config", configPath, "--metrics-file", metricsPath,
		"assess", "fiscal", "--evidence", evidenceDir,
		"--from", "2025-03-03", "--to", "2025-03-23", "--json")

	var result pipeline.Result
	require.NoError(t, json.Unmarshal(out, &result))
	require.Len(t, result.Categories, 1)
	fiscal := result.Categories[0]
	require.NotNil(t, fiscal.Assessment)
	assert.Equal(t, model.StatusDrift, fiscal.Assessment.Status)
	assert.Len(t, fiscal.Aggregates, 3)

	metricsText, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), "erosion_assessments_total")

	out = execute(t, "--config", configPath, "score", "fiscal",
		"--from", "2025-03-03", "--to", "2025-03-23", "--json")
	var report scoreReport
	require.NoError(t, json.Unmarshal(out, &report))
	assert.Equal(t, "fiscal", report.Category)
	assert.Len(t, report.Weeks, 3)
	assert.Greater(t, report.Cumulative.Score, 0.0)
	assert.Equal(t, time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), report.Cumulative.AsOfWeek)

	out = execute(t, "--config", configPath, "trends", "fiscal", "--week", "2025-03-19", "--json")
	var anomalies []model.Anomaly
	require.NoError(t, json.Unmarshal(out, &anomalies))
	require.Len(t, anomalies, 1)
	assert.Equal(t, "impoundment", anomalies[0].Keyword)
	assert.Equal(t, model.AnomalyMedium, anomalies[0].Severity)
}

type statusProvider struct {
	name string
	up   bool
}

func (p statusProvider) Name() string { return p.name }

func (p statusProvider) Complete(context.Context, string, string) (string, error) { return "{}", nil }

func (p statusProvider) IsAvailable(context.Context) bool { return p.up }

func TestUsableProviders(t *testing.T) {
	registry := llm.NewRegistry([]llm.Provider{
		statusProvider{name: "anthropic", up: true},
		statusProvider{name: "openai", up: false},
		statusProvider{name: "gemini", up: true},
	}, "anthropic")
	logger := zaptest.NewLogger(t)

	got := usableProviders(context.Background(), registry, true, logger)
	require.Len(t, got, 2)
	assert.Equal(t, "anthropic", got[0].Name())
	assert.Equal(t, "gemini", got[1].Name(), "unreachable providers do not take a debate seat")

	assert.Len(t, usableProviders(context.Background(), registry, false, logger), 3)
}

func TestPrintResult(t *testing.T) {
	result := &pipeline.Result{Categories: []*pipeline.CategoryReport{{
		Category: "courts",
		Assessment: &model.EnhancedAssessment{
			Category: "courts",
			Status:   model.StatusWarning,
			Reason:   "warning-tier keywords matched: injunction",
		},
		Anomalies: []model.Anomaly{{Keyword: "injunction", Severity: model.AnomalyLow, Message: "spike"}},
	}}}

	var buf bytes.Buffer
	printResult(&buf, result)
	assert.Contains(t, buf.String(), "── courts ──")
	assert.Contains(t, buf.String(), "Status:       Warning")
	assert.Contains(t, buf.String(), "[low] spike")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".erosion", "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Erosion Configuration File")
	assert.Contains(t, string(data), "half_life_weeks:")

	assert.Error(t, writeDefaultConfig(path), "existing files are not overwritten")
}
