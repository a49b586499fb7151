package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/erosion/internal/model"
	"github.com/ppiankov/erosion/internal/score"
	"github.com/ppiankov/erosion/internal/store"
	"github.com/ppiankov/erosion/internal/trends"
	"github.com/spf13/cobra"
)

var weekDate string

// trendsCmd represents the trends command
var trendsCmd = &cobra.Command{
	Use:   "trends <category>",
	Short: "Show keyword frequency anomalies from stored history",
	Long: `Trends compares one week's stored keyword counts for a category against
the preceding baseline window and lists keywords whose frequency spiked.

Severity thresholds come from the trends section of the config.

Example:
  erosion trends fiscal
  erosion trends civilService --week 2025-03-10`,
	Args: cobra.ExactArgs(1),
	RunE: runTrends,
}

func init() {
	rootCmd.AddCommand(trendsCmd)

	trendsCmd.Flags().StringVar(&weekDate, "week", "", "any day of the week to inspect, YYYY-MM-DD (default: this week)")
	trendsCmd.Flags().BoolVar(&jsonOutput, "json", false, "print anomalies as JSON")
}

func runTrends(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	week := score.WeekOf(time.Now())
	if weekDate != "" {
		t, err := time.Parse(dateLayout, weekDate)
		if err != nil {
			return model.NewValidationError("week", "expected YYYY-MM-DD, got %q", weekDate)
		}
		week = score.WeekOf(t)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	detector := trends.NewDetector(cfg.Trends)
	anomalies, err := storedAnomalies(cmd, st, detector, args[0], week)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(anomalies)
	}
	printAnomalies(cmd.OutOrStdout(), args[0], week, anomalies)
	return nil
}

// storedAnomalies rebuilds the week's counts and baseline from persisted
// trend points and runs detection over them
func storedAnomalies(cmd *cobra.Command, st store.Store, detector *trends.Detector, category string, week time.Time) ([]model.Anomaly, error) {
	from := week.AddDate(0, 0, -7*detector.Window())
	history, err := st.QueryTrendHistory(cmd.Context(), store.TrendFilter{Category: category, From: from, To: week})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, p := range history {
		if score.WeekOf(p.WeekOf).Equal(week) {
			counts[p.Keyword] += p.CurrentCount
		}
	}

	baseline := trends.Baseline(history, week, detector.Window())
	return detector.Detect(trends.CurrentCounts(category, counts), baseline), nil
}

func printAnomalies(w io.Writer, category string, week time.Time, anomalies []model.Anomaly) {
	fmt.Fprintf(w, "── %s, week of %s ──\n", category, week.Format(dateLayout))
	if len(anomalies) == 0 {
		fmt.Fprintf(w, "  No anomalies\n")
		return
	}
	for _, a := range anomalies {
		fmt.Fprintf(w, "  [%-6s] %-32s ratio %5.1fx\n", a.Severity, a.Keyword, a.Ratio)
		fmt.Fprintf(w, "           %s\n", a.Message)
	}
}
