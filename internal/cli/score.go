package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/erosion/internal/model"
	"github.com/ppiankov/erosion/internal/score"
	"github.com/ppiankov/erosion/internal/store"
	"github.com/spf13/cobra"
)

var halfLifeWeeks float64

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <category>",
	Short: "Show stored weekly scores and the decayed cumulative score",
	Long: `Score reads the weekly aggregates persisted by previous assess runs and
decays them into a cumulative score as of the end of the window.

Only stored weeks are used; run 'erosion assess' first to populate them.

Example:
  erosion score fiscal
  erosion score courts --from 2025-01-06 --to 2025-06-29 --half-life 4`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&fromDate, "from", "", "window start, YYYY-MM-DD (default: 12 weeks before --to)")
	scoreCmd.Flags().StringVar(&toDate, "to", "", "window end, YYYY-MM-DD (default: today)")
	scoreCmd.Flags().Float64Var(&halfLifeWeeks, "half-life", 0, "decay half-life in weeks (default: scoring.half_life_weeks)")
	scoreCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
}

// scoreReport is the output of the score command
type scoreReport struct {
	Category   string                  `json:"category"`
	Window     model.DateRange         `json:"window"`
	Weeks      []model.WeeklyAggregate `json:"weeks"`
	Cumulative model.CumulativeScore   `json:"cumulative"`
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	window, err := parseWindow(fromDate, toDate, time.Now())
	if err != nil {
		return err
	}

	halfLife := cfg.Scoring.HalfLifeWeeks
	if cmd.Flags().Changed("half-life") {
		halfLife = halfLifeWeeks
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	report, err := buildScoreReport(cmd, st, args[0], window, halfLife)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printScoreReport(cmd.OutOrStdout(), report)
	return nil
}

func buildScoreReport(cmd *cobra.Command, st store.Store, category string, window model.DateRange, halfLife float64) (*scoreReport, error) {
	ctx := cmd.Context()

	weeks, err := st.QueryWeeklyAggregates(ctx, store.AggregateFilter{Category: category, From: window.From, To: window.To})
	if err != nil {
		return nil, err
	}
	// every stored week up to the window end contributes, not just the displayed ones
	history, err := st.QueryWeeklyAggregates(ctx, store.AggregateFilter{Category: category, To: window.To})
	if err != nil {
		return nil, err
	}
	cumulative, err := score.Cumulative(history, window.To, halfLife)
	if err != nil {
		return nil, err
	}
	cumulative.Category = category

	if weeks == nil {
		weeks = []model.WeeklyAggregate{}
	}
	return &scoreReport{Category: category, Window: window, Weeks: weeks, Cumulative: cumulative}, nil
}

func printScoreReport(w io.Writer, r *scoreReport) {
	fmt.Fprintf(w, "── %s ──\n", r.Category)
	fmt.Fprintf(w, "  Window:       %s to %s\n", r.Window.From.Format(dateLayout), r.Window.To.Format(dateLayout))
	if len(r.Weeks) == 0 {
		fmt.Fprintf(w, "  No stored weeks in this window\n")
	}
	for _, agg := range r.Weeks {
		fmt.Fprintf(w, "    week of %s  score %6.2f  items %d\n", agg.WeekOf.Format(dateLayout), agg.AggregateScore, agg.ItemCount)
	}
	fmt.Fprintf(w, "  Cumulative:   %.2f as of week %s (half-life %.1f weeks)\n",
		r.Cumulative.Score, r.Cumulative.AsOfWeek.Format(dateLayout), r.Cumulative.HalfLifeWeeks)
}
