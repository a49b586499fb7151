package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/erosion/internal/assess"
	"github.com/ppiankov/erosion/internal/cache"
	"github.com/ppiankov/erosion/internal/debate"
	"github.com/ppiankov/erosion/internal/doctype"
	"github.com/ppiankov/erosion/internal/keywords"
	"github.com/ppiankov/erosion/internal/llm"
	"github.com/ppiankov/erosion/internal/metrics"
	"github.com/ppiankov/erosion/internal/model"
	"github.com/ppiankov/erosion/internal/pipeline"
	"github.com/ppiankov/erosion/internal/score"
	"github.com/ppiankov/erosion/internal/source"
	"github.com/ppiankov/erosion/internal/store"
	"github.com/ppiankov/erosion/internal/trends"
	"github.com/ppiankov/erosion/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	evidencePaths  []string
	categoriesFile string
	fromDate       string
	toDate         string
	aiEnabled      bool
	debateEnabled  bool
	jsonOutput     bool
	runTimeout     time.Duration
)

// assessCmd represents the assess command
var assessCmd = &cobra.Command{
	Use:   "assess [category...]",
	Short: "Score, trend and assess categories from evidence files",
	Long: `Assess runs the full pipeline for each category:
- Load evidence items from YAML or JSON files and remote feeds
- Classify each document by type and keyword tier
- Score documents and aggregate them into weekly totals
- Compare keyword frequencies against stored history
- Produce an assessment, optionally framed by AI providers and debated

Categories come from arguments, --categories-file, or every category
found in the evidence files.

Example:
  erosion assess fiscal courts --evidence ./evidence
  erosion assess --evidence ./evidence --categories-file categories.txt --ai
  erosion assess fiscal --evidence items.json --from 2025-01-06 --to 2025-03-30 --json
  erosion assess --evidence https://feeds.example.org/erosion/weekly.yaml`,
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringSliceVar(&evidencePaths, "evidence", nil, "evidence file, directory or http(s) feed URL (repeatable)")
	assessCmd.Flags().StringVar(&categoriesFile, "categories-file", "", "file with one category per line")
	assessCmd.Flags().StringVar(&fromDate, "from", "", "window start, YYYY-MM-DD (default: 12 weeks before --to)")
	assessCmd.Flags().StringVar(&toDate, "to", "", "window end, YYYY-MM-DD (default: today)")
	assessCmd.Flags().BoolVar(&aiEnabled, "ai", false, "frame evidence with the configured AI providers")
	assessCmd.Flags().BoolVar(&debateEnabled, "debate", false, "run a debate for drift and capture statuses")
	assessCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the full result as JSON")
	assessCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "total timeout for the run")

	_ = assessCmd.MarkFlagRequired("evidence")
}

func runAssess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	window, err := parseWindow(fromDate, toDate, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	src, err := loadEvidence(ctx, cfg, evidencePaths, logger)
	if err != nil {
		return err
	}

	categories, err := resolveCategories(args, categoriesFile, src)
	if err != nil {
		return err
	}

	m := metrics.New()
	defer flushMetrics(m)

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	useAI := aiEnabled || cfg.Assessment.AIEnabled
	useDebate := debateEnabled || (cfg.Debate.Enabled && useAI)

	p, err := buildPipeline(ctx, cfg, src, st, m, logger, useAI || useDebate)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Erosion Assessment\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Categories:   %s\n", strings.Join(categories, ", "))
	fmt.Fprintf(os.Stderr, "  Window:       %s to %s\n", window.From.Format(dateLayout), window.To.Format(dateLayout))
	fmt.Fprintf(os.Stderr, "  AI framing:   %v\n", useAI)
	fmt.Fprintf(os.Stderr, "  Debate:       %v\n", useDebate)
	fmt.Fprintf(os.Stderr, "\n")

	result, err := p.Run(ctx, pipeline.Options{
		Categories:    categories,
		Window:        window,
		HalfLifeWeeks: cfg.Scoring.HalfLifeWeeks,
		AIEnabled:     useAI,
		DebateEnabled: useDebate,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

// buildPipeline wires every collaborator from config. With checkProviders
// set, providers failing their availability check are left out.
func buildPipeline(ctx context.Context, cfg *model.Config, src source.Source, st store.Store, m *metrics.Metrics, logger *zap.Logger, checkProviders bool) (*pipeline.Pipeline, error) {
	kw, err := buildKeywords(cfg)
	if err != nil {
		return nil, err
	}

	registry := llm.BuildRegistry(ctx, cfg.LLM, logger)
	if registry.Len() > 0 {
		logger.Debug("providers configured", zap.String("registry", registry.String()))
	}
	providers := worker.ThrottleAll(usableProviders(ctx, registry, checkProviders, logger), worker.LimiterFromConfig(cfg.LLM))

	readThrough := cache.NewReadThrough(cache.New(cfg.Cache, logger), logger, m)

	coordinator := assess.NewCoordinator(assess.Deps{
		Keywords:  kw,
		Providers: providers,
		Preferred: registry.Preferred(),
		Debate:    debate.NewEngine(providers, debate.OptionsFromConfig(cfg.Debate), logger, m),
		Cache:     readThrough,
		Config:    cfg.Assessment,
		Metrics:   m,
		Logger:    logger,
	})

	return pipeline.New(pipeline.Deps{
		Source:   src,
		Store:    st,
		Assessor: coordinator,
		Keywords: kw,
		DocTypes: doctype.NewClassifier(nil),
		Scorer:   score.NewScorer(score.WeightsFromConfig(cfg.Scoring)),
		Detector: trends.NewDetector(cfg.Trends),
		Workers:  cfg.Concurrency.Workers,
		Metrics:  m,
		Logger:   logger,
	}), nil
}

// usableProviders returns the registry's providers, dropping any whose
// availability check fails when check is set
func usableProviders(ctx context.Context, registry *llm.Registry, check bool, logger *zap.Logger) []llm.Provider {
	if !check {
		return registry.Providers()
	}
	available := registry.Available(ctx)
	if len(available) < registry.Len() {
		names := make(map[string]bool, len(available))
		for _, p := range available {
			names[p.Name()] = true
		}
		for _, name := range registry.Names() {
			if !names[name] {
				logger.Warn("provider unavailable, leaving it out", zap.String("provider", name))
			}
		}
	}
	return available
}

func buildKeywords(cfg *model.Config) (*keywords.Classifier, error) {
	vocab := keywords.DefaultVocabulary()
	if cfg.Keywords.File != "" {
		loaded, err := keywords.LoadVocabulary(cfg.Keywords.File)
		if err != nil {
			return nil, err
		}
		vocab = loaded
	}
	matchers := keywords.NewMatcherCache()
	matchers.Warm(vocab)
	return keywords.NewClassifier(vocab, matchers), nil
}

// loadEvidence reads local evidence files and fetches remote feeds into
// one source
func loadEvidence(ctx context.Context, cfg *model.Config, paths []string, logger *zap.Logger) (*source.FileSource, error) {
	var files, feeds []string
	for _, p := range paths {
		if source.IsFeedURL(p) {
			feeds = append(feeds, p)
		} else {
			files = append(files, p)
		}
	}

	local, err := source.LoadFiles(files...)
	if err != nil {
		return nil, err
	}
	if len(feeds) == 0 {
		return local, nil
	}

	remote, err := source.NewHTTPSource(feeds, cfg.Sources, logger).Load(ctx)
	if err != nil {
		return nil, err
	}
	return source.Merge(local, remote), nil
}

// resolveCategories prefers explicit arguments, then the categories file,
// then every category present in the evidence
func resolveCategories(args []string, file string, src *source.FileSource) ([]string, error) {
	categories := append([]string(nil), args...)
	if file != "" {
		lines, err := worker.ReadLines(file)
		if err != nil {
			return nil, err
		}
		categories = append(categories, lines...)
	}
	if len(categories) == 0 {
		categories = src.Categories()
	}
	if len(categories) == 0 {
		return nil, model.NewValidationError("categories", "no categories given and none found in evidence")
	}
	return categories, nil
}

func printResult(w io.Writer, result *pipeline.Result) {
	for _, report := range result.Categories {
		fmt.Fprintf(w, "── %s ──\n", report.Category)
		if a := report.Assessment; a != nil {
			fmt.Fprintf(w, "  Status:       %s\n", a.Status)
			fmt.Fprintf(w, "  Reason:       %s\n", a.Reason)
			fmt.Fprintf(w, "  Coverage:     %.0f%%\n", a.DataCoverage*100)
			if len(a.ProvidersUsed) > 0 {
				fmt.Fprintf(w, "  Providers:    %s\n", strings.Join(a.ProvidersUsed, ", "))
			}
		}
		fmt.Fprintf(w, "  Documents:    %d\n", len(report.Scores))
		fmt.Fprintf(w, "  Cumulative:   %.2f (half-life %.1f weeks)\n", report.Cumulative.Score, report.Cumulative.HalfLifeWeeks)

		for _, agg := range report.Aggregates {
			if agg.ItemCount == 0 {
				continue
			}
			fmt.Fprintf(w, "    week of %s  score %6.2f  items %d\n", agg.WeekOf.Format(dateLayout), agg.AggregateScore, agg.ItemCount)
		}

		if len(report.Anomalies) > 0 {
			fmt.Fprintf(w, "  Anomalies:\n")
			for _, an := range report.Anomalies {
				fmt.Fprintf(w, "    [%s] %s\n", an.Severity, an.Message)
			}
		}

		if a := report.Assessment; a != nil && a.Debate != nil {
			fmt.Fprintf(w, "  Debate:       %s", a.Debate.Outcome)
			if a.Debate.Outcome == model.DebateCompleted {
				fmt.Fprintf(w, " (%s, agreement %d/10)", a.Debate.Verdict, a.Debate.AgreementLevel)
			}
			fmt.Fprintf(w, "\n")
		}
		fmt.Fprintf(w, "\n")
	}
}
