package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/erosion/internal/logging"
	"github.com/ppiankov/erosion/internal/metrics"
	"github.com/ppiankov/erosion/internal/model"
	"github.com/ppiankov/erosion/internal/score"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// defaultWindowWeeks is how far back commands look when --from is unset
const defaultWindowWeeks = 12

var envKeyReplacer = strings.NewReplacer(".", "_")

// loadConfig overlays the viper config (file, env) on the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

func newLogger(cfg *model.Config) *zap.Logger {
	logger, err := logging.New(cfg.Output.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: falling back to silent logging: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

// flushMetrics writes the textfile when --metrics-file is set
func flushMetrics(m *metrics.Metrics) {
	if metricsFile == "" {
		return
	}
	if err := m.WriteTextfile(metricsFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// parseWindow turns --from/--to flags into a date range. An empty to means
// now; an empty from means defaultWindowWeeks before the week of to.
func parseWindow(from, to string, now time.Time) (model.DateRange, error) {
	var window model.DateRange

	end := now.UTC()
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return window, model.NewValidationError("to", "expected YYYY-MM-DD, got %q", to)
		}
		// include the whole final day
		end = t.Add(24*time.Hour - time.Nanosecond)
	}

	start := score.WeekOf(end).AddDate(0, 0, -7*(defaultWindowWeeks-1))
	if from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return window, model.NewValidationError("from", "expected YYYY-MM-DD, got %q", from)
		}
		start = t
	}

	if start.After(end) {
		return window, model.NewValidationError("from", "must not be after to")
	}
	window.From = start
	window.To = end
	return window, nil
}
