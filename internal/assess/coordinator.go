// Package assess composes keyword classification, AI framing, debate and
// trend anomalies into one EnhancedAssessment per category.
//
// The keyword classifier result is a floor: AI output may escalate a
// category's status but never lower it, and an assessment is produced even
// when every AI provider fails.
package assess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/erosion/internal/cache"
	"github.com/ppiankov/erosion/internal/debate"
	"github.com/ppiankov/erosion/internal/extract"
	"github.com/ppiankov/erosion/internal/keywords"
	"github.com/ppiankov/erosion/internal/llm"
	"github.com/ppiankov/erosion/internal/metrics"
	"github.com/ppiankov/erosion/internal/model"
	"go.uber.org/zap"
)

// Deps are the coordinator's collaborators. Only Keywords is required.
type Deps struct {
	Keywords  *keywords.Classifier
	Providers []llm.Provider
	Preferred string
	Debate    *debate.Engine
	Cache     *cache.ReadThrough
	CacheTTL  time.Duration
	Config    model.AssessmentConfig
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// Request is one category's assessment input
type Request struct {
	Category      string
	Evidence      []model.EvidenceItem
	Anomalies     []model.Anomaly
	AIEnabled     bool
	DebateEnabled bool
}

// Coordinator produces assessments
type Coordinator struct {
	deps Deps
}

var errNoFraming = errors.New("no provider produced a usable framing")

// NewCoordinator creates a coordinator
func NewCoordinator(deps Deps) *Coordinator {
	if deps.Keywords == nil {
		deps.Keywords = keywords.NewClassifier(nil, nil)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewReadThrough(nil, deps.Logger, deps.Metrics)
	}
	def := model.DefaultConfig().Assessment
	if deps.Config.CoverageTarget <= 0 {
		deps.Config.CoverageTarget = def.CoverageTarget
	}
	if deps.Config.ProviderTimeout <= 0 {
		deps.Config.ProviderTimeout = def.ProviderTimeout
	}
	deps.Logger = deps.Logger.With(zap.String("component", "assess"))
	return &Coordinator{deps: deps}
}

// Assess builds the assessment for req. The only error is a
// *ValidationError for an empty category; provider, parse and cache
// failures degrade the result instead.
func (c *Coordinator) Assess(ctx context.Context, req Request) (*model.EnhancedAssessment, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, model.NewValidationError("category", "must not be empty")
	}

	text := evidenceText(req.Evidence)
	kw := c.deps.Keywords.Classify(text, category)

	a := &model.EnhancedAssessment{
		ID:                uuid.NewString(),
		Category:          category,
		Status:            kw.Status,
		Reason:            kw.Reason,
		Matches:           kw.Matches,
		DataCoverage:      Coverage(len(req.Evidence), c.deps.Config.CoverageTarget),
		EvidenceFor:       []model.EvidenceClaim{},
		EvidenceAgainst:   []model.EvidenceClaim{},
		HowWeCouldBeWrong: []string{},
		KeywordResult:     kw,
		TrendAnomalies:    anomaliesFor(category, req.Anomalies),
		Principles:        model.DefaultPrinciples(),
	}

	if req.AIEnabled && len(c.deps.Providers) > 0 && len(req.Evidence) > 0 {
		if framing, used, ok := c.framing(ctx, category, kw, text, req.Evidence); ok {
			merge(a, kw, framing, used)
		}
	}

	if req.DebateEnabled && c.deps.Debate != nil && debate.Eligible(a.Status) {
		result := c.deps.Debate.Run(ctx, debate.Request{
			Category: category,
			Status:   a.Status,
			Evidence: req.Evidence,
		})
		a.Debate = &result
	}

	a.AssessedAt = c.deps.Now()
	c.deps.Metrics.ObserveAssessment(category, string(a.Status))
	c.deps.Logger.Info("assessment complete",
		zap.String("category", category),
		zap.String("status", string(a.Status)),
		zap.String("keyword_status", string(kw.Status)),
		zap.Strings("providers", a.ProvidersUsed),
		zap.Float64("coverage", a.DataCoverage))
	return a, nil
}

type cachedFraming struct {
	Framing       *Framing `json:"framing"`
	ProvidersUsed []string `json:"providersUsed"`
}

// framing returns the chosen framing, read through the cache
func (c *Coordinator) framing(ctx context.Context, category string, kw model.TierMatchResult, text string, evidence []model.EvidenceItem) (*Framing, []string, bool) {
	key := cache.AssessKey(category, evidence)

	data, hit, err := c.deps.Cache.Get(ctx, key, c.deps.CacheTTL, func(ctx context.Context) ([]byte, error) {
		passages := extract.NewPassageExtractor(c.deps.Keywords, c.deps.Keywords.EntriesBySeverity(category)).
			Extract(text, maxPassages)
		prompt := framingPrompt(category, kw, passages, extract.NumberedEvidence(evidence, 0))

		results := fanOut(ctx, c.deps.Providers, prompt, len(evidence), c.deps.Config.ProviderTimeout, c.deps.Metrics)

		var used []string
		for _, r := range results {
			if r.Err != nil {
				c.deps.Logger.Warn("provider framing failed",
					zap.String("category", category),
					zap.String("provider", r.Provider),
					zap.Error(r.Err))
				continue
			}
			used = append(used, r.Provider)
		}

		chosen, ok := choose(results, c.deps.Preferred)
		if !ok {
			return nil, errNoFraming
		}
		return json.Marshal(cachedFraming{Framing: chosen, ProvidersUsed: used})
	})
	if err != nil {
		c.deps.Logger.Warn("AI framing unavailable, keeping keyword result",
			zap.String("category", category), zap.Error(err))
		return nil, nil, false
	}

	var cached cachedFraming
	if err := json.Unmarshal(data, &cached); err != nil || cached.Framing == nil {
		c.deps.Cache.Invalidate(ctx, key)
		c.deps.Logger.Warn("discarding unreadable cached framing", zap.String("key", key), zap.Error(err))
		return nil, nil, false
	}
	c.deps.Logger.Debug("framing resolved", zap.String("category", category), zap.Bool("cache_hit", hit))
	return cached.Framing, cached.ProvidersUsed, true
}

// merge folds a framing into the assessment; status only ever rises
func merge(a *model.EnhancedAssessment, kw model.TierMatchResult, f *Framing, used []string) {
	a.Status = model.MaxStatus(kw.Status, f.Status)
	switch {
	case a.Status != kw.Status:
		a.Reason = fmt.Sprintf("AI framing (%s) escalated %s to %s: %s", f.Provider, kw.Status, a.Status, f.Reason)
	case f.Reason != "":
		a.Reason = kw.Reason + ". AI framing (" + f.Provider + "): " + f.Reason
	}

	a.EvidenceFor = append(a.EvidenceFor, f.EvidenceFor...)
	a.EvidenceAgainst = append(a.EvidenceAgainst, f.EvidenceAgainst...)
	if len(f.HowWeCouldBeWrong) > 0 {
		a.HowWeCouldBeWrong = append([]string(nil), f.HowWeCouldBeWrong...)
	}
	a.Confidence = f.Confidence
	a.ProvidersUsed = used
}

// Coverage is min(n/target, 1)
func Coverage(n, target int) float64 {
	if target <= 0 || n <= 0 {
		return 0
	}
	return min(float64(n)/float64(target), 1)
}

func evidenceText(items []model.EvidenceItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if t := extract.VisibleText(item.Content()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func anomaliesFor(category string, all []model.Anomaly) []model.Anomaly {
	var out []model.Anomaly
	for _, an := range all {
		if an.Category == category {
			out = append(out, an)
		}
	}
	return out
}
