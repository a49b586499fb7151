// Package debate runs a staged prosecutor/defense/arbitrator exchange over
// a category's evidence and reduces it to a verdict.
//
// The run is a finite-state machine. Each stage builds its prompt from the
// transcript produced by the previous stage and returns a new transcript;
// no debate state is shared or mutated between stages.
package debate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/erosion/internal/extract"
	"github.com/ppiankov/erosion/internal/llm"
	"github.com/ppiankov/erosion/internal/metrics"
	"github.com/ppiankov/erosion/internal/model"
	"go.uber.org/zap"
)

// Stage is a debate state
type Stage string

const (
	StageOpeningProsecution  Stage = "opening_prosecution"
	StageOpeningDefense      Stage = "opening_defense"
	StageRebuttalProsecution Stage = "rebuttal_prosecution"
	StageRebuttalDefense     Stage = "rebuttal_defense"
	StageArbitration         Stage = "arbitration"
	StageDone                Stage = "done"
)

// next is the fixed stage order
var next = map[Stage]Stage{
	StageOpeningProsecution:  StageOpeningDefense,
	StageOpeningDefense:      StageRebuttalProsecution,
	StageRebuttalProsecution: StageRebuttalDefense,
	StageRebuttalDefense:     StageArbitration,
	StageArbitration:         StageDone,
}

const (
	placeholderArgument = "[No usable argument was produced for this turn.]"
	placeholderSummary  = "The arbitration response could not be parsed, so no considered verdict was reached."
	neutralAgreement    = 5
	minKeyPoints        = 2
	maxKeyPoints        = 4
)

// Options bound each debate run
type Options struct {
	TurnTimeout   time.Duration
	OpeningWords  int
	RebuttalWords int
	MaxEvidence   int // Evidence items included in prompts
}

// OptionsFromConfig converts the debate config section
func OptionsFromConfig(cfg model.DebateConfig) Options {
	return Options{
		TurnTimeout:   cfg.TurnTimeout,
		OpeningWords:  cfg.OpeningWords,
		RebuttalWords: cfg.RebuttalWords,
		MaxEvidence:   cfg.MaxEvidence,
	}
}

func (o Options) withDefaults() Options {
	d := OptionsFromConfig(model.DefaultConfig().Debate)
	if o.TurnTimeout <= 0 {
		o.TurnTimeout = d.TurnTimeout
	}
	if o.OpeningWords <= 0 {
		o.OpeningWords = d.OpeningWords
	}
	if o.RebuttalWords <= 0 {
		o.RebuttalWords = d.RebuttalWords
	}
	if o.MaxEvidence <= 0 {
		o.MaxEvidence = d.MaxEvidence
	}
	return o
}

// Request is one category's debate input
type Request struct {
	Category string
	Status   model.Status
	Evidence []model.EvidenceItem
}

// Eligible reports whether a status warrants a debate
func Eligible(status model.Status) bool {
	return status == model.StatusDrift || status == model.StatusCapture
}

// Engine runs debates against a fixed set of providers
type Engine struct {
	providers []llm.Provider
	opts      Options
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewEngine creates a debate engine. Provider order assigns roles:
// prosecutor = providers[0], defense = providers[1],
// arbitrator = providers[2] when present, otherwise providers[0].
func NewEngine(providers []llm.Provider, opts Options, logger *zap.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		providers: providers,
		opts:      opts.withDefaults(),
		logger:    logger.With(zap.String("component", "debate")),
		metrics:   m,
		now:       time.Now,
	}
}

// state is the value threaded through the machine
type state struct {
	stage      Stage
	transcript model.Transcript
	degraded   bool
	verdict    arbitration
}

type arbitration struct {
	agreementLevel int
	verdict        model.DebateVerdict
	summary        string
	keyPoints      []string
}

// Run executes the debate. It never returns an error: ineligible status
// yields skipped, and missing or failing providers yield
// insufficient_providers.
func (e *Engine) Run(ctx context.Context, req Request) model.DebateResult {
	result := model.DebateResult{
		ID:        uuid.NewString(),
		Category:  req.Category,
		Status:    req.Status,
		StartedAt: e.now(),
	}

	finish := func(outcome model.DebateStatus, reason string) model.DebateResult {
		result.Outcome = outcome
		result.Reason = reason
		result.CompletedAt = e.now()
		e.metrics.ObserveDebate(string(outcome), string(result.Verdict))
		e.logger.Info("debate finished",
			zap.String("category", req.Category),
			zap.String("outcome", string(outcome)),
			zap.String("verdict", string(result.Verdict)),
			zap.Bool("degraded", result.Degraded))
		return result
	}

	if !Eligible(req.Status) {
		return finish(model.DebateSkipped, fmt.Sprintf("status %s does not warrant a debate", req.Status))
	}
	if len(e.providers) < 2 {
		return finish(model.DebateInsufficientProviders,
			fmt.Sprintf("debate needs two independent providers, %d configured", len(e.providers)))
	}

	evidence := extract.NumberedEvidence(req.Evidence, e.opts.MaxEvidence)
	shown := min(len(req.Evidence), e.opts.MaxEvidence)
	st := state{stage: StageOpeningProsecution, transcript: model.Transcript{}}

	for st.stage != StageDone {
		nextState, err := e.step(ctx, req, evidence, shown, st)
		if err != nil {
			// A missing turn cannot be argued against; abort rather than continue stale
			result.Transcript = st.transcript
			result.Degraded = st.degraded
			return finish(model.DebateInsufficientProviders, fmt.Sprintf("%s aborted: %v", st.stage, err))
		}
		st = nextState
	}

	result.Transcript = st.transcript
	result.Degraded = st.degraded
	result.AgreementLevel = st.verdict.agreementLevel
	result.Verdict = st.verdict.verdict
	result.Summary = st.verdict.summary
	result.KeyPoints = st.verdict.keyPoints
	return finish(model.DebateCompleted, "")
}

// step performs the turn for st.stage and returns the following state.
// shown is the number of evidence items numbered in the prompt.
func (e *Engine) step(ctx context.Context, req Request, evidence string, shown int, st state) (state, error) {
	role, provider := e.speaker(st.stage)

	var prompt string
	words := e.opts.RebuttalWords
	switch st.stage {
	case StageOpeningProsecution, StageOpeningDefense:
		words = e.opts.OpeningWords
		prompt = openingPrompt(req, evidence, role, words)
	case StageRebuttalProsecution, StageRebuttalDefense:
		opponent, _ := st.transcript.Last(opposing(role))
		prompt = rebuttalPrompt(req, evidence, opponent, words)
	case StageArbitration:
		prompt = arbitrationPrompt(req, evidence, st.transcript)
	default:
		return st, fmt.Errorf("unknown stage %q", st.stage)
	}

	raw, err := e.call(ctx, provider, prompt, systemPrompts[role])
	if err != nil {
		return st, err
	}

	out := state{stage: next[st.stage], degraded: st.degraded, verdict: st.verdict}
	msg := model.DebateMessage{Role: role, Stage: string(st.stage), Provider: provider.Name()}

	if st.stage == StageArbitration {
		verdict, perr := parseArbitration(raw)
		if perr != nil {
			e.degrade(role, provider, perr)
			verdict = arbitration{agreementLevel: neutralAgreement, verdict: model.VerdictMixed, summary: placeholderSummary, keyPoints: []string{}}
			msg.Degraded = true
			out.degraded = true
		}
		out.verdict = verdict
		msg.Content = verdict.summary
	} else {
		argument, citations, perr := parseArgument(raw, shown)
		if perr != nil {
			e.degrade(role, provider, perr)
			argument, citations = placeholderArgument, nil
			msg.Degraded = true
			out.degraded = true
		}
		msg.Content = truncateWords(argument, words*3/2)
		msg.Citations = citations
	}

	out.transcript = st.transcript.Append(msg)
	return out, nil
}

// speaker returns the role and provider for a stage
func (e *Engine) speaker(stage Stage) (model.DebateRole, llm.Provider) {
	switch stage {
	case StageOpeningDefense, StageRebuttalDefense:
		return model.RoleDefense, e.providers[1]
	case StageArbitration:
		if len(e.providers) > 2 {
			return model.RoleArbitrator, e.providers[2]
		}
		return model.RoleArbitrator, e.providers[0]
	default:
		return model.RoleProsecutor, e.providers[0]
	}
}

func opposing(role model.DebateRole) model.DebateRole {
	if role == model.RoleProsecutor {
		return model.RoleDefense
	}
	return model.RoleProsecutor
}

// call runs one provider turn under the turn timeout
func (e *Engine) call(ctx context.Context, provider llm.Provider, prompt, system string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.TurnTimeout)
	defer cancel()

	start := time.Now()
	raw, err := provider.Complete(ctx, prompt, system)
	elapsed := time.Since(start)

	if err != nil {
		status := "error"
		var perr *llm.ProviderError
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &perr) && perr.Timeout()) {
			status = "timeout"
		}
		e.metrics.ObserveProviderCall(provider.Name(), "debate", status, elapsed)
		e.logger.Warn("debate turn failed", zap.String("provider", provider.Name()), zap.Error(err))
		return "", err
	}

	e.metrics.ObserveProviderCall(provider.Name(), "debate", "ok", elapsed)
	return raw, nil
}

func (e *Engine) degrade(role model.DebateRole, provider llm.Provider, err error) {
	e.metrics.ObserveDegradedTurn(string(role))
	e.logger.Warn("unparseable debate turn replaced with placeholder",
		zap.String("role", string(role)),
		zap.String("provider", provider.Name()),
		zap.Error(err))
}

type advocateResponse struct {
	Argument  string `json:"argument"`
	Citations []int  `json:"citations"`
}

// parseArgument decodes an advocate turn. Citations are 1-based in the
// prompt and returned 0-based; out-of-range and duplicate citations are dropped.
func parseArgument(raw string, evidenceCount int) (string, []int, error) {
	var resp advocateResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		return "", nil, err
	}
	argument := strings.TrimSpace(resp.Argument)
	if argument == "" {
		return "", nil, &llm.ParseError{Raw: raw, Reason: "empty argument"}
	}

	seen := make(map[int]bool, len(resp.Citations))
	citations := make([]int, 0, len(resp.Citations))
	for _, c := range resp.Citations {
		idx := c - 1
		if idx < 0 || idx >= evidenceCount || seen[idx] {
			continue
		}
		seen[idx] = true
		citations = append(citations, idx)
	}
	return argument, citations, nil
}

type arbitratorResponse struct {
	AgreementLevel *float64 `json:"agreementLevel"`
	Verdict        string   `json:"verdict"`
	Summary        string   `json:"summary"`
	KeyPoints      []string `json:"keyPoints"`
}

// parseArbitration decodes the arbitrator turn. Agreement is clamped to
// 1-10 and key points are capped at four; fewer than two is an error.
func parseArbitration(raw string) (arbitration, error) {
	var resp arbitratorResponse
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		return arbitration{}, err
	}

	verdict := model.DebateVerdict(strings.ToLower(strings.TrimSpace(resp.Verdict)))
	if !verdict.Valid() {
		return arbitration{}, &llm.ParseError{Raw: raw, Reason: fmt.Sprintf("invalid verdict %q", resp.Verdict)}
	}
	if resp.AgreementLevel == nil {
		return arbitration{}, &llm.ParseError{Raw: raw, Reason: "missing agreementLevel"}
	}
	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		return arbitration{}, &llm.ParseError{Raw: raw, Reason: "empty summary"}
	}

	// clamp before converting; huge values overflow int
	level := int(math.Round(max(1, min(10, *resp.AgreementLevel))))

	keyPoints := make([]string, 0, maxKeyPoints)
	for _, p := range resp.KeyPoints {
		if p = strings.TrimSpace(p); p != "" && len(keyPoints) < maxKeyPoints {
			keyPoints = append(keyPoints, p)
		}
	}
	if len(keyPoints) < minKeyPoints {
		return arbitration{}, &llm.ParseError{Raw: raw, Reason: fmt.Sprintf("%d key points, need at least %d", len(keyPoints), minKeyPoints)}
	}

	return arbitration{
		agreementLevel: level,
		verdict:        verdict,
		summary:        summary,
		keyPoints:      keyPoints,
	}, nil
}
