package assess

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/erosion/internal/llm"
	"github.com/ppiankov/erosion/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// ProviderResult is one provider's contribution to a fan-out.
// Exactly one of Framing and Err is set.
type ProviderResult struct {
	Provider string
	Framing  *Framing
	Err      error
	Elapsed  time.Duration
}

// fanOut asks every provider concurrently, each under its own timeout.
// Results keep provider order; a failure never cancels the other calls.
func fanOut(ctx context.Context, providers []llm.Provider, prompt string, evidenceCount int, timeout time.Duration, m *metrics.Metrics) []ProviderResult {
	results := make([]ProviderResult, len(providers))

	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			results[i] = frame(ctx, p, prompt, evidenceCount, timeout, m)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func frame(ctx context.Context, p llm.Provider, prompt string, evidenceCount int, timeout time.Duration, m *metrics.Metrics) ProviderResult {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := p.Complete(callCtx, prompt, framingSystemPrompt)
	res := ProviderResult{Provider: p.Name(), Elapsed: time.Since(start)}
	if err != nil {
		res.Err = err
		m.ObserveProviderCall(p.Name(), "framing", callStatus(err), res.Elapsed)
		return res
	}

	res.Framing, res.Err = parseFraming(raw, p.Name(), evidenceCount)
	if res.Err != nil {
		m.ObserveProviderCall(p.Name(), "framing", "parse_error", res.Elapsed)
		return res
	}
	m.ObserveProviderCall(p.Name(), "framing", "ok", res.Elapsed)
	return res
}

func callStatus(err error) string {
	var perr *llm.ProviderError
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &perr) && perr.Timeout()) {
		return "timeout"
	}
	return "error"
}

// choose returns the preferred provider's framing when it succeeded,
// otherwise the first success in provider order
func choose(results []ProviderResult, preferred string) (*Framing, bool) {
	var first *Framing
	for _, r := range results {
		if r.Err != nil || r.Framing == nil {
			continue
		}
		if r.Provider == preferred {
			return r.Framing, true
		}
		if first == nil {
			first = r.Framing
		}
	}
	return first, first != nil
}
