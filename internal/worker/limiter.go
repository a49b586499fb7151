package worker

import (
	"context"
	"sync"

	"github.com/ppiankov/erosion/internal/llm"
	"github.com/ppiankov/erosion/internal/model"
	"golang.org/x/time/rate"
)

// Limiter paces calls per key (one key per AI provider)
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter. A non-positive rate means unlimited.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  toLimit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// LimiterFromConfig creates a limiter with each provider's configured rate
func LimiterFromConfig(cfg model.LLMConfig) *Limiter {
	l := NewLimiter(0, 0)
	for _, pc := range cfg.Providers {
		if pc.RequestsPerSecond > 0 {
			l.SetRate(pc.Name, pc.RequestsPerSecond, 1)
		}
	}
	return l
}

func toLimit(rps float64) rate.Limit {
	if rps <= 0 {
		return rate.Inf
	}
	return rate.Limit(rps)
}

// Wait blocks until key may proceed or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.getLimiter(key).Wait(ctx)
}

// Allow reports whether key may proceed now, consuming a token if so
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[key] = limiter
	return limiter
}

// SetRate sets a custom rate for key
func (l *Limiter) SetRate(key string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[key] = rate.NewLimiter(toLimit(requestsPerSecond), burst)
}

// Throttle wraps provider so every Complete call first waits on the
// limiter under the provider's name
func Throttle(provider llm.Provider, l *Limiter) llm.Provider {
	if l == nil {
		return provider
	}
	return &throttledProvider{Provider: provider, limiter: l}
}

// ThrottleAll wraps every provider with the same limiter
func ThrottleAll(providers []llm.Provider, l *Limiter) []llm.Provider {
	out := make([]llm.Provider, len(providers))
	for i, p := range providers {
		out[i] = Throttle(p, l)
	}
	return out
}

type throttledProvider struct {
	llm.Provider
	limiter *Limiter
}

func (p *throttledProvider) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if err := p.limiter.Wait(ctx, p.Name()); err != nil {
		return "", &llm.ProviderError{Provider: p.Name(), Err: err}
	}
	return p.Provider.Complete(ctx, prompt, systemPrompt)
}
