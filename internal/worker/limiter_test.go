package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/erosion/internal/llm"
	"github.com/ppiankov/erosion/internal/model"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("anthropic") {
			t.Fatalf("unlimited limiter rejected call %d", i)
		}
	}
}

func TestLimiter_PerKey(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("openai") {
		t.Errorf("first call should pass")
	}
	if limiter.Allow("openai") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}
	if !limiter.Allow("anthropic") {
		t.Errorf("expected allow for another provider")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetRate("ollama", 0.1, 1)

	if !limiter.Allow("ollama") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("ollama") {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("openai") {
		t.Errorf("other provider should pass")
	}
}

func TestLimiterFromConfig(t *testing.T) {
	limiter := LimiterFromConfig(model.LLMConfig{Providers: []model.LLMProviderConfig{
		{Name: "openai", RequestsPerSecond: 0.1},
		{Name: "anthropic"},
	}})

	limiter.Allow("openai")
	if limiter.Allow("openai") {
		t.Errorf("configured provider should be rate limited")
	}
	for i := 0; i < 20; i++ {
		if !limiter.Allow("anthropic") {
			t.Fatalf("provider without a rate should be unlimited")
		}
	}
}

type countingProvider struct {
	calls int
}

func (p *countingProvider) Name() string { return "openai" }
func (p *countingProvider) IsAvailable(context.Context) bool { return true }
func (p *countingProvider) Complete(context.Context, string, string) (string, error) {
	p.calls++
	return "{}", nil
}

func TestThrottle(t *testing.T) {
	inner := &countingProvider{}
	limiter := NewLimiter(0.01, 1)
	p := Throttle(inner, limiter)

	if p.Name() != "openai" {
		t.Errorf("expected wrapped name, got %s", p.Name())
	}
	if _, err := p.Complete(context.Background(), "prompt", ""); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Complete(ctx, "prompt", "")

	var perr *llm.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError when the wait is cut short, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call to reach the provider, got %d", inner.calls)
	}

	if Throttle(inner, nil) != llm.Provider(inner) {
		t.Errorf("nil limiter should return the provider unchanged")
	}
}
