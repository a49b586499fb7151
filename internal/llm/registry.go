package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/erosion/internal/model"
	"go.uber.org/zap"
)

// Registry holds the configured providers in role order. The preferred
// provider comes first so it argues as prosecutor and is tried first for
// framing.
type Registry struct {
	providers []Provider
	preferred string
}

// NewRegistry orders providers with preferred first, keeping the relative
// order of the rest
func NewRegistry(providers []Provider, preferred string) *Registry {
	ordered := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			ordered = append(ordered, p)
		}
	}

	preferred = strings.ToLower(preferred)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name() == preferred && ordered[j].Name() != preferred
	})

	return &Registry{providers: ordered, preferred: preferred}
}

// BuildRegistry constructs every provider in cfg. A provider that fails to
// construct (typically a missing key) is skipped with a warning.
func BuildRegistry(ctx context.Context, cfg model.LLMConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	var providers []Provider
	for _, pc := range cfg.Providers {
		p, err := NewProvider(ctx, ConfigFromModel(pc), logger)
		if err != nil {
			logger.Warn("skipping provider", zap.String("provider", pc.Name), zap.Error(err))
			continue
		}
		if p != nil {
			providers = append(providers, p)
		}
	}

	return NewRegistry(providers, cfg.Preferred)
}

// Providers returns the ordered providers
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Preferred returns the preferred provider name
func (r *Registry) Preferred() string {
	return r.preferred
}

// Len returns the number of providers
func (r *Registry) Len() int {
	return len(r.providers)
}

// Available returns only the providers whose availability check passes
func (r *Registry) Available(ctx context.Context) []Provider {
	var out []Provider
	for _, p := range r.providers {
		if p.IsAvailable(ctx) {
			out = append(out, p)
		}
	}
	return out
}

// Names returns the provider names in order
func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// String describes the registry for log output
func (r *Registry) String() string {
	return fmt.Sprintf("providers=[%s] preferred=%s", strings.Join(r.Names(), ","), r.preferred)
}
