package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/rs/zerolog/log"
)

// Router manages suggestion providers and routing
type Router struct {
	providers       map[string]Provider
	defaultProvider string
	fallback        Provider
	mu              sync.RWMutex
}

// NewRouter creates a router with the local provider registered as fallback
func NewRouter(defaultProvider string) *Router {
	local := NewLocalProvider()
	r := &Router{
		providers:       make(map[string]Provider),
		defaultProvider: defaultProvider,
		fallback:        local,
	}
	r.providers[local.Name()] = local
	return r
}

// RegisterProvider registers a suggestion provider
func (r *Router) RegisterProvider(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// GetProvider returns a provider by name
func (r *Router) GetProvider(name string) (Provider, error) {
	if name == "" {
		name = r.defaultProvider
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}

	if !p.IsConfigured() {
		return nil, fmt.Errorf("provider not configured: %s", name)
	}

	return p, nil
}

// ListProviders returns list of configured provider names
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var providers []string
	for name, p := range r.providers {
		if p.IsConfigured() {
			providers = append(providers, name)
		}
	}
	return providers
}

// DefaultProvider returns the default provider name
func (r *Router) DefaultProvider() string {
	return r.defaultProvider
}

// Generate builds a plan with the default provider, falling back to the
// local provider when it is missing, unconfigured or fails.
func (r *Router) Generate(ctx context.Context, prefs domain.Preferences) (json.RawMessage, error) {
	provider, err := r.GetProvider("")
	if err != nil {
		log.Warn().Err(err).Msg("Default generator unavailable, using local planner")
		provider = r.fallback
	}

	suggestions, err := provider.Suggest(ctx, prefs)
	if err != nil && provider != r.fallback {
		log.Warn().Err(err).Str("provider", provider.Name()).Msg("Generator failed, using local planner")
		provider = r.fallback
		suggestions, err = provider.Suggest(ctx, prefs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate itinerary: %w", err)
	}

	plan := Assemble(prefs, suggestions, provider.Name())
	data, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal itinerary: %w", err)
	}
	return data, nil
}
