package search

import (
	"fmt"
	"strings"
	"sync"
)

// Engine describes the configured search engine.
type Engine struct {
	Type     string
	Endpoint string
}

// Builder creates a Searcher for an engine config.
type Builder func(cfg Engine, client HTTPClient, log Logger) (Searcher, error)

// Registry maps engine types to builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with an engine type.
func (r *Registry) Register(typ string, builder Builder) {
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// SearcherFor builds the searcher for cfg.
func (r *Registry) SearcherFor(cfg Engine, client HTTPClient, log Logger) (Searcher, error) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	if typ == "" {
		return nil, fmt.Errorf("search engine type is empty")
	}

	r.mu.RLock()
	builder := r.builders[typ]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no search engine registered for type %q", cfg.Type)
	}
	return builder(cfg, client, log)
}

// DefaultRegistry wires up known engines.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Builder{
		TypeDuckDuckGoHTML: func(cfg Engine, client HTTPClient, log Logger) (Searcher, error) {
			return NewDuckDuckGo(cfg.Endpoint, client, log)
		},
	})
}
