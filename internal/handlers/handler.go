// Package handlers implements the capability handlers the dispatcher routes
// sub-queries to. Each handler answers one class of question: web search,
// advisory document retrieval, weather, marketplace lookup, or data analysis.
package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Handler answers one class of sub-query.
type Handler interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, query, convContext string) (string, error)
}

// Registry keys handlers by capability name.
type Registry struct {
	handlers map[string]Handler
	order    []string
	mu       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[h.Name()]; !ok {
		r.order = append(r.order, h.Name())
	}
	r.handlers[h.Name()] = h
}

func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered capability names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Describe renders a "name: description" catalog for classifier prompts.
func (r *Registry) Describe() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var b strings.Builder
	for _, name := range r.order {
		fmt.Fprintf(&b, "- %s: %s\n", name, r.handlers[name].Description())
	}
	return b.String()
}
