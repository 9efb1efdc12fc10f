package pipeline

import (
	"fmt"
	"sync"
)

// Registry stores generators by name, preserving registration order so
// priority ties keep their discovery order at run time.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
	order      []string
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
	}
}

// Register adds a generator by its Name(). Duplicate names return an error.
func (r *Registry) Register(gen Generator) error {
	if gen == nil {
		return fmt.Errorf("pipeline: generator is required")
	}
	name := gen.Name()
	if name == "" {
		return fmt.Errorf("pipeline: generator name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[name]; exists {
		return fmt.Errorf("pipeline: generator %q already registered", name)
	}
	r.generators[name] = gen
	r.order = append(r.order, name)
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(gen Generator) {
	if err := r.Register(gen); err != nil {
		panic(err)
	}
}

// Get retrieves a generator by name.
func (r *Registry) Get(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gen, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("pipeline: generator %q not found", name)
	}
	return gen, nil
}

// All returns every registered generator in registration order.
func (r *Registry) All() []Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Generator, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.generators[name])
	}
	return out
}

// Has reports whether a generator is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.generators[name]
	return ok
}
