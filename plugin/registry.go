package plugin

import (
	"fmt"
	"sort"
	"sync"

	graph "github.com/cafeclimber/graph-prototype"
)

// Factory builds a named block instance from construction parameters.
type Factory func(name string, params map[string]interface{}) (graph.Block, error)

// Registry maps block type names to factories. The zero value is ready
// to use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// AddBlockType registers a factory. Registering the same type twice
// replaces the factory.
func (r *Registry) AddBlockType(blockType string, factory Factory) {
	r.mu.Lock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	r.factories[blockType] = factory
	r.mu.Unlock()
}

// ProvidedBlocks returns the registered block type names, sorted.
func (r *Registry) ProvidedBlocks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// CreateBlock builds a named block of blockType.
func (r *Registry) CreateBlock(name, blockType string, params map[string]interface{}) (graph.Block, error) {
	r.mu.RLock()
	factory, ok := r.factories[blockType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, blockType)
	}
	return factory(name, params)
}
