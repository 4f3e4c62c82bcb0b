// Package registry holds the current component catalog in memory for the
// commands that query it, and notifies watchers when it is regenerated.
package registry

import (
	"sync"
	"time"

	"github.com/conneroisu/metagen/internal/catalog"
)

// ComponentRegistry manages the records of the current catalog
type ComponentRegistry struct {
	records  []catalog.ComponentMeta
	byName   map[string]int
	bySlug   map[string]int
	mutex    sync.RWMutex
	watchers []chan ComponentEvent
}

// ComponentEvent represents a change in the component registry
type ComponentEvent struct {
	Type      EventType
	Count     int
	Timestamp time.Time
}

// EventType represents the type of component event
type EventType int

const (
	// EventTypeReplaced is sent after the whole catalog was swapped.
	EventTypeReplaced EventType = iota
)

// String returns the wire name of the event type.
func (t EventType) String() string {
	switch t {
	case EventTypeReplaced:
		return "catalog"
	default:
		return "unknown"
	}
}

// NewComponentRegistry creates a new component registry
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		byName:   make(map[string]int),
		bySlug:   make(map[string]int),
		watchers: make([]chan ComponentEvent, 0),
	}
}

// Replace swaps in a freshly generated catalog, keeping its order. When two
// records share a name or slug, lookups return the first.
func (r *ComponentRegistry) Replace(records []catalog.ComponentMeta) {
	copied := make([]catalog.ComponentMeta, len(records))
	copy(copied, records)

	byName := make(map[string]int, len(copied))
	bySlug := make(map[string]int, len(copied))
	for i, rec := range copied {
		if _, dup := byName[rec.Name]; !dup {
			byName[rec.Name] = i
		}
		if _, dup := bySlug[rec.Slug]; !dup {
			bySlug[rec.Slug] = i
		}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.records = copied
	r.byName = byName
	r.bySlug = bySlug

	event := ComponentEvent{
		Type:      EventTypeReplaced,
		Count:     len(copied),
		Timestamp: time.Now(),
	}

	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Get retrieves a component by name
func (r *ComponentRegistry) Get(name string) (catalog.ComponentMeta, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	i, exists := r.byName[name]
	if !exists {
		return catalog.ComponentMeta{}, false
	}
	return r.records[i], true
}

// GetBySlug retrieves a component by slug
func (r *ComponentRegistry) GetBySlug(slug string) (catalog.ComponentMeta, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	i, exists := r.bySlug[slug]
	if !exists {
		return catalog.ComponentMeta{}, false
	}
	return r.records[i], true
}

// All returns the registered components in catalog order
func (r *ComponentRegistry) All() []catalog.ComponentMeta {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]catalog.ComponentMeta, len(r.records))
	copy(result, r.records)
	return result
}

// Names returns the component names in catalog order
func (r *ComponentRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		names = append(names, rec.Name)
	}
	return names
}

// Watch returns a channel that receives component events
func (r *ComponentRegistry) Watch() <-chan ComponentEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan ComponentEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *ComponentRegistry) UnWatch(ch <-chan ComponentEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered components
func (r *ComponentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.records)
}
