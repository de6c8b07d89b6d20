// Package fields is the typed extension point that lets plugins contribute
// additional persisted properties to an entity at startup, and observe
// entity lifecycle moments through registered callbacks. Together these
// replace the runtime filter and action hooks of older sign-up systems.
package fields

import (
	"fmt"
	"sort"
	"sync"

	"github.com/noah-isme/signup-sheets-api/internal/models"
	"github.com/noah-isme/signup-sheets-api/internal/sanitize"
)

// Entity names a registrable entity type.
type Entity string

const (
	EntitySheet    Entity = "sheet"
	EntityTask     Entity = "task"
	EntitySignup   Entity = "signup"
	EntityTemplate Entity = "template"
)

// Field declares one extension property: its storage key, the sanitize rule
// applied on save, and the default used when absent.
type Field struct {
	Name     string
	Type     sanitize.Type
	Default  string
	Required bool
	Label    string
}

// Registry holds startup-registered extension fields and lifecycle
// observers per entity. Safe for concurrent reads after registration;
// registration itself happens during boot before requests are served.
type Registry struct {
	mu        sync.RWMutex
	fields    map[Entity]map[string]Field
	observers map[Entity]map[Hook][]Observer
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{fields: make(map[Entity]map[string]Field)}
}

// Register adds a field for the entity. Re-registering the same name wins
// over the earlier declaration, matching the old new-style-filter precedence.
func (r *Registry) Register(entity Entity, f Field) error {
	if f.Name == "" {
		return fmt.Errorf("extension field requires a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fields[entity] == nil {
		r.fields[entity] = make(map[string]Field)
	}
	r.fields[entity][f.Name] = f
	return nil
}

// Fields returns the registered fields for an entity in stable name order.
func (r *Registry) Fields(entity Entity) []Field {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Field, 0, len(r.fields[entity]))
	for _, f := range r.fields[entity] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Apply sanitizes the incoming extra values against the registered schema.
// Unregistered keys are discarded; missing fields take their default. A
// missing required field is reported by label so callers can surface an
// inline form error.
func (r *Registry) Apply(entity Entity, raw map[string]string) (models.ExtraFields, []string) {
	declared := r.Fields(entity)
	if len(declared) == 0 {
		return nil, nil
	}
	out := make(models.ExtraFields, len(declared))
	var missing []string
	for _, f := range declared {
		value, ok := raw[f.Name]
		if !ok || value == "" {
			if f.Required {
				label := f.Label
				if label == "" {
					label = f.Name
				}
				missing = append(missing, label)
				continue
			}
			value = f.Default
		}
		out[f.Name] = sanitize.Value(f.Type, value)
	}
	return out, missing
}
