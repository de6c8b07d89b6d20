package fields

import (
	"context"
	"fmt"
)

// Hook names a lifecycle moment observers can attach to.
type Hook string

const (
	HookBeforeSave  Hook = "before-save"
	HookAfterCreate Hook = "after-create"
	HookAfterUpdate Hook = "after-update"
	HookAfterDelete Hook = "after-delete"
)

// Observer is a startup-registered lifecycle callback. A before-save
// observer returning an error vetoes the write; errors from the after
// hooks are surfaced to the caller but the write has already happened.
type Observer func(ctx context.Context, entity Entity, record interface{}) error

// Observe appends an observer for the entity's hook. Observers run in
// registration order.
func (r *Registry) Observe(entity Entity, hook Hook, fn Observer) error {
	if fn == nil {
		return fmt.Errorf("observer requires a callback")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.observers == nil {
		r.observers = make(map[Entity]map[Hook][]Observer)
	}
	if r.observers[entity] == nil {
		r.observers[entity] = make(map[Hook][]Observer)
	}
	r.observers[entity][hook] = append(r.observers[entity][hook], fn)
	return nil
}

// Notify runs the entity's observers for the hook in registration order,
// stopping at the first error.
func (r *Registry) Notify(ctx context.Context, entity Entity, hook Hook, record interface{}) error {
	r.mu.RLock()
	observers := r.observers[entity][hook]
	r.mu.RUnlock()
	for _, fn := range observers {
		if err := fn(ctx, entity, record); err != nil {
			return err
		}
	}
	return nil
}
