// Package tracking records the stored state of entities: which pojos a store
// has attached, under which identifier, and what their persisted properties
// held when last read or written.
package tracking

import (
	"math/big"
	"reflect"
	"slices"
	"sync"

	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// Snapshot maps property ids onto values.
type Snapshot map[string]any

// Take copies the values of props read from pojo.
func Take(props []*spec.Property, pojo any) Snapshot {
	snap := make(Snapshot, len(props))
	for _, p := range props {
		snap[p.ID()] = deepCopyValue(p.Value(pojo))
	}
	return snap
}

// Apply writes snap back onto pojo, each value copied.
func (s Snapshot) Apply(props []*spec.Property, pojo any) error {
	for _, p := range props {
		v, ok := s[p.ID()]
		if !ok {
			continue
		}
		if err := p.SetValue(pojo, deepCopyValue(v)); err != nil {
			return err
		}
	}
	return nil
}

// deepCopyValue copies v so later mutation of either side is not shared.
// Mutable big numbers are cloned, other pointers get a copy of their
// element.
func deepCopyValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *big.Rat:
		if x == nil {
			return x
		}
		return new(big.Rat).Set(x)
	case *big.Int:
		if x == nil {
			return x
		}
		return new(big.Int).Set(x)
	}

	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Pointer:
		if val.IsNil() || val.Elem().Kind() == reflect.Struct && hasPointers(val.Elem().Type()) {
			// entity references keep their identity
			return v
		}
		p := reflect.New(val.Elem().Type())
		p.Elem().Set(val.Elem())
		return p.Interface()
	case reflect.Slice:
		if val.IsNil() {
			return v
		}
		cp := reflect.MakeSlice(val.Type(), val.Len(), val.Len())
		reflect.Copy(cp, val)
		return cp.Interface()
	case reflect.Map:
		if val.IsNil() {
			return v
		}
		cp := reflect.MakeMapWithSize(val.Type(), val.Len())
		iter := val.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), iter.Value())
		}
		return cp.Interface()
	default:
		return v
	}
}

func hasPointers(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		switch t.Field(i).Type.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
			return true
		}
	}
	return false
}

// deepEqual compares two values for equality, handling nil and big numbers
func deepEqual(a, b any) bool {
	if isNil(a) && isNil(b) {
		return true
	}
	if isNil(a) || isNil(b) {
		return false
	}
	switch x := a.(type) {
	case *big.Rat:
		y, ok := b.(*big.Rat)
		return ok && x.Cmp(y) == 0
	case *big.Int:
		y, ok := b.(*big.Int)
		return ok && x.Cmp(y) == 0
	}
	return reflect.DeepEqual(a, b)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// FieldChange represents a change to a single property
type FieldChange struct {
	Property string
	OldValue any
	NewValue any
}

// ChangeTracker compares the stored state of an entity with its current
// state.
type ChangeTracker struct {
	mu       sync.RWMutex
	original Snapshot
	current  Snapshot
	changes  map[string]*FieldChange
}

// NewChangeTracker creates a tracker of the changes from original to
// current.
func NewChangeTracker(original, current Snapshot) *ChangeTracker {
	ct := &ChangeTracker{
		original: copySnapshot(original),
		current:  copySnapshot(current),
		changes:  make(map[string]*FieldChange),
	}
	ct.computeChanges()
	return ct
}

func copySnapshot(s Snapshot) Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = deepCopyValue(v)
	}
	return out
}

func (ct *ChangeTracker) computeChanges() {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	for id, newValue := range ct.current {
		oldValue, had := ct.original[id]
		if !had || !deepEqual(oldValue, newValue) {
			ct.changes[id] = &FieldChange{Property: id, OldValue: oldValue, NewValue: newValue}
		}
	}
	for id, oldValue := range ct.original {
		if _, exists := ct.current[id]; !exists {
			ct.changes[id] = &FieldChange{Property: id, OldValue: oldValue}
		}
	}
}

// Changed returns true if the property has changed
func (ct *ChangeTracker) Changed(id string) bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	_, ok := ct.changes[id]
	return ok
}

// ChangedProperties returns the ids of the changed properties, sorted.
func (ct *ChangeTracker) ChangedProperties() []string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	ids := make([]string, 0, len(ct.changes))
	for id := range ct.changes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// PreviousValue returns the stored value of a property
func (ct *ChangeTracker) PreviousValue(id string) any {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.original[id]
}

// GetChange returns the FieldChange for a property, or nil if unchanged
func (ct *ChangeTracker) GetChange(id string) *FieldChange {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.changes[id]
}

// HasChanges returns true if any property has changed
func (ct *ChangeTracker) HasChanges() bool {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return len(ct.changes) > 0
}

// GetChangedData returns only the changed properties with their new values.
// Stores use it to write minimal updates.
func (ct *ChangeTracker) GetChangedData() Snapshot {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	out := make(Snapshot, len(ct.changes))
	for id, change := range ct.changes {
		out[id] = change.NewValue
	}
	return out
}

// Reset makes the current state the stored state
func (ct *ChangeTracker) Reset() {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	ct.original = copySnapshot(ct.current)
	ct.changes = make(map[string]*FieldChange)
}
