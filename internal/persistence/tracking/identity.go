package tracking

import (
	"reflect"
	"sync"

	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// Entry is what a store knows of one pojo.
type Entry struct {
	ID       string
	State    spec.EntityState
	Snapshot Snapshot
}

type typeKey struct {
	t  reflect.Type
	id string
}

// IdentityMap tracks pojos by pointer identity. Only pointer pojos can be
// tracked; anything else is reported transient.
type IdentityMap struct {
	mu       sync.RWMutex
	entries  map[any]*Entry
	attached map[typeKey]any
}

// NewIdentityMap creates an empty identity map
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{
		entries:  make(map[any]*Entry),
		attached: make(map[typeKey]any),
	}
}

func trackable(pojo any) bool {
	if pojo == nil {
		return false
	}
	v := reflect.ValueOf(pojo)
	return v.Kind() == reflect.Pointer && !v.IsNil()
}

// State reports the lifecycle state of pojo.
func (m *IdentityMap) State(pojo any) spec.EntityState {
	if !trackable(pojo) {
		return spec.Transient
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[pojo]; ok {
		return e.State
	}
	return spec.Transient
}

// Identify returns the id of an attached or detached pojo.
func (m *IdentityMap) Identify(pojo any) (string, bool) {
	if !trackable(pojo) {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[pojo]
	if !ok || (e.State != spec.Attached && e.State != spec.Detached) {
		return "", false
	}
	return e.ID, true
}

// Entry returns a copy of what is tracked for pojo.
func (m *IdentityMap) Entry(pojo any) (Entry, bool) {
	if !trackable(pojo) {
		return Entry{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[pojo]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Attached returns the attached pojo of type t stored under id.
func (m *IdentityMap) Attached(t reflect.Type, id string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pojo, ok := m.attached[typeKey{t, id}]
	return pojo, ok
}

// Attach records pojo as attached under id with snap as its stored state.
// A different pojo previously attached under the same id is detached.
func (m *IdentityMap) Attach(pojo any, id string, snap Snapshot) {
	if !trackable(pojo) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := typeKey{reflect.TypeOf(pojo), id}
	if prev, ok := m.attached[key]; ok && prev != pojo {
		m.entries[prev].State = spec.Detached
	}
	m.attached[key] = pojo
	m.entries[pojo] = &Entry{ID: id, State: spec.Attached, Snapshot: snap}
}

// Detach moves an attached pojo to detached. It reports whether pojo was
// attached.
func (m *IdentityMap) Detach(pojo any) bool {
	return m.leave(pojo, spec.Detached)
}

// Destroy marks an attached pojo as deleted.
func (m *IdentityMap) Destroy(pojo any) bool {
	return m.leave(pojo, spec.Destroyed)
}

func (m *IdentityMap) leave(pojo any, state spec.EntityState) bool {
	if !trackable(pojo) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[pojo]
	if !ok || e.State != spec.Attached {
		return false
	}
	e.State = state
	key := typeKey{reflect.TypeOf(pojo), e.ID}
	if m.attached[key] == pojo {
		delete(m.attached, key)
	}
	return true
}

// Forget drops every trace of pojo.
func (m *IdentityMap) Forget(pojo any) {
	if !trackable(pojo) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[pojo]; ok {
		key := typeKey{reflect.TypeOf(pojo), e.ID}
		if m.attached[key] == pojo {
			delete(m.attached, key)
		}
		delete(m.entries, pojo)
	}
}
