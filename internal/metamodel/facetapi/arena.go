package facetapi

import (
	"fmt"
	"sync"
)

// Arena owns every holder of a metamodel. Facets refer back to their holder
// by HolderID, which the arena resolves.
type Arena struct {
	mu      sync.RWMutex
	holders []*Holder
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	// index 0 is reserved for "no holder"
	return &Arena{holders: []*Holder{nil}}
}

// NewHolder allocates a holder for the feature named by id.
func (a *Arena) NewHolder(id Identifier, featureType FeatureType) *Holder {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := &Holder{
		id:          HolderID(len(a.holders)),
		arena:       a,
		identifier:  id,
		featureType: featureType,
		facets:      make(map[FacetType]Facet),
		aliases:     make(map[FacetType]FacetType),
	}
	a.holders = append(a.holders, h)
	return h
}

// Holder resolves an id, or returns nil.
func (a *Arena) Holder(id HolderID) *Holder {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if id == 0 || int(id) >= len(a.holders) {
		return nil
	}
	return a.holders[id]
}

// HolderOf returns the holder f is attached to, or nil.
func (a *Arena) HolderOf(f Facet) *Holder {
	return a.Holder(f.HolderID())
}

// Reparent moves f onto target. The previous holder drops f if it is active
// there.
func (a *Arena) Reparent(f Facet, target *Holder) (AddResult, error) {
	if target == nil || target.arena != a {
		return AddResult{}, &StructuralError{
			Kind:      MissingHolder,
			FacetType: f.FacetType(),
			Message:   "target holder is not owned by this arena",
		}
	}
	return target.AddFacet(f)
}

// detach removes f from the holder it is currently attached to, unless that
// holder is target.
func (a *Arena) detach(f Facet, target *Holder) {
	current := f.HolderID()
	if current == 0 || current == target.id {
		return
	}
	if old := a.Holder(current); old != nil && old.facets[f.FacetType()] == f {
		old.remove(f)
	}
}

// Seal seals every holder allocated so far.
func (a *Arena) Seal() {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, h := range a.holders[1:] {
		h.Seal()
	}
}

// Len returns the number of holders.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.holders) - 1
}

// String implements fmt.Stringer
func (a *Arena) String() string {
	return fmt.Sprintf("Arena{holders: %d}", a.Len())
}
