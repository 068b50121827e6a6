package facetapi

import (
	"fmt"
	"iter"
)

// HolderID indexes a holder in its arena. The zero value names no holder.
type HolderID uint32

// AddOption modifies a single AddFacet call.
type AddOption func(*addOptions)

type addOptions struct {
	chain bool
}

// Chain keeps an existing non-fallback facet underneath the incoming one
// instead of discarding the incoming facet.
func Chain() AddOption {
	return func(o *addOptions) { o.chain = true }
}

// AddResult describes what AddFacet did.
type AddResult struct {
	// Added is false when an existing facet kept precedence.
	Added bool
	// Replaced is the previously active facet, if any was displaced.
	Replaced Facet
	// Chained is true when Replaced was kept as the Underlying of the new facet.
	Chained bool
}

// Holder carries the facets of one feature.
type Holder struct {
	id          HolderID
	arena       *Arena
	identifier  Identifier
	featureType FeatureType
	facets      map[FacetType]Facet
	// aliases maps an alias type onto the primary type holding it.
	aliases map[FacetType]FacetType
	sealed  bool
}

// ID returns the holder's arena index.
func (h *Holder) ID() HolderID { return h.id }

// Identifier returns the identifier of the feature.
func (h *Holder) Identifier() Identifier { return h.identifier }

// FeatureType returns the kind of feature.
func (h *Holder) FeatureType() FeatureType { return h.featureType }

// IsSealed reports whether the holder has been published.
func (h *Holder) IsSealed() bool { return h.sealed }

// AddFacet attaches f under its facet type, applying the precedence rules:
// an absent type stores f; an existing fallback is replaced; an existing
// non-fallback is kept underneath f when f always replaces or Chain is
// given, otherwise f is discarded. A fallback never displaces a non-fallback.
func (h *Holder) AddFacet(f Facet, opts ...AddOption) (AddResult, error) {
	if h.sealed {
		return AddResult{}, h.structural(Sealed, f.FacetType(), "facets cannot be added after publication")
	}
	t := f.FacetType()
	if t == "" {
		return AddResult{}, h.structural(InvalidFacet, t, fmt.Sprintf("%T has no facet type", f))
	}
	if err := h.checkAliases(f); err != nil {
		return AddResult{}, err
	}

	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}

	existing := h.facets[t]
	if existing == f {
		return AddResult{}, nil
	}
	if old := h.arena.Holder(f.HolderID()); old != nil && old != h && old.sealed {
		return AddResult{}, old.structural(Sealed, t, "facet cannot be moved off a published holder")
	}

	switch {
	case existing == nil:
		h.store(f)
		return AddResult{Added: true}, nil
	case existing.IsFallback():
		h.dropAlias(existing)
		h.store(f)
		existing.base().holder = 0
		return AddResult{Added: true, Replaced: existing}, nil
	case f.IsFallback():
		return AddResult{}, nil
	case f.AlwaysReplace() || o.chain:
		if err := f.SetUnderlying(existing); err != nil {
			return AddResult{}, err
		}
		h.dropAlias(existing)
		h.store(f)
		return AddResult{Added: true, Replaced: existing, Chained: true}, nil
	default:
		return AddResult{}, nil
	}
}

// checkAliases rejects f if its type or alias clashes with another facet.
func (h *Holder) checkAliases(f Facet) error {
	t := f.FacetType()
	if primary, ok := h.aliases[t]; ok && primary != t {
		return h.structural(AliasCollision, t,
			fmt.Sprintf("type is already registered as an alias of %s", primary))
	}
	alias := f.FacetAliasType()
	if alias == "" {
		return nil
	}
	if alias == t {
		return h.structural(AliasCollision, t, "alias equals the facet's own type")
	}
	if _, ok := h.facets[alias]; ok {
		return h.structural(AliasCollision, t,
			fmt.Sprintf("alias %s is already registered as a facet type", alias))
	}
	if primary, ok := h.aliases[alias]; ok && primary != t {
		return h.structural(AliasCollision, t,
			fmt.Sprintf("alias %s is already registered for %s", alias, primary))
	}
	return nil
}

func (h *Holder) store(f Facet) {
	h.arena.detach(f, h)
	t := f.FacetType()
	h.facets[t] = f
	if alias := f.FacetAliasType(); alias != "" {
		h.aliases[alias] = t
	}
	f.base().holder = h.id
}

func (h *Holder) dropAlias(f Facet) {
	if alias := f.FacetAliasType(); alias != "" && h.aliases[alias] == f.FacetType() {
		delete(h.aliases, alias)
	}
}

// RemoveFacet detaches the active facet of type t and returns it.
func (h *Holder) RemoveFacet(t FacetType) (Facet, error) {
	if h.sealed {
		return nil, h.structural(Sealed, t, "facets cannot be removed after publication")
	}
	f := h.Facet(t)
	if f == nil {
		return nil, nil
	}
	h.remove(f)
	return f, nil
}

func (h *Holder) remove(f Facet) {
	delete(h.facets, f.FacetType())
	h.dropAlias(f)
	f.base().holder = 0
}

// Facet returns the active facet registered under t, as primary type or
// alias, or nil.
func (h *Holder) Facet(t FacetType) Facet {
	if f, ok := h.facets[t]; ok {
		return f
	}
	if primary, ok := h.aliases[t]; ok {
		return h.facets[primary]
	}
	return nil
}

// Contains reports whether a facet of type t is active.
func (h *Holder) Contains(t FacetType) bool {
	return h.Facet(t) != nil
}

// ContainsNonFallback reports whether an active facet of type t is not a fallback.
func (h *Holder) ContainsNonFallback(t FacetType) bool {
	return h.LookupNonFallback(t) != nil
}

// LookupNonFallback returns the active facet of type t unless it is a fallback.
func (h *Holder) LookupNonFallback(t FacetType) Facet {
	f := h.Facet(t)
	if f == nil || f.IsFallback() {
		return nil
	}
	return f
}

// Facets iterates the active facets, fallbacks included, in no defined order.
func (h *Holder) Facets() iter.Seq[Facet] {
	return func(yield func(Facet) bool) {
		for _, f := range h.facets {
			if !yield(f) {
				return
			}
		}
	}
}

// Len returns the number of active facets.
func (h *Holder) Len() int {
	return len(h.facets)
}

// Seal publishes the holder; later mutation fails.
func (h *Holder) Seal() {
	h.sealed = true
}

func (h *Holder) structural(kind StructuralErrorKind, t FacetType, msg string) *StructuralError {
	return &StructuralError{Kind: kind, Identifier: h.identifier, FacetType: t, Message: msg}
}

// Lookup returns the active facet of type t as F.
func Lookup[F Facet](h *Holder, t FacetType) (F, bool) {
	var zero F
	if h == nil {
		return zero, false
	}
	f, ok := h.Facet(t).(F)
	if !ok {
		return zero, false
	}
	return f, true
}

// LookupNonFallback returns the active non-fallback facet of type t as F.
func LookupNonFallback[F Facet](h *Holder, t FacetType) (F, bool) {
	var zero F
	if h == nil {
		return zero, false
	}
	f, ok := h.LookupNonFallback(t).(F)
	if !ok {
		return zero, false
	}
	return f, true
}

// Find returns the first active facet implementing F, whatever its type.
func Find[F any](h *Holder) (F, bool) {
	var zero F
	if h == nil {
		return zero, false
	}
	for f := range h.Facets() {
		if c, ok := f.(F); ok {
			return c, true
		}
	}
	return zero, false
}
