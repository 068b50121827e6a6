package facetapi

import (
	"fmt"
	"iter"
)

// FacetType is the key a facet is registered under on its holder.
type FacetType string

// Facet is one unit of metadata or behavior attached to a holder. Concrete
// facets embed Base, which supplies the bookkeeping methods.
type Facet interface {
	// FacetType is the key the facet is stored under.
	FacetType() FacetType
	// FacetAliasType is an optional second key resolving to the same facet.
	FacetAliasType() FacetType
	// HolderID is the arena index of the owning holder, zero when detached.
	HolderID() HolderID
	// Underlying is the facet this one decorates, if any.
	Underlying() Facet
	// SetUnderlying links a facet of the same type underneath this one.
	SetUnderlying(Facet) error
	IsDerived() bool
	IsFallback() bool
	// AlwaysReplace reports whether the facet displaces a non-fallback facet
	// of the same type, keeping it as Underlying.
	AlwaysReplace() bool
	AddContributedFacet(Facet)
	ContributedFacets() iter.Seq[Facet]
	// AppendAttributes adds the facet's diagnostic attributes to attrs.
	AppendAttributes(attrs map[string]any)

	base() *Base
}

// Option configures a Base.
type Option func(*Base)

// WithAlias registers the facet under a second type as well.
func WithAlias(alias FacetType) Option {
	return func(b *Base) { b.aliasType = alias }
}

// Derived marks a facet inferred from other metadata rather than declared.
func Derived() Option {
	return func(b *Base) { b.derived = true }
}

// AsFallback marks a default that any other facet of the type displaces.
func AsFallback() Option {
	return func(b *Base) { b.fallback = true }
}

// ReplacingAlways marks a facet that displaces an existing non-fallback facet.
func ReplacingAlways() Option {
	return func(b *Base) { b.alwaysReplace = true }
}

// Base carries the state shared by every facet.
type Base struct {
	facetType     FacetType
	aliasType     FacetType
	holder        HolderID
	underlying    Facet
	contributed   []Facet
	derived       bool
	fallback      bool
	alwaysReplace bool
}

// NewBase returns the embeddable state of a facet of type t.
func NewBase(t FacetType, opts ...Option) Base {
	b := Base{facetType: t}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *Base) FacetType() FacetType      { return b.facetType }
func (b *Base) FacetAliasType() FacetType { return b.aliasType }
func (b *Base) HolderID() HolderID        { return b.holder }
func (b *Base) Underlying() Facet         { return b.underlying }
func (b *Base) IsDerived() bool           { return b.derived }
func (b *Base) IsFallback() bool          { return b.fallback }
func (b *Base) AlwaysReplace() bool       { return b.alwaysReplace }

func (b *Base) base() *Base { return b }

// SetUnderlying links f underneath this facet. f must be of the same type.
func (b *Base) SetUnderlying(f Facet) error {
	if f != nil && f.FacetType() != b.facetType {
		return &StructuralError{
			Kind:      InvalidFacet,
			FacetType: b.facetType,
			Message:   fmt.Sprintf("cannot chain a %s underneath", f.FacetType()),
		}
	}
	b.underlying = f
	return nil
}

// AddContributedFacet records a facet contributed to this one by a mixin or
// decorator. Contributions are informational and not indexed by the holder.
func (b *Base) AddContributedFacet(f Facet) {
	b.contributed = append(b.contributed, f)
}

// ContributedFacets iterates the contributed facets in insertion order.
func (b *Base) ContributedFacets() iter.Seq[Facet] {
	return func(yield func(Facet) bool) {
		for _, f := range b.contributed {
			if !yield(f) {
				return
			}
		}
	}
}

// AppendAttributes writes the common attributes. Concrete facets that
// override it call it first.
func (b *Base) AppendAttributes(attrs map[string]any) {
	attrs["facet"] = string(b.facetType)
	if b.aliasType != "" {
		attrs["alias"] = string(b.aliasType)
	}
	if b.derived {
		attrs["derived"] = true
	}
	if b.fallback {
		attrs["fallback"] = true
	}
	if b.alwaysReplace {
		attrs["always_replace"] = true
	}
	if b.underlying != nil {
		attrs["underlying"] = fmt.Sprintf("%T", b.underlying)
	}
}

// Attributes collects the attributes of f into a fresh map.
func Attributes(f Facet) map[string]any {
	attrs := map[string]any{}
	f.AppendAttributes(attrs)
	return attrs
}

// Chained iterates f followed by its chain of underlying facets.
func Chained(f Facet) iter.Seq[Facet] {
	return func(yield func(Facet) bool) {
		for cur := f; cur != nil; cur = cur.Underlying() {
			if !yield(cur) {
				return
			}
		}
	}
}
