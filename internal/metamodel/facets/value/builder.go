package value

import (
	"reflect"

	"github.com/conduit-lang/metamodel/internal/metamodel/facetapi"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// Builder assembles a Facet from capabilities.
type Builder struct {
	f Facet
}

// NewBuilder starts a facet for base type t. Values of a pointer type are
// nullable.
func NewBuilder(t reflect.Type) *Builder {
	b := &Builder{}
	b.f.adapted = t
	b.f.base = t
	b.f.nullable = t.Kind() == reflect.Pointer
	b.f.immutable = true
	b.f.equalByContent = true
	return b
}

// PointerForm adapts *T instead of T, where a nil pointer means absent.
func (b *Builder) PointerForm() *Builder {
	b.f.adapted = reflect.PointerTo(b.f.base)
	b.f.pointerForm = true
	b.f.nullable = true
	return b
}

func (b *Builder) Parser(p Parser) *Builder {
	b.f.parser = p
	return b
}

func (b *Builder) EncoderDecoder(e EncoderDecoder) *Builder {
	b.f.encoder = e
	return b
}

func (b *Builder) Defaults(d DefaultsProvider) *Builder {
	b.f.defaults = d
	return b
}

func (b *Builder) Titles(t TitleFormatter) *Builder {
	b.f.titles = t
	return b
}

// Capabilities sets every capability p implements.
func (b *Builder) Capabilities(p any) *Builder {
	if c, ok := p.(Parser); ok {
		b.f.parser = c
	}
	if c, ok := p.(EncoderDecoder); ok {
		b.f.encoder = c
	}
	if c, ok := p.(DefaultsProvider); ok {
		b.f.defaults = c
	}
	if c, ok := p.(TitleFormatter); ok {
		b.f.titles = c
	}
	return b
}

// Lengths sets the typical and maximum text lengths; zero max means unbounded.
func (b *Builder) Lengths(typical, max int) *Builder {
	b.f.typicalLength = typical
	b.f.maxLength = max
	return b
}

func (b *Builder) Mutable() *Builder {
	b.f.immutable = false
	return b
}

func (b *Builder) EqualByIdentity() *Builder {
	b.f.equalByContent = false
	return b
}

// Build returns the facet, registered under FacetType with the alias
// EncodableFacetType. Value facets never always-replace.
func (b *Builder) Build(specs spec.SpecificationLoader) *Facet {
	f := &Facet{
		adapted:        b.f.adapted,
		base:           b.f.base,
		pointerForm:    b.f.pointerForm,
		nullable:       b.f.nullable,
		typicalLength:  b.f.typicalLength,
		maxLength:      b.f.maxLength,
		immutable:      b.f.immutable,
		equalByContent: b.f.equalByContent,
		parser:         b.f.parser,
		encoder:        b.f.encoder,
		defaults:       b.f.defaults,
		titles:         b.f.titles,
		specs:          specs,
	}
	f.Base = facetapi.NewBase(FacetType, facetapi.WithAlias(EncodableFacetType))
	return f
}
